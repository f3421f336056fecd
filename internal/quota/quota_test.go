package quota

import (
	"context"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory Store used only by tests; production code
// always runs against RedisStore.
type memStore struct {
	mu        sync.Mutex
	burst     map[string]int64
	weekly    map[string]map[Class]int64
	rollover  map[string]int64
	hasRoll   map[string]bool
	spent     map[string]float64
	billing   []string
}

func newMemStore() *memStore {
	return &memStore{
		burst:    make(map[string]int64),
		weekly:   make(map[string]map[Class]int64),
		rollover: make(map[string]int64),
		hasRoll:  make(map[string]bool),
		spent:    make(map[string]float64),
	}
}

func (m *memStore) IncrBurst(_ context.Context, apiKeyID, hourLabel string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := apiKeyID + "|" + hourLabel
	m.burst[key]++
	return m.burst[key], nil
}

func (m *memStore) BurstCount(_ context.Context, apiKeyID, hourLabel string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.burst[apiKeyID+"|"+hourLabel], nil
}

func (m *memStore) IncrWeekly(_ context.Context, apiKeyID, weekLabel string, class Class) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := apiKeyID + "|" + weekLabel
	if m.weekly[key] == nil {
		m.weekly[key] = make(map[Class]int64)
	}
	m.weekly[key][class]++
	var total int64
	for _, v := range m.weekly[key] {
		total += v
	}
	return m.weekly[key][class], total, nil
}

func (m *memStore) WeeklyTotal(_ context.Context, apiKeyID, weekLabel string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := apiKeyID + "|" + weekLabel
	var total int64
	for _, v := range m.weekly[key] {
		total += v
	}
	return total, nil
}

func (m *memStore) RolloverCredits(_ context.Context, apiKeyID, weekLabel string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := apiKeyID + "|" + weekLabel
	return m.rollover[key], m.hasRoll[key], nil
}

func (m *memStore) SetRolloverCredits(_ context.Context, apiKeyID, weekLabel string, credits int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := apiKeyID + "|" + weekLabel
	if m.hasRoll[key] {
		return nil
	}
	m.rollover[key] = credits
	m.hasRoll[key] = true
	return nil
}

func (m *memStore) RecordExtraUsage(_ context.Context, apiKeyID string, class Class, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	weekLabel := currentWeek(time.Now())
	key := apiKeyID + "|" + weekLabel
	m.spent[key] += amount
	m.billing = append(m.billing, string(class))
	return nil
}

func (m *memStore) ExtraSpent(_ context.Context, apiKeyID, weekLabel string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spent[apiKeyID+"|"+weekLabel], nil
}

func TestCheckAllowsUnderWeeklyLimit(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	limits := Limits{WeeklyLimit: 100, BurstLimit: 1000}

	decision, err := engine.Check(context.Background(), "key1", ClassBasic, limits, time.Now())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed || decision.SoftLimited || decision.HardBlocked {
		t.Fatalf("expected plain allow, got %+v", decision)
	}
}

func TestCheckHardBlocksOverBurstLimit(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	limits := Limits{WeeklyLimit: 1000, BurstLimit: 2}

	now := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := engine.Check(context.Background(), "key1", ClassBasic, limits, now); err != nil {
			t.Fatalf("Check: %v", err)
		}
	}
	decision, err := engine.Check(context.Background(), "key1", ClassBasic, limits, now)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Allowed || !decision.HardBlocked {
		t.Fatalf("expected hard block, got %+v", decision)
	}
	if decision.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", decision.RetryAfter)
	}
}

func TestCheckSoftLimitsWhenOverWeeklyAndNoExtraUsage(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	limits := Limits{WeeklyLimit: 1, BurstLimit: 1000}

	now := time.Now()
	// A fresh key's unused previous week rolls over a full allotment, so
	// the pool is WeeklyLimit 1 + rollover 1 = 2 requests.
	for i := 0; i < 2; i++ {
		if _, err := engine.Check(context.Background(), "key1", ClassBasic, limits, now); err != nil {
			t.Fatalf("Check: %v", err)
		}
	}
	decision, err := engine.Check(context.Background(), "key1", ClassBasic, limits, now)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed || !decision.SoftLimited || !decision.Downgrade {
		t.Fatalf("expected soft-limited downgrade, got %+v", decision)
	}
}

func TestCheckChargesExtraUsageWhenEnabled(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	limits := Limits{
		WeeklyLimit:       1,
		BurstLimit:        1000,
		ExtraUsageEnabled: true,
		Balance:           10,
		SpendingLimit:     1,
	}

	now := time.Now()
	// Exhaust WeeklyLimit 1 plus the full rollover allotment a fresh key
	// gets from its unused previous week.
	for i := 0; i < 2; i++ {
		if _, err := engine.Check(context.Background(), "key1", ClassBasic, limits, now); err != nil {
			t.Fatalf("Check: %v", err)
		}
	}
	decision, err := engine.Check(context.Background(), "key1", ClassStealth, limits, now)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed || decision.SoftLimited {
		t.Fatalf("expected extra-usage allow, got %+v", decision)
	}
	if decision.Charged != extraUsageRates[ClassStealth] {
		t.Fatalf("expected charge at stealth rate, got %f", decision.Charged)
	}
}

func TestCheckRolloverCreditsFromPreviousWeek(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	limits := Limits{WeeklyLimit: 10, BurstLimit: 1000}

	lastWeek := time.Now().AddDate(0, 0, -7)
	for i := 0; i < 4; i++ {
		if _, err := engine.Check(context.Background(), "key1", ClassBasic, limits, lastWeek); err != nil {
			t.Fatalf("Check: %v", err)
		}
	}

	decision, err := engine.Check(context.Background(), "key1", ClassBasic, limits, time.Now())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.RolloverUsed <= 0 {
		t.Fatalf("expected positive rollover credit from underused previous week, got %+v", decision)
	}
}

func TestCheckBurstResetsInNextHour(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	limits := Limits{WeeklyLimit: 1000, BurstLimit: 5}

	decision, err := engine.Check(context.Background(), "key1", ClassBasic, limits, time.Now())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Burst.ResetsIn <= 0 || decision.Burst.ResetsIn > time.Hour {
		t.Fatalf("expected resetsIn within the hour, got %v", decision.Burst.ResetsIn)
	}
}
