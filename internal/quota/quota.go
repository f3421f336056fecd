// Package quota implements the weekly/hourly usage and pay-as-you-go
// overflow accounting of spec §4.10 (C10). Counter persistence follows
// ncecere-raito's internal/http/middleware.go rateLimitMiddleware, which
// keys a Redis INCR by a formatted time window and sets the key's TTL on
// the first hit of that window ("if count == 1, set TTL") — the same
// shape is kept for the hourly burst counter, while per-class weekly
// counts use a Redis hash (HINCRBY per class, EXPIRE refreshed on every
// write).
package quota

import (
	"context"
	"fmt"
	"time"
)

// Class is a billing/usage class; extra-usage overflow is charged at a
// per-class rate (spec §4.10).
type Class string

const (
	ClassBasic   Class = "basic"
	ClassStealth Class = "stealth"
	ClassCaptcha Class = "captcha"
	ClassSearch  Class = "search"
)

// extraUsageRates are the per-request overflow charges of spec §4.10.
var extraUsageRates = map[Class]float64{
	ClassBasic:   0.002,
	ClassStealth: 0.01,
	ClassCaptcha: 0.02,
	ClassSearch:  0.001,
}

// Limits are the plan parameters the caller supplies; they are not
// persisted by this package (the HTTP layer builds them from the
// configured quota defaults, the same for every API key).
type Limits struct {
	WeeklyLimit       int64
	BurstLimit        int64
	ExtraUsageEnabled bool
	Balance           float64
	SpendingLimit     float64
}

// BurstInfo describes the current hourly burst bucket state.
type BurstInfo struct {
	Limit     int64         `json:"limit"`
	Count     int64         `json:"count"`
	Remaining int64         `json:"remaining"`
	ResetsIn  time.Duration `json:"resetsIn"`
}

// Decision is the outcome of a quota Check.
type Decision struct {
	Allowed      bool
	HardBlocked  bool
	SoftLimited  bool
	Downgrade    bool
	Charged      float64
	RetryAfter   time.Duration
	Burst        BurstInfo
	WeeklyUsed   int64
	RolloverUsed int64
}

// Store is the persistence boundary for quota counters, implemented by
// Redis in production (redisstore.go) and by an in-memory fake in tests.
type Store interface {
	// IncrBurst increments the hourly burst counter for apiKeyID and
	// returns the post-increment count, setting a 1-hour TTL on first
	// write to the bucket.
	IncrBurst(ctx context.Context, apiKeyID, hourLabel string) (int64, error)
	// BurstCount reads the current hourly burst counter without
	// incrementing it (used when hard-blocking to report state).
	BurstCount(ctx context.Context, apiKeyID, hourLabel string) (int64, error)

	// IncrWeekly increments the per-class weekly counter and returns the
	// new per-class count and the new week total.
	IncrWeekly(ctx context.Context, apiKeyID, weekLabel string, class Class) (classCount, total int64, err error)
	// WeeklyTotal reads the current week total without incrementing.
	WeeklyTotal(ctx context.Context, apiKeyID, weekLabel string) (int64, error)

	// RolloverCredits returns the stored rollover credit for the week,
	// and whether it has been set yet.
	RolloverCredits(ctx context.Context, apiKeyID, weekLabel string) (int64, bool, error)
	// SetRolloverCredits stores the rollover credit for the week, but
	// only if unset (first writer wins).
	SetRolloverCredits(ctx context.Context, apiKeyID, weekLabel string, credits int64) error

	// RecordExtraUsage appends a billing log entry and adds amount to
	// the week's extra-usage spend; it does not change Limits.Balance.
	RecordExtraUsage(ctx context.Context, apiKeyID string, class Class, amount float64) error
}

// currentWeek derives the ISO year-week label used as the weekly bucket
// key, per spec §4.10.
func currentWeek(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// previousWeek derives the ISO year-week label for the week before now.
func previousWeek(now time.Time) string {
	return currentWeek(now.AddDate(0, 0, -7))
}

// currentHour derives the UTC hour bucket label, per spec §4.10.
func currentHour(now time.Time) string {
	return now.UTC().Format("2006-01-02T15")
}

func resetsIn(now time.Time) time.Duration {
	next := now.UTC().Truncate(time.Hour).Add(time.Hour)
	return next.Sub(now.UTC())
}

// Engine evaluates quota decisions against a Store.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Check implements spec §4.10's per-request quota algorithm: derive the
// current week/hour, enforce the burst bucket (hard-block on
// exhaustion), compute weekly usage plus rollover, and either allow,
// charge pay-as-you-go overflow, or soft-limit (permit with a forced
// downgrade).
func (e *Engine) Check(ctx context.Context, apiKeyID string, class Class, limits Limits, now time.Time) (Decision, error) {
	weekLabel := currentWeek(now)
	prevWeekLabel := previousWeek(now)
	hourLabel := currentHour(now)

	burstCount, err := e.store.IncrBurst(ctx, apiKeyID, hourLabel)
	if err != nil {
		return Decision{}, err
	}
	burst := BurstInfo{
		Limit:     limits.BurstLimit,
		Count:     burstCount,
		Remaining: limits.BurstLimit - burstCount,
		ResetsIn:  resetsIn(now),
	}
	if burst.Remaining < 0 {
		burst.Remaining = 0
	}

	if limits.BurstLimit > 0 && burstCount > limits.BurstLimit {
		return Decision{
			Allowed:     false,
			HardBlocked: true,
			Burst:       burst,
			RetryAfter:  burst.ResetsIn,
		}, nil
	}

	if _, hasRollover, err := e.store.RolloverCredits(ctx, apiKeyID, weekLabel); err != nil {
		return Decision{}, err
	} else if !hasRollover {
		prevUsed, err := e.store.WeeklyTotal(ctx, apiKeyID, prevWeekLabel)
		if err != nil {
			return Decision{}, err
		}
		credit := limits.WeeklyLimit - prevUsed
		if credit < 0 {
			credit = 0
		}
		if credit > limits.WeeklyLimit {
			credit = limits.WeeklyLimit
		}
		if err := e.store.SetRolloverCredits(ctx, apiKeyID, weekLabel, credit); err != nil {
			return Decision{}, err
		}
	}

	rollover, _, err := e.store.RolloverCredits(ctx, apiKeyID, weekLabel)
	if err != nil {
		return Decision{}, err
	}

	weekTotal, err := e.store.WeeklyTotal(ctx, apiKeyID, weekLabel)
	if err != nil {
		return Decision{}, err
	}

	effectiveLimit := limits.WeeklyLimit + rollover
	remaining := effectiveLimit - weekTotal
	allowed := remaining > 0

	if allowed {
		if _, _, err := e.store.IncrWeekly(ctx, apiKeyID, weekLabel, class); err != nil {
			return Decision{}, err
		}
		return Decision{
			Allowed:      true,
			Burst:        burst,
			WeeklyUsed:   weekTotal + 1,
			RolloverUsed: rollover,
		}, nil
	}

	if limits.ExtraUsageEnabled && limits.Balance > 0 {
		rate := extraUsageRates[class]
		spent, err := e.extraSpent(ctx, apiKeyID, weekLabel)
		if err != nil {
			return Decision{}, err
		}
		if spent < limits.SpendingLimit {
			if err := e.store.RecordExtraUsage(ctx, apiKeyID, class, rate); err != nil {
				return Decision{}, err
			}
			return Decision{
				Allowed:      true,
				Charged:      rate,
				Burst:        burst,
				WeeklyUsed:   weekTotal,
				RolloverUsed: rollover,
			}, nil
		}
	}

	return Decision{
		Allowed:      true,
		SoftLimited:  true,
		Downgrade:    true,
		Burst:        burst,
		WeeklyUsed:   weekTotal,
		RolloverUsed: rollover,
	}, nil
}

// extraSpent reads the week's extra-usage spend through an optional
// ExtraSpent method on the Store (RedisStore provides one); a Store
// without it reports zero spend. Check charges extra usage only while
// spend is below SpendingLimit, so a zero SpendingLimit disables
// extra-usage charging rather than lifting the cap.
func (e *Engine) extraSpent(ctx context.Context, apiKeyID, weekLabel string) (float64, error) {
	type spendReader interface {
		ExtraSpent(ctx context.Context, apiKeyID, weekLabel string) (float64, error)
	}
	if sr, ok := e.store.(spendReader); ok {
		return sr.ExtraSpent(ctx, apiKeyID, weekLabel)
	}
	return 0, nil
}
