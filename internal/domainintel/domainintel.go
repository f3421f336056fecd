// Package domainintel tracks per-host fetch outcomes and recommends a
// starting fetch method for subsequent requests (C1, spec §4.2). It is
// grounded on Easonliuliang-purify's engine/domain_memory.go: a sync.Map
// keyed by host with a background pruning loop, generalized from a single
// remembered engine name to full per-method success/failure counters so
// recommend() can apply the spec's threshold rule instead of purify's
// sticky last-winner rule.
package domainintel

import (
	"net/url"
	"sync"
	"time"

	"webpeel/internal/model"
)

// Recommendation is the advisory starting method returned by Recommend.
// Zero value Recommendation{} means "no opinion".
type Recommendation struct {
	Method model.Method
	Opinion bool
}

type counters struct {
	mu        sync.Mutex
	successes map[model.Method]int64
	failures  map[model.Method]int64
	lastSeen  time.Time
}

// Memory holds per-host DomainStats. Updates are counter increments under
// a per-host lock (not a read-modify-write across hosts), matching the
// spec's "atomic, may be lossy under contention" note for this component.
type Memory struct {
	store sync.Map // host (string) -> *counters
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

// New creates a Memory whose per-host entries expire after ttl of
// inactivity. A background goroutine prunes expired hosts hourly.
func New(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	m := &Memory{ttl: ttl, done: make(chan struct{})}
	go m.cleanupLoop()
	return m
}

// RecordSuccess increments the success counter for host/method.
func (m *Memory) RecordSuccess(rawURL string, method model.Method) {
	m.record(rawURL, method, true)
}

// RecordFailure increments the failure counter for host/method.
func (m *Memory) RecordFailure(rawURL string, method model.Method) {
	m.record(rawURL, method, false)
}

func (m *Memory) record(rawURL string, method model.Method, ok bool) {
	host := hostOf(rawURL)
	if host == "" {
		return
	}
	entry := m.entry(host)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if ok {
		entry.successes[method]++
	} else {
		entry.failures[method]++
	}
	entry.lastSeen = time.Now()
}

func (m *Memory) entry(host string) *counters {
	if v, ok := m.store.Load(host); ok {
		return v.(*counters)
	}
	fresh := &counters{
		successes: make(map[model.Method]int64),
		failures:  make(map[model.Method]int64),
		lastSeen:  time.Now(),
	}
	actual, _ := m.store.LoadOrStore(host, fresh)
	return actual.(*counters)
}

// Stats returns a snapshot of the DomainStats for host, or ok=false if
// nothing has been recorded (or the entry expired).
func (m *Memory) Stats(rawURL string) (model.DomainStats, bool) {
	host := hostOf(rawURL)
	v, ok := m.store.Load(host)
	if !ok {
		return model.DomainStats{}, false
	}
	entry := v.(*counters)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if time.Since(entry.lastSeen) > m.ttl {
		m.store.Delete(host)
		return model.DomainStats{}, false
	}
	stats := model.DomainStats{
		Successes: cloneCounts(entry.successes),
		Failures:  cloneCounts(entry.failures),
		LastSeen:  entry.lastSeen,
	}
	return stats, true
}

// Recommend implements the spec §4.2 rule: if the simple-HTTP failure
// rate exceeds 50% and the browser tier has at least one recorded
// success, recommend browser; else if every rendered attempt on record
// failed and stealth has at least one recorded success, recommend
// stealth; otherwise return no opinion.
func (m *Memory) Recommend(rawURL string) Recommendation {
	stats, ok := m.Stats(rawURL)
	if !ok {
		return Recommendation{}
	}

	simpleAttempts := stats.Successes[model.MethodSimple] + stats.Failures[model.MethodSimple]
	if simpleAttempts > 0 {
		failRate := float64(stats.Failures[model.MethodSimple]) / float64(simpleAttempts)
		if failRate > 0.5 && stats.Successes[model.MethodBrowser] > 0 {
			return Recommendation{Method: model.MethodBrowser, Opinion: true}
		}
	}

	renderedAttempts := stats.Successes[model.MethodBrowser] + stats.Failures[model.MethodBrowser]
	if renderedAttempts > 0 && stats.Successes[model.MethodBrowser] == 0 && stats.Successes[model.MethodStealth] > 0 {
		return Recommendation{Method: model.MethodStealth, Opinion: true}
	}

	return Recommendation{}
}

// Stop terminates the background cleanup goroutine. Safe to call more
// than once.
func (m *Memory) Stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now()
			m.store.Range(func(key, value any) bool {
				entry := value.(*counters)
				entry.mu.Lock()
				expired := now.Sub(entry.lastSeen) > m.ttl
				entry.mu.Unlock()
				if expired {
					m.store.Delete(key)
				}
				return true
			})
		}
	}
}

func cloneCounts(src map[model.Method]int64) map[model.Method]int64 {
	dst := make(map[model.Method]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
