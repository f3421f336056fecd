package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"webpeel/internal/domainintel"
	"webpeel/internal/model"
)

// Dispatcher runs the escalation/race algorithm of spec §4.3 steps 2-9.
// Cache short-circuiting (step 1) and revalidation claiming live one
// layer up in the orchestrator (C13), which already holds the PeelResult
// cache and is the only caller in a position to decide "fresh, stale, or
// miss" before any fetch tier runs; Dispatcher itself is unconditionally
// a cache-miss path.
type Dispatcher struct {
	domains *domainintel.Memory

	simple  Engine
	browser Engine
	stealth Engine

	fallbacks []Engine // tried in order, e.g. cf-worker, peeltls, google-cache

	raceTimeout time.Duration
}

// Config wires the concrete engines and fallback chain. Fallbacks is
// ordered per spec §4.3 step 8 (a, b, c) and may be shorter than three
// entries if a fallback source isn't configured (e.g. no worker URL).
type Config struct {
	Domains     *domainintel.Memory
	Simple      Engine
	Browser     Engine
	Stealth     Engine
	Fallbacks   []Engine
	RaceTimeout time.Duration
}

func NewDispatcher(cfg Config) *Dispatcher {
	raceTimeout := cfg.RaceTimeout
	if raceTimeout <= 0 {
		raceTimeout = 2 * time.Second
	}
	return &Dispatcher{
		domains:     cfg.Domains,
		simple:      cfg.Simple,
		browser:     cfg.Browser,
		stealth:     cfg.Stealth,
		fallbacks:   cfg.Fallbacks,
		raceTimeout: raceTimeout,
	}
}

// SmartFetch implements the escalation algorithm: simple HTTP first
// (unless render/stealth/screenshot is forced), optionally racing a
// browser fetch after raceTimeout, escalating through browser and
// stealth tiers, and finally trying the configured fallback chain if
// every tier returned a challenge page or failed outright.
func (d *Dispatcher) SmartFetch(ctx context.Context, req Request) (*Result, error) {
	override := model.Method("")
	if d.domains != nil {
		if rec := d.domains.Recommend(req.URL); rec.Opinion {
			override = rec.Method
		}
	}

	forceRender := req.Render || req.Stealth || req.Screenshot

	var result *Result
	var challengeSeen bool
	var lastErr error
	attempted := make(map[model.Method]bool, 4)

	tryTier := func(engine Engine) bool {
		if engine == nil || attempted[engine.Name()] {
			return false
		}
		attempted[engine.Name()] = true
		r, err := withRetry(ctx, func(ctx context.Context) (*Result, error) { return engine.Fetch(ctx, req) })
		if err != nil {
			lastErr = err
			d.record(req.URL, engine.Name(), false)
			d.logFailure(ctx, engine.Name(), req.URL, err)
			return false
		}
		if r.ChallengeDetected {
			challengeSeen = true
			result = r
			d.record(req.URL, engine.Name(), false)
			return false
		}
		d.record(req.URL, engine.Name(), true)
		result = r
		return true
	}

	switch {
	case override == model.MethodStealth:
		if tryTier(d.stealth) {
			return result, nil
		}
	case override == model.MethodBrowser:
		if tryTier(d.browser) {
			return result, nil
		}
	}

	if !forceRender {
		if req.raceEnabled() {
			if d.simple != nil {
				attempted[d.simple.Name()] = true
			}
			if d.browser != nil {
				attempted[d.browser.Name()] = true
			}
			if r, ok := d.race(ctx, req); ok {
				return r, nil
			}
		} else if tryTier(d.simple) {
			return result, nil
		}
	}

	if req.Stealth {
		if tryTier(d.stealth) {
			return result, nil
		}
	} else {
		if tryTier(d.browser) {
			return result, nil
		}
		if tryTier(d.stealth) {
			return result, nil
		}
	}

	for _, fb := range d.fallbacks {
		if tryTier(fb) {
			return result, nil
		}
	}

	if result != nil {
		result.ChallengeDetected = challengeSeen || result.ChallengeDetected
		return result, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("fetch: all tiers failed for %s and no fallback produced a response", req.URL)
}

// race runs the simple-HTTP tier immediately and, if it hasn't resolved
// after raceTimeout, starts the browser tier in parallel, taking whichever
// succeeds first — grounded on Easonliuliang-purify's engine/dispatcher.go
// race() method (escalation-delayed goroutines racing over a channel).
func (d *Dispatcher) race(ctx context.Context, req Request) (*Result, bool) {
	type outcome struct {
		result *Result
		method model.Method
		err    error
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, 2)
	var wg sync.WaitGroup

	launch := func(engine Engine, delay time.Duration) {
		if engine == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if delay > 0 {
				select {
				case <-raceCtx.Done():
					return
				case <-time.After(delay):
				}
			}
			select {
			case <-raceCtx.Done():
				return
			default:
			}
			r, err := withRetry(raceCtx, func(ctx context.Context) (*Result, error) { return engine.Fetch(ctx, req) })
			results <- outcome{result: r, method: engine.Name(), err: err}
		}()
	}

	launch(d.simple, 0)
	launch(d.browser, d.raceTimeout)

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for o := range results {
		if o.err != nil {
			lastErr = o.err
			d.record(req.URL, o.method, false)
			continue
		}
		if o.result.ChallengeDetected {
			d.record(req.URL, o.method, false)
			lastErr = fmt.Errorf("fetch: %s returned a challenge page", o.method)
			continue
		}
		cancel()
		d.record(req.URL, o.method, true)
		slog.Debug("fetch race winner", "method", o.method, "url", req.URL)
		return o.result, true
	}

	if lastErr != nil {
		slog.Debug("fetch race: all participants failed", "url", req.URL, "error", lastErr)
	}
	return nil, false
}

// logFailure classifies the error and, for the ambiguous "other" class,
// confirms with a direct DNS probe whether the host even resolves —
// distinguishing a dead hostname from a server-side failure when the
// stdlib error alone doesn't say which.
func (d *Dispatcher) logFailure(ctx context.Context, method model.Method, rawURL string, err error) {
	class := classifyError(err, 0)
	if class == FailureOther {
		if host := hostOf(rawURL); host != "" {
			if resolves, probeErr := probeDNS(ctx, host); probeErr == nil && !resolves {
				class = FailureDNS
			}
		}
	}
	slog.Debug("fetch tier failed", "method", method, "url", rawURL, "class", class, "error", err)
}

func (d *Dispatcher) record(rawURL string, method model.Method, ok bool) {
	if d.domains == nil {
		return
	}
	if ok {
		d.domains.RecordSuccess(rawURL, method)
	} else {
		d.domains.RecordFailure(rawURL, method)
	}
}

// raceEnabled is a Request-level helper so callers can request racing
// without the Dispatcher importing the model.Options type directly.
func (r Request) raceEnabled() bool { return r.race }

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
