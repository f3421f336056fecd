package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"webpeel/internal/domainintel"
	"webpeel/internal/model"
)

type fakeEngine struct {
	name      model.Method
	result    *Result
	err       error
	delay     time.Duration
	challenge bool
	calls     int
}

func (f *fakeEngine) Name() model.Method { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req Request) (*Result, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	r := f.result
	if r == nil {
		r = &Result{FetchResult: model.FetchResult{URL: req.URL, HTML: "<html>ok</html>", StatusCode: 200, Method: f.name}}
	}
	r.ChallengeDetected = f.challenge
	return r, nil
}

func TestSmartFetchSimpleSucceeds(t *testing.T) {
	simple := &fakeEngine{name: model.MethodSimple}
	browser := &fakeEngine{name: model.MethodBrowser}
	d := NewDispatcher(Config{Simple: simple, Browser: browser})

	r, err := d.SmartFetch(context.Background(), Request{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Method != model.MethodSimple {
		t.Fatalf("expected simple method, got %v", r.Method)
	}
	if browser.calls != 0 {
		t.Fatalf("expected browser not to be called, got %d calls", browser.calls)
	}
}

func TestSmartFetchEscalatesOnChallenge(t *testing.T) {
	simple := &fakeEngine{name: model.MethodSimple, challenge: true}
	browser := &fakeEngine{name: model.MethodBrowser}
	d := NewDispatcher(Config{Simple: simple, Browser: browser})

	r, err := d.SmartFetch(context.Background(), Request{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Method != model.MethodBrowser {
		t.Fatalf("expected escalation to browser, got %v", r.Method)
	}
}

func TestSmartFetchForceRenderSkipsSimple(t *testing.T) {
	simple := &fakeEngine{name: model.MethodSimple}
	browser := &fakeEngine{name: model.MethodBrowser}
	d := NewDispatcher(Config{Simple: simple, Browser: browser})

	_, err := d.SmartFetch(context.Background(), Request{URL: "https://example.com", Render: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if simple.calls != 0 {
		t.Fatalf("expected simple tier skipped when render forced, got %d calls", simple.calls)
	}
}

func TestSmartFetchFallsBackToConfiguredFallbacks(t *testing.T) {
	simple := &fakeEngine{name: model.MethodSimple, err: errors.New("boom")}
	browser := &fakeEngine{name: model.MethodBrowser, err: errors.New("boom")}
	stealth := &fakeEngine{name: model.MethodStealth, err: errors.New("boom")}
	fallback := &fakeEngine{name: model.MethodCFWorker}

	d := NewDispatcher(Config{Simple: simple, Browser: browser, Stealth: stealth, Fallbacks: []Engine{fallback}})
	r, err := d.SmartFetch(context.Background(), Request{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Method != model.MethodCFWorker {
		t.Fatalf("expected fallback to win, got %v", r.Method)
	}
}

func TestSmartFetchAllChallengeReturnsDetectedTrue(t *testing.T) {
	simple := &fakeEngine{name: model.MethodSimple, challenge: true}
	browser := &fakeEngine{name: model.MethodBrowser, challenge: true}
	stealth := &fakeEngine{name: model.MethodStealth, challenge: true}

	d := NewDispatcher(Config{Simple: simple, Browser: browser, Stealth: stealth})
	r, err := d.SmartFetch(context.Background(), Request{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.ChallengeDetected {
		t.Fatalf("expected challengeDetected=true when every tier is challenged")
	}
}

func TestSmartFetchRaceTakesFirstSuccess(t *testing.T) {
	simple := &fakeEngine{name: model.MethodSimple, delay: 50 * time.Millisecond}
	browser := &fakeEngine{name: model.MethodBrowser, delay: 5 * time.Millisecond}

	d := NewDispatcher(Config{Simple: simple, Browser: browser, RaceTimeout: time.Millisecond})
	req := Request{URL: "https://example.com"}.WithRace(true)

	r, err := d.SmartFetch(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Method != model.MethodBrowser {
		t.Fatalf("expected browser to win the race, got %v", r.Method)
	}
}

func TestSmartFetchUsesDomainRecommendation(t *testing.T) {
	domains := domainintel.New(time.Hour)
	url := "https://flaky.example.com/a"
	domains.RecordFailure(url, model.MethodSimple)
	domains.RecordFailure(url, model.MethodSimple)
	domains.RecordSuccess(url, model.MethodBrowser)

	simple := &fakeEngine{name: model.MethodSimple}
	browser := &fakeEngine{name: model.MethodBrowser}
	d := NewDispatcher(Config{Simple: simple, Browser: browser, Domains: domains})

	r, err := d.SmartFetch(context.Background(), Request{URL: url})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Method != model.MethodBrowser {
		t.Fatalf("expected domain-recommended browser tier to win, got %v", r.Method)
	}
	if simple.calls != 0 {
		t.Fatalf("expected simple tier not attempted when browser recommendation succeeds, got %d calls", simple.calls)
	}
}
