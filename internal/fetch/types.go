// Package fetch implements the fetch-strategies pipeline (C3, spec §4.3):
// a tiered simple-HTTP/browser/stealth fetcher with escalation, optional
// racing, bot-challenge detection, and an ordered fallback chain (worker
// proxy, fingerprint-rotating TLS, cached-page scrape). It is grounded on
// Easonliuliang-purify's engine package (dispatcher/race, challenge
// heuristics live there in spirit) and ncecere-raito's scraper package
// (simple-HTTP and rod-browser fetch shapes), with the fallback tier's
// TLS fingerprinting grounded on 64answer-httpcloak's dependency stack.
package fetch

import (
	"context"
	"time"

	"webpeel/internal/model"
)

// Request is the normalized input to a single fetch attempt.
type Request struct {
	URL       string
	UserAgent string
	Headers   map[string]string
	Cookies   []string
	Proxy     string

	Render     bool
	Stealth    bool
	Screenshot bool
	FullPage   bool
	WaitMs     int
	WaitFor    string
	Actions    []model.Action

	Location *model.LocationOptions

	Timeout time.Duration

	// race is a server-side tuning knob mirroring model.Options.Race; it
	// has no JSON representation because it never reaches the wire.
	race bool
}

// WithRace returns a copy of req with racing enabled, for callers that
// resolved model.Options.Race upstream.
func (r Request) WithRace(enabled bool) Request {
	r.race = enabled
	return r
}

// Result is a single fetch attempt's outcome, ready to feed the content
// pipeline. Screenshot is populated only when Request.Screenshot is set
// and the tier that served the request supports it.
type Result struct {
	model.FetchResult
	Screenshot []byte
}

// Engine is a single fetch tier (simple HTTP, browser, stealth, or a
// fallback source). Implementations must respect ctx cancellation so the
// race/escalation driver can abandon a losing attempt promptly.
type Engine interface {
	Name() model.Method
	Fetch(ctx context.Context, req Request) (*Result, error)
}
