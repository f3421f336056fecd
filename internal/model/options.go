// Package model holds the data shapes shared across WebPeel's components:
// request options, fetch/peel results, page metadata, snapshots, domain
// stats, watches, and jobs, as described in the data model.
package model

import "time"

// Format selects the shape of PeelResult.Content.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatClean    Format = "clean"
)

// Method identifies which fetch tier produced a FetchResult/PeelResult.
type Method string

const (
	MethodSimple      Method = "simple"
	MethodBrowser     Method = "browser"
	MethodStealth     Method = "stealth"
	MethodCached      Method = "cached"
	MethodCFWorker    Method = "cf-worker"
	MethodGoogleCache Method = "google-cache"
	MethodPeelTLS     Method = "peeltls"
)

// LocationOptions carries geo hints that influence Accept-Language and,
// for rendered fetches, the browser's locale.
type LocationOptions struct {
	Country   string   `json:"country,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// Action is a single ordered browser step executed before a rendered
// page is captured (type ∈ click, fill, press, wait, scroll, waitForSelector).
type Action struct {
	Type     string `json:"type"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Ms       int    `json:"ms,omitempty"`
}

// ExtractOptions configures the structured-extraction step (§4.13 step 9).
type ExtractOptions struct {
	Schema    map[string]any `json:"schema,omitempty"`
	Prompt    string         `json:"prompt,omitempty"`
	Selectors []string       `json:"selectors,omitempty"`
}

// Options is the immutable, fully-resolved request configuration for a
// single peel operation. Zero values mean "not set" except where a field
// is itself a pointer (maxTokens/budget) to distinguish "absent" from 0.
type Options struct {
	Format Format `json:"format,omitempty"`

	Render  bool `json:"render,omitempty"`
	Stealth bool `json:"stealth,omitempty"`

	IncludeTags []string `json:"includeTags,omitempty"`
	ExcludeTags []string `json:"excludeTags,omitempty"`
	Selector    string   `json:"selector,omitempty"`
	Exclude     []string `json:"exclude,omitempty"`

	Images              bool `json:"images,omitempty"`
	Screenshot          bool `json:"screenshot,omitempty"`
	ScreenshotFullPage  bool `json:"screenshotFullPage,omitempty"`

	MaxTokens *int `json:"maxTokens,omitempty"`

	WaitMs    int `json:"wait,omitempty"`
	TimeoutMs int `json:"timeout,omitempty"`

	UserAgent string            `json:"userAgent,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Cookies   []string          `json:"cookies,omitempty"`

	Proxy   string   `json:"proxy,omitempty"`
	Proxies []string `json:"proxies,omitempty"`

	ChangeTracking bool `json:"changeTracking,omitempty"`
	Raw            bool `json:"raw,omitempty"`

	Location *LocationOptions `json:"location,omitempty"`
	Actions  []Action         `json:"actions,omitempty"`
	Extract  *ExtractOptions  `json:"extract,omitempty"`

	// Race, when true, allows the simple-HTTP and browser tiers to run
	// concurrently per §4.3 step 5; it is a server-side tuning knob, not
	// part of the wire request, so it has no json tag.
	Race          bool          `json:"-"`
	RaceTimeoutMs time.Duration `json:"-"`
}

// Budget returns MaxTokens, the spec's synonym for the same field.
func (o Options) Budget() *int { return o.MaxTokens }

// EffectiveTimeout returns the configured timeout or the spec default (30s).
func (o Options) EffectiveTimeout() time.Duration {
	if o.TimeoutMs > 0 {
		return time.Duration(o.TimeoutMs) * time.Millisecond
	}
	return 30 * time.Second
}

// Normalize fills in defaults that don't change cache identity so callers
// don't each have to repeat the same zero-value checks.
func (o Options) Normalize() Options {
	if o.Format == "" {
		o.Format = FormatMarkdown
	}
	if o.TimeoutMs <= 0 {
		o.TimeoutMs = 30000
	}
	if o.RaceTimeoutMs <= 0 {
		o.RaceTimeoutMs = 2 * time.Second
	}
	return o
}
