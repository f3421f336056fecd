// Package peel implements the end-to-end orchestrator (C13, spec
// §4.13): URL validation, cache lookup/single-flight revalidation,
// smartFetch escalation, the content pipeline, token budgeting,
// fingerprinting, change tracking, and optional structured extraction.
// The cache-then-fetch control flow is grounded on
// Easonliuliang-purify's cleaner.Clean composition (cache short-circuit
// one layer above the cleaning pipeline) generalized with this spec's
// stale-while-revalidate semantics: cache hit serves immediately; a
// stale hit serves the stale value while a single background goroutine
// (gated by cache.ClaimRevalidation) refreshes it for the next reader.
package peel

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"webpeel/internal/cache"
	"webpeel/internal/changetrack"
	"webpeel/internal/content"
	"webpeel/internal/domainintel"
	"webpeel/internal/fetch"
	"webpeel/internal/heuristics"
	"webpeel/internal/model"
	"webpeel/internal/tokenbudget"
)

const maxURLLength = 2048

var ErrInvalidURL = errors.New("peel: url must be http(s) and at most 2048 characters")

// Extractor runs the structured-extraction step (§4.13 step 9) when
// opts.Extract is set. The LLM-backed implementation lives in
// internal/llmx; Peel falls back to the heuristic auto-extractor when
// extractor is nil or its Extract call returns an error.
type Extractor interface {
	Extract(ctx context.Context, content string, opts model.ExtractOptions) (map[string]any, error)
}

// Orchestrator composes the fetch dispatcher, content pipeline, token
// budgeter, change tracker, and optional LLM extractor into the single
// peel(url, opts) operation.
type Orchestrator struct {
	cache      *cache.Cache
	dispatcher *fetch.Dispatcher
	domainMem  *domainintel.Memory
	snapshots  *changetrack.Store
	extractor  Extractor
}

type Config struct {
	Cache      *cache.Cache
	Dispatcher *fetch.Dispatcher
	DomainMem  *domainintel.Memory
	Snapshots  *changetrack.Store
	Extractor  Extractor
}

func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		cache:      cfg.Cache,
		dispatcher: cfg.Dispatcher,
		domainMem:  cfg.DomainMem,
		snapshots:  cfg.Snapshots,
		extractor:  cfg.Extractor,
	}
}

// normalizeURL implements step 1: http(s) scheme, length bound, and a
// canonical form (lowercased scheme+host) used for the cache key.
func normalizeURL(raw string) (string, error) {
	if len(raw) > maxURLLength {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

// cacheKey implements step 2's canonical cache key: the normalized URL
// plus every option field that changes the rendered output (§3) —
// format, selector, render, stealth, includeTags, excludeTags, images,
// location, and maxTokens. timeout and userAgent are deliberately
// excluded: they affect how the fetch is performed, not the shape of
// the result, so two requests that differ only in those fields must
// still collide on the same cache entry.
func cacheKey(normalizedURL string, opts model.Options) string {
	maxTokens := "nil"
	if opts.MaxTokens != nil {
		maxTokens = strconv.Itoa(*opts.MaxTokens)
	}
	country, languages := "", ""
	if opts.Location != nil {
		country = opts.Location.Country
		languages = strings.Join(opts.Location.Languages, ",")
	}

	fields := []string{
		string(opts.Format),
		opts.Selector,
		strconv.FormatBool(opts.Render),
		strconv.FormatBool(opts.Stealth),
		strings.Join(opts.IncludeTags, ","),
		strings.Join(opts.ExcludeTags, ","),
		strconv.FormatBool(opts.Images),
		country,
		languages,
		maxTokens,
	}

	return tokenbudget.Fingerprint(normalizedURL) + "|" + strings.Join(fields, "|")
}

func approxBytes(r *model.PeelResult) int64 {
	return int64(len(r.Content)) + int64(len(r.Title)) + 256
}

// Peel runs the full spec §4.13 flow for one URL.
func (o *Orchestrator) Peel(ctx context.Context, rawURL string, opts model.Options) (*model.PeelResult, error) {
	opts = opts.Normalize()

	normalized, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	key := cacheKey(normalized, opts)

	if o.cache != nil {
		if value, stale, ok := o.cache.Lookup(key); ok {
			cached := value.(*model.PeelResult)
			if stale && o.cache.ClaimRevalidation(key) {
				go o.revalidate(context.Background(), normalized, opts, key)
			}
			result := *cached
			result.Method = model.MethodCached
			return &result, nil
		}
	}

	result, err := o.fetchAndBuild(ctx, normalized, opts)
	if err != nil {
		return nil, err
	}

	if o.cache != nil {
		o.cache.Store(key, result, approxBytes(result))
	}
	return result, nil
}

// revalidate refreshes a stale cache entry in the background; any error
// simply leaves the stale entry in place for the next reader.
func (o *Orchestrator) revalidate(ctx context.Context, normalizedURL string, opts model.Options, key string) {
	defer o.cache.Forget(key)

	ctx, cancel := context.WithTimeout(ctx, opts.EffectiveTimeout())
	defer cancel()

	result, err := o.fetchAndBuild(ctx, normalizedURL, opts)
	if err != nil {
		return
	}
	o.cache.Store(key, result, approxBytes(result))
}

// fetchAndBuild implements steps 3-11 of spec §4.13.
func (o *Orchestrator) fetchAndBuild(ctx context.Context, normalizedURL string, opts model.Options) (*model.PeelResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.EffectiveTimeout())
	defer cancel()

	req := fetch.Request{
		URL:        normalizedURL,
		UserAgent:  opts.UserAgent,
		Headers:    opts.Headers,
		Cookies:    opts.Cookies,
		Proxy:      opts.Proxy,
		Render:     opts.Render,
		Stealth:    opts.Stealth,
		Screenshot: opts.Screenshot,
		FullPage:   opts.ScreenshotFullPage,
		WaitMs:     opts.WaitMs,
		Actions:    opts.Actions,
		Location:   opts.Location,
		Timeout:    opts.EffectiveTimeout(),
	}
	req = req.WithRace(opts.Race)

	fetched, err := o.dispatcher.SmartFetch(ctx, req)
	if err != nil {
		return nil, err
	}

	extracted, err := content.Pipeline(fetched.HTML, normalizedURL, opts)
	if err != nil {
		return nil, err
	}

	extracted.Metadata.Method = fetched.Method
	extracted.Metadata.FetchedAt = time.Now()

	finalContent := extracted.Content
	if opts.MaxTokens != nil {
		finalContent = tokenbudget.Truncate(finalContent, *opts.MaxTokens)
	}

	result := &model.PeelResult{
		URL:         normalizedURL,
		Title:       extracted.Title,
		Content:     finalContent,
		Method:      fetched.Method,
		Tokens:      tokenbudget.EstimateTokens(finalContent),
		Fingerprint: tokenbudget.Fingerprint(finalContent),
		Quality:     tokenbudget.QualityScore(finalContent, fetched.HTML),
		Metadata:    extracted.Metadata,
		Links:       extracted.Links,
		Images:      extracted.Images,
		ContentType: fetched.ContentType,
		StatusCode:  fetched.StatusCode,
	}
	if len(fetched.Screenshot) > 0 {
		result.Screenshot = string(fetched.Screenshot)
	}

	if opts.ChangeTracking && o.snapshots != nil {
		changeResult, err := o.snapshots.Track(normalizedURL, finalContent, tokenbudget.FullFingerprint(finalContent))
		if err == nil {
			result.Change = &changeResult
		}
	}

	if opts.Extract != nil {
		result.Extracted = o.runExtractor(ctx, finalContent, normalizedURL, *opts.Extract)
	}

	return result, nil
}

// DomainStats exposes the domain-intelligence counters for a host, for
// the HTTP layer's domain-stats endpoint; ok is false if the host has
// no recorded history yet.
func (o *Orchestrator) DomainStats(rawURL string) (model.DomainStats, bool) {
	if o.domainMem == nil {
		return model.DomainStats{}, false
	}
	return o.domainMem.Stats(rawURL)
}

// runExtractor implements step 9: prefer the configured LLM extractor,
// falling back to the heuristic auto-extractor when no LLM is
// configured or it signals unavailability, per spec §4.9/§4.13.
func (o *Orchestrator) runExtractor(ctx context.Context, content, sourceURL string, opts model.ExtractOptions) map[string]any {
	if o.extractor != nil {
		if fields, err := o.extractor.Extract(ctx, content, opts); err == nil {
			return fields
		}
	}

	autoResult := heuristics.AutoExtract(content, sourceURL)
	return map[string]any{
		"type":   string(autoResult.Type),
		"record": autoResult.Record,
	}
}
