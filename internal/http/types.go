package http

import "webpeel/internal/model"

// ErrorResponse matches the Firecrawl-style error envelope the teacher
// uses across every handler.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
}

// FetchRequest is the payload for POST /v1/fetch; GET /v1/fetch?url=
// populates the same fields from query parameters.
type FetchRequest struct {
	URL                string              `json:"url"`
	Format             string              `json:"format,omitempty"`
	Render             bool                `json:"render,omitempty"`
	Stealth            bool                `json:"stealth,omitempty"`
	IncludeTags        []string            `json:"includeTags,omitempty"`
	ExcludeTags        []string            `json:"excludeTags,omitempty"`
	Selector           string              `json:"selector,omitempty"`
	Exclude            []string            `json:"exclude,omitempty"`
	Images             bool                `json:"images,omitempty"`
	Screenshot         bool                `json:"screenshot,omitempty"`
	ScreenshotFullPage bool                `json:"screenshotFullPage,omitempty"`
	MaxTokens          *int                `json:"maxTokens,omitempty"`
	Wait               int                 `json:"wait,omitempty"`
	Timeout            int                 `json:"timeout,omitempty"`
	UserAgent          string              `json:"userAgent,omitempty"`
	Headers            map[string]string   `json:"headers,omitempty"`
	Cookies            []string            `json:"cookies,omitempty"`
	Proxy              string              `json:"proxy,omitempty"`
	ChangeTracking     bool                `json:"changeTracking,omitempty"`
	Raw                bool                `json:"raw,omitempty"`
	Location           *model.LocationOptions `json:"location,omitempty"`
	Actions            []model.Action      `json:"actions,omitempty"`
	Extract            *model.ExtractOptions  `json:"extract,omitempty"`
}

// toOptions translates the wire request into the orchestrator's
// immutable model.Options.
func (r FetchRequest) toOptions() model.Options {
	return model.Options{
		Format:             model.Format(r.Format),
		Render:             r.Render,
		Stealth:            r.Stealth,
		IncludeTags:        r.IncludeTags,
		ExcludeTags:        r.ExcludeTags,
		Selector:           r.Selector,
		Exclude:            r.Exclude,
		Images:             r.Images,
		Screenshot:         r.Screenshot,
		ScreenshotFullPage: r.ScreenshotFullPage,
		MaxTokens:          r.MaxTokens,
		WaitMs:             r.Wait,
		TimeoutMs:          r.Timeout,
		UserAgent:          r.UserAgent,
		Headers:            r.Headers,
		Cookies:            r.Cookies,
		Proxy:              r.Proxy,
		ChangeTracking:     r.ChangeTracking,
		Raw:                r.Raw,
		Location:           r.Location,
		Actions:            r.Actions,
		Extract:            r.Extract,
	}
}

// FetchResponse wraps a model.PeelResult in the success envelope.
type FetchResponse struct {
	Success bool              `json:"success"`
	Data    *model.PeelResult `json:"data,omitempty"`
	Code    string            `json:"code,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ExtractRequest is the payload for POST /v1/extract.
type ExtractRequest struct {
	URL       string         `json:"url"`
	Schema    map[string]any `json:"schema,omitempty"`
	Prompt    string         `json:"prompt,omitempty"`
	LLMAPIKey string         `json:"llmApiKey,omitempty"`
	Model     string         `json:"model,omitempty"`
}

type ExtractResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Meta    map[string]any `json:"metadata,omitempty"`
	Code    string         `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// SearchResult is one item of GET /v1/search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type SearchResponse struct {
	Success bool           `json:"success"`
	Results []SearchResult `json:"results"`
	Code    string         `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// BatchScrapeRequest is the payload for POST /v1/batch/scrape.
type BatchScrapeRequest struct {
	URLs    []string              `json:"urls"`
	Format  string                `json:"formats,omitempty"`
	Extract *model.ExtractOptions `json:"extract,omitempty"`
	Webhook string                `json:"webhook,omitempty"`
}

type JobAcceptedResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	URL     string `json:"url,omitempty"`
}

type JobStatusResponse struct {
	Success     bool   `json:"success"`
	ID          string `json:"id"`
	Status      string `json:"status"`
	Total       int    `json:"total"`
	Completed   int    `json:"completed"`
	CreditsUsed float64 `json:"creditsUsed"`
	Data        any    `json:"data,omitempty"`
	Error       string `json:"error,omitempty"`
}

// AnswerRequest is the payload for POST /v1/answer.
type AnswerRequest struct {
	URL      string `json:"url"`
	Question string `json:"question"`
	Stream   bool   `json:"stream,omitempty"`
}

type AnswerResponse struct {
	Success    bool              `json:"success"`
	Answer     model.QuickAnswer `json:"answer"`
	Code       string            `json:"code,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// ScreenshotRequest is the payload for POST /v1/screenshot.
type ScreenshotRequest struct {
	URL      string `json:"url"`
	FullPage bool   `json:"fullPage,omitempty"`
}

type ScreenshotResponse struct {
	Success    bool   `json:"success"`
	Screenshot string `json:"screenshot,omitempty"`
	Code       string `json:"code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// WatchRequest is the payload for POST /v1/watch.
type WatchRequest struct {
	URL                  string `json:"url"`
	WebhookURL           string `json:"webhookUrl,omitempty"`
	Selector             string `json:"selector,omitempty"`
	CheckIntervalMinutes int    `json:"checkIntervalMinutes,omitempty"`
}

type WatchResponse struct {
	Success bool         `json:"success"`
	Data    *model.Watch `json:"data,omitempty"`
	Code    string       `json:"code,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type WatchListResponse struct {
	Success bool           `json:"success"`
	Data    []*model.Watch `json:"data,omitempty"`
	Code    string         `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// MapRequest is the payload for POST /v1/map.
type MapRequest struct {
	URL               string `json:"url"`
	Limit             int    `json:"limit,omitempty"`
	Search            string `json:"search,omitempty"`
	IncludeSubdomains bool   `json:"includeSubdomains,omitempty"`
	IgnoreQueryParams bool   `json:"ignoreQueryParameters,omitempty"`
	AllowExternal     bool   `json:"allowExternalLinks,omitempty"`
	Sitemap           string `json:"sitemap,omitempty"`
}

type MapResponse struct {
	Success bool           `json:"success"`
	Links   []MapLinkEntry `json:"links"`
	Warning string         `json:"warning,omitempty"`
	Code    string         `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type MapLinkEntry struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// CrawlRequest is the payload for POST /v1/crawl.
type CrawlRequest struct {
	URL               string `json:"url"`
	Limit             int    `json:"limit,omitempty"`
	IncludeSubdomains bool   `json:"includeSubdomains,omitempty"`
	AllowExternal     bool   `json:"allowExternalLinks,omitempty"`
	IgnoreRobotsTxt   bool   `json:"ignoreRobotsTxt,omitempty"`
	Webhook           string `json:"webhook,omitempty"`
	Concurrency       int    `json:"maxConcurrency,omitempty"`
}

// HealthResponse matches spec §6's GET /health shape.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}
