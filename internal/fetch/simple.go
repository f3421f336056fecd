package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/sync/singleflight"

	"webpeel/internal/model"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const maxRedirects = 10

// SimpleFetcher performs a plain GET with a browser-grade user agent,
// following redirects and decoding the declared charset. It coalesces
// concurrent identical requests (same URL+UA) with singleflight, which is
// the idiomatic use of that package here: unlike the cache's revalidation
// claim, callers genuinely want to share one in-flight HTTP round trip
// and all receive the same result, not a synchronous leader/follower
// split.
type SimpleFetcher struct {
	client *http.Client
	group  singleflight.Group
}

func NewSimpleFetcher() *SimpleFetcher {
	return &SimpleFetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("fetch: stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

func (f *SimpleFetcher) Name() model.Method { return model.MethodSimple }

func (f *SimpleFetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	key := req.URL + "|" + req.UserAgent
	v, err, _ := f.group.Do(key, func() (any, error) {
		return f.doFetch(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (f *SimpleFetcher) doFetch(ctx context.Context, req Request) (*Result, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch: invalid url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	ua := req.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	httpReq.Header.Set("User-Agent", ua)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", acceptLanguage(req.Location))
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for _, cookie := range req.Cookies {
		httpReq.Header.Add("Cookie", cookie)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/pdf") {
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
		if err != nil {
			return nil, err
		}
		text, err := extractPDFText(raw)
		if err != nil {
			return nil, fmt.Errorf("fetch: pdf: %w", err)
		}
		return &Result{FetchResult: model.FetchResult{
			URL:         u.String(),
			HTML:        "<pre>" + htmlEscape(text) + "</pre>",
			StatusCode:  resp.StatusCode,
			ContentType: contentType,
			Method:      model.MethodSimple,
		}}, nil
	}

	reader, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		reader = resp.Body
	}
	body, err := io.ReadAll(io.LimitReader(reader, 32<<20))
	if err != nil {
		return nil, err
	}
	html := string(body)

	challenge := looksLikeChallenge(extractTitleRough(html), html)

	return &Result{FetchResult: model.FetchResult{
		URL:               resp.Request.URL.String(),
		HTML:              html,
		StatusCode:        resp.StatusCode,
		ContentType:       contentType,
		Method:            model.MethodSimple,
		ChallengeDetected: challenge,
	}}, nil
}

func acceptLanguage(loc *model.LocationOptions) string {
	if loc == nil || len(loc.Languages) == 0 {
		return "en-US,en;q=0.9"
	}
	parts := make([]string, 0, len(loc.Languages))
	for i, lang := range loc.Languages {
		if i == 0 {
			parts = append(parts, lang)
			continue
		}
		q := 1.0 - float64(i)*0.1
		if q < 0.1 {
			q = 0.1
		}
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", lang, q))
	}
	return strings.Join(parts, ",")
}

// extractTitleRough pulls the <title> text without a full HTML parse, for
// the cheap challenge-detection pre-check before the content pipeline runs.
func extractTitleRough(html string) string {
	lower := strings.ToLower(html)
	start := strings.Index(lower, "<title")
	if start == -1 {
		return ""
	}
	gt := strings.Index(html[start:], ">")
	if gt == -1 {
		return ""
	}
	start += gt + 1
	end := strings.Index(strings.ToLower(html[start:]), "</title")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(html[start : start+end])
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
