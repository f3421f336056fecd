// Package crawler implements the supplemental site-discovery operations
// (peel.Map / peel.Crawl per SPEC_FULL.md): sitemap- and link-following
// URL discovery gated by robots.txt and same-host/subdomain rules, and a
// crawl operation that feeds discovered URLs into the job queue's batch
// runner. Grounded directly on ncecere-raito's internal/crawler/map.go
// and internal/crawl/jobs.go, with sitemap parsing switched from a
// hand-rolled XML decoder to oxffaa/gopher-parse-sitemap.
package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	sitemap "github.com/oxffaa/gopher-parse-sitemap"
	robotstxt "github.com/temoto/robotstxt"
)

// SitemapMode controls how sitemap discovery composes with HTML link
// following.
type SitemapMode string

const (
	SitemapOnly    SitemapMode = "only"
	SitemapInclude SitemapMode = "include"
	SitemapSkip    SitemapMode = "skip"
)

// MapOptions controls how the map operation discovers URLs for a site.
type MapOptions struct {
	URL               string
	Limit             int
	Search            string
	IncludeSubdomains bool
	IgnoreQueryParams bool
	AllowExternal     bool
	SitemapMode       SitemapMode
	Timeout           time.Duration
	RespectRobots     bool
	UserAgent         string
}

// Link is one discovered URL with whatever metadata the discovery source
// carried (anchor text for HTML links, nothing for sitemap entries).
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// MapResult is the outcome of a map operation.
type MapResult struct {
	Links   []Link `json:"links"`
	Warning string `json:"warning,omitempty"`
}

// Map discovers URLs for opts.URL, combining sitemap and HTML link
// discovery per opts.SitemapMode, filtered by host/subdomain rules,
// robots.txt, and an optional search substring.
func Map(ctx context.Context, opts MapOptions) (*MapResult, error) {
	if opts.URL == "" {
		return nil, errors.New("crawler: url is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	baseURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, err
	}
	if baseURL.Scheme == "" {
		baseURL.Scheme = "http"
	}

	client := &http.Client{Timeout: opts.Timeout}

	var robotsData *robotstxt.RobotsData
	if opts.RespectRobots {
		robotsData, _ = fetchRobots(ctx, client, baseURL, opts.UserAgent)
	}

	found := make(map[string]Link)

	add := func(rawURL, title string) {
		if len(found) >= opts.Limit {
			return
		}
		u, err := baseURL.Parse(rawURL)
		if err != nil {
			return
		}
		if !opts.AllowExternal && !sameHostOrSubdomain(baseURL.Hostname(), u.Hostname(), opts.IncludeSubdomains) {
			return
		}
		if opts.IgnoreQueryParams {
			u.RawQuery = ""
		}
		if robotsData != nil {
			if grp := robotsData.FindGroup(opts.UserAgent); grp != nil && !grp.Test(u.String()) {
				return
			}
		}
		final := u.String()
		if opts.Search != "" {
			needle := strings.ToLower(opts.Search)
			if !strings.Contains(strings.ToLower(final), needle) && !strings.Contains(strings.ToLower(title), needle) {
				return
			}
		}
		if _, exists := found[final]; exists {
			return
		}
		found[final] = Link{URL: final, Title: strings.TrimSpace(title)}
	}

	mode := opts.SitemapMode
	if mode == "" {
		mode = SitemapInclude
	}

	if mode == SitemapOnly || mode == SitemapInclude {
		_ = collectFromSitemap(ctx, client, baseURL, add)
	}
	if mode == SitemapInclude || mode == SitemapSkip {
		_ = collectFromHTML(ctx, client, baseURL, add)
	}

	links := make([]Link, 0, len(found))
	for _, l := range found {
		links = append(links, l)
	}

	var warning string
	if len(links) <= 1 && opts.Limit != 1 && baseURL.Path != "" && baseURL.Path != "/" {
		root := url.URL{Scheme: baseURL.Scheme, Host: baseURL.Host}
		warning = "only " + strconv.Itoa(len(links)) + " result(s) found; try mapping the base domain " + root.String() + " for broader coverage"
	}

	return &MapResult{Links: links, Warning: warning}, nil
}

func sameHostOrSubdomain(baseHost, host string, includeSubdomains bool) bool {
	if host == "" {
		return false
	}
	if strings.EqualFold(baseHost, host) {
		return true
	}
	return includeSubdomains && strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(baseHost))
}

func fetchRobots(ctx context.Context, client *http.Client, base *url.URL, userAgent string) (*robotstxt.RobotsData, error) {
	robotsURL := url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("crawler: non-200 robots.txt")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return robotstxt.FromStatusAndBytes(resp.StatusCode, body)
}

// collectFromSitemap tries the conventional /sitemap.xml location.
func collectFromSitemap(ctx context.Context, client *http.Client, base *url.URL, add func(rawURL, title string)) error {
	sitemapURL := url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/sitemap.xml"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL.String(), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("crawler: non-200 sitemap")
	}
	return sitemap.Parse(resp.Body, func(e sitemap.Entry) error {
		add(e.GetLocation(), "")
		return nil
	})
}

// collectFromHTML fetches base and extracts links from anchor tags.
func collectFromHTML(ctx context.Context, client *http.Client, base *url.URL, add func(rawURL, title string)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("crawler: non-200 html")
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		add(href, strings.TrimSpace(sel.Text()))
	})
	return nil
}
