package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"webpeel/internal/jobqueue"
	"webpeel/internal/model"
)

func TestMapCombinesSitemapAndHTMLDiscovery(t *testing.T) {
	sitemapMux := http.NewServeMux()
	var server *httptest.Server
	sitemapMux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>` + server.URL + `/page1</loc></url>
  <url><loc>` + server.URL + `/page2</loc></url>
</urlset>`))
	})
	sitemapMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="/page3">Page Three</a></body></html>`))
	})
	server = httptest.NewServer(sitemapMux)
	defer server.Close()

	result, err := Map(context.Background(), MapOptions{
		URL:         server.URL,
		Limit:       10,
		SitemapMode: SitemapInclude,
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(result.Links) != 3 {
		t.Fatalf("expected 3 discovered links (2 sitemap + 1 html), got %d: %+v", len(result.Links), result.Links)
	}
}

func TestMapSitemapOnlySkipsHTMLDiscovery(t *testing.T) {
	sitemapMux := http.NewServeMux()
	var realServer *httptest.Server
	sitemapMux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>` + realServer.URL + `/only</loc></url></urlset>`))
	})
	sitemapMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="/never-seen">X</a></body></html>`))
	})
	realServer = httptest.NewServer(sitemapMux)
	defer realServer.Close()

	result, err := Map(context.Background(), MapOptions{
		URL:         realServer.URL,
		Limit:       10,
		SitemapMode: SitemapOnly,
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(result.Links) != 1 {
		t.Fatalf("expected only the sitemap's single link, got %d: %+v", len(result.Links), result.Links)
	}
}

func TestMapRespectsLimit(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="/a">a</a><a href="/b">b</a><a href="/c">c</a></body></html>`))
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	result, err := Map(context.Background(), MapOptions{
		URL:         server.URL,
		Limit:       2,
		SitemapMode: SitemapSkip,
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(result.Links) > 2 {
		t.Fatalf("expected at most 2 links under the limit, got %d", len(result.Links))
	}
}

func TestMapFiltersExternalHosts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="https://other-domain.example/x">ext</a></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result, err := Map(context.Background(), MapOptions{URL: server.URL, Limit: 10, SitemapMode: SitemapSkip})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(result.Links) != 0 {
		t.Fatalf("expected external link filtered out, got %+v", result.Links)
	}
}

func TestCrawlRunsDiscoveredURLsThroughBatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="/child">child</a></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	queue := jobqueue.New(nil)
	job := queue.CreateJob(model.JobCrawl, "", 0)

	peel := func(_ context.Context, url string) (any, error) {
		return map[string]string{"url": url}, nil
	}

	results, err := Crawl(context.Background(), queue, job.ID, CrawlOptions{
		Map: MapOptions{URL: server.URL, Limit: 10, SitemapMode: SitemapSkip},
	}, peel)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results (root + child), got %d", len(results))
	}
}

func TestCrawlFailsJobOnMapError(t *testing.T) {
	queue := jobqueue.New(nil)
	job := queue.CreateJob(model.JobCrawl, "", 0)

	_, err := Crawl(context.Background(), queue, job.ID, CrawlOptions{Map: MapOptions{URL: ""}}, func(_ context.Context, _ string) (any, error) {
		return nil, errors.New("should not be called")
	})
	if err == nil {
		t.Fatalf("expected error for empty map URL")
	}
	updated, getErr := queue.GetJob(job.ID)
	if getErr != nil {
		t.Fatalf("GetJob: %v", getErr)
	}
	if updated.Status != model.JobFailed {
		t.Fatalf("expected job marked failed, got %v", updated.Status)
	}
}
