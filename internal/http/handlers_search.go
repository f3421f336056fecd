package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofiber/fiber/v2"

	"webpeel/internal/quota"
)

// searchHandler implements GET /v1/search (spec §6): a lightweight web
// search backed by DuckDuckGo's HTML endpoint, parsed with the same
// goquery stack the content pipeline uses — no dedicated search API is
// in the domain-stack table, so this reuses goquery rather than adding
// a new third-party dependency for a single endpoint.
func (s *Server) searchHandler(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST", Error: "q is required",
		})
	}

	if _, ok := s.enforceQuota(c, quota.ClassSearch); !ok {
		return nil
	}

	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := runDuckDuckGoSearch(c.Context(), query, limit)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Success: false, Code: "SEARCH_FAILED", Error: err.Error(),
		})
	}

	return c.JSON(SearchResponse{Success: true, Results: results})
}

func runDuckDuckGoSearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; WebPeel/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= limit {
			return false
		}
		link := sel.Find(".result__a")
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(sel.Find(".result__snippet").Text())
		if href == "" || title == "" {
			return true
		}
		results = append(results, SearchResult{Title: title, URL: href, Snippet: snippet})
		return true
	})

	return results, nil
}
