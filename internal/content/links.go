package content

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"webpeel/internal/model"
)

// ExtractLinks resolves every <a href> against baseURL, restricts to
// http(s), drops pure-anchor same-page fragments, dedupes, and sorts —
// spec §4.6 and the §3 links invariant. Grounded on ncecere-raito's
// scraper.go link-extraction loop, generalized from "first occurrence
// wins" to dedupe-then-sort since the spec requires a stable sorted
// output regardless of document order.
func ExtractLinks(doc *goquery.Document, baseURL string) []string {
	base, _ := url.Parse(baseURL)
	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		resolved := resolveAgainst(base, href)
		if resolved == "" {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})

	sort.Strings(links)
	return links
}

// effectiveBaseURL implements spec §8's <base href> handling: if the
// document carries a <base href>, relative links/images resolve against
// it instead of the page's own URL (the base href itself is resolved
// against sourceURL, in case it is itself relative or protocol-only).
// Falls back to sourceURL when there is no <base> tag or its href is
// empty/unparseable.
func effectiveBaseURL(doc *goquery.Document, sourceURL string) string {
	href, ok := doc.Find("base[href]").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return sourceURL
	}
	if resolved := resolveURL(sourceURL, href); resolved != "" {
		return resolved
	}
	return sourceURL
}

// resolveURL resolves href against baseURL as a string pair convenience
// wrapper for callers (e.g. metadata.go's canonical-link resolution) that
// don't already hold a parsed *url.URL.
func resolveURL(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	return resolveAgainst(base, href)
}

func resolveAgainst(base *url.URL, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil && !u.IsAbs() {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

var srcsetCandidateRe = regexp.MustCompile(`^(\S+)`)

// ExtractImages implements spec §4.6: <img src>, <picture><source
// srcset> (first candidate of "url 1x, url 2x" / "url 100w, url 200w"),
// and CSS background-image: url(...) declarations, all resolved
// absolute, http(s)-only, deduped by final URL.
func ExtractImages(doc *goquery.Document, baseURL string) []model.ImageRef {
	base, _ := url.Parse(baseURL)
	seen := make(map[string]struct{})
	var images []model.ImageRef

	add := func(ref model.ImageRef) {
		if ref.URL == "" {
			return
		}
		if _, dup := seen[ref.URL]; dup {
			return
		}
		seen[ref.URL] = struct{}{}
		images = append(images, ref)
	}

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		resolved := resolveAgainst(base, sel.AttrOr("src", ""))
		if resolved == "" {
			return
		}
		add(model.ImageRef{
			URL:    resolved,
			Alt:    sel.AttrOr("alt", ""),
			Title:  sel.AttrOr("title", ""),
			Width:  atoiOr0(sel.AttrOr("width", "")),
			Height: atoiOr0(sel.AttrOr("height", "")),
		})
	})

	doc.Find("source[srcset]").Each(func(_ int, sel *goquery.Selection) {
		srcset := strings.TrimSpace(sel.AttrOr("srcset", ""))
		if srcset == "" {
			return
		}
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		candidate := srcsetCandidateRe.FindString(first)
		if resolved := resolveAgainst(base, candidate); resolved != "" {
			add(model.ImageRef{URL: resolved})
		}
	})

	bgImageRe := regexp.MustCompile(`background-image\s*:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style := sel.AttrOr("style", "")
		if m := bgImageRe.FindStringSubmatch(style); len(m) == 2 {
			if resolved := resolveAgainst(base, m[1]); resolved != "" {
				add(model.ImageRef{URL: resolved})
			}
		}
	})

	return images
}

func atoiOr0(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
