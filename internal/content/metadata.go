// Package content implements the HTML-to-result pipeline: metadata/link/
// image extraction (C4), main-content detection and tag filtering (C5),
// and markdown conversion with noise cleaning (C6). Grounded on
// ncecere-raito's internal/scraper package for the extractor fallback
// chains and goquery usage, and Easonliuliang-purify's cleaner package
// for the two-stage clean/convert pipeline shape.
package content

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"webpeel/internal/model"
)

// ExtractMetadata walks the fallback chains in spec §4.6 to build a
// PageMetadata. wordCount and fetchedAt/method are filled by the caller
// since they aren't derivable from the document alone.
func ExtractMetadata(doc *goquery.Document, baseURL string) model.PageMetadata {
	return model.PageMetadata{
		Description: extractDescription(doc),
		Author:      extractAuthor(doc),
		Published:   extractPublishDate(doc),
		Image:       extractImage(doc),
		Canonical:   extractCanonical(doc, baseURL),
		Language:    extractLanguage(doc),
	}
}

// ExtractTitle: og:title → twitter:title → <title> → first <h1>.
func ExtractTitle(doc *goquery.Document) string {
	if v := metaProperty(doc, "og:title"); v != "" {
		return v
	}
	if v := metaName(doc, "twitter:title"); v != "" {
		return v
	}
	if v := strings.TrimSpace(doc.Find("title").First().Text()); v != "" {
		return v
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractDescription(doc *goquery.Document) string {
	if v := metaProperty(doc, "og:description"); v != "" {
		return v
	}
	if v := metaName(doc, "twitter:description"); v != "" {
		return v
	}
	return metaName(doc, "description")
}

func extractAuthor(doc *goquery.Document) string {
	if v := metaProperty(doc, "article:author"); v != "" {
		return v
	}
	if v := metaProperty(doc, "og:article:author"); v != "" {
		return v
	}
	if v := metaName(doc, "author"); v != "" {
		return v
	}
	return metaName(doc, "twitter:creator")
}

var jsonLDDatePublished = regexp.MustCompile(`"datePublished"\s*:\s*"([^"]+)"`)

func extractPublishDate(doc *goquery.Document) string {
	raw := metaProperty(doc, "article:published_time")
	if raw == "" {
		raw = metaName(doc, "date")
	}
	if raw == "" {
		raw = metaProperty(doc, "og:updated_time")
	}
	if raw == "" {
		raw, _ = doc.Find("time[pubdate]").First().Attr("datetime")
	}
	if raw == "" {
		doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if m := jsonLDDatePublished.FindStringSubmatch(sel.Text()); len(m) == 2 {
				raw = m[1]
				return false
			}
			return true
		})
	}
	return normalizeISO8601(raw)
}

func normalizeISO8601(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}

func extractLanguage(doc *goquery.Document) string {
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && lang != "" {
		return lang
	}
	if v := metaHTTPEquiv(doc, "Content-Language"); v != "" {
		return v
	}
	locale := metaProperty(doc, "og:locale")
	return strings.ReplaceAll(locale, "_", "-")
}

func extractCanonical(doc *goquery.Document, baseURL string) string {
	if href, ok := doc.Find("link[rel=canonical]").First().Attr("href"); ok && href != "" {
		return resolveURL(baseURL, href)
	}
	return metaProperty(doc, "og:url")
}

func extractImage(doc *goquery.Document) string {
	if v := metaProperty(doc, "og:image"); v != "" {
		return v
	}
	return metaName(doc, "twitter:image")
}

func metaProperty(doc *goquery.Document, property string) string {
	return strings.TrimSpace(doc.Find(`meta[property="` + property + `"]`).First().AttrOr("content", ""))
}

func metaName(doc *goquery.Document, name string) string {
	return strings.TrimSpace(doc.Find(`meta[name="` + name + `"]`).First().AttrOr("content", ""))
}

func metaHTTPEquiv(doc *goquery.Document, equiv string) string {
	return strings.TrimSpace(doc.Find(`meta[http-equiv="` + equiv + `"]`).First().AttrOr("content", ""))
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ",
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// WordCount implements §4.6: strip script/style, remove tags, decode
// common entities, collapse whitespace, count space-separated tokens.
func WordCount(doc *goquery.Document) int {
	clone := doc.Clone()
	clone.Find("script, style").Remove()
	text := entityReplacer.Replace(clone.Text())
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	if text == "" {
		return 0
	}
	return len(strings.Split(text, " "))
}
