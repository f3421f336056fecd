package heuristics

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"webpeel/internal/model"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d().\-\s]{7,}\d`)
)

// DetectPageType classifies a page from its URL and DOM signals into
// one of {pricing, products, contact, article, api_docs, unknown}, per
// spec §4.9.
func DetectPageType(rawURL string, doc *goquery.Document) model.PageType {
	path := strings.ToLower(rawURL)
	text := strings.ToLower(doc.Text())

	switch {
	case strings.Contains(path, "pricing") || strings.Contains(path, "/plans"):
		return model.PageTypePricing
	case strings.Contains(path, "/contact") || strings.Contains(path, "contact-us"):
		return model.PageTypeContact
	case strings.Contains(path, "/docs/api") || strings.Contains(path, "/api-reference") ||
		strings.Contains(path, "/reference"):
		return model.PageTypeAPIDocs
	case strings.Contains(path, "/shop") || strings.Contains(path, "/product") ||
		doc.Find("[itemtype*='Product'], .product, .price").Length() > 2:
		return model.PageTypeProducts
	case doc.Find("article, [itemtype*='Article']").Length() > 0:
		return model.PageTypeArticle
	case strings.Contains(text, "get in touch") && emailRe.MatchString(text):
		return model.PageTypeContact
	default:
		return model.PageTypeUnknown
	}
}

// AutoExtract detects the page type and runs the matching typed
// extractor. Every extractor is defensive: with no signals it returns a
// record with empty collections rather than failing, per spec §4.9.
func AutoExtract(rawHTML, sourceURL string) model.AutoExtractResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return model.AutoExtractResult{Type: model.PageTypeUnknown, Record: model.ArticleRecord{}}
	}

	pageType := DetectPageType(sourceURL, doc)

	var record any
	switch pageType {
	case model.PageTypePricing:
		record = extractPricing(doc)
	case model.PageTypeProducts:
		record = extractProducts(doc)
	case model.PageTypeContact:
		record = extractContact(doc, rawHTML)
	case model.PageTypeAPIDocs:
		record = extractAPIDocs(doc)
	case model.PageTypeArticle:
		record = extractArticle(doc, rawHTML, sourceURL)
	default:
		record = model.ArticleRecord{}
	}

	return model.AutoExtractResult{Type: pageType, Record: record}
}

func extractPricing(doc *goquery.Document) model.PricingRecord {
	record := model.PricingRecord{}
	doc.Find(".pricing-plan, .plan, .price-card, [class*='pricing-tier']").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find("h2, h3, .plan-name").First().Text())
		price := strings.TrimSpace(s.Find(".price, [class*='price']").First().Text())
		if name == "" && price == "" {
			return
		}
		var features []string
		s.Find("li").Each(func(_ int, li *goquery.Selection) {
			if t := strings.TrimSpace(li.Text()); t != "" {
				features = append(features, t)
			}
		})
		record.Plans = append(record.Plans, model.PricingPlan{Name: name, Price: price, Features: features})
	})
	return record
}

func extractProducts(doc *goquery.Document) model.ProductsRecord {
	record := model.ProductsRecord{}
	doc.Find("[itemtype*='Product'], .product, .product-card").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find("h2, h3, .product-name, [itemprop='name']").First().Text())
		price := strings.TrimSpace(s.Find(".price, [itemprop='price']").First().Text())
		href, _ := s.Find("a").First().Attr("href")
		if name == "" {
			return
		}
		record.Products = append(record.Products, model.Product{Name: name, Price: price, URL: href})
	})
	return record
}

func extractContact(doc *goquery.Document, rawHTML string) model.ContactRecord {
	record := model.ContactRecord{}
	record.Emails = dedupeCapped(emailRe.FindAllString(rawHTML, -1), 10)
	record.Phones = dedupeCapped(phoneRe.FindAllString(doc.Text(), -1), 10)
	if addr := doc.Find("address, [itemprop='address']").First(); addr.Length() > 0 {
		record.Address = strings.TrimSpace(addr.Text())
	}
	return record
}

func extractAPIDocs(doc *goquery.Document) model.APIDocsRecord {
	record := model.APIDocsRecord{}
	methodRe := regexp.MustCompile(`(?i)\b(GET|POST|PUT|PATCH|DELETE)\b\s+(/[^\s<]*)`)
	matches := methodRe.FindAllStringSubmatch(doc.Text(), -1)
	seen := make(map[string]struct{})
	for _, m := range matches {
		key := strings.ToUpper(m[1]) + " " + m[2]
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		record.Endpoints = append(record.Endpoints, model.APIEndpoint{Method: strings.ToUpper(m[1]), Path: m[2]})
	}
	return record
}

func extractArticle(doc *goquery.Document, rawHTML, sourceURL string) model.ArticleRecord {
	record := model.ArticleRecord{}

	if parsedURL, err := url.Parse(sourceURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL); err == nil {
			record.Headline = article.Title
			record.Author = article.Byline
		}
	}
	if record.Headline == "" {
		record.Headline = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find("h2").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			record.Sections = append(record.Sections, t)
		}
	})

	return record
}
