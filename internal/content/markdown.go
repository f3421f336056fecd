package content

import (
	"regexp"
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ToMarkdown converts HTML to Markdown preserving headings, lists, code
// blocks, emphasis, tables, blockquotes, and inline links/images, then
// applies the noise-cleaning pass (spec §4.5). Grounded on
// ncecere-raito's scraper.go converter construction
// (htmlmd.NewConverter(domain, true, nil)).
func ToMarkdown(rawHTML, baseURL string) (string, error) {
	host := baseURL
	if u := hostnameOf(baseURL); u != "" {
		host = u
	}
	converter := htmlmd.NewConverter(host, true, nil)
	md, err := converter.ConvertString(rawHTML)
	if err != nil {
		return "", err
	}
	return CleanMarkdownNoise(md), nil
}

// ToText strips tags and returns visible text only (format=text).
func ToText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	return strings.TrimSpace(doc.Text())
}

var (
	emptyLinkRe    = regexp.MustCompile(`\[\]\([^)]*\)`)
	imageOnlyLinkRe = regexp.MustCompile(`\[!\[[^\]]*\]\([^)]*\)\]\([^)]*\)`)
	excessNewlineRe = regexp.MustCompile(`\n{3,}`)
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
)

// CleanMarkdownNoise implements spec §4.5's cleaning pass: drop empty
// links and image-only links, collapse 3+ newlines to 2, trim trailing
// whitespace per line and leading/trailing whitespace overall.
func CleanMarkdownNoise(md string) string {
	md = imageOnlyLinkRe.ReplaceAllString(md, "")
	md = emptyLinkRe.ReplaceAllString(md, "")
	md = trailingSpaceRe.ReplaceAllString(md, "\n")
	md = excessNewlineRe.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md)
}

var (
	inlineLinkRe    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	inlineImageRe   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	citationMarkRe  = regexp.MustCompile(`\[\d+\]`)
	bareURLLineRe   = regexp.MustCompile(`(?m)^\s*https?://\S+\s*$`)
	htmlCommentRe   = regexp.MustCompile(`(?s)<!--.*?-->`)
	refDefinitionRe = regexp.MustCompile(`(?m)^\s*\[[^\]]+\]:\s*\S+.*$`)
)

// CleanForAI implements the format=clean / cleanForAI variant (spec
// §4.5): inline links as their text, replace images with "[Image: alt]"
// (or drop if alt is empty), strip citation markers, bare-URL-only
// lines, HTML comments, and reference-style link definitions.
func CleanForAI(md string) string {
	md = htmlCommentRe.ReplaceAllString(md, "")
	md = refDefinitionRe.ReplaceAllString(md, "")
	md = bareURLLineRe.ReplaceAllString(md, "")

	md = inlineImageRe.ReplaceAllStringFunc(md, func(match string) string {
		groups := inlineImageRe.FindStringSubmatch(match)
		if len(groups) != 2 || groups[1] == "" {
			return ""
		}
		return "[Image: " + groups[1] + "]"
	})

	md = inlineLinkRe.ReplaceAllString(md, "$1")
	md = citationMarkRe.ReplaceAllString(md, "")

	return CleanMarkdownNoise(md)
}

func hostnameOf(rawURL string) string {
	idx := strings.Index(rawURL, "://")
	if idx == -1 {
		return rawURL
	}
	rest := rawURL[idx+3:]
	if slash := strings.Index(rest, "/"); slash != -1 {
		rest = rest[:slash]
	}
	return rest
}
