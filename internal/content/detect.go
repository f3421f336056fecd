package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const minMainContentLen = 100

var mainContentSelectors = []string{
	"article[role=main]",
	"main article",
	"article",
	"main",
	"[role=main]",
}

// DetectMainContent implements spec §4.4: try the priority-ordered
// selectors in turn, accepting the first whose visible text length is at
// least 100 characters; otherwise fall back to the largest-by-text
// `section` or `div`. Returns detected=false with the original HTML when
// nothing qualifies. Takes and returns raw HTML strings, matching the
// spec's `detectMainContent(html) -> {html, detected}` signature, since
// this and FilterByTags are applied as independent stages over the same
// rendered document rather than sharing one mutable goquery tree.
func DetectMainContent(rawHTML string) (htmlOut string, detected bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML, false
	}

	for _, selector := range mainContentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(sel.Text())
		if len(text) >= minMainContentLen {
			if out, err := goquery.OuterHtml(sel); err == nil {
				return out, true
			}
		}
	}

	var best *goquery.Selection
	bestLen := 0
	doc.Find("section, div").Each(func(_ int, sel *goquery.Selection) {
		n := len(strings.TrimSpace(sel.Text()))
		if n > bestLen {
			bestLen = n
			best = sel
		}
	})
	if best != nil && bestLen >= minMainContentLen {
		if out, err := goquery.OuterHtml(best); err == nil {
			return out, true
		}
	}

	return rawHTML, false
}

// FilterByTags implements spec §4.4: remove every node matching any
// exclude selector, then — if include is non-empty — concatenate the
// outer HTML of every node matching an include selector. Empty include
// passes the exclude-filtered document through unchanged.
func FilterByTags(rawHTML string, include, exclude []string) string {
	if len(include) == 0 && len(exclude) == 0 {
		return rawHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	for _, sel := range exclude {
		doc.Find(sel).Remove()
	}

	if len(include) == 0 {
		out, err := goquery.OuterHtml(doc.Selection)
		if err != nil {
			return rawHTML
		}
		return out
	}

	var b strings.Builder
	for _, sel := range include {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if out, err := goquery.OuterHtml(s); err == nil {
				b.WriteString(out)
				b.WriteString("\n")
			}
		})
	}
	return b.String()
}
