package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"webpeel/internal/model"
)

// Extracted bundles everything the orchestrator (C13) needs out of the
// content pipeline for one fetched page.
type Extracted struct {
	Title    string
	Content  string
	Metadata model.PageMetadata
	Links    []string
	Images   []model.ImageRef
	Detected bool
}

// Pipeline runs the full HTML -> {content, metadata, links, images}
// pipeline of spec §4.4-§4.6, mirroring the two-stage shape of
// Easonliuliang-purify's cleaner.Clean: tag filtering, main-content
// detection, then format conversion, with metadata/links/images always
// pulled from the original unfiltered document so a narrow `selector`
// doesn't also narrow what readers see about the page.
func Pipeline(rawHTML, sourceURL string, opts model.Options) (Extracted, error) {
	fullDoc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Extracted{}, err
	}

	// A <base href> in the document, if present, is the resolution base
	// for relative links and images (§8); metadata (e.g. canonical link)
	// keeps resolving against the page's own URL.
	linkBase := effectiveBaseURL(fullDoc, sourceURL)

	meta := ExtractMetadata(fullDoc, sourceURL)
	title := ExtractTitle(fullDoc)
	links := ExtractLinks(fullDoc, linkBase)
	var images []model.ImageRef
	if opts.Images {
		images = ExtractImages(fullDoc, linkBase)
	}
	meta.WordCount = WordCount(fullDoc)

	working := rawHTML
	detected := false
	if opts.Raw {
		// raw skips both detection and tag filtering per §3 option
		// semantics: "raw (bool — skip cleaning)".
	} else {
		working = FilterByTags(working, nil, opts.ExcludeTags)
		if opts.Selector != "" {
			working = selectorOnly(working, opts.Selector)
		} else if len(opts.IncludeTags) > 0 {
			working = FilterByTags(working, opts.IncludeTags, nil)
		} else {
			working, detected = DetectMainContent(working)
		}
	}

	content, err := renderFormat(working, sourceURL, opts.Format)
	if err != nil {
		return Extracted{}, err
	}

	return Extracted{
		Title:    title,
		Content:  content,
		Metadata: meta,
		Links:    links,
		Images:   images,
		Detected: detected,
	}, nil
}

func selectorOnly(rawHTML, selector string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	var b strings.Builder
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if out, err := goquery.OuterHtml(sel); err == nil {
			b.WriteString(out)
			b.WriteString("\n")
		}
	})
	if b.Len() == 0 {
		return rawHTML
	}
	return b.String()
}

func renderFormat(rawHTML, sourceURL string, format model.Format) (string, error) {
	switch format {
	case model.FormatHTML:
		return rawHTML, nil
	case model.FormatText:
		return ToText(rawHTML), nil
	case model.FormatClean:
		md, err := ToMarkdown(rawHTML, sourceURL)
		if err != nil {
			return "", err
		}
		return CleanForAI(md), nil
	case model.FormatMarkdown, "":
		return ToMarkdown(rawHTML, sourceURL)
	default:
		return ToMarkdown(rawHTML, sourceURL)
	}
}
