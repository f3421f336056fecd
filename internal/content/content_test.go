package content

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"webpeel/internal/model"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtractTitleFallbackChain(t *testing.T) {
	doc := parseDoc(t, `<html><head><title>Fallback Title</title></head><body><h1>H1 Title</h1></body></html>`)
	if got := ExtractTitle(doc); got != "Fallback Title" {
		t.Fatalf("expected <title> to win over <h1>, got %q", got)
	}

	doc = parseDoc(t, `<html><head><meta property="og:title" content="OG Title"></head><body><title>Plain</title></body></html>`)
	if got := ExtractTitle(doc); got != "OG Title" {
		t.Fatalf("expected og:title to win, got %q", got)
	}
}

func TestExtractMetadataFallbacks(t *testing.T) {
	doc := parseDoc(t, `<html lang="en-US"><head>
		<meta property="og:description" content="desc">
		<meta name="author" content="Jane Doe">
		<link rel="canonical" href="/canon">
	</head><body></body></html>`)

	meta := ExtractMetadata(doc, "https://example.com/page")
	if meta.Description != "desc" {
		t.Fatalf("expected og:description, got %q", meta.Description)
	}
	if meta.Author != "Jane Doe" {
		t.Fatalf("expected meta author, got %q", meta.Author)
	}
	if meta.Canonical != "https://example.com/canon" {
		t.Fatalf("expected resolved canonical, got %q", meta.Canonical)
	}
	if meta.Language != "en-US" {
		t.Fatalf("expected html lang, got %q", meta.Language)
	}
}

func TestExtractLinksDedupesSortsAndFiltersFragments(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="/a">a</a>
		<a href="/b">b</a>
		<a href="/a">a again</a>
		<a href="#frag">fragment only</a>
		<a href="javascript:void(0)">js</a>
	</body></html>`)

	links := ExtractLinks(doc, "https://example.com/")
	want := []string{"https://example.com/a", "https://example.com/b"}
	if len(links) != len(want) {
		t.Fatalf("expected %v, got %v", want, links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, links)
		}
	}
}

func TestEffectiveBaseURLPrefersBaseHref(t *testing.T) {
	doc := parseDoc(t, `<html><head><base href="https://cdn.example.com/assets/"></head><body></body></html>`)
	if got := effectiveBaseURL(doc, "https://example.com/page"); got != "https://cdn.example.com/assets/" {
		t.Fatalf("expected base href to win, got %q", got)
	}
}

func TestEffectiveBaseURLFallsBackWithoutBaseTag(t *testing.T) {
	doc := parseDoc(t, `<html><body></body></html>`)
	if got := effectiveBaseURL(doc, "https://example.com/page"); got != "https://example.com/page" {
		t.Fatalf("expected sourceURL fallback, got %q", got)
	}
}

func TestEffectiveBaseURLResolvesRelativeBaseHref(t *testing.T) {
	doc := parseDoc(t, `<html><head><base href="/assets/"></head><body></body></html>`)
	if got := effectiveBaseURL(doc, "https://example.com/page"); got != "https://example.com/assets/" {
		t.Fatalf("expected relative base href resolved against sourceURL, got %q", got)
	}
}

func TestPipelineHonorsBaseHrefForLinks(t *testing.T) {
	html := `<html><head><base href="https://cdn.example.com/assets/"></head><body><a href="a.html">a</a></body></html>`
	out, err := Pipeline(html, "https://example.com/page", model.Options{Format: model.FormatHTML})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Links) != 1 || out.Links[0] != "https://cdn.example.com/assets/a.html" {
		t.Fatalf("expected link resolved against base href, got %v", out.Links)
	}
}

func TestExtractImagesAllSources(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<img src="/a.jpg" alt="A" width="100" height="50">
		<source srcset="/b.jpg 1x, /b2.jpg 2x">
		<div style="background-image: url('/c.jpg')"></div>
	</body></html>`)

	images := ExtractImages(doc, "https://example.com/")
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d: %+v", len(images), images)
	}
	if images[0].URL != "https://example.com/a.jpg" || images[0].Width != 100 {
		t.Fatalf("unexpected first image: %+v", images[0])
	}
}

func TestDetectMainContentPrefersArticle(t *testing.T) {
	long := strings.Repeat("word ", 30)
	html := `<html><body><div>nav</div><article>` + long + `</article></body></html>`
	out, detected := DetectMainContent(html)
	if !detected {
		t.Fatalf("expected detection to succeed")
	}
	if !strings.Contains(out, "<article>") {
		t.Fatalf("expected article html, got %q", out)
	}
}

func TestDetectMainContentFallsBackWhenNothingQualifies(t *testing.T) {
	html := `<html><body><p>short</p></body></html>`
	out, detected := DetectMainContent(html)
	if detected {
		t.Fatalf("expected no detection for short content")
	}
	if out != html {
		t.Fatalf("expected original html on no detection, got %q", out)
	}
}

func TestFilterByTagsExcludeThenInclude(t *testing.T) {
	html := `<html><body><nav>skip</nav><article>keep</article><footer>skip</footer></body></html>`
	out := FilterByTags(html, []string{"article"}, []string{"nav", "footer"})
	if !strings.Contains(out, "keep") {
		t.Fatalf("expected kept content, got %q", out)
	}
	if strings.Contains(out, "skip") {
		t.Fatalf("expected excluded content removed, got %q", out)
	}
}

func TestCleanMarkdownNoiseDropsEmptyAndImageOnlyLinks(t *testing.T) {
	md := "Real text\n\n[](http://example.com)\n\n[![alt](img.png)](http://example.com)\n\n\n\nMore text   \n"
	out := CleanMarkdownNoise(md)
	if strings.Contains(out, "[](") || strings.Contains(out, "[![") {
		t.Fatalf("expected empty/image-only links removed, got %q", out)
	}
	if strings.Contains(out, "\n\n\n") {
		t.Fatalf("expected newlines collapsed, got %q", out)
	}
}

func TestCleanForAIInlinesLinksAndStripsCitations(t *testing.T) {
	md := "See [the docs](http://example.com/docs) for more[1].\n\nhttp://bare-url.example.com\n\n![](img.png)\n\n![alt text](img2.png)"
	out := CleanForAI(md)
	if strings.Contains(out, "(http://example.com/docs)") {
		t.Fatalf("expected link inlined to text only, got %q", out)
	}
	if !strings.Contains(out, "the docs") {
		t.Fatalf("expected link text preserved, got %q", out)
	}
	if strings.Contains(out, "[1]") {
		t.Fatalf("expected citation marker stripped, got %q", out)
	}
	if strings.Contains(out, "bare-url.example.com") {
		t.Fatalf("expected bare URL line stripped, got %q", out)
	}
	if !strings.Contains(out, "[Image: alt text]") {
		t.Fatalf("expected alt-text image replaced, got %q", out)
	}
}

func TestPipelineRawSkipsDetectionAndFiltering(t *testing.T) {
	html := `<html><body><nav>nav</nav><article>content</article></body></html>`
	out, err := Pipeline(html, "https://example.com", model.Options{Raw: true, Format: model.FormatHTML})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Content, "nav") {
		t.Fatalf("expected raw to skip filtering, got %q", out.Content)
	}
}

func TestPipelineSelectorWins(t *testing.T) {
	html := `<html><body><div id="a">first</div><div id="b">second</div></body></html>`
	out, err := Pipeline(html, "https://example.com", model.Options{Selector: "#b", Format: model.FormatHTML})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Content, "second") || strings.Contains(out.Content, "first") {
		t.Fatalf("expected only selector match, got %q", out.Content)
	}
}
