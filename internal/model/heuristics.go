package model

// KeyPoint is a single ranked sentence returned by the key-point
// extractor (§4.9).
type KeyPoint struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Entity is a capitalized-sequence extraction that appeared in at least
// two distinct sources (§4.9).
type Entity struct {
	Name      string `json:"name"`
	Frequency int    `json:"frequency"`
}

// ExtractedFacts bundles the numbers/dates extraction families of §4.9.
type ExtractedFacts struct {
	Prices      []string `json:"prices,omitempty"`
	Percentages []string `json:"percentages,omitempty"`
	Counts      []string `json:"counts,omitempty"`
	Dates       []string `json:"dates,omitempty"`
}

// ComparisonRow is one entity's column values in a comparison table.
type ComparisonRow struct {
	Entity   string `json:"entity"`
	Price    string `json:"price"`
	Features string `json:"features"`
	Pros     string `json:"pros"`
	Cons     string `json:"cons"`
	Platform string `json:"platform"`
	Rating   string `json:"rating"`
}

// ComparisonTable is the §4.9 comparison-detection output.
type ComparisonTable struct {
	Entities []string        `json:"entities"`
	Rows     []ComparisonRow `json:"rows"`
}

// Passage is a single scored quick-answer result (§4.9).
type Passage struct {
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Context string  `json:"context,omitempty"`
}

// QuickAnswer is the BM25-based answer-extraction result.
type QuickAnswer struct {
	Passages   []Passage `json:"passages"`
	Confidence float64   `json:"confidence"`
}

// PageType classifies a page for the auto-extractor (§4.9).
type PageType string

const (
	PageTypePricing  PageType = "pricing"
	PageTypeProducts PageType = "products"
	PageTypeContact  PageType = "contact"
	PageTypeArticle  PageType = "article"
	PageTypeAPIDocs  PageType = "api_docs"
	PageTypeUnknown  PageType = "unknown"
)

// PricingPlan is one plan row of a PricingRecord.
type PricingPlan struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Period   string   `json:"period,omitempty"`
	Features []string `json:"features,omitempty"`
}

// PricingRecord is the typed auto-extract record for PageTypePricing.
type PricingRecord struct {
	Plans []PricingPlan `json:"plans"`
}

// Product is one item row of a ProductsRecord.
type Product struct {
	Name  string `json:"name"`
	Price string `json:"price,omitempty"`
	URL   string `json:"url,omitempty"`
}

// ProductsRecord is the typed auto-extract record for PageTypeProducts.
type ProductsRecord struct {
	Products []Product `json:"products"`
}

// ContactRecord is the typed auto-extract record for PageTypeContact.
type ContactRecord struct {
	Emails  []string `json:"emails"`
	Phones  []string `json:"phones"`
	Address string   `json:"address,omitempty"`
}

// ArticleRecord is the typed auto-extract record for PageTypeArticle.
type ArticleRecord struct {
	Headline string   `json:"headline"`
	Author   string   `json:"author,omitempty"`
	Date     string   `json:"date,omitempty"`
	Sections []string `json:"sections,omitempty"`
}

// APIEndpoint is one discovered operation of an APIDocsRecord.
type APIEndpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// APIDocsRecord is the typed auto-extract record for PageTypeAPIDocs.
type APIDocsRecord struct {
	Endpoints []APIEndpoint `json:"endpoints"`
}

// AutoExtractResult carries the detected page type and its typed record.
type AutoExtractResult struct {
	Type   PageType `json:"type"`
	Record any      `json:"record"`
}
