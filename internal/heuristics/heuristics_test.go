package heuristics

import (
	"strings"
	"testing"

	"webpeel/internal/model"
)

func TestKeyPointsRanksQueryOverlapHigher(t *testing.T) {
	content := "The quick brown fox jumps over the lazy dog near the river bank today. " +
		"Completely unrelated sentence about something else entirely happening elsewhere now."
	points := KeyPoints(content, "fox jumps river", 5)
	if len(points) == 0 {
		t.Fatalf("expected key points")
	}
	if !strings.Contains(points[0].Text, "fox") {
		t.Fatalf("expected top point to mention the query terms, got %q", points[0].Text)
	}
}

func TestKeyPointsFiltersSentenceLength(t *testing.T) {
	content := "Short. " + strings.Repeat("a", 600) + ". This sentence is a reasonable length for inclusion here today."
	points := KeyPoints(content, "", 10)
	for _, p := range points {
		if len(p.Text) < 20 || len(p.Text) > 500 {
			t.Fatalf("expected sentence within [20,500], got len %d", len(p.Text))
		}
	}
}

func TestDeduplicateKeepsLongerOfSimilarSentences(t *testing.T) {
	points := []model.KeyPoint{
		{Text: "The stock market rallied today on strong earnings reports", Score: 1},
		{Text: "The stock market rallied today on strong earnings reports from major technology companies", Score: 1},
		{Text: "A completely different topic about weather patterns in the mountains", Score: 1},
	}
	deduped := Deduplicate(points, 0.6)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 after dedup, got %d: %+v", len(deduped), deduped)
	}
}

func TestEntitiesRequiresTwoDistinctSources(t *testing.T) {
	sources := []string{
		"OpenAI released a new model today.",
		"Researchers at OpenAI published a paper.",
		"No mention of that company here at all.",
	}
	entities := Entities(sources)
	found := false
	for _, e := range entities {
		if e.Name == "OpenAI" {
			found = true
			if e.Frequency != 2 {
				t.Fatalf("expected frequency 2, got %d", e.Frequency)
			}
		}
	}
	if !found {
		t.Fatalf("expected OpenAI to be extracted, got %+v", entities)
	}
}

func TestEntitiesDropsSingleSourceMentions(t *testing.T) {
	sources := []string{
		"Zanzibar is a beautiful place to visit.",
		"No mention of that place here.",
	}
	entities := Entities(sources)
	for _, e := range entities {
		if e.Name == "Zanzibar" {
			t.Fatalf("expected single-source entity dropped, got %+v", entities)
		}
	}
}

func TestExtractFactsFindsAllCategories(t *testing.T) {
	content := "The price is $49.99 with a 20% discount, reaching over 2 million users. " +
		"Launched on January 5, 2024 and updated 2024-06-01, targeting Q3 2024."
	facts := ExtractFacts(content)
	if len(facts.Prices) == 0 {
		t.Fatalf("expected a price, got %+v", facts)
	}
	if len(facts.Percentages) == 0 {
		t.Fatalf("expected a percentage, got %+v", facts)
	}
	if len(facts.Counts) == 0 {
		t.Fatalf("expected a count, got %+v", facts)
	}
	if len(facts.Dates) < 2 {
		t.Fatalf("expected multiple date formats, got %+v", facts.Dates)
	}
}

func TestExtractFactsCapsAndDedupes(t *testing.T) {
	content := strings.Repeat("$9.99 $9.99 $9.99 $9.99 $9.99 $9.99 $9.99 ", 1)
	facts := ExtractFacts(content)
	if len(facts.Prices) != 1 {
		t.Fatalf("expected dedup to 1, got %+v", facts.Prices)
	}
}

func TestDetectComparisonExtractsEntitiesAndRows(t *testing.T) {
	content := "iPhone vs Android.\n\nThe iPhone is priced at $999 and features a great camera.\n\n" +
		"Android costs $799 and is available on platforms like Samsung and Google."
	table, ok := DetectComparison(content)
	if !ok {
		t.Fatalf("expected comparison detected")
	}
	if len(table.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %+v", table.Entities)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", table.Rows)
	}
}

func TestDetectComparisonNoTriggerReturnsFalse(t *testing.T) {
	_, ok := DetectComparison("Just a regular sentence with no comparison language at all.")
	if ok {
		t.Fatalf("expected no comparison detected")
	}
}

func TestQuickAnswerBoostsNumberSentenceForHowMany(t *testing.T) {
	content := "The company was founded a long time ago in a small office. " +
		"The company now employs 5000 people across 12 countries worldwide today."
	answer := QuickAnswer(content, "How many people does the company employ", 1)
	if len(answer.Passages) == 0 {
		t.Fatalf("expected at least one passage")
	}
	if !strings.Contains(answer.Passages[0].Text, "5000") {
		t.Fatalf("expected number-bearing sentence to win, got %q", answer.Passages[0].Text)
	}
	if answer.Confidence <= 0 {
		t.Fatalf("expected positive confidence, got %f", answer.Confidence)
	}
}

func TestQuickAnswerNoMatchReturnsLowConfidence(t *testing.T) {
	answer := QuickAnswer("Completely unrelated filler content about gardening tips today.", "What is quantum computing", 1)
	if answer.Confidence > 0.5 {
		t.Fatalf("expected low confidence for unrelated content, got %f", answer.Confidence)
	}
}

func TestAutoExtractContactFindsEmailsAndPhones(t *testing.T) {
	html := `<html><body><h1>Contact Us</h1><p>Reach us at hello@example.com or call +1 555-123-4567.</p>
		<address>123 Main St, Springfield</address></body></html>`
	result := AutoExtract(html, "https://example.com/contact")
	if result.Type != model.PageTypeContact {
		t.Fatalf("expected contact page type, got %v", result.Type)
	}
	record, ok := result.Record.(model.ContactRecord)
	if !ok {
		t.Fatalf("expected ContactRecord, got %T", result.Record)
	}
	if len(record.Emails) != 1 || record.Emails[0] != "hello@example.com" {
		t.Fatalf("expected extracted email, got %+v", record.Emails)
	}
}

func TestAutoExtractUnknownReturnsEmptyRecordNotError(t *testing.T) {
	result := AutoExtract("<html><body><p>nothing special</p></body></html>", "https://example.com/random")
	if result.Type != model.PageTypeUnknown {
		t.Fatalf("expected unknown page type, got %v", result.Type)
	}
	if _, ok := result.Record.(model.ArticleRecord); !ok {
		t.Fatalf("expected empty ArticleRecord fallback, got %T", result.Record)
	}
}
