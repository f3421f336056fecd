package heuristics

import (
	"regexp"
	"strings"

	"webpeel/internal/model"
)

var comparisonTriggerRe = regexp.MustCompile(`(?i)\b(vs\.?|versus|compare|comparison|difference|alternative)\b`)

var comparisonPairRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b([A-Z][\w.+-]*(?:\s[A-Z][\w.+-]*){0,2})\s+vs\.?\s+([A-Z][\w.+-]*(?:\s[A-Z][\w.+-]*){0,2})\b`),
	regexp.MustCompile(`(?i)\bcompare\s+([A-Z][\w.+-]*(?:\s[A-Z][\w.+-]*){0,2})\s+and\s+([A-Z][\w.+-]*(?:\s[A-Z][\w.+-]*){0,2})\b`),
	regexp.MustCompile(`(?i)\bdifference\s+between\s+([A-Z][\w.+-]*(?:\s[A-Z][\w.+-]*){0,2})\s+and\s+([A-Z][\w.+-]*(?:\s[A-Z][\w.+-]*){0,2})\b`),
}

const comparisonFieldMaxLen = 120

func truncateField(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= comparisonFieldMaxLen {
		return s
	}
	return s[:comparisonFieldMaxLen]
}

// columnPatterns maps table column names to a regex that, when found in
// a paragraph mentioning the entity, yields that column's value.
var columnPatterns = map[string]*regexp.Regexp{
	"price":    regexp.MustCompile(`(?i)(?:price[ds]?|cost[s]?)\D{0,10}([$€£¥]\s?\d[\d,.]*)`),
	"features": regexp.MustCompile(`(?i)features?:?\s+(.{5,120})`),
	"pros":     regexp.MustCompile(`(?i)pros?:?\s+(.{5,120})`),
	"cons":     regexp.MustCompile(`(?i)cons?:?\s+(.{5,120})`),
	"platform": regexp.MustCompile(`(?i)(?:available on|platform[s]?:?)\s+(.{2,60})`),
	"rating":   regexp.MustCompile(`(?i)rat(?:ed|ing)s?:?\s*([\d.]+\s?(?:/|out of)\s?\d+|\d(?:\.\d)?\s?stars?)`),
}

// DetectComparison finds a comparison trigger and entity pair, then
// builds a table of {price, features, pros, cons, platform, rating} per
// entity from the first matching pattern in paragraphs that mention it,
// per spec §4.9.
func DetectComparison(content string) (model.ComparisonTable, bool) {
	if !comparisonTriggerRe.MatchString(content) {
		return model.ComparisonTable{}, false
	}

	var entityA, entityB string
	for _, re := range comparisonPairRes {
		if m := re.FindStringSubmatch(content); m != nil {
			entityA, entityB = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
			break
		}
	}
	if entityA == "" || entityB == "" {
		return model.ComparisonTable{}, false
	}

	paragraphs := strings.Split(content, "\n\n")
	table := model.ComparisonTable{Entities: []string{entityA, entityB}}
	for _, entity := range []string{entityA, entityB} {
		table.Rows = append(table.Rows, buildComparisonRow(entity, paragraphs))
	}
	return table, true
}

func buildComparisonRow(entity string, paragraphs []string) model.ComparisonRow {
	row := model.ComparisonRow{
		Entity:   entity,
		Price:    "N/A",
		Features: "N/A",
		Pros:     "N/A",
		Cons:     "N/A",
		Platform: "N/A",
		Rating:   "N/A",
	}

	var mentions []string
	for _, p := range paragraphs {
		if strings.Contains(p, entity) {
			mentions = append(mentions, p)
		}
	}
	if len(mentions) == 0 {
		return row
	}

	fields := []struct {
		col *string
		re  *regexp.Regexp
	}{
		{&row.Price, columnPatterns["price"]},
		{&row.Features, columnPatterns["features"]},
		{&row.Pros, columnPatterns["pros"]},
		{&row.Cons, columnPatterns["cons"]},
		{&row.Platform, columnPatterns["platform"]},
		{&row.Rating, columnPatterns["rating"]},
	}

	for _, f := range fields {
		for _, p := range mentions {
			if m := f.re.FindStringSubmatch(p); m != nil {
				*f.col = truncateField(m[1])
				break
			}
		}
	}
	return row
}
