package heuristics

import (
	"regexp"

	"webpeel/internal/model"
)

var (
	priceRe      = regexp.MustCompile(`[$€£¥]\s?\d[\d,]*(?:\.\d+)?`)
	percentRe    = regexp.MustCompile(`\d+(?:\.\d+)?\s?%`)
	countRe      = regexp.MustCompile(`(?i)\d[\d,]*(?:\.\d+)?\s?(?:million|billion|thousand|K|M|B)\b`)
	dateLongRe   = regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)
	dateISORe    = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	dateQuarterRe = regexp.MustCompile(`(?i)\bQ[1-4]\s+\d{4}\b`)
)

func dedupeCapped(matches []string, cap int) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
		if len(out) >= cap {
			break
		}
	}
	return out
}

// ExtractFacts pulls prices, percentages, magnitude counts, and dates
// from content using the regex families of spec §4.9: cap 5 per
// price/percent/count category, dates deduped and capped at 10.
func ExtractFacts(content string) model.ExtractedFacts {
	var dates []string
	dates = append(dates, dateLongRe.FindAllString(content, -1)...)
	dates = append(dates, dateISORe.FindAllString(content, -1)...)
	dates = append(dates, dateQuarterRe.FindAllString(content, -1)...)

	return model.ExtractedFacts{
		Prices:      dedupeCapped(priceRe.FindAllString(content, -1), 5),
		Percentages: dedupeCapped(percentRe.FindAllString(content, -1), 5),
		Counts:      dedupeCapped(countRe.FindAllString(content, -1), 5),
		Dates:       dedupeCapped(dates, 10),
	}
}
