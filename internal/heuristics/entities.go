package heuristics

import (
	"regexp"
	"sort"
	"strconv"

	"webpeel/internal/model"
)

// capitalizedSeqRe matches runs of one or more capitalized words, e.g.
// "New York City" or "OpenAI".
var capitalizedSeqRe = regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*\b`)

// entityStopwords filters common capitalized words that aren't entities
// (sentence-initial articles, pronouns, weekday/month names, etc).
var entityStopwords = map[string]struct{}{
	"The": {}, "A": {}, "An": {}, "This": {}, "That": {}, "These": {}, "Those": {},
	"It": {}, "He": {}, "She": {}, "They": {}, "We": {}, "You": {}, "I": {},
	"January": {}, "February": {}, "March": {}, "April": {}, "May": {}, "June": {},
	"July": {}, "August": {}, "September": {}, "October": {}, "November": {}, "December": {},
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {}, "Friday": {}, "Saturday": {}, "Sunday": {},
	"In": {}, "On": {}, "At": {}, "For": {}, "With": {}, "And": {}, "Or": {}, "But": {},
}

// Entities extracts capitalized-word sequences from each source,
// keeping only those appearing in at least two distinct sources,
// filters the stopword list, and returns the top 20 by frequency
// (spec §4.9).
func Entities(sources []string) []model.Entity {
	counts := make(map[string]int)
	seenInSource := make(map[string]map[string]struct{})

	for srcIdx, src := range sources {
		matches := capitalizedSeqRe.FindAllString(src, -1)
		perSource := make(map[string]struct{})
		for _, m := range matches {
			if _, stop := entityStopwords[m]; stop {
				continue
			}
			perSource[m] = struct{}{}
		}
		for name := range perSource {
			if seenInSource[name] == nil {
				seenInSource[name] = make(map[string]struct{})
			}
			seenInSource[name][strconv.Itoa(srcIdx)] = struct{}{}
		}
	}

	for name, sourceSet := range seenInSource {
		if len(sourceSet) >= 2 {
			counts[name] = 0
		}
	}
	for _, src := range sources {
		matches := capitalizedSeqRe.FindAllString(src, -1)
		for _, m := range matches {
			if _, ok := counts[m]; ok {
				counts[m]++
			}
		}
	}

	entities := make([]model.Entity, 0, len(counts))
	for name, freq := range counts {
		entities = append(entities, model.Entity{Name: name, Frequency: freq})
	}

	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Frequency != entities[j].Frequency {
			return entities[i].Frequency > entities[j].Frequency
		}
		return entities[i].Name < entities[j].Name
	})

	if len(entities) > 20 {
		entities = entities[:20]
	}
	return entities
}
