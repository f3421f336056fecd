// Package heuristics implements the deep-fetch/quick-answer/auto-extract
// heuristic modules of spec §4.9 (C9). None of the teacher's concurrent
// readability+pruning "auto" mode (ncecere-raito has no analog;
// Easonliuliang-purify's cleaner/pipeline.go autoExtract races
// go-readability against a pruning heuristic and keeps whichever
// extracted more text) is reused: AutoExtract takes an article headline
// from go-readability alone, with no race, and falls back to the first
// <h1>. Sentence scoring, BM25, and regex
// fact extraction have no teacher analog and are implemented directly
// from the spec.
package heuristics

import (
	"regexp"
	"sort"
	"strings"

	"webpeel/internal/model"
)

var sentenceSplitRe = regexp.MustCompile(`(?:[.!?]+["')\]]?\s+|\n+)`)

// splitSentences breaks content into sentences and keeps only those in
// the spec's [20,500] character window.
func splitSentences(content string) []string {
	raw := sentenceSplitRe.Split(content, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if len(s) >= 20 && len(s) <= 500 {
			out = append(out, s)
		}
	}
	return out
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9']+`)

func words(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

var numberInSentenceRe = regexp.MustCompile(`\d`)

var signalWords = map[string]struct{}{
	"important": {}, "significant": {}, "key": {}, "critical": {},
	"essential": {}, "major": {}, "primary": {}, "crucial": {},
	"notably": {}, "finally": {}, "conclusion": {}, "result": {},
	"therefore": {}, "because": {},
}

func hasSignalWord(sentenceWords []string) bool {
	for _, w := range sentenceWords {
		if _, ok := signalWords[w]; ok {
			return true
		}
	}
	return false
}

// KeyPoints scores each candidate sentence by
// 3·queryOverlap + 0.5·numberHits(cap 2) + 1·hasSignalWord + 0.5·lengthInRange,
// and returns the top n by score, per spec §4.9.
func KeyPoints(content, query string, n int) []model.KeyPoint {
	sentences := splitSentences(content)
	queryWords := make(map[string]struct{})
	for _, w := range words(query) {
		queryWords[w] = struct{}{}
	}

	scored := make([]model.KeyPoint, 0, len(sentences))
	for _, sentence := range sentences {
		sw := words(sentence)

		overlap := 0
		seen := make(map[string]struct{})
		for _, w := range sw {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			if _, ok := queryWords[w]; ok {
				overlap++
			}
		}

		numberHits := len(numberInSentenceRe.FindAllString(sentence, -1))
		if numberHits > 2 {
			numberHits = 2
		}

		score := 3*float64(overlap) + 0.5*float64(numberHits)
		if hasSignalWord(sw) {
			score += 1
		}
		if len(sentence) >= 60 && len(sentence) <= 300 {
			score += 0.5
		}

		scored = append(scored, model.KeyPoint{Text: sentence, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
