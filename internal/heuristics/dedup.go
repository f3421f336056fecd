package heuristics

import (
	"webpeel/internal/model"
)

const defaultJaccardThreshold = 0.6

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range words(s) {
		if len(w) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Deduplicate drops near-duplicate key points using Jaccard similarity
// over their >2-char word sets; when two points exceed the threshold,
// the longer sentence is kept (spec §4.9).
func Deduplicate(points []model.KeyPoint, threshold float64) []model.KeyPoint {
	if threshold <= 0 {
		threshold = defaultJaccardThreshold
	}

	sets := make([]map[string]struct{}, len(points))
	for i, p := range points {
		sets[i] = wordSet(p.Text)
	}

	dropped := make([]bool, len(points))
	for i := range points {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(points); j++ {
			if dropped[j] {
				continue
			}
			if jaccard(sets[i], sets[j]) < threshold {
				continue
			}
			if len(points[j].Text) > len(points[i].Text) {
				dropped[i] = true
				break
			}
			dropped[j] = true
		}
	}

	out := make([]model.KeyPoint, 0, len(points))
	for i, p := range points {
		if !dropped[i] {
			out = append(out, p)
		}
	}
	return out
}
