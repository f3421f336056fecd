package heuristics

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"webpeel/internal/model"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var definitionPatternRe = regexp.MustCompile(`(?i)\bis\s+(?:a|an|the)\b`)
var causalPatternRe = regexp.MustCompile(`(?i)\b(because|due to|as a result|caused by|leads to)\b`)

// bm25Score scores one document's term frequencies against the query
// terms using Okapi BM25 with k1=1.5, b=0.75 (spec §4.9).
func bm25Score(docTokens []string, queryTokens []string, avgDocLen float64, docFreq map[string]int, totalDocs int) float64 {
	termFreq := make(map[string]int)
	for _, t := range docTokens {
		termFreq[t]++
	}

	docLen := float64(len(docTokens))
	score := 0.0
	for _, qt := range queryTokens {
		tf := float64(termFreq[qt])
		if tf == 0 {
			continue
		}
		df := docFreq[qt]
		idf := math.Log(1 + (float64(totalDocs-df)+0.5)/(float64(df)+0.5))
		numerator := tf * (bm25K1 + 1)
		denominator := tf + bm25K1*(1-bm25B+bm25B*(docLen/avgDocLen))
		score += idf * (numerator / denominator)
	}
	return score
}

const quickAnswerBoost = 0.5

// QuickAnswer scores each content sentence against the question with
// BM25, boosts number/date/definition/causal sentences based on
// question-type cues, and returns the top-K passages with a normalized
// confidence score, per spec §4.9.
func QuickAnswer(content, question string, topK int) model.QuickAnswer {
	if topK <= 0 {
		topK = 3
	}

	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return model.QuickAnswer{}
	}

	tokenized := make([][]string, len(sentences))
	totalLen := 0
	docFreq := make(map[string]int)
	for i, s := range sentences {
		tokenized[i] = words(s)
		totalLen += len(tokenized[i])
		seen := make(map[string]struct{})
		for _, t := range tokenized[i] {
			if _, dup := seen[t]; !dup {
				docFreq[t]++
				seen[t] = struct{}{}
			}
		}
	}
	avgDocLen := float64(totalLen) / float64(len(sentences))
	if avgDocLen == 0 {
		avgDocLen = 1
	}

	queryTokens := words(question)
	lowerQuestion := strings.ToLower(question)

	type scored struct {
		idx   int
		score float64
	}
	results := make([]scored, len(sentences))
	maxPossible := 0.0
	for i, sentence := range sentences {
		score := bm25Score(tokenized[i], queryTokens, avgDocLen, docFreq, len(sentences))

		if strings.Contains(lowerQuestion, "how many") || strings.Contains(lowerQuestion, "how much") {
			if numberInSentenceRe.MatchString(sentence) {
				score += quickAnswerBoost
			}
		}
		if strings.Contains(lowerQuestion, "when") {
			facts := ExtractFacts(sentence)
			if len(facts.Dates) > 0 {
				score += quickAnswerBoost
			}
		}
		if strings.Contains(lowerQuestion, "what is") && definitionPatternRe.MatchString(sentence) {
			score += quickAnswerBoost
		}
		if strings.Contains(lowerQuestion, "why") && causalPatternRe.MatchString(sentence) {
			score += quickAnswerBoost
		}

		results[i] = scored{idx: i, score: score}
		if score > maxPossible {
			maxPossible = score
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	passages := make([]model.Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, model.Passage{
			Text:    sentences[r.idx],
			Score:   r.score,
			Context: contextWindow(sentences, r.idx),
		})
	}

	confidence := 0.0
	if maxPossible > 0 && len(results) > 0 {
		theoreticalMax := maxPossible * 1.5 // headroom for the boost terms
		confidence = results[0].score / theoreticalMax
		if confidence > 1 {
			confidence = 1
		}
	}

	return model.QuickAnswer{Passages: passages, Confidence: confidence}
}

func contextWindow(sentences []string, idx int) string {
	start := idx - 1
	if start < 0 {
		start = 0
	}
	end := idx + 2
	if end > len(sentences) {
		end = len(sentences)
	}
	return strings.Join(sentences[start:end], " ")
}
