// Package summarizer produces short extractive summaries of a document.
package summarizer

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"ontorag/internal/textutil"
)

// DefaultSentences is the summary length used when none is configured.
const DefaultSentences = 3

// FrequencySummarizer ranks sentences by the normalized frequency of their
// content words and keeps the best ones in document order.
type FrequencySummarizer struct {
	maxSentences int
}

func NewFrequencySummarizer(maxSentences int) *FrequencySummarizer {
	if maxSentences <= 0 {
		maxSentences = DefaultSentences
	}
	return &FrequencySummarizer{maxSentences: maxSentences}
}

// Summarize returns at most maxSentences sentences of text joined by spaces.
func (s *FrequencySummarizer) Summarize(text string) string {
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return ""
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range textutil.ContentWords(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := textutil.Words(sent)
		sum := 0.0
		for _, tok := range toks {
			sum += freq[tok]
		}
		// Longer sentences would otherwise always win.
		if len(toks) > 0 {
			sum /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = scored{i, sum}
	}
	slices.SortStableFunc(scores, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	n := min(s.maxSentences, len(scores))
	selected := make([]int, n)
	for i := range n {
		selected[i] = scores[i].idx
	}
	slices.Sort(selected)

	out := make([]string, n)
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}
