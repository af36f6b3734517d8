// Package textutil holds the word and sentence tokenization shared by the
// embedder, the summarizer and the terminal UI.
package textutil

import (
	"regexp"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	stopwords  = buildStopwords()
)

// Words returns the lower-cased letter tokens of s.
func Words(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// ContentWords returns Words(s) without stopwords.
func ContentWords(s string) []string {
	raw := Words(s)
	out := raw[:0]
	for _, w := range raw {
		if IsStopword(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// WordSet returns the distinct lower-cased tokens of s.
func WordSet(s string) map[string]struct{} {
	tokens := Words(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// Sentences splits s into sentences terminated by . ! or ?.
// Text without a terminator is returned as a single trimmed sentence.
func Sentences(s string) []string {
	found := sentenceRe.FindAllString(s, -1)
	if len(found) == 0 {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	for i := range found {
		found[i] = strings.TrimSpace(found[i])
	}
	return found
}

// IsStopword reports whether the lower-cased word w carries no content.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

func buildStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
