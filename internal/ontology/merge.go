package ontology

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"ontorag/internal/domain"
)

// DedupMode selects how entity names are compared when merging.
type DedupMode string

const (
	// DedupCaseFold treats names that differ only in case as one; the first
	// spelling seen is kept.
	DedupCaseFold DedupMode = "casefold"
	DedupExact    DedupMode = "exact"
)

// ParseDedupMode accepts "", "casefold" or "exact".
func ParseDedupMode(s string) (DedupMode, error) {
	switch DedupMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DedupCaseFold:
		return DedupCaseFold, nil
	case DedupExact:
		return DedupExact, nil
	default:
		return "", fmt.Errorf("%w: unknown dedup mode %q", domain.ErrInvalidInput, s)
	}
}

// CanonicalClass trims a class name, collapses inner whitespace and title
// cases each word.
func CanonicalClass(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// Merge folds part into acc and returns a new ontology; neither argument is
// modified. Classes become a set of canonical names, entities are
// concatenated per canonical class and de-duplicated with mode, and
// relationships are appended as they are.
func Merge(acc, part domain.Ontology, mode DedupMode) domain.Ontology {
	out := domain.EmptyOntology()

	seenClass := make(map[string]struct{})
	for _, list := range [][]string{acc.Classes, part.Classes} {
		for _, c := range list {
			canon := CanonicalClass(c)
			if canon == "" {
				continue
			}
			if _, dup := seenClass[canon]; dup {
				continue
			}
			seenClass[canon] = struct{}{}
			out.Classes = append(out.Classes, canon)
		}
	}

	seenEntity := make(map[string]map[string]struct{})
	for _, src := range []map[string][]string{acc.Entities, part.Entities} {
		for _, class := range sortedKeys(src) {
			canon := CanonicalClass(class)
			if canon == "" {
				continue
			}
			seen, ok := seenEntity[canon]
			if !ok {
				seen = make(map[string]struct{})
				seenEntity[canon] = seen
				out.Entities[canon] = []string{}
			}
			for _, name := range src[class] {
				name = strings.Join(strings.Fields(name), " ")
				if name == "" {
					continue
				}
				key := name
				if mode != DedupExact {
					key = strings.ToLower(name)
				}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out.Entities[canon] = append(out.Entities[canon], name)
			}
		}
	}

	out.Relationships = make([]domain.Relationship, 0, len(acc.Relationships)+len(part.Relationships))
	for _, list := range [][]domain.Relationship{acc.Relationships, part.Relationships} {
		for _, r := range list {
			out.Relationships = append(out.Relationships, append(domain.Relationship(nil), r...))
		}
	}

	return out
}

// MergeAll folds parts left to right starting from an empty ontology.
func MergeAll(parts []domain.Ontology, mode DedupMode) domain.Ontology {
	acc := domain.EmptyOntology()
	for _, p := range parts {
		acc = Merge(acc, p, mode)
	}
	return acc
}
