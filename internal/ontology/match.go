package ontology

import (
	"strings"

	"ontorag/internal/domain"
)

// Match returns the well-formed triples that share text with query: a
// triple matches when any element contains the query or is contained in it,
// ignoring case. Order follows rels. Entries that are not triples and empty
// elements never match.
func Match(query string, rels []domain.Relationship) []domain.Triple {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []domain.Triple
	for _, r := range rels {
		t, ok := r.Triple()
		if !ok {
			continue
		}
		for _, el := range []string{t.Subject, t.Predicate, t.Object} {
			e := strings.ToLower(strings.TrimSpace(el))
			if e == "" {
				continue
			}
			if strings.Contains(q, e) || strings.Contains(e, q) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
