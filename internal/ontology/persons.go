package ontology

import (
	"slices"
	"strings"

	"ontorag/internal/domain"
)

// Persons returns the people named in o: entities of any class with a
// "person" word in its name, or whose name mentions "character". Names are
// de-duplicated case-insensitively.
func Persons(o domain.Ontology) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, class := range sortedKeys(o.Entities) {
		if !isPersonClass(class) {
			continue
		}
		for _, name := range o.Entities[class] {
			name = strings.TrimSpace(name)
			key := strings.ToLower(name)
			if name == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func isPersonClass(class string) bool {
	lower := strings.ToLower(class)
	if strings.Contains(lower, "character") {
		return true
	}
	return slices.Contains(strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '/'
	}), "person")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
