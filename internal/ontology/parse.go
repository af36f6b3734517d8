// Package ontology extracts classes, entities and relationship triples from
// document chunks and matches them against questions.
package ontology

import (
	"bytes"
	"encoding/json"
	"strings"

	"ontorag/internal/domain"
)

// Kind tags an extraction result.
type Kind int

const (
	Parsed Kind = iota
	Malformed
)

func (k Kind) String() string {
	switch k {
	case Parsed:
		return "parsed"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result is the outcome of parsing one model response. A Malformed result
// always carries an empty ontology; Raw is the response as received.
type Result struct {
	Kind     Kind
	Ontology domain.Ontology
	Raw      string
}

// Parse decodes the first JSON value that starts at the first '{' in raw.
// Text after that value is ignored. Sections with the wrong shape are
// skipped instead of failing the whole response.
func Parse(raw string) Result {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return Result{Kind: Malformed, Ontology: domain.EmptyOntology(), Raw: raw}
	}

	var sections map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	if err := dec.Decode(&sections); err != nil {
		return Result{Kind: Malformed, Ontology: domain.EmptyOntology(), Raw: raw}
	}

	o := domain.EmptyOntology()
	if list, ok := decodeList(sections["classes"]); ok {
		o.Classes = list
	}

	var entities map[string]json.RawMessage
	if err := json.Unmarshal(sections["entities"], &entities); err == nil {
		for class, members := range entities {
			if list, ok := decodeList(members); ok {
				o.Entities[class] = list
			} else if s, ok := scalar(members); ok {
				o.Entities[class] = []string{s}
			}
		}
	}

	var rels []json.RawMessage
	if err := json.Unmarshal(sections["relationships"], &rels); err == nil {
		for _, r := range rels {
			if list, ok := decodeList(r); ok {
				o.Relationships = append(o.Relationships, domain.Relationship(list))
			}
		}
	}

	return Result{Kind: Parsed, Ontology: o, Raw: raw}
}

// decodeList reads a JSON array, turning each member into a string.
// Non-string members keep their JSON text so the element count survives.
func decodeList(raw json.RawMessage) ([]string, bool) {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := scalar(item); ok {
			out = append(out, s)
			continue
		}
		out = append(out, string(bytes.TrimSpace(item)))
	}
	return out, true
}

func scalar(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
