package domain

import "strings"

// UnknownMetadata is used when a title or author cannot be found in the text.
const UnknownMetadata = "Unknown"

// Chat roles understood by the generative service.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Metadata is best-effort information extracted from the raw document header.
type Metadata struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Document is a single ingested text file.
type Document struct {
	Name     string
	Raw      string
	Text     string
	Metadata Metadata
}

// Chunk is a contiguous word span of a document. Index is its position in
// document order and its row in the vector index.
type Chunk struct {
	Index int
	Text  string
}

// Message is a single turn sent to the generative service.
type Message struct {
	Role    string
	Content string
}

// Relationship is a relationship entry as the model emitted it.
// Well-formed entries have exactly three elements.
type Relationship []string

// Triple returns the entry as a triple when it has exactly three elements.
func (r Relationship) Triple() (Triple, bool) {
	if len(r) != 3 {
		return Triple{}, false
	}
	return Triple{Subject: r[0], Predicate: r[1], Object: r[2]}, true
}

// Triple is a subject-predicate-object fact.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func (t Triple) String() string {
	return strings.Join([]string{t.Subject, t.Predicate, t.Object}, " — ")
}

// Ontology holds the classes, entities and relationships extracted from a document.
type Ontology struct {
	Classes       []string            `json:"classes"`
	Entities      map[string][]string `json:"entities"`
	Relationships []Relationship      `json:"relationships"`
}

// EmptyOntology returns an ontology with all three parts present and empty.
func EmptyOntology() Ontology {
	return Ontology{
		Classes:       []string{},
		Entities:      map[string][]string{},
		Relationships: []Relationship{},
	}
}

// IsEmpty reports whether nothing was extracted.
func (o Ontology) IsEmpty() bool {
	return len(o.Classes) == 0 && len(o.Entities) == 0 && len(o.Relationships) == 0
}

// EntityCount is the number of entity names across all classes.
func (o Ontology) EntityCount() int {
	n := 0
	for _, names := range o.Entities {
		n += len(names)
	}
	return n
}
