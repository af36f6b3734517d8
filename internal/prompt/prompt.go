// Package prompt resolves named prompt templates.
package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"ontorag/internal/domain"
)

// Ontology is the template used for per-chunk ontology extraction.
const Ontology = "ontology"

//go:embed templates/*.tmpl
var defaults embed.FS

// Store looks templates up in an optional override directory first and
// then in the built-in set. Files are named <name>.tmpl and receive the
// chunk as {{.Text}}.
type Store struct {
	dir string
}

// NewStore creates a Store. An empty dir uses only the built-in templates.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

type data struct {
	Text string
}

// Render fills the named template with text.
func (s *Store) Render(name, text string) (string, error) {
	tmpl, err := s.load(name)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data{Text: text}); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return sb.String(), nil
}

func (s *Store) load(name string) (*template.Template, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: prompt name %q", domain.ErrInvalidInput, name)
	}
	file := name + ".tmpl"

	var src []byte
	var err error
	if s.dir != "" {
		src, err = os.ReadFile(filepath.Join(s.dir, file))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read prompt %q: %w", name, err)
		}
	}
	if src == nil {
		src, err = fs.ReadFile(defaults, "templates/"+file)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("prompt %q: %w", name, domain.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("read prompt %q: %w", name, err)
		}
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse prompt %q: %w", name, err)
	}
	return tmpl, nil
}
