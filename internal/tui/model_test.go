package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontorag/internal/domain"
	"ontorag/internal/service"
)

type fakePort struct {
	result *service.QueryResult
	err    error
	asked  []string
}

func (f *fakePort) Ask(_ context.Context, q string) (*service.QueryResult, error) {
	f.asked = append(f.asked, q)
	return f.result, f.err
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestModel_EnterAsksAndRendersAnswer(t *testing.T) {
	port := &fakePort{result: &service.QueryResult{
		Query:         "who did elizabeth marry",
		Outcome:       service.OutcomeAnswered,
		Answer:        "Mr. Darcy.",
		Chunks:        []string{"Elizabeth married Darcy. It was spring.", "Jane married Bingley."},
		Similarities:  []float64{0.61, 0.42},
		MaxSimilarity: 0.61,
		Facts:         []domain.Triple{{Subject: "Elizabeth", Predicate: "married", Object: "Darcy"}},
	}}
	m := sized(t, New(port, Header{Title: "Pride and Prejudice", Author: "Jane Austen", Chunks: 2}))

	m.input.SetValue("who did elizabeth marry")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = next.(Model)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, []string{"who did elizabeth marry"}, port.asked)

	out := m.renderResult()
	assert.Contains(t, out, "Mr. Darcy.")
	assert.Contains(t, out, "Elizabeth — married — Darcy")
	assert.Contains(t, out, "Chunk 1/2")
	assert.Contains(t, m.status, "answered")
	assert.Contains(t, m.View(), "Pride and Prejudice by Jane Austen")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.renderResult(), "Chunk 2/2")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.renderResult(), "Chunk 1/2")
}

func TestModel_ErrorShownInStatus(t *testing.T) {
	m := sized(t, New(&fakePort{}, Header{}))
	next, _ := m.Update(answerMsg{err: errors.New("chat request failed (status 401)")})
	m = next.(Model)
	assert.Contains(t, m.status, "status 401")
	assert.Equal(t, "No answer yet.", m.renderResult())
}

func TestPreview(t *testing.T) {
	short := "short chunk"
	assert.Equal(t, short, preview(short))

	long := strings.Repeat("ab", 400)
	got := preview(long)
	assert.Equal(t, previewChars+1, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("The weather was fine. Emma lived in Highbury.", "where did emma live")
	assert.Contains(t, out, "The weather was fine.")
	assert.Contains(t, out, "Emma lived in Highbury.")
}

func TestHeaderFromIngest(t *testing.T) {
	h := HeaderFromIngest(&service.IngestResult{
		Metadata:   domain.Metadata{Title: "Emma", Author: "Jane Austen"},
		ChunkCount: 4,
		Ontology: domain.Ontology{
			Entities:      map[string][]string{"Person": {"Emma", "Harriet"}},
			Relationships: []domain.Relationship{{"Emma", "befriends", "Harriet"}},
		},
		Summary: "Emma meddles.",
	})
	assert.Equal(t, Header{Title: "Emma", Author: "Jane Austen", Chunks: 4, Entities: 2, Relationships: 1, Summary: "Emma meddles."}, h)
}
