package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ontorag/internal/service"
	"ontorag/internal/textutil"
)

// previewChars is how much of each retrieved chunk is shown.
const previewChars = 500

// RAGPort is the TUI-facing subset of the RAG service.
type RAGPort interface {
	Ask(ctx context.Context, query string) (*service.QueryResult, error)
}

// Header is the document summary shown above the results.
type Header struct {
	Title         string
	Author        string
	Chunks        int
	Entities      int
	Relationships int
	Summary       string
}

// HeaderFromIngest builds a Header from an ingest result.
func HeaderFromIngest(res *service.IngestResult) Header {
	return Header{
		Title:         res.Metadata.Title,
		Author:        res.Metadata.Author,
		Chunks:        res.ChunkCount,
		Entities:      res.Ontology.EntityCount(),
		Relationships: len(res.Ontology.Relationships),
		Summary:       res.Summary,
	}
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  RAGPort
	header   Header
	input    textinput.Model
	viewport viewport.Model
	result   *service.QueryResult
	status   string
	cursor   int
	ready    bool
}

// answerMsg carries the outcome of an asynchronous Ask.
type answerMsg struct {
	result *service.QueryResult
	err    error
}

// New creates a new TUI model instance.
func New(svc RAGPort, header Header) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the document and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: svc, header: header, input: ti, viewport: vp, status: "Ready. Ask away."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.service.Ask(context.Background(), q)
		return answerMsg{result: res, err: err}
	}
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + 1 + qh + 1 // header lines, status, query box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case answerMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
		} else {
			m.result = msg.result
			m.cursor = 0
			m.status = fmt.Sprintf("%s · max similarity %.3f", msg.result.Outcome, msg.result.MaxSimilarity)
		}
		m.viewport.SetContent(m.renderResult())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.status = fmt.Sprintf("Thinking about %q...", q)
				return m, m.ask(q)
			}
		case "down":
			if n := m.chunkCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "up":
			if n := m.chunkCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	h := m.header
	title := titleStyle.Render(fmt.Sprintf("%s by %s", h.Title, h.Author))
	stats := dimStyle.Render(fmt.Sprintf("%d chunks · %d entities · %d relationships", h.Chunks, h.Entities, h.Relationships))
	summary := dimStyle.Render(h.Summary)
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return title + "\n" + stats + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) chunkCount() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Chunks)
}

func (m Model) renderResult() string {
	r := m.result
	if r == nil {
		return "No answer yet."
	}

	var sb strings.Builder
	sb.WriteString(labelStyle.Render("Answer"))
	sb.WriteString("\n")
	sb.WriteString(r.Answer)
	sb.WriteString("\n")

	if len(r.Facts) > 0 {
		sb.WriteString("\n")
		sb.WriteString(labelStyle.Render("Ontology facts"))
		for _, f := range r.Facts {
			sb.WriteString("\n  ")
			sb.WriteString(f.String())
		}
		sb.WriteString("\n")
	}

	if n := len(r.Chunks); n > 0 {
		sb.WriteString("\n")
		sim := 0.0
		if m.cursor < len(r.Similarities) {
			sim = r.Similarities[m.cursor]
		}
		sb.WriteString(labelStyle.Render(fmt.Sprintf("Chunk %d/%d  similarity=%.3f  (up/down)", m.cursor+1, n, sim)))
		sb.WriteString("\n")
		sb.WriteString(highlightBestSentence(preview(r.Chunks[m.cursor]), r.Query))
	}
	return sb.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func preview(chunk string) string {
	r := []rune(chunk)
	if len(r) <= previewChars {
		return chunk
	}
	return string(r[:previewChars]) + "…"
}

func highlightBestSentence(text, query string) string {
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	qTokens := textutil.WordSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := 0
		for tok := range textutil.WordSet(s) {
			if _, ok := qTokens[tok]; ok {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}
