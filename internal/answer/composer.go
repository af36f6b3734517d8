// Package answer builds the grounded prompt for a question and asks the
// generative model for the answer.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ontorag/internal/domain"
)

// DefaultContextChars bounds the joined chunk text placed in the prompt.
const DefaultContextChars = 3000

const systemPrompt = "You are a helpful assistant that answers questions using the provided context and ontology facts."

type Composer struct {
	gen          domain.Generator
	contextChars int
	logger       *zap.Logger
}

func NewComposer(gen domain.Generator, contextChars int, logger *zap.Logger) *Composer {
	if contextChars <= 0 {
		contextChars = DefaultContextChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{gen: gen, contextChars: contextChars, logger: logger}
}

// Compose asks the model to answer query from chunks and triples and
// returns the trimmed reply.
func (c *Composer) Compose(ctx context.Context, query string, chunks []string, triples []domain.Triple) (string, error) {
	messages := c.Messages(query, chunks, triples)
	c.logger.Debug("composing answer",
		zap.Int("chunks", len(chunks)),
		zap.Int("triples", len(triples)),
		zap.Int("prompt_chars", len(messages[1].Content)),
	)

	reply, err := c.gen.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("compose answer: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// Messages renders the system and user turns for a question.
func (c *Composer) Messages(query string, chunks []string, triples []domain.Triple) []domain.Message {
	ctxText := truncateRunes(strings.Join(chunks, "\n\n"), c.contextChars)

	var sb strings.Builder
	if len(triples) > 0 {
		sb.WriteString("Ontology Knowledge Triples:\n")
		for i, t := range triples {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(t.String())
		}
		sb.WriteString("\n\n")
	}
	sb.WriteString("Context:\n")
	sb.WriteString(ctxText)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer:")

	return []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: sb.String()},
	}
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
