package ontology

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ontorag/internal/domain"
	"ontorag/internal/prompt"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func promptContains(s string) interface{} {
	return mock.MatchedBy(func(msgs []domain.Message) bool {
		return len(msgs) == 1 && msgs[0].Role == domain.RoleUser && strings.Contains(msgs[0].Content, s)
	})
}

func TestExtract_Parsed(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Complete", mock.Anything, promptContains("Emma lived in Highbury.")).
		Return(`{"classes":["Person"],"entities":{"Person":["Emma"]},"relationships":[["Emma","lives_in","Highbury"]]}`, nil).
		Once()

	ex := NewExtractor(gen, prompt.NewStore(""), Config{}, nil)
	res, err := ex.Extract(context.Background(), "Emma lived in Highbury.")
	require.NoError(t, err)
	assert.Equal(t, Parsed, res.Kind)
	assert.Equal(t, []string{"Emma"}, res.Ontology.Entities["Person"])
	gen.AssertExpectations(t)
}

func TestExtract_MalformedIsNotAnError(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Complete", mock.Anything, mock.Anything).Return("no json here", nil)

	core, logs := observer.New(zap.WarnLevel)
	ex := NewExtractor(gen, prompt.NewStore(""), Config{}, zap.New(core))
	res, err := ex.Extract(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, Malformed, res.Kind)
	assert.True(t, res.Ontology.IsEmpty())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "could not parse ontology JSON", entry.Message)
	assert.Equal(t, "no json here", entry.ContextMap()["raw"])
}

func TestExtract_TransportErrorPropagates(t *testing.T) {
	gen := new(MockGenerator)
	transport := &domain.TransportError{Service: "chat", StatusCode: 503, Err: errors.New("unavailable")}
	gen.On("Complete", mock.Anything, mock.Anything).Return("", transport)

	ex := NewExtractor(gen, prompt.NewStore(""), Config{}, nil)
	_, err := ex.Extract(context.Background(), "text")
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 503, te.StatusCode)
}

func TestExtract_TruncatesChunk(t *testing.T) {
	var sent string
	gen := new(MockGenerator)
	gen.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(1).([]domain.Message)[0].Content
		}).
		Return("{}", nil)

	long := strings.Repeat("é", 50) + "TAIL"
	ex := NewExtractor(gen, prompt.NewStore(""), Config{ChunkPrefix: 50}, nil)
	_, err := ex.Extract(context.Background(), long)
	require.NoError(t, err)
	assert.Contains(t, sent, strings.Repeat("é", 50))
	assert.NotContains(t, sent, "TAIL")
}

func TestExtractAll_FoldsInChunkOrder(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Complete", mock.Anything, promptContains("chunk-a")).
		Return(`{"classes":["person"],"entities":{"Person":["Bob"]},"relationships":[["Bob","knows","Alice"]]}`, nil)
	gen.On("Complete", mock.Anything, promptContains("chunk-b")).
		Return(`garbage`, nil)
	gen.On("Complete", mock.Anything, promptContains("chunk-c")).
		Return(`{"classes":["Person"],"entities":{"person":["bob","Alice"]},"relationships":[["Alice","likes","Bob"]]}`, nil)

	ex := NewExtractor(gen, prompt.NewStore(""), Config{Concurrency: 3}, nil)
	out, err := ex.ExtractAll(context.Background(), []string{"chunk-a", "chunk-b", "chunk-c"})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Malformed)
	require.Len(t, out.Results, 3)
	assert.Equal(t, Malformed, out.Results[1].Kind)
	assert.Equal(t, []string{"Person"}, out.Ontology.Classes)
	assert.Equal(t, []string{"Bob", "Alice"}, out.Ontology.Entities["Person"])
	assert.Equal(t, []domain.Relationship{{"Bob", "knows", "Alice"}, {"Alice", "likes", "Bob"}}, out.Ontology.Relationships)
}

func TestExtractAll_MaxChunks(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Complete", mock.Anything, mock.Anything).Return("{}", nil)

	ex := NewExtractor(gen, prompt.NewStore(""), Config{MaxChunks: 2, RequestsPerSecond: 1000, Burst: 2}, nil)
	out, err := ex.ExtractAll(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Len(t, out.Results, 2)
	gen.AssertNumberOfCalls(t, "Complete", 2)
}

func TestExtractAll_StopsOnError(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	ex := NewExtractor(gen, prompt.NewStore(""), Config{Concurrency: 1}, nil)
	_, err := ex.ExtractAll(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "boom")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "hi", truncateRunes("hi", 10))
	assert.True(t, utf8.ValidString(truncateRunes("日本語テキスト", 3)))
	assert.Equal(t, "日本語", truncateRunes("日本語テキスト", 3))
}
