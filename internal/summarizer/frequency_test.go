package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_KeepsDocumentOrder(t *testing.T) {
	text := "Emma loved matchmaking. The weather was fine. Emma tried matchmaking for Harriet. Emma regretted the matchmaking."
	got := NewFrequencySummarizer(2).Summarize(text)
	assert.Equal(t, "Emma loved matchmaking. Emma tried matchmaking for Harriet.", got)
}

func TestSummarize_ShortText(t *testing.T) {
	assert.Equal(t, "One sentence only.", NewFrequencySummarizer(5).Summarize("One sentence only."))
	assert.Equal(t, "no terminator", NewFrequencySummarizer(5).Summarize("  no terminator  "))
	assert.Equal(t, "", NewFrequencySummarizer(5).Summarize("   "))
}

func TestNewFrequencySummarizer_Default(t *testing.T) {
	assert.Equal(t, DefaultSentences, NewFrequencySummarizer(0).maxSentences)
}
