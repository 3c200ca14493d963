package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/redaction-gateway/internal/detect"
	"github.com/lexiqai/redaction-gateway/internal/redact"
	"github.com/lexiqai/redaction-gateway/internal/stt"
)

// zero(0,4) one(5,8) two(9,12) three(13,18) four(19,23)
func numbers() *Transcript {
	return NewTranscript([]stt.Word{
		{Text: "zero", Start: 0.0, End: 0.4},
		{Text: "one", Start: 0.5, End: 0.9},
		{Text: "two", Start: 1.2, End: 1.5},
		{Text: "three", Start: 1.6, End: 1.8},
		{Text: "four", Start: 2.0, End: 2.5},
	})
}

func TestNewTranscript(t *testing.T) {
	tr := NewTranscript([]stt.Word{
		{Text: " hello", Start: 0, End: 0.3},
		{Text: "world ", Start: 0.4, End: 0.7},
		{Text: "  ", Start: 0.7, End: 0.8},
		{Text: "kim@x.com", Start: 0.9, End: 1.6},
	})

	assert.Equal(t, "hello world kim@x.com", tr.Text)
	require.Len(t, tr.Words, 3)
	assert.Equal(t, "hello", tr.Words[0].Text)
	assert.Equal(t, []CharRange{{0, 5}, {6, 11}, {12, 21}}, tr.Ranges)
}

func TestNewTranscript_CodePointOffsets(t *testing.T) {
	tr := NewTranscript([]stt.Word{
		{Text: "금액은", Start: 0, End: 0.4},
		{Text: "오백억", Start: 0.5, End: 1.0},
	})

	assert.Equal(t, "금액은 오백억", tr.Text)
	assert.Equal(t, []CharRange{{0, 3}, {4, 7}}, tr.Ranges)
}

func TestNewTranscript_Empty(t *testing.T) {
	tr := NewTranscript(nil)

	assert.Empty(t, tr.Text)
	_, ok := tr.WordSpan(0, 1)
	assert.False(t, ok)
}

func TestWordSpan(t *testing.T) {
	tr := numbers()

	tests := []struct {
		name       string
		start, end int
		want       WordSpan
		ok         bool
	}{
		{"single word", 9, 12, WordSpan{2, 2}, true},
		{"two words", 9, 18, WordSpan{2, 3}, true},
		{"partial overlap", 11, 14, WordSpan{2, 3}, true},
		{"touching end is not overlap", 4, 5, WordSpan{}, false},
		{"separator only", 12, 13, WordSpan{}, false},
		{"whole text", 0, 23, WordSpan{0, 4}, true},
		{"empty", 9, 9, WordSpan{}, false},
		{"inverted", 12, 9, WordSpan{}, false},
		{"negative start", -1, 3, WordSpan{}, false},
		{"runs past last word", 19, 24, WordSpan{4, 4}, true},
		{"beyond last word", 24, 30, WordSpan{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tr.WordSpan(tt.start, tt.end)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWiden(t *testing.T) {
	tr := numbers()

	assert.Equal(t, WordSpan{1, 3}, tr.Widen(WordSpan{2, 2}, 1))
	assert.Equal(t, WordSpan{0, 1}, tr.Widen(WordSpan{0, 0}, 1))
	assert.Equal(t, WordSpan{3, 4}, tr.Widen(WordSpan{4, 4}, 1))
}

func TestLocate(t *testing.T) {
	tr := numbers()

	region, ok := tr.Locate(detect.Finding{Label: detect.LabelBannedWord, Start: 9, End: 18, Confidence: 0.95})
	require.True(t, ok)
	assert.Equal(t, redact.Region{T0: 1.2, T1: 1.8}, region)

	// Window-relative (1.2, 1.8) in the release slot (1.0, 2.0)
	local := redact.Localize([]redact.Region{region}, 1.0, 2.0)
	require.Len(t, local, 1)
	assert.InDelta(t, 0.2, local[0].T0, 1e-9)
	assert.InDelta(t, 0.8, local[0].T1, 1e-9)
}

func TestLocate_FuzzyWidened(t *testing.T) {
	tr := numbers()

	region, ok := tr.Locate(detect.Finding{Label: detect.LabelBannedWordFuzzy, Start: 9, End: 12, Confidence: 0.93})
	require.True(t, ok)
	assert.Equal(t, redact.Region{T0: 0.5, T1: 1.8}, region)

	region, ok = tr.Locate(detect.Finding{Label: detect.LabelBannedWordFuzzy, Start: 0, End: 4, Confidence: 0.93})
	require.True(t, ok)
	assert.Equal(t, redact.Region{T0: 0.0, T1: 0.9}, region)
}

func TestLocate_FindingRunsPastText(t *testing.T) {
	tr := numbers()

	region, ok := tr.Locate(detect.Finding{Label: detect.LabelPhone, Start: 13, End: 31, Confidence: 1.0})
	require.True(t, ok)
	assert.Equal(t, redact.Region{T0: 1.6, T1: 2.5}, region)
}

func TestLocate_Miss(t *testing.T) {
	tr := numbers()

	_, ok := tr.Locate(detect.Finding{Label: detect.LabelEmail, Start: 30, End: 40})
	assert.False(t, ok)
}
