// Package align maps detector findings on a word-joined transcript back onto
// the word timestamps of the transcribed window.
package align

import (
	"strings"
	"unicode/utf8"

	"github.com/lexiqai/redaction-gateway/internal/detect"
	"github.com/lexiqai/redaction-gateway/internal/redact"
	"github.com/lexiqai/redaction-gateway/internal/stt"
)

// Separator joins words in the transcript handed to the detector
const Separator = " "

// CharRange is the half-open character range a word occupies in the joined text
type CharRange struct {
	Start int
	End   int
}

// WordSpan is an inclusive range of word indices
type WordSpan struct {
	First int
	Last  int
}

// Transcript is the single-space-joined form of a transcription's words
// together with each word's character range
type Transcript struct {
	Text   string
	Words  []stt.Word
	Ranges []CharRange
}

// NewTranscript trims every word, drops empty ones and lays the rest out end
// to end separated by one space. Offsets count code points.
func NewTranscript(words []stt.Word) *Transcript {
	t := &Transcript{
		Words:  make([]stt.Word, 0, len(words)),
		Ranges: make([]CharRange, 0, len(words)),
	}

	var b strings.Builder
	cursor := 0
	for _, w := range words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text == "" {
			continue
		}
		if len(t.Words) > 0 {
			b.WriteString(Separator)
			cursor += utf8.RuneCountInString(Separator)
		}
		n := utf8.RuneCountInString(w.Text)
		b.WriteString(w.Text)
		t.Words = append(t.Words, w)
		t.Ranges = append(t.Ranges, CharRange{Start: cursor, End: cursor + n})
		cursor += n
	}

	t.Text = b.String()
	return t
}

// WordSpan returns the words whose ranges overlap [start, end). Touching a
// word boundary is not overlap, and a span may run past the last word. It
// reports false for empty, inverted or negative spans and for spans that
// overlap no word.
func (t *Transcript) WordSpan(start, end int) (WordSpan, bool) {
	if len(t.Ranges) == 0 || start < 0 || end <= start {
		return WordSpan{}, false
	}

	first, last := -1, -1
	for i, r := range t.Ranges {
		if end <= r.Start || start >= r.End {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return WordSpan{}, false
	}
	return WordSpan{First: first, Last: last}, true
}

// Widen grows span by n words on each side, clamped to valid indices
func (t *Transcript) Widen(span WordSpan, n int) WordSpan {
	span.First -= n
	if span.First < 0 {
		span.First = 0
	}
	span.Last += n
	if span.Last > len(t.Words)-1 {
		span.Last = len(t.Words) - 1
	}
	return span
}

// Region converts a word span to seconds in the transcribed window: from the
// first word's start to the last word's end
func (t *Transcript) Region(span WordSpan) redact.Region {
	return redact.Region{
		T0: t.Words[span.First].Start,
		T1: t.Words[span.Last].End,
	}
}

// Locate maps a finding to a window-relative region. Approximate banned word
// matches are widened by one word on each side to absorb boundary jitter.
// It reports false on an alignment miss.
func (t *Transcript) Locate(f detect.Finding) (redact.Region, bool) {
	span, ok := t.WordSpan(f.Start, f.End)
	if !ok {
		return redact.Region{}, false
	}
	if f.Label == detect.LabelBannedWordFuzzy {
		span = t.Widen(span, 1)
	}
	return t.Region(span), true
}
