package detect

// Finding labels
const (
	LabelRRN             = "RRN"
	LabelEmail           = "EMAIL"
	LabelPhone           = "PHONE"
	LabelCard            = "CARD_LIKE"
	LabelBannedWord      = "BANNED_WORD"
	LabelBannedWordFuzzy = "BANNED_WORD_FUZZY"
)

// Finding is a sensitive span in a transcript. Start and End are half-open
// character (code point) offsets.
type Finding struct {
	Label      string  `json:"label"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Len returns the span length in characters
func (f Finding) Len() int {
	return f.End - f.Start
}

// Detector finds sensitive spans in transcript text
type Detector interface {
	Detect(text string) []Finding
}
