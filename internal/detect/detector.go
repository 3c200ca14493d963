package detect

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/lexiqai/redaction-gateway/internal/config"
)

const fuzzyPunctuation = "-_.,:;()[]{}\"'`~!@#$%^&*+=|\\/<>?"

type compiledRule struct {
	label      string
	re         *regexp.Regexp
	confidence float64
}

type bannedWord struct {
	text  string
	norm  string
	runes int
	// Short ASCII terms are left to the patterns, which tolerate spacing
	skipExact bool
}

// RuleDetector finds sensitive spans with regular expressions, exact banned
// words and approximate banned words. It is safe for concurrent use.
type RuleDetector struct {
	patterns    []compiledRule
	banned      []bannedWord
	threshold   float64
	windowExtra int
}

// NewRuleDetector compiles rules. defaultThreshold applies when the rule set
// does not set its own fuzzy threshold.
func NewRuleDetector(rules *Rules, defaultThreshold int) (*RuleDetector, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	d := &RuleDetector{
		threshold:   float64(defaultThreshold),
		windowExtra: rules.FuzzyWindowExtra,
	}
	if rules.FuzzyThreshold > 0 {
		d.threshold = float64(rules.FuzzyThreshold)
	}

	for _, p := range rules.Patterns {
		d.patterns = append(d.patterns, compiledRule{
			label:      p.Label,
			re:         regexp.MustCompile(p.Pattern),
			confidence: p.Confidence,
		})
	}

	seen := make(map[string]bool)
	for _, w := range rules.BannedWords {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		n := utf8.RuneCountInString(w)
		d.banned = append(d.banned, bannedWord{
			text:      w,
			norm:      normalize(w),
			runes:     n,
			skipExact: isASCII(w) && n <= 3,
		})
	}

	return d, nil
}

// NewFromConfig builds a detector from RULES_FILE (or the built-in rules),
// extended with BANNED_WORDS
func NewFromConfig(cfg *config.Config) (*RuleDetector, error) {
	rules := DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	rules.BannedWords = append(rules.BannedWords, cfg.BannedWords...)

	d, err := NewRuleDetector(rules, cfg.FuzzyThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to build detector: %w", err)
	}
	return d, nil
}

// Detect returns findings sorted by start offset
func (d *RuleDetector) Detect(text string) []Finding {
	if text == "" {
		return nil
	}

	offsets := runeOffsets(text)
	var findings []Finding

	for _, p := range d.patterns {
		for _, m := range p.re.FindAllStringIndex(text, -1) {
			findings = append(findings, Finding{
				Label:      p.label,
				Start:      offsets[m[0]],
				End:        offsets[m[1]],
				Confidence: p.confidence,
			})
		}
	}

	// Exact banned words, every occurrence including overlapping ones
	for _, w := range d.banned {
		if w.skipExact {
			continue
		}
		_, step := utf8.DecodeRuneInString(w.text)
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], w.text)
			if i < 0 {
				break
			}
			start := from + i
			findings = append(findings, Finding{
				Label:      LabelBannedWord,
				Start:      offsets[start],
				End:        offsets[start] + w.runes,
				Confidence: 0.95,
			})
			from = start + step
		}
	}

	hasExact := false
	for _, f := range findings {
		if f.Label == LabelBannedWord {
			hasExact = true
			break
		}
	}
	if !hasExact {
		findings = append(findings, d.fuzzy([]rune(text))...)
	}

	return collapseSameStart(findings)
}

// fuzzy slides windows of the banned word's length (give or take windowExtra)
// over the text and keeps windows whose normalised form is similar enough
func (d *RuleDetector) fuzzy(runes []rune) []Finding {
	var out []Finding
	n := len(runes)

	for _, w := range d.banned {
		if w.norm == "" {
			continue
		}
		minLen := w.runes - d.windowExtra
		if minLen < 1 {
			minLen = 1
		}
		for winLen := minLen; winLen <= w.runes+d.windowExtra; winLen++ {
			if winLen > n {
				continue
			}
			for i := 0; i+winLen <= n; i++ {
				chunk := normalize(string(runes[i : i+winLen]))
				if chunk == "" {
					continue
				}
				score := Similarity(chunk, w.norm)
				if score >= d.threshold {
					out = append(out, Finding{
						Label:      LabelBannedWordFuzzy,
						Start:      i,
						End:        i + winLen,
						Confidence: math.Min(0.99, score/100),
					})
				}
			}
		}
	}

	return ResolveOverlaps(out)
}

// ResolveOverlaps orders findings by start and keeps one finding per run of
// overlapping spans: the one with the higher (confidence, length)
func ResolveOverlaps(findings []Finding) []Finding {
	if len(findings) == 0 {
		return findings
	}
	sortFindings(findings)

	merged := []Finding{findings[0]}
	for _, f := range findings[1:] {
		prev := &merged[len(merged)-1]
		if f.Start > prev.End {
			merged = append(merged, f)
			continue
		}
		if better(f, *prev) {
			*prev = f
		}
	}
	return merged
}

// collapseSameStart orders findings by start and keeps the best of those
// sharing a start offset
func collapseSameStart(findings []Finding) []Finding {
	if len(findings) == 0 {
		return findings
	}
	sortFindings(findings)

	out := []Finding{findings[0]}
	for _, f := range findings[1:] {
		prev := &out[len(out)-1]
		if f.Start != prev.Start {
			out = append(out, f)
			continue
		}
		if better(f, *prev) {
			*prev = f
		}
	}
	return out
}

// sortFindings orders by start, then longer first, then more confident first
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		return a.Confidence > b.Confidence
	})
}

func better(a, b Finding) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Len() > b.Len()
}

// Similarity is the normalised insertion/deletion similarity of a and b, 0-100
func Similarity(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	dist := edlib.LCSEditDistance(a, b)
	return 100 * (1 - float64(dist)/float64(total))
}

// normalize drops whitespace and common punctuation and upper-cases Latin letters
func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune(fuzzyPunctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// runeOffsets maps every byte offset of s (and len(s)) to a code point offset
func runeOffsets(s string) []int {
	offsets := make([]int, len(s)+1)
	n := 0
	for i := range s {
		offsets[i] = n
		n++
	}
	// Continuation bytes map to the offset of their rune
	for i := 1; i < len(s); i++ {
		if !utf8.RuneStart(s[i]) {
			offsets[i] = offsets[i-1]
		}
	}
	offsets[len(s)] = n
	return offsets
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
