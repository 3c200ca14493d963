package detect

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PatternRule is a regular expression that labels every match
type PatternRule struct {
	Label      string  `yaml:"label"`
	Pattern    string  `yaml:"pattern"`
	Confidence float64 `yaml:"confidence"`
}

// Rules is the detector rule set, loadable from YAML
type Rules struct {
	Patterns    []PatternRule `yaml:"patterns"`
	BannedWords []string      `yaml:"banned_words"`

	// FuzzyThreshold is the minimum similarity (0-100) for a fuzzy banned word
	// match; zero means use the configured default
	FuzzyThreshold int `yaml:"fuzzy_threshold"`

	// FuzzyWindowExtra is how far window lengths may differ from the banned word
	FuzzyWindowExtra int `yaml:"fuzzy_window_extra"`
}

// DefaultRules returns the built-in rule set: Korean resident registration
// numbers, e-mail addresses, mobile numbers, card-like digit runs and a
// short banned word list
func DefaultRules() *Rules {
	return &Rules{
		Patterns: []PatternRule{
			{Label: LabelRRN, Pattern: `\b\d{6}-\d{7}\b`, Confidence: 1.0},
			{Label: LabelEmail, Pattern: `\b[\w\.-]+@[\w\.-]+\.\w+\b`, Confidence: 1.0},
			{Label: LabelPhone, Pattern: `\b01[016789]-\d{3,4}-\d{4}\b`, Confidence: 1.0},
			{Label: LabelCard, Pattern: `\b(?:\d[ -]*?){13,16}\b`, Confidence: 0.7},
			// "sk" and "s k" both count once
			{Label: LabelBannedWord, Pattern: `(?i)\bS\s*K\b`, Confidence: 0.99},
		},
		BannedWords:      []string{"sk", "에스케이", "오백억", "500억"},
		FuzzyWindowExtra: 2,
	}
}

// LoadRules reads a YAML rule set from path
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules := &Rules{FuzzyWindowExtra: 2}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks that every pattern compiles and values are in range
func (r *Rules) Validate() error {
	for i, p := range r.Patterns {
		if p.Label == "" {
			return fmt.Errorf("pattern %d has no label", i)
		}
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return fmt.Errorf("pattern %d (%s): %w", i, p.Label, err)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("pattern %d (%s): confidence %f out of [0, 1]", i, p.Label, p.Confidence)
		}
	}
	if r.FuzzyThreshold < 0 || r.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy_threshold %d out of [0, 100]", r.FuzzyThreshold)
	}
	if r.FuzzyWindowExtra < 0 {
		return fmt.Errorf("fuzzy_window_extra must not be negative")
	}
	return nil
}
