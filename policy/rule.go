package policy

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidPattern is returned when a rule pattern does not compile.
var ErrInvalidPattern = errors.New("invalid rule pattern")

// PatternRule is an immutable (pattern, message, severity) triple.
type PatternRule struct {
	pattern  string
	message  string
	severity Severity
	re       *regexp.Regexp
}

// NewRule compiles pattern case-insensitively.
func NewRule(pattern, message string, severity Severity) (PatternRule, error) {
	if !severity.Valid() {
		return PatternRule{}, fmt.Errorf("%w: severity %q", ErrInvalidPattern, severity)
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return PatternRule{}, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return PatternRule{pattern: pattern, message: message, severity: severity, re: re}, nil
}

// MustRule is NewRule that panics on error. It is meant for package-level
// rule tables.
func MustRule(pattern, message string, severity Severity) PatternRule {
	r, err := NewRule(pattern, message, severity)
	if err != nil {
		panic(err)
	}
	return r
}

// Pattern returns the uncompiled pattern.
func (r PatternRule) Pattern() string { return r.pattern }

// Message returns the text reported on a match.
func (r PatternRule) Message() string { return r.message }

// Severity returns the rule's tier.
func (r PatternRule) Severity() Severity { return r.severity }

// Match reports whether the rule matches anywhere in text.
func (r PatternRule) Match(text string) bool {
	return r.re != nil && r.re.MatchString(text)
}

// Pair is a legacy (pattern, message) rule without a severity.
type Pair struct {
	Pattern string `yaml:"pattern" toml:"pattern" json:"pattern"`
	Message string `yaml:"message" toml:"message" json:"message"`
}
