package policy

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Finding is one rule match together with how it was routed.
type Finding struct {
	Message     string
	Severity    Severity
	Disposition Disposition
}

// ScanResult is the outcome of Scanner.Check.
//
// Under bypass all lists are empty. Under strict NeedsConfirmation is always
// empty.
type ScanResult struct {
	Violations        []string `json:"violations"`
	NeedsConfirmation []string `json:"needs_confirmation"`
	Warnings          []string `json:"warnings"`

	// Findings keeps severity information for every routed match, in rule
	// order.
	Findings []Finding `json:"-"`
}

// Passed reports whether no violations were found.
func (r ScanResult) Passed() bool {
	return len(r.Violations) == 0
}

// CriticalPending reports whether any needs-confirmation item came from a
// CRITICAL rule.
func (r ScanResult) CriticalPending() []string {
	var out []string
	for _, f := range r.Findings {
		if f.Disposition == Confirm && f.Severity == SeverityCritical {
			out = append(out, f.Message)
		}
	}
	return out
}

// Scanner classifies text using ordered forbidden and warning rules.
//
// Contract:
// - Concurrency: safe for concurrent use. The level may be changed while
//   other goroutines call Check.
// - Rules are append-only; forbidden rules are evaluated before warning rules.
type Scanner struct {
	mu        sync.RWMutex
	level     Level
	forbidden []PatternRule
	warning   []PatternRule
}

// NewScanner creates a scanner at the given level with no rules.
// An unknown level falls back to standard.
func NewScanner(level Level) *Scanner {
	if _, ok := routes[level]; !ok && level != LevelBypass {
		level = LevelStandard
	}
	return &Scanner{level: level}
}

// NewDefaultScanner creates a scanner preloaded with DefaultRules.
func NewDefaultScanner(level Level) *Scanner {
	s := NewScanner(level)
	for _, r := range DefaultRules() {
		if r.Severity() == SeverityCritical {
			s.forbidden = append(s.forbidden, r)
		} else {
			s.warning = append(s.warning, r)
		}
	}
	return s
}

// Level returns the current level.
func (s *Scanner) Level() Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.level
}

// SetLevel changes the level used by subsequent checks.
func (s *Scanner) SetLevel(level Level) error {
	if _, err := ParseLevel(string(level)); err != nil {
		return err
	}
	s.mu.Lock()
	s.level = level
	s.mu.Unlock()
	return nil
}

// AddForbidden appends a forbidden rule. An empty severity means CRITICAL.
func (s *Scanner) AddForbidden(pattern, message string, severity Severity) error {
	if severity == "" {
		severity = SeverityCritical
	}
	r, err := NewRule(pattern, message, severity)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.forbidden = append(s.forbidden, r)
	s.mu.Unlock()
	return nil
}

// AddWarning appends a warning rule. An empty severity means WARNING.
func (s *Scanner) AddWarning(pattern, message string, severity Severity) error {
	if severity == "" {
		severity = SeverityWarning
	}
	r, err := NewRule(pattern, message, severity)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.warning = append(s.warning, r)
	s.mu.Unlock()
	return nil
}

// AddForbiddenBatch upgrades legacy pairs to CRITICAL rules and appends them.
// Nothing is added if any pattern is invalid.
func (s *Scanner) AddForbiddenBatch(pairs []Pair) error {
	rules, err := compilePairs(pairs, SeverityCritical)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.forbidden = append(s.forbidden, rules...)
	s.mu.Unlock()
	return nil
}

// AddWarningBatch upgrades legacy pairs to WARNING rules and appends them.
// Nothing is added if any pattern is invalid.
func (s *Scanner) AddWarningBatch(pairs []Pair) error {
	rules, err := compilePairs(pairs, SeverityWarning)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.warning = append(s.warning, rules...)
	s.mu.Unlock()
	return nil
}

func compilePairs(pairs []Pair, sev Severity) ([]PatternRule, error) {
	rules := make([]PatternRule, 0, len(pairs))
	for _, p := range pairs {
		r, err := NewRule(p.Pattern, p.Message, sev)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Rules returns a copy of all rules, forbidden first.
func (s *Scanner) Rules() []PatternRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PatternRule, 0, len(s.forbidden)+len(s.warning))
	out = append(out, s.forbidden...)
	return append(out, s.warning...)
}

// Check classifies text. The text is NFKC-normalised before matching, and
// each rule contributes at most one item.
func (s *Scanner) Check(text string) ScanResult {
	s.mu.RLock()
	level := s.level
	rules := make([]PatternRule, 0, len(s.forbidden)+len(s.warning))
	rules = append(rules, s.forbidden...)
	rules = append(rules, s.warning...)
	s.mu.RUnlock()

	var res ScanResult
	if level == LevelBypass {
		return res
	}

	text = norm.NFKC.String(text)
	for _, r := range rules {
		if !r.Match(text) {
			continue
		}
		d := Route(level, r.Severity())
		switch d {
		case Block:
			res.Violations = append(res.Violations, r.Message())
		case Confirm:
			res.NeedsConfirmation = append(res.NeedsConfirmation, r.Message())
		case Warn:
			res.Warnings = append(res.Warnings, r.Message())
		default:
			continue
		}
		res.Findings = append(res.Findings, Finding{
			Message:     r.Message(),
			Severity:    r.Severity(),
			Disposition: d,
		})
	}
	return res
}
