package policy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLevel is returned when a rigor level name cannot be parsed.
var ErrUnknownLevel = errors.New("unknown rigor level")

// Severity is the tier attached to a PatternRule.
type Severity string

const (
	// SeverityCritical marks a match that a caller may never confirm away.
	SeverityCritical Severity = "CRITICAL"

	// SeverityWarning marks a match that may proceed after acknowledgement.
	SeverityWarning Severity = "WARNING"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s == SeverityCritical || s == SeverityWarning
}

// ParseSeverity parses a case-insensitive severity name. Empty yields def.
func ParseSeverity(s string, def Severity) (Severity, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Level is the configured rigor strictness. Levels are not ordered: strict
// collapses every match into a violation and bypass disables scanning.
type Level string

const (
	LevelStrict   Level = "strict"
	LevelStandard Level = "standard"
	LevelRelaxed  Level = "relaxed"
	LevelBypass   Level = "bypass"
)

// Levels lists every level in documentation order.
var Levels = []Level{LevelStrict, LevelStandard, LevelRelaxed, LevelBypass}

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Disposition is what a single match turns into.
type Disposition int

const (
	// Ignore drops the match.
	Ignore Disposition = iota
	// Block records the match as a violation.
	Block
	// Confirm records the match as needing confirmation.
	Confirm
	// Warn records the match as an informational warning.
	Warn
)

func (d Disposition) String() string {
	switch d {
	case Block:
		return "violation"
	case Confirm:
		return "needs_confirmation"
	case Warn:
		return "warning"
	default:
		return "ignore"
	}
}

// routes is the level x severity table. Bypass has no row: the scanner
// short-circuits before consulting it.
var routes = map[Level]map[Severity]Disposition{
	LevelStrict: {
		SeverityCritical: Block,
		SeverityWarning:  Block,
	},
	LevelStandard: {
		SeverityCritical: Block,
		SeverityWarning:  Confirm,
	},
	LevelRelaxed: {
		SeverityCritical: Confirm,
		SeverityWarning:  Warn,
	},
}

// Route returns the disposition of a severity under a level.
func Route(level Level, sev Severity) Disposition {
	row, ok := routes[level]
	if !ok {
		return Ignore
	}
	return row[sev]
}
