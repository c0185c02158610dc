// Package policy classifies analysis code against an integrity policy.
//
// A [Scanner] holds an ordered list of [PatternRule] values. Each rule carries
// a [Severity]; the scanner's [Level] decides what a match means. The mapping
// is a plain lookup table so every level can be audited on its own:
//
//	Level     | CRITICAL           | WARNING
//	----------+--------------------+-------------------
//	bypass    | (scanning disabled)| (scanning disabled)
//	strict    | violation          | violation
//	standard  | violation          | needs confirmation
//	relaxed   | needs confirmation | warning
//
// The scanner is policy, not a security boundary: it pattern-matches source
// text and cannot stop code that hides intent from a regular expression.
package policy
