package policy

// DefaultRules returns the built-in rule set. Most rules are WARNING so the
// standard level asks for confirmation instead of hard-blocking.
func DefaultRules() []PatternRule {
	return []PatternRule{
		MustRule(
			`rand\.(Float64|Float32|NormFloat64|ExpFloat64|Intn|Int63n?|Int31n?|Perm|Shuffle)\s*\(`,
			"RIGOR: random/synthetic data generation detected. Use real experimental data only.",
			SeverityWarning,
		),
		MustRule(
			`fake|dummy|synthetic|simulated`,
			"RIGOR: code references fake/synthetic data. Use real experimental data only.",
			SeverityWarning,
		),
		MustRule(
			`if[^\n]*p.?val[^\n]*[<>]=?[^\n]*0?\.05[^\n]*\{[^\n]*=`,
			"RIGOR VIOLATION: conditional result modification based on p-value detected.",
			SeverityCritical,
		),
		MustRule(
			`result\s*:?=\s*(expected|hypothesis|target)`,
			"RIGOR VIOLATION: result forced to match expected/hypothesis value.",
			SeverityCritical,
		),
		MustRule(
			`//[^\n]*(hack|fudge|fake)`,
			"RIGOR: code contains suspicious comments suggesting data manipulation.",
			SeverityWarning,
		),
		MustRule(
			`os/exec|exec\.Command|os\.StartProcess|syscall\.(Exec|ForkExec)`,
			"RIGOR: shell/process execution detected. Analysis code should not spawn processes.",
			SeverityWarning,
		),
		MustRule(
			`rand\.(Seed|NewSource|New)\s*\(`,
			"Random seed set. Ensure this is for reproducibility, not cherry-picking.",
			SeverityWarning,
		),
		MustRule(
			`outlier[^\n]*remov|remov[^\n]*outlier`,
			"Outlier removal detected. Document criteria and report how many were removed.",
			SeverityWarning,
		),
		MustRule(
			`exclude|skip|ignore`,
			"Data exclusion detected. Document criteria and report what was excluded.",
			SeverityWarning,
		),
	}
}
