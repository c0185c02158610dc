// Package code runs short analysis scripts under an integrity policy and
// keeps a replayable record of every attempt.
//
// # Pipeline
//
// [Executor.ExecuteCode] handles one call in fixed order:
//
//  1. Scan the code with the context's policy.Scanner. Violations block.
//     Needs-confirmation findings suspend the call until it is resubmitted
//     with Confirmed set; a confirmed call that still carries a CRITICAL
//     finding is blocked.
//  2. Validate every numeric array in Vars. Any invalid array blocks and
//     cannot be confirmed away.
//  3. Archive the code under <output dir>/scripts.
//  4. Run the code on the [Engine] with the sanity preamble, OutputDir,
//     Bounds, ExtraEnv and Vars bound in the namespace.
//  5. Snapshot variables, capture figures and record the attempt in the
//     session log.
//
// Every path returns an [ExecuteResult]; nothing is returned as a Go error.
// [ExecuteResult.Err] maps the terminal [Status] back to the sentinels
// [ErrPolicyViolation], [ErrConfirmationRequired], [ErrDataIntegrity] and
// [ErrCodeExecution].
//
// # Result Convention
//
// Scripts may assign their final result to the `__out` variable. When it is
// unset the value of the last expression is used.
//
// # Isolation
//
// The executor is a policy and record-keeping layer over a trusted
// interpreter. It does not isolate scripts from the host: pattern scanning
// and the syntax lint are the only checks, and a determined script can
// evade both.
package code
