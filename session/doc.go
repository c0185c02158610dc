// Package session holds the per-agent state shared across engine calls.
//
// A [Log] is the append-only audit trail of execution attempts and file
// loads. An [ExecutionContext] owns one Log, one policy.Scanner and the
// output directory. Callers pass the context explicitly; nothing in this
// package keeps a process-wide default.
package session
