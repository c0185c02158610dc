// Package yaegi implements code.Engine on the yaegi Go interpreter.
//
// Every Run gets a fresh interpreter. The namespace is assembled in a fixed
// order: the standard library symbols, a set of best-effort package imports
// (fmt, math, strings, gonum's stat and floats, gonum/plot and the plt
// helper), the caller's bindings, the optional preamble and finally the
// script itself.
//
// Scripts may be bare statements, top-level declarations or a complete
// package main. Statements and declarations share the namespace's global
// scope, so variables they define are visible to the caller afterwards.
//
// The interpreter runs in-process with the full standard library available.
// It is not an isolation boundary.
package yaegi
