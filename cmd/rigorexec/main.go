// Command rigorexec runs analysis code under a scientific rigor policy.
//
// Usage:
//
//	rigorexec serve                     serve the engine's tools over MCP stdio
//	rigorexec run analysis.go           execute a script once
//	rigorexec validate analysis.go      parse and lint without running
//	rigorexec scan analysis.go          show what the rigor scanner reports
//	rigorexec export final.go           save a reproducible script
//	rigorexec log [session-id]          print a stored session audit trail
//	rigorexec tools [query]             list or search the published tools
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
