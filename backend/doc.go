// Package backend routes tool calls to named tool sources.
//
// A Registry holds Backends by name and an Aggregator resolves
// "<backend>:<tool>" IDs against it. An Interceptor can sit in front of the
// Aggregator and scan every string argument of a call with the rigor
// scanner before the call is forwarded:
//
//	agg := backend.NewAggregator(registry)
//	guarded, _ := backend.Intercept(agg, backend.InterceptConfig{
//	    Checker: scanner,
//	    Enabled: execCtx.InterceptAllTools,
//	    Exempt:  []string{"rigor"},
//	})
//	result, err := guarded.Execute(ctx, "files:write", args)
//
// Violations fail with ErrToolBlocked. Needs-confirmation findings fail
// with ErrConfirmationRequired until the call is repeated with
// confirmed=true.
package backend
