package interrupt

import "context"

// interrupterKey is the context key a tool-bound interrupter handle is
// stored under, the same context.WithValue-scoped-capability pattern
// the corpus uses for ReportToolProgress: a local binding at
// dispatch time, not a global or thread-local.
type interrupterKey struct{}

// Interrupter is the handle a running tool calls to request a
// TOOL-sourced interrupt with a reason.
type Interrupter func(reason string)

// WithInterrupter injects fn into ctx for the duration of one tool
// invocation.
func WithInterrupter(ctx context.Context, fn Interrupter) context.Context {
	return context.WithValue(ctx, interrupterKey{}, fn)
}

// Signal invokes the bound interrupter, if one is present in ctx.
// Silently ignored outside a tool invocation context.
func Signal(ctx context.Context, reason string) {
	if fn, ok := ctx.Value(interrupterKey{}).(Interrupter); ok {
		fn(reason)
	}
}
