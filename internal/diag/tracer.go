// Package diag provides an optional, dependency-free tracing hook for the
// broad phase. The package carries no logging library of its own; callers
// that want visibility into refinement scheduling or corruption detection
// plug in a Tracer (which can trivially wrap log.Logger, zap, or anything
// else) instead of this module picking a concrete one for them.
package diag

// Tracer receives diagnostic events from the tree and broad phase. Fields
// are passed as alternating key/value pairs, matching the style used by
// most structured loggers so a Tracer implementation can forward them
// directly.
type Tracer interface {
	Trace(event string, fields ...any)
}

// Noop discards every event. It is the default Tracer for Tree and
// BroadPhase when none is supplied via options.
var Noop Tracer = noopTracer{}

type noopTracer struct{}

func (noopTracer) Trace(string, ...any) {}
