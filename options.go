// This is free and unencumbered software released into the public domain.
//
// Anyone is free to copy, modify, publish, use, compile, sell, or
// distribute this software, either in source code form or as a compiled
// binary, for any purpose, commercial or non-commercial, and by any
// means.
//
// In jurisdictions that recognize copyright laws, the author or authors
// of this software dedicate any and all copyright interest in the
// software to the public domain. We make this dedication for the benefit
// of the public at large and to the detriment of our heirs and
// successors. We intend this dedication to be an overt act of
// relinquishment in perpetuity of all present and future rights to this
// software under copyright law.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// For more information, please refer to <https://unlicense.org>

package broadphase

import "github.com/palisade-physics/broadphase/internal/diag"

// TreeOption configures a Tree at construction time. There is no config
// file format; every knob is a functional option passed to New.
type TreeOption func(*Tree)

// WithTreeTracer overrides the no-op default diagnostic sink.
func WithTreeTracer(tracer diag.Tracer) TreeOption {
	return func(t *Tree) {
		if tracer != nil {
			t.tracer = tracer
		}
	}
}

// BroadPhaseOption configures a BroadPhase at construction time.
type BroadPhaseOption func(*BroadPhase)

// WithBroadPhaseTracer overrides the no-op default diagnostic sink for
// both of a BroadPhase's trees.
func WithBroadPhaseTracer(tracer diag.Tracer) BroadPhaseOption {
	return func(b *BroadPhase) {
		if tracer != nil {
			b.tracer = tracer
			b.active.tracer = tracer
			b.static.tracer = tracer
		}
	}
}

// WithRefineAggressiveness scales how much of the candidate pool
// RefitAndRefine schedules for treelet refinement each frame. Default 1.
func WithRefineAggressiveness(aggr float32) BroadPhaseOption {
	return func(b *BroadPhase) { b.refineAggr = aggr }
}

// WithCacheAggressiveness scales how many nodes each frame's cache-layout
// pass would walk, if IncrementalCacheOptimize were wired into the
// scheduler (spec §9). Kept as a real option so a future call site can
// use it without an API change.
func WithCacheAggressiveness(aggr float32) BroadPhaseOption {
	return func(b *BroadPhase) { b.cacheAggr = aggr }
}

// WithActiveCapacity sets the initial leaf capacity of the active tree.
// Default 4096 (spec §6).
func WithActiveCapacity(capacity int) BroadPhaseOption {
	return func(b *BroadPhase) { b.activeCapacity = capacity }
}

// WithStaticCapacity sets the initial leaf capacity of the static tree.
// Default 8192 (spec §6).
func WithStaticCapacity(capacity int) BroadPhaseOption {
	return func(b *BroadPhase) { b.staticCapacity = capacity }
}
