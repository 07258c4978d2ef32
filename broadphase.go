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

import (
	"math"

	"github.com/palisade-physics/broadphase/internal/diag"
)

const (
	defaultActiveCapacity = 4096
	defaultStaticCapacity = 8192
)

// BroadPhase owns one active tree (for moving bodies) and one static tree
// (for immobile ones), plus the parallel leaf-id -> CollidableReference
// arrays that let a caller recover which body a reported overlap
// actually names (spec §4.12).
type BroadPhase struct {
	active *Tree
	static *Tree

	activeLeaves []CollidableReference
	staticLeaves []CollidableReference

	frameIndex int32
	refineAggr float32
	cacheAggr  float32

	activeCapacity int
	staticCapacity int

	tracer diag.Tracer
}

// NewBroadPhase constructs a BroadPhase with the given or default leaf
// capacities for its two trees (4096 active, 8192 static; spec §6).
func NewBroadPhase(opts ...BroadPhaseOption) (*BroadPhase, error) {
	b := &BroadPhase{
		refineAggr:     1,
		cacheAggr:      1,
		activeCapacity: defaultActiveCapacity,
		staticCapacity: defaultStaticCapacity,
		tracer:         diag.Noop,
	}
	// Options run before the real trees exist; WithBroadPhaseTracer writes
	// through b.active/b.static, so it gets placeholders here and the
	// chosen tracer is handed to the real trees below.
	b.active, b.static = &Tree{}, &Tree{}
	for _, opt := range opts {
		opt(b)
	}

	active, err := New(b.activeCapacity, WithTreeTracer(b.tracer))
	if err != nil {
		return nil, err
	}
	static, err := New(b.staticCapacity, WithTreeTracer(b.tracer))
	if err != nil {
		return nil, err
	}
	b.active = active
	b.static = static
	b.activeLeaves = make([]CollidableReference, b.activeCapacity)
	b.staticLeaves = make([]CollidableReference, b.staticCapacity)
	return b, nil
}

func growReferences(s []CollidableReference, needed int) []CollidableReference {
	if len(s) >= needed {
		return s
	}
	next := make([]CollidableReference, needed)
	copy(next, s)
	return next
}

// AddActive inserts bounds into the active tree and records ref against
// the returned index (spec §4.12).
func (b *BroadPhase) AddActive(ref CollidableReference, bounds AABB) int32 {
	leafID := b.active.Add(bounds)
	b.activeLeaves = growReferences(b.activeLeaves, int(leafID)+1)
	b.activeLeaves[leafID] = ref
	return leafID
}

// AddStatic inserts bounds into the static tree and records ref against
// the returned index.
func (b *BroadPhase) AddStatic(ref CollidableReference, bounds AABB) int32 {
	leafID := b.static.Add(bounds)
	b.staticLeaves = growReferences(b.staticLeaves, int(leafID)+1)
	b.staticLeaves[leafID] = ref
	return leafID
}

// RemoveActiveAt removes the active-tree leaf at index. If another leaf
// was moved into the hole, it returns that leaf's CollidableReference and
// true so the caller can repoint its own handle -> index mapping (spec
// §4.12, §4.13).
func (b *BroadPhase) RemoveActiveAt(index int32) (CollidableReference, bool, error) {
	moved, err := b.active.RemoveAt(index)
	if err != nil {
		return 0, false, err
	}
	if moved < 0 {
		return 0, false, nil
	}
	ref := b.activeLeaves[moved]
	b.activeLeaves[index] = ref
	return ref, true, nil
}

// RemoveStaticAt is RemoveActiveAt's static-tree counterpart.
func (b *BroadPhase) RemoveStaticAt(index int32) (CollidableReference, bool, error) {
	moved, err := b.static.RemoveAt(index)
	if err != nil {
		return 0, false, err
	}
	if moved < 0 {
		return 0, false, nil
	}
	ref := b.staticLeaves[moved]
	b.staticLeaves[index] = ref
	return ref, true, nil
}

// UpdateActiveBounds overwrites the bounds stored for an active leaf and
// refits its ancestors (spec §4.12).
func (b *BroadPhase) UpdateActiveBounds(index int32, bounds AABB) error {
	owner, err := b.active.SetLeafBounds(index, bounds)
	if err != nil {
		return err
	}
	b.active.RefitForNodeBoundsChange(owner)
	return nil
}

// UpdateStaticBounds is UpdateActiveBounds's static-tree counterpart.
func (b *BroadPhase) UpdateStaticBounds(index int32, bounds AABB) error {
	owner, err := b.static.SetLeafBounds(index, bounds)
	if err != nil {
		return err
	}
	b.static.RefitForNodeBoundsChange(owner)
	return nil
}

// ActiveBounds reads back the bounds currently stored for an active leaf.
// This read accessor isn't named in the external-interface sketch but is
// a direct, safe counterpart to UpdateActiveBounds that callers need to
// inspect state without walking tree internals themselves.
func (b *BroadPhase) ActiveBounds(index int32) (AABB, error) {
	return b.active.LeafBounds(index)
}

// StaticBounds is ActiveBounds's static-tree counterpart.
func (b *BroadPhase) StaticBounds(index int32) (AABB, error) {
	return b.static.LeafBounds(index)
}

// Update advances the frame counter (wrapping from math.MaxInt32 back to
// zero) and runs RefitAndRefine on both trees (spec §4.12).
func (b *BroadPhase) Update() error {
	if b.frameIndex == math.MaxInt32 {
		b.frameIndex = 0
	} else {
		b.frameIndex++
	}
	if err := b.active.RefitAndRefine(b.frameIndex, b.refineAggr, b.cacheAggr); err != nil {
		return err
	}
	if err := b.static.RefitAndRefine(b.frameIndex, b.refineAggr, b.cacheAggr); err != nil {
		return err
	}
	b.tracer.Trace("broadphase.update", "frame", b.frameIndex)
	return nil
}

// FrameIndex reports the current frame counter.
func (b *BroadPhase) FrameIndex() int32 { return b.frameIndex }

// GetSelfOverlaps reports every overlapping pair within the active tree
// and between the active and static trees against handler. Static-static
// pairs are never reported since static volumes never move.
func (b *BroadPhase) GetSelfOverlaps(handler OverlapHandler) {
	b.active.GetSelfOverlaps(handler)
	b.crossOverlaps(handler)
}

// activeVsStaticHandler adapts an OverlapHandler so the first id reported
// to it (the active leaf) stays fixed while the static tree's own
// self-overlap machinery supplies the second.
type activeVsStaticHandler struct {
	underlying OverlapHandler
	activeLeaf int32
}

func (h activeVsStaticHandler) Handle(_, staticLeaf int32) {
	h.underlying.Handle(h.activeLeaf, staticLeaf)
}

// crossOverlaps tests every active leaf against the static tree. This
// isn't a tree-internal walk (the two trees don't share node ids) so it
// runs as a linear scan guarded by each active leaf's own bounds; still
// O(log n) per active leaf against a balanced static tree.
func (b *BroadPhase) crossOverlaps(handler OverlapHandler) {
	if b.static.LeafCount() == 0 {
		return
	}
	for leafID := int32(0); leafID < b.active.LeafCount(); leafID++ {
		bounds, err := b.active.LeafBounds(leafID)
		if err != nil {
			continue
		}
		adapter := activeVsStaticHandler{underlying: handler, activeLeaf: leafID}
		b.static.testLeafAgainstNode(bounds, leafID, 0, adapter)
	}
}

// Clear resets both trees to an empty single-root state and drops all
// collidable references (spec §4.12).
func (b *BroadPhase) Clear() error {
	active, err := New(b.activeCapacity, WithTreeTracer(b.tracer))
	if err != nil {
		return err
	}
	static, err := New(b.staticCapacity, WithTreeTracer(b.tracer))
	if err != nil {
		return err
	}
	b.active = active
	b.static = static
	b.activeLeaves = make([]CollidableReference, b.activeCapacity)
	b.staticLeaves = make([]CollidableReference, b.staticCapacity)
	return nil
}

// EnsureCapacity grows the active and static leaf-reference arrays (and
// their trees) to hold at least the given leaf counts, without touching
// existing content. Supplements the external-interface sketch with the
// BroadPhase-level capacity control the body store needs when it knows
// ahead of time how many collidables it is about to add in bulk.
func (b *BroadPhase) EnsureCapacity(activeLeafCount, staticLeafCount int) {
	b.active.resize(int32(activeLeafCount))
	b.static.resize(int32(staticLeafCount))
	b.activeLeaves = growReferences(b.activeLeaves, activeLeafCount)
	b.staticLeaves = growReferences(b.staticLeaves, staticLeafCount)
}

// Resize is an alias for EnsureCapacity kept for callers migrating from
// APIs that distinguish "grow" from "ensure"; both never shrink below the
// live leaf count.
func (b *BroadPhase) Resize(activeLeafCount, staticLeafCount int) {
	b.EnsureCapacity(activeLeafCount, staticLeafCount)
}
