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
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// debugValidateEnabled gates the full invariant walk described in spec §7.1
// ("debug builds additionally run validate_bounds on every touched node").
// It is off by default so production callers don't pay for it; tests flip
// it on via EnableDebugValidation.
var debugValidateEnabled = false

// EnableDebugValidation turns on a full invariant check after every
// BinnedRefine for the remainder of the process, which makes each
// RefitAndRefine substantially more expensive. Add, RemoveAt and the refit
// operations do not check. Intended for test builds only.
func EnableDebugValidation(enabled bool) {
	debugValidateEnabled = enabled
}

// ValidationError describes a single broken invariant found by Validate.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate walks the entire tree and checks every cross-invariant listed
// in spec §3 and §8: parent/child pointer agreement, leaf back-pointer
// agreement, leaf_count additivity, bounds containment, and absence of
// cycles. It is the "validate_bounds" routine spec §7.1 requires debug
// builds to run after every touched node.
func (t *Tree) Validate() error {
	if t.metanodes[0].Parent != -1 || t.metanodes[0].IndexInParent != -1 {
		return &ValidationError{Reason: "root metanode must have parent=-1, index_in_parent=-1"}
	}

	visited := bitset.New(uint(t.nodeCount))
	leafSeen := bitset.New(uint(t.leafCount))

	var walk func(nodeIndex int32) error
	walk = func(nodeIndex int32) error {
		if visited.Test(uint(nodeIndex)) {
			return &ValidationError{Reason: fmt.Sprintf("node %d visited twice: cycle or aliasing", nodeIndex)}
		}
		visited.Set(uint(nodeIndex))

		node := &t.nodes[nodeIndex]
		for slot := int32(0); slot < 2; slot++ {
			child := node.child(slot)
			if child.LeafCount == 0 {
				if nodeIndex == 0 && t.leafCount <= 1 {
					continue
				}
				return &ValidationError{Reason: fmt.Sprintf("node %d slot %d unpopulated outside the empty/singleton root case", nodeIndex, slot)}
			}
			if isLeaf(child.Index) {
				leafID := decodeLeaf(child.Index)
				if leafID < 0 || leafID >= t.leafCount {
					return &ValidationError{Reason: fmt.Sprintf("node %d slot %d encodes out-of-range leaf %d", nodeIndex, slot, leafID)}
				}
				if leafSeen.Test(uint(leafID)) {
					return &ValidationError{Reason: fmt.Sprintf("leaf %d referenced by more than one node", leafID)}
				}
				leafSeen.Set(uint(leafID))
				owner := t.leaves[leafID]
				if owner.NodeIndex != nodeIndex || owner.ChildIndex != slot {
					return &ValidationError{Reason: fmt.Sprintf("leaf %d back-pointer (%d,%d) disagrees with owner (%d,%d)", leafID, owner.NodeIndex, owner.ChildIndex, nodeIndex, slot)}
				}
				if child.LeafCount != 1 {
					return &ValidationError{Reason: fmt.Sprintf("leaf child at node %d slot %d has leaf_count %d, want 1", nodeIndex, slot, child.LeafCount)}
				}
			} else {
				childMeta := t.metanodes[child.Index]
				if childMeta.Parent != nodeIndex || childMeta.IndexInParent != slot {
					return &ValidationError{Reason: fmt.Sprintf("node %d back-pointer (%d,%d) disagrees with parent slot (%d,%d)", child.Index, childMeta.Parent, childMeta.IndexInParent, nodeIndex, slot)}
				}
				grand := &t.nodes[child.Index]
				wantLeafCount := grand.A.LeafCount + grand.B.LeafCount
				if child.LeafCount != wantLeafCount {
					return &ValidationError{Reason: fmt.Sprintf("node %d leaf_count %d does not match children sum %d", child.Index, child.LeafCount, wantLeafCount)}
				}
				if Merge(child.Bounds, Merge(grand.A.Bounds, grand.B.Bounds)) != child.Bounds {
					return &ValidationError{Reason: fmt.Sprintf("node %d bounds do not contain its children's bounds", child.Index)}
				}
				if err := walk(child.Index); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(0); err != nil {
		return err
	}
	if uint(visited.Count()) != uint(t.nodeCount) {
		return &ValidationError{Reason: fmt.Sprintf("tree is not fully connected: visited %d of %d nodes", visited.Count(), t.nodeCount)}
	}
	return nil
}

// validateBoundsFrom is the check BinnedRefine runs after rebuilding a
// treelet when EnableDebugValidation is on. It runs the full Validate over
// the whole tree (nodeIndex is not used to narrow it) and panics on
// failure.
func (t *Tree) validateBoundsFrom(nodeIndex int32) {
	if err := t.Validate(); err != nil {
		panic(err)
	}
}
