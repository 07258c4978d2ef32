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

	"github.com/palisade-physics/broadphase/internal/arena"
	"github.com/palisade-physics/broadphase/internal/diag"
)

// Tree is a single dynamic binary bounding-volume hierarchy: incremental
// SAH insertion, bottom-up refit, binned-SAH treelet refinement, and a
// self-overlap walk. A zero-leaf tree still has one root node (its
// children unpopulated), so node_count is never zero.
type Tree struct {
	nodes     []Node
	metanodes []MetaNode
	leaves    []Leaf

	nodeCount int32
	leafCount int32

	pool   *arena.Pool[Node]
	mpool  *arena.Pool[MetaNode]
	lpool  *arena.Pool[Leaf]
	tracer diag.Tracer
}

// New constructs a Tree with room for initialLeafCapacity leaves (rounded
// up to a power of two), a zeroed root metanode, and no leaves (spec
// §4.2).
func New(initialLeafCapacity int, opts ...TreeOption) (*Tree, error) {
	if initialLeafCapacity <= 0 {
		return nil, ErrNegativeCapacity
	}
	t := &Tree{
		pool:   arena.NewPool[Node](),
		mpool:  arena.NewPool[MetaNode](),
		lpool:  arena.NewPool[Leaf](),
		tracer: diag.Noop,
	}
	for _, opt := range opts {
		opt(t)
	}
	nodeCapacity := arena.CapacityForCount(initialLeafCapacity - 1)
	if initialLeafCapacity == 1 {
		nodeCapacity = 1
	}
	t.nodes = t.pool.TakeAtLeast(nodeCapacity)
	t.metanodes = t.mpool.TakeAtLeast(nodeCapacity)
	t.leaves = t.lpool.TakeAtLeast(initialLeafCapacity)
	t.nodeCount = 1
	t.metanodes[0] = MetaNode{Parent: -1, IndexInParent: -1}
	return t, nil
}

// LeafCount reports the number of live leaves.
func (t *Tree) LeafCount() int32 { return t.leafCount }

// NodeCount reports the number of live interior nodes (always ≥ 1).
func (t *Tree) NodeCount() int32 { return t.nodeCount }

func ceilLog2(v int32) int32 {
	if v <= 1 {
		return 0
	}
	return int32(math.Ceil(math.Log2(float64(v))))
}

// resize grows all three buffers to capacities consistent with
// max(leaf_count, targetLeafSlots); it never shrinks below the current
// leaf count (spec §4.2).
func (t *Tree) resize(targetLeafSlots int32) {
	if targetLeafSlots < t.leafCount {
		targetLeafSlots = t.leafCount
	}
	targetNodeSlots := targetLeafSlots - 1
	if targetNodeSlots < t.nodeCount {
		targetNodeSlots = t.nodeCount
	}
	t.nodes = t.pool.ResizeToAtLeast(t.nodes, int(targetNodeSlots), int(t.nodeCount))
	t.metanodes = t.mpool.ResizeToAtLeast(t.metanodes, int(targetNodeSlots), int(t.nodeCount))
	t.leaves = t.lpool.ResizeToAtLeast(t.leaves, int(targetLeafSlots), int(t.leafCount))
}

// allocateNode reserves the next node id, growing storage first if needed.
func (t *Tree) allocateNode() int32 {
	if int32(len(t.nodes)) == t.nodeCount {
		t.resize(t.leafCount)
		if int32(len(t.nodes)) == t.nodeCount {
			t.nodes = t.pool.ResizeToAtLeast(t.nodes, int(t.nodeCount)+1, int(t.nodeCount))
			t.metanodes = t.mpool.ResizeToAtLeast(t.metanodes, int(t.nodeCount)+1, int(t.nodeCount))
		}
	}
	id := t.nodeCount
	t.nodeCount++
	return id
}

// addLeaf records a new leaf's owning node/slot and returns its id.
func (t *Tree) addLeaf(nodeIndex, childIndex int32) int32 {
	if int32(len(t.leaves)) == t.leafCount {
		t.resize(t.leafCount + 1)
	}
	id := t.leafCount
	t.leaves[id] = Leaf{NodeIndex: nodeIndex, ChildIndex: childIndex}
	t.leafCount++
	return id
}

// Add inserts a new AABB and returns its leaf id (spec §4.3).
func (t *Tree) Add(bounds AABB) int32 {
	if int32(len(t.leaves)) == t.leafCount {
		t.resize(t.leafCount + 1)
	}

	if t.leafCount < 2 {
		slot := t.leafCount
		leafID := t.addLeaf(0, slot)
		child := t.nodes[0].child(slot)
		child.Bounds = bounds
		child.Index = encodeLeaf(leafID)
		child.LeafCount = 1
		return leafID
	}

	newLeafCost := Metric(bounds)
	nodeIndex := int32(0)
	for {
		node := &t.nodes[nodeIndex]
		changeA, mergedA := t.evaluateChoice(&node.A, bounds, newLeafCost)
		changeB, mergedB := t.evaluateChoice(&node.B, bounds, newLeafCost)

		var slot int32
		var merged AABB
		if changeA <= changeB {
			slot = 0
			merged = mergedA
		} else {
			slot = 1
			merged = mergedB
		}
		child := node.child(slot)

		if isLeaf(child.Index) {
			return t.mergeLeafNodes(nodeIndex, slot, bounds)
		}

		child.Bounds = merged
		child.LeafCount++
		nodeIndex = child.Index
	}
}

// evaluateChoice computes the SAH cost-change of routing a new box with
// cost newLeafCost through child, along with the merged bounds that
// result (spec §4.3 step 4).
func (t *Tree) evaluateChoice(child *NodeChild, bounds AABB, newLeafCost float32) (float32, AABB) {
	merged := Merge(child.Bounds, bounds)
	newMetric := Metric(merged)
	if isLeaf(child.Index) {
		return newMetric, merged
	}
	delta := newMetric - Metric(child.Bounds)
	depthProxy := ceilLog2(child.LeafCount)
	costChange := newMetric - Metric(child.Bounds) + float32(depthProxy)*maxf(newLeafCost, delta)
	return costChange, merged
}

// mergeLeafNodes splits the leaf at nodes[parent].child[slot] into a new
// internal node holding the old leaf and the new one (spec §4.3 step 5,
// "MergeLeafNodes").
func (t *Tree) mergeLeafNodes(parent, slot int32, bounds AABB) int32 {
	oldChild := t.nodes[parent].child(slot)
	oldBounds := oldChild.Bounds
	oldLeafID := decodeLeaf(oldChild.Index)

	newNode := t.allocateNode()
	// allocateNode may have reallocated the backing array; re-fetch the
	// parent's child pointer before writing through it.
	parentChild := t.nodes[parent].child(slot)

	merged := Merge(oldBounds, bounds)

	t.metanodes[newNode] = MetaNode{Parent: parent, IndexInParent: slot}

	newLeafID := t.addLeaf(newNode, 1)

	t.nodes[newNode].A = NodeChild{Bounds: oldBounds, Index: encodeLeaf(oldLeafID), LeafCount: 1}
	t.nodes[newNode].B = NodeChild{Bounds: bounds, Index: encodeLeaf(newLeafID), LeafCount: 1}
	t.leaves[oldLeafID] = Leaf{NodeIndex: newNode, ChildIndex: 0}

	parentChild.Bounds = merged
	parentChild.Index = newNode
	parentChild.LeafCount = 2

	return newLeafID
}

// getContainingPowerOf2 mirrors the depth proxy used during insertion;
// exposed for tests that want to exercise it directly.
func getContainingPowerOf2(v int32) int32 { return ceilLog2(v) }

func (t *Tree) childForLeaf(leafID int32) *NodeChild {
	leaf := t.leaves[leafID]
	return t.nodes[leaf.NodeIndex].child(leaf.ChildIndex)
}

// LeafBounds returns the current bounds stored for leafID, i.e. the
// owning node's child-slot bounds (spec §4.12's "ActiveBounds" /
// "StaticBounds" read accessors, supplementing the write-only contract
// implied by UpdateActiveBounds/UpdateStaticBounds).
func (t *Tree) LeafBounds(leafID int32) (AABB, error) {
	if leafID < 0 || leafID >= t.leafCount {
		return AABB{}, wrapIndex(ErrInvalidLeafIndex, leafID)
	}
	return t.childForLeaf(leafID).Bounds, nil
}

// SetLeafBounds overwrites leafID's child-slot bounds directly, without
// refitting ancestors; it returns the owning node id so the caller can
// follow up with RefitForNodeBoundsChange.
func (t *Tree) SetLeafBounds(leafID int32, bounds AABB) (int32, error) {
	if leafID < 0 || leafID >= t.leafCount {
		return -1, wrapIndex(ErrInvalidLeafIndex, leafID)
	}
	child := t.childForLeaf(leafID)
	child.Bounds = bounds
	return t.leaves[leafID].NodeIndex, nil
}
