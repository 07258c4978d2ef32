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

// RemoveAt removes leaf_id and collapses its now-singleton parent,
// returning the id of the leaf that was moved to fill the hole left
// behind, or -1 if none moved (spec §4.4).
func (t *Tree) RemoveAt(leafID int32) (int32, error) {
	if leafID < 0 || leafID >= t.leafCount {
		return -1, wrapIndex(ErrInvalidLeafIndex, leafID)
	}

	leaf := t.leaves[leafID]
	movedLeaf := int32(-1)

	t.leafCount--
	if leafID < t.leafCount {
		moved := t.leaves[t.leafCount]
		t.leaves[leafID] = moved
		t.nodes[moved.NodeIndex].child(moved.ChildIndex).Index = encodeLeaf(leafID)
		movedLeaf = t.leafCount
	}

	node := &t.nodes[leaf.NodeIndex]
	siblingSlot := leaf.ChildIndex ^ 1
	sibling := *node.child(siblingSlot)

	meta := t.metanodes[leaf.NodeIndex]
	if meta.Parent == -1 {
		// Root parent (spec §4.4 step 5).
		if t.leafCount == 0 {
			t.nodes[0] = Node{}
			return movedLeaf, nil
		}
		if t.leafCount > 0 {
			if isLeaf(sibling.Index) {
				sLeaf := decodeLeaf(sibling.Index)
				if siblingSlot == 1 {
					t.nodes[0].A = sibling
				}
				t.leaves[sLeaf] = Leaf{NodeIndex: 0, ChildIndex: 0}
				t.nodes[0].B = NodeChild{}
			} else {
				t.nodes[0] = t.nodes[sibling.Index]
				t.metanodes[0] = MetaNode{Parent: -1, IndexInParent: -1}
				t.fixChildBackLinks(0)
				t.removeNodeAt(sibling.Index)
			}
		}
		return movedLeaf, nil
	}

	// Non-root parent (spec §4.4 step 4).
	parent := meta.Parent
	indexInParent := meta.IndexInParent
	*t.nodes[parent].child(indexInParent) = sibling
	if isLeaf(sibling.Index) {
		t.leaves[decodeLeaf(sibling.Index)] = Leaf{NodeIndex: parent, ChildIndex: indexInParent}
	} else {
		t.metanodes[sibling.Index].Parent = parent
		t.metanodes[sibling.Index].IndexInParent = indexInParent
	}
	t.refitForRemoval(parent)
	t.removeNodeAt(leaf.NodeIndex)

	return movedLeaf, nil
}

// refitForRemoval walks from node up to the root, recomputing bounds and
// decrementing each ancestor child slot's leaf_count by one (spec §4.4
// step 4).
func (t *Tree) refitForRemoval(nodeIndex int32) {
	for nodeIndex != -1 {
		node := &t.nodes[nodeIndex]
		merged := Merge(node.A.Bounds, node.B.Bounds)
		meta := t.metanodes[nodeIndex]
		if meta.Parent == -1 {
			break
		}
		parentChild := t.nodes[meta.Parent].child(meta.IndexInParent)
		parentChild.Bounds = merged
		parentChild.LeafCount--
		nodeIndex = meta.Parent
	}
}

// removeNodeAt swaps the last node into the hole at node_id, keeping the
// node array dense (spec §4.4, "RemoveNodeAt").
func (t *Tree) removeNodeAt(nodeIndex int32) {
	t.nodeCount--
	if nodeIndex == t.nodeCount {
		return
	}
	t.nodes[nodeIndex] = t.nodes[t.nodeCount]
	t.metanodes[nodeIndex] = t.metanodes[t.nodeCount]

	meta := t.metanodes[nodeIndex]
	if meta.Parent != -1 {
		t.nodes[meta.Parent].child(meta.IndexInParent).Index = nodeIndex
	}
	t.fixChildBackLinks(nodeIndex)
}

// fixChildBackLinks repoints the two children of nodes[nodeIndex] (leaf
// back-pointers or metanode parent/index_in_parent) at their moved
// parent, used after a node record is relocated by copy.
func (t *Tree) fixChildBackLinks(nodeIndex int32) {
	node := &t.nodes[nodeIndex]
	for slot := int32(0); slot < 2; slot++ {
		child := node.child(slot)
		if child.LeafCount == 0 {
			// Unpopulated root slot (only possible at node 0 with ≤1 leaf).
			continue
		}
		if isLeaf(child.Index) {
			t.leaves[decodeLeaf(child.Index)] = Leaf{NodeIndex: nodeIndex, ChildIndex: slot}
		} else {
			t.metanodes[child.Index].Parent = nodeIndex
			t.metanodes[child.Index].IndexInParent = slot
		}
	}
}
