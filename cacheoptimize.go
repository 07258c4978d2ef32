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

// swapNodes exchanges the node and metanode records at a and b, then
// repairs every pointer that referenced either by id: each node's
// parent's child slot, and each node's own two children's back-pointers.
// Handles a and b being parent/child of each other (spec §4.10).
func (t *Tree) swapNodes(a, b int32) {
	if a == b {
		return
	}

	aParent, aIndexInParent := t.metanodes[a].Parent, t.metanodes[a].IndexInParent
	bParent, bIndexInParent := t.metanodes[b].Parent, t.metanodes[b].IndexInParent

	t.nodes[a], t.nodes[b] = t.nodes[b], t.nodes[a]
	t.metanodes[a], t.metanodes[b] = t.metanodes[b], t.metanodes[a]

	// If a and b are parent/child of each other, the parent record has
	// itself moved to the other id; repoint the child's parent id before
	// the general back-link fixups run.
	if aParent == b {
		aParent = a
		t.metanodes[b].Parent = a
	}
	if bParent == a {
		bParent = b
		t.metanodes[a].Parent = b
	}

	if aParent != -1 {
		t.nodes[aParent].child(aIndexInParent).Index = b
	}
	if bParent != -1 {
		t.nodes[bParent].child(bIndexInParent).Index = a
	}

	t.fixChildBackLinks(a)
	t.fixChildBackLinks(b)
}

// IncrementalCacheOptimize moves the interior descendants of nodeIndex
// closer to it in id-order, improving locality for the depth-first
// traversals self-overlap queries perform. The scheduler in
// RefitAndRefine builds the call list for this but does not invoke it by
// default; see spec §9.
func (t *Tree) IncrementalCacheOptimize(nodeIndex int32) {
	node := &t.nodes[nodeIndex]
	prefixLeafOffset := int32(0)

	for slot := int32(0); slot < 2; slot++ {
		child := node.child(slot)
		if isLeaf(child.Index) {
			continue
		}
		target := nodeIndex + 1 + prefixLeafOffset
		if target != child.Index && target < t.nodeCount {
			t.swapNodes(child.Index, target)
		}
		prefixLeafOffset += t.nodes[nodeIndex].child(slot).LeafCount - 1
	}
}
