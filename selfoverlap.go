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

// OverlapHandler receives one call per overlapping leaf pair discovered by
// GetSelfOverlaps. Pairs are unordered and each is reported exactly once
// (spec §4.11).
type OverlapHandler interface {
	Handle(leafA, leafB int32)
}

// GetSelfOverlaps walks the tree reporting every pair of leaves whose
// bounds intersect. It is a no-op on trees with fewer than two leaves.
func (t *Tree) GetSelfOverlaps(handler OverlapHandler) {
	if t.leafCount < 2 {
		return
	}
	t.getOverlapsInNode(0, handler)
}

// getOverlapsInNode recurses into both children (if interior) to collect
// overlaps within each subtree, then cross-tests the two children against
// each other exactly once.
func (t *Tree) getOverlapsInNode(nodeIndex int32, handler OverlapHandler) {
	node := &t.nodes[nodeIndex]
	if !isLeaf(node.A.Index) {
		t.getOverlapsInNode(node.A.Index, handler)
	}
	if !isLeaf(node.B.Index) {
		t.getOverlapsInNode(node.B.Index, handler)
	}

	node = &t.nodes[nodeIndex]
	if Intersects(node.A.Bounds, node.B.Bounds) {
		t.dispatchTestForNodes(node.A, node.B, handler)
	}
}

func (t *Tree) dispatchTestForNodes(x, y NodeChild, handler OverlapHandler) {
	switch {
	case !isLeaf(x.Index) && !isLeaf(y.Index):
		t.getOverlapsBetweenDifferentNodes(x.Index, y.Index, handler)
	case !isLeaf(x.Index) && isLeaf(y.Index):
		t.testLeafAgainstNode(y.Bounds, decodeLeaf(y.Index), x.Index, handler)
	case isLeaf(x.Index) && !isLeaf(y.Index):
		t.testLeafAgainstNode(x.Bounds, decodeLeaf(x.Index), y.Index, handler)
	default:
		handler.Handle(decodeLeaf(x.Index), decodeLeaf(y.Index))
	}
}

// getOverlapsBetweenDifferentNodes tests all four cross-child pairs
// between two sibling interior nodes that are already known to overlap.
func (t *Tree) getOverlapsBetweenDifferentNodes(nodeX, nodeY int32, handler OverlapHandler) {
	x := t.nodes[nodeX]
	y := t.nodes[nodeY]

	if Intersects(x.A.Bounds, y.A.Bounds) {
		t.dispatchTestForNodes(x.A, y.A, handler)
	}
	if Intersects(x.A.Bounds, y.B.Bounds) {
		t.dispatchTestForNodes(x.A, y.B, handler)
	}
	if Intersects(x.B.Bounds, y.A.Bounds) {
		t.dispatchTestForNodes(x.B, y.A, handler)
	}
	if Intersects(x.B.Bounds, y.B.Bounds) {
		t.dispatchTestForNodes(x.B, y.B, handler)
	}
}

// testLeafAgainstNode tests leafBounds against each child of nodeIndex,
// descending into any that overlap.
func (t *Tree) testLeafAgainstNode(leafBounds AABB, leafID, nodeIndex int32, handler OverlapHandler) {
	node := t.nodes[nodeIndex]
	if node.A.LeafCount > 0 && Intersects(leafBounds, node.A.Bounds) {
		t.dispatchTestForLeaf(leafBounds, leafID, node.A, handler)
	}
	if node.B.LeafCount > 0 && Intersects(leafBounds, node.B.Bounds) {
		t.dispatchTestForLeaf(leafBounds, leafID, node.B, handler)
	}
}

func (t *Tree) dispatchTestForLeaf(leafBounds AABB, leafID int32, child NodeChild, handler OverlapHandler) {
	if isLeaf(child.Index) {
		handler.Handle(leafID, decodeLeaf(child.Index))
		return
	}
	t.testLeafAgainstNode(leafBounds, leafID, child.Index, handler)
}
