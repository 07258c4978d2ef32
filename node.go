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

// NodeChild describes one of a Node's two children. Index is a tagged
// union: a non-negative value is the id of a child interior node, and a
// negative value decodes (via decodeLeaf) to a leaf id. This matches the
// encoding the tree's original C++ source used to avoid a separate
// "is this a leaf" flag per child.
type NodeChild struct {
	Bounds   AABB
	Index    int32
	LeafCount int32
}

// encodeLeaf packs a leaf id into the negative range of a NodeChild.Index.
func encodeLeaf(leafIndex int32) int32 {
	return -1 - leafIndex
}

// decodeLeaf unpacks a leaf id previously packed by encodeLeaf. Only valid
// to call when isLeaf(index) is true.
func decodeLeaf(index int32) int32 {
	return -1 - index
}

// isLeaf reports whether a NodeChild.Index refers to a leaf rather than an
// interior node.
func isLeaf(index int32) bool {
	return index < 0
}

// Node is one interior node of the binary tree: exactly two children, each
// either another interior node or a leaf.
type Node struct {
	A NodeChild
	B NodeChild
}

// MetaNode carries bookkeeping for a Node that isn't needed by the hot
// traversal loops (bounds tests and SAH cost), kept in a side array so the
// Node array itself stays small and cache-dense. Mirrors the
// Node/Metanode split in the tree this broad phase is modeled on.
type MetaNode struct {
	Parent        int32
	IndexInParent int32
	// RefineFlag marks a node as already chosen as a refinement target in
	// the current scheduling round: selectRefinementTargets uses it to
	// avoid picking a node twice, and CollectSubtrees does not expand a
	// flagged node into another target's treelet.
	RefineFlag int32
}

// Leaf records where a single leaf currently lives in the tree: which
// interior node holds it, and which of that node's two children (0 or 1)
// it is.
type Leaf struct {
	NodeIndex  int32
	ChildIndex int32
}

func (n *Node) child(i int32) *NodeChild {
	if i == 0 {
		return &n.A
	}
	return &n.B
}
