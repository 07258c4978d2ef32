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

// subtreeHeapEntry is one candidate awaiting expansion while a treelet is
// being grown: the node id it refers to (encoded the same way as
// NodeChild.Index), its bounds, and the SAH cost key it was ranked by.
type subtreeHeapEntry struct {
	index  int32
	bounds AABB
	cost   float32
}

// subtreeHeap is a max-heap over cost, used by CollectSubtrees to always
// expand the currently most expensive candidate subtree first (spec
// §4.8).
type subtreeHeap struct {
	entries []subtreeHeapEntry
}

func newSubtreeHeap(capacity int32) *subtreeHeap {
	return &subtreeHeap{entries: make([]subtreeHeapEntry, 0, capacity)}
}

func (h *subtreeHeap) Len() int { return len(h.entries) }

func (h *subtreeHeap) Insert(index int32, bounds AABB, cost float32) {
	h.entries = append(h.entries, subtreeHeapEntry{index: index, bounds: bounds, cost: cost})
	h.siftUp(len(h.entries) - 1)
}

// Pop removes and returns the maximum-cost entry. It panics if the heap
// is empty; callers must check Len first.
func (h *subtreeHeap) Pop() subtreeHeapEntry {
	top := h.entries[0]
	last := len(h.entries) - 1
	h.entries[0] = h.entries[last]
	h.entries = h.entries[:last]
	if len(h.entries) > 0 {
		h.siftDown(0)
	}
	return top
}

func (h *subtreeHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.entries[parent].cost >= h.entries[i].cost {
			break
		}
		h.entries[parent], h.entries[i] = h.entries[i], h.entries[parent]
		i = parent
	}
}

func (h *subtreeHeap) siftDown(i int) {
	n := len(h.entries)
	for {
		left := 2*i + 1
		right := 2*i + 2
		largest := i
		if left < n && h.entries[left].cost > h.entries[largest].cost {
			largest = left
		}
		if right < n && h.entries[right].cost > h.entries[largest].cost {
			largest = right
		}
		if largest == i {
			return
		}
		h.entries[i], h.entries[largest] = h.entries[largest], h.entries[i]
		i = largest
	}
}

// subtreeRef names one entry collected into a treelet: either an interior
// node id (kind=interior) or a leaf id (kind=leaf), paired with the
// bounds it had when collected (its parent slot's bounds at that time).
type subtreeRef struct {
	bounds    AABB
	nodeIndex int32 // valid when isInternal
	leafIndex int32 // valid when !isInternal
	isInternal bool
}

// CollectSubtrees grows a treelet rooted at root up to maxSubtrees
// entries, selecting the next interior subtree to expand by maximum SAH
// cost. Both children of root are always inserted first. internals
// collects the interior node ids absorbed along the way (sorted
// ascending on return, for stable reify ordering); subtrees collects the
// treelet's final leaves (both tree leaves and un-expanded interior
// nodes). Returns the summed cost of every expanded entry (spec §4.8).
func (t *Tree) CollectSubtrees(root, maxSubtrees int32, heap *subtreeHeap) (subtrees []subtreeRef, internals []int32, treeletCost float32) {
	node := &t.nodes[root]
	heap.Insert(node.A.Index, node.A.Bounds, Metric(node.A.Bounds))
	heap.Insert(node.B.Index, node.B.Bounds, Metric(node.B.Bounds))

	remainingSpace := maxSubtrees - 2
	subtrees = make([]subtreeRef, 0, maxSubtrees)
	internals = make([]int32, 0, maxSubtrees)

	for heap.Len() > 0 {
		top := heap.entries[0]

		if isLeaf(top.index) {
			heap.Pop()
			subtrees = append(subtrees, subtreeRef{bounds: top.bounds, leafIndex: decodeLeaf(top.index)})
			continue
		}

		if remainingSpace < 1 || t.metanodes[top.index].RefineFlag != 0 {
			heap.Pop()
			subtrees = append(subtrees, subtreeRef{bounds: top.bounds, nodeIndex: top.index, isInternal: true})
			continue
		}

		heap.Pop()
		treeletCost += top.cost
		internals = append(internals, top.index)
		remainingSpace--

		child := &t.nodes[top.index]
		heap.Insert(child.A.Index, child.A.Bounds, Metric(child.A.Bounds))
		heap.Insert(child.B.Index, child.B.Bounds, Metric(child.B.Bounds))
	}

	sortInt32Ascending(internals)
	return subtrees, internals, treeletCost
}

func sortInt32Ascending(s []int32) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}
