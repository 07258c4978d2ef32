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

const maxBinCount = 64

// binnedResources holds the struct-of-arrays scratch space BinnedRefine
// reuses across calls, so these arrays are not reallocated for every
// treelet of a per-frame refinement pass (spec §4.9 step 2). The subtree
// heap, the collected subtree lists and the staging nodes are still
// allocated per treelet.
type binnedResources struct {
	bounds     []AABB
	centroids  []Vec3
	leafCounts []int32
	indexMap   []int32
	scratch    []int32

	binBounds [3][maxBinCount]AABB
	binCounts [3][maxBinCount]int32 // summed leaf counts per bin, not entry counts
}

func newBinnedResources(maxSubtrees int32) *binnedResources {
	if maxSubtrees < 1 {
		maxSubtrees = 1
	}
	return &binnedResources{
		bounds:     make([]AABB, maxSubtrees),
		centroids:  make([]Vec3, maxSubtrees),
		leafCounts: make([]int32, maxSubtrees),
		indexMap:   make([]int32, maxSubtrees),
		scratch:    make([]int32, maxSubtrees),
	}
}

func (r *binnedResources) ensure(n int) {
	if cap(r.bounds) >= n {
		r.bounds = r.bounds[:n]
		r.centroids = r.centroids[:n]
		r.leafCounts = r.leafCounts[:n]
		r.indexMap = r.indexMap[:n]
		r.scratch = r.scratch[:n]
		return
	}
	r.bounds = make([]AABB, n)
	r.centroids = make([]Vec3, n)
	r.leafCounts = make([]int32, n)
	r.indexMap = make([]int32, n)
	r.scratch = make([]int32, n)
}

// stagingChild is one slot of a not-yet-committed reify node: either a
// reference back into the collected subtrees (a tree leaf or an
// un-expanded interior node) or a freshly built staging node.
type stagingChild struct {
	bounds        AABB
	isInternal    bool
	internalIndex int32
	subtreeIndex  int32
	leafCount     int32
}

type stagingNode struct {
	A, B stagingChild
}

// BinnedRefine locally rebuilds the treelet rooted at root using top-down
// binned-SAH partitioning, then commits the result unconditionally (spec
// §4.9; the source this is modeled on does not compare newCost against
// originalCost before committing, and neither does this).
func (t *Tree) BinnedRefine(root, maxSubtrees int32, res *binnedResources) {
	heap := newSubtreeHeap(maxSubtrees)
	subtrees, internals, _ := t.CollectSubtrees(root, maxSubtrees, heap)

	n := len(subtrees)
	res.ensure(n)
	for i, s := range subtrees {
		res.bounds[i] = s.bounds
		res.centroids[i] = Vec3{
			X: s.bounds.Min.X + s.bounds.Max.X,
			Y: s.bounds.Min.Y + s.bounds.Max.Y,
			Z: s.bounds.Min.Z + s.bounds.Max.Z,
		}
		if s.isInternal {
			res.leafCounts[i] = t.nodes[s.nodeIndex].A.LeafCount + t.nodes[s.nodeIndex].B.LeafCount
		} else {
			res.leafCounts[i] = 1
		}
		res.indexMap[i] = int32(i)
	}

	var staging []stagingNode
	rootChild := t.createStagingChild(0, int32(n), res, &staging)

	t.reifyRoot(root, rootChild, staging, subtrees, internals)

	if debugValidateEnabled {
		t.validateBoundsFrom(root)
	}
}

// createStagingChild recursively partitions res.indexMap[start:start+count]
// and returns the stagingChild representing that range, building a new
// stagingNode into *staging whenever the range holds more than one entry
// (spec §4.9 step 3).
func (t *Tree) createStagingChild(start, count int32, res *binnedResources, staging *[]stagingNode) stagingChild {
	if count == 1 {
		idx := res.indexMap[start]
		return stagingChild{bounds: res.bounds[idx], subtreeIndex: idx, leafCount: res.leafCounts[idx]}
	}

	countA := count / 2
	if count > 2 {
		countA = t.findPartitionBinned(start, count, res)
	}
	countB := count - countA

	a := t.createStagingChild(start, countA, res, staging)
	b := t.createStagingChild(start+countA, countB, res, staging)

	id := int32(len(*staging))
	*staging = append(*staging, stagingNode{A: a, B: b})
	return stagingChild{
		bounds:        Merge(a.bounds, b.bounds),
		isInternal:    true,
		internalIndex: id,
		leafCount:     a.leafCount + b.leafCount,
	}
}

// findPartitionBinned chooses the (axis, bin-boundary) pair minimizing
// SAH cost among candidate splits of res.indexMap[start:start+count], then
// reorders that range in place so the left group precedes the right
// group; it returns the size of the left group (spec §4.9 step 3).
func (t *Tree) findPartitionBinned(start, count int32, res *binnedResources) int32 {
	centroidMin := res.centroids[res.indexMap[start]]
	centroidMax := centroidMin
	for i := int32(1); i < count; i++ {
		c := res.centroids[res.indexMap[start+i]]
		centroidMin = Vec3{minf(centroidMin.X, c.X), minf(centroidMin.Y, c.Y), minf(centroidMin.Z, c.Z)}
		centroidMax = Vec3{maxf(centroidMax.X, c.X), maxf(centroidMax.Y, c.Y), maxf(centroidMax.Z, c.Z)}
	}
	span := Vec3{centroidMax.X - centroidMin.X, centroidMax.Y - centroidMin.Y, centroidMax.Z - centroidMin.Z}
	if span.X <= 0 && span.Y <= 0 && span.Z <= 0 {
		return count / 2
	}

	binCount := int32(count) / 4
	if binCount < 2 {
		binCount = 2
	}
	if binCount > maxBinCount {
		binCount = maxBinCount
	}

	spanOf := [3]float32{span.X, span.Y, span.Z}
	minOf := [3]float32{centroidMin.X, centroidMin.Y, centroidMin.Z}

	binIndex := func(axis int, c Vec3) int32 {
		var v, mn, sp float32
		switch axis {
		case 0:
			v, mn, sp = c.X, minOf[0], spanOf[0]
		case 1:
			v, mn, sp = c.Y, minOf[1], spanOf[1]
		default:
			v, mn, sp = c.Z, minOf[2], spanOf[2]
		}
		if sp <= 0 {
			return 0
		}
		b := int32((v - mn) * float32(binCount) / sp)
		if b < 0 {
			b = 0
		}
		if b > binCount-1 {
			b = binCount - 1
		}
		return b
	}

	for axis := 0; axis < 3; axis++ {
		if spanOf[axis] <= 0 {
			continue
		}
		for b := int32(0); b < binCount; b++ {
			res.binBounds[axis][b] = EmptyAABB()
			res.binCounts[axis][b] = 0
		}
		for i := int32(0); i < count; i++ {
			idx := res.indexMap[start+i]
			b := binIndex(axis, res.centroids[idx])
			res.binBounds[axis][b] = Merge(res.binBounds[axis][b], res.bounds[idx])
			res.binCounts[axis][b] += res.leafCounts[idx]
		}
	}

	bestAxis := -1
	bestBoundary := int32(0)
	bestCost := float32(0)

	for axis := 0; axis < 3; axis++ {
		if spanOf[axis] <= 0 {
			continue
		}
		var prefixBounds [maxBinCount]AABB
		var prefixCounts [maxBinCount]int32
		acc := EmptyAABB()
		accCount := int32(0)
		for b := int32(0); b < binCount; b++ {
			acc = Merge(acc, res.binBounds[axis][b])
			accCount += res.binCounts[axis][b]
			prefixBounds[b] = acc
			prefixCounts[b] = accCount
		}
		sufBounds := EmptyAABB()
		sufCount := int32(0)
		for b := binCount - 1; b >= 1; b-- {
			sufBounds = Merge(sufBounds, res.binBounds[axis][b])
			sufCount += res.binCounts[axis][b]

			leftCount := prefixCounts[b-1]
			rightCount := sufCount
			if leftCount == 0 || rightCount == 0 {
				continue
			}
			cost := float32(leftCount)*Metric(prefixBounds[b-1]) + float32(rightCount)*Metric(sufBounds)
			if bestAxis < 0 || cost < bestCost {
				bestCost = cost
				bestAxis = axis
				bestBoundary = b
			}
		}
	}

	if bestAxis < 0 {
		return count / 2
	}

	if int32(len(res.scratch)) < count {
		res.scratch = make([]int32, count)
	}
	leftSize := int32(0)
	for i := int32(0); i < count; i++ {
		idx := res.indexMap[start+i]
		if binIndex(bestAxis, res.centroids[idx]) < bestBoundary {
			leftSize++
		}
	}
	if leftSize == 0 || leftSize == count {
		return count / 2
	}
	writeLeft, writeRight := 0, int(leftSize)
	for i := int32(0); i < count; i++ {
		idx := res.indexMap[start+i]
		if binIndex(bestAxis, res.centroids[idx]) < bestBoundary {
			res.scratch[writeLeft] = idx
			writeLeft++
		} else {
			res.scratch[writeRight] = idx
			writeRight++
		}
	}
	copy(res.indexMap[start:start+count], res.scratch[:count])
	return leftSize
}

// reifyRoot commits a freshly built staging tree into the live tree
// starting at root. Only root's child slots are overwritten; its own
// parent/index_in_parent are left untouched, preserving the discipline
// described in spec §5 for a treelet root that a concurrent refiner
// might also be touching from above.
func (t *Tree) reifyRoot(root int32, topChild stagingChild, staging []stagingNode, subtrees []subtreeRef, internals []int32) {
	next := 0
	top := staging[topChild.internalIndex]
	t.reifyStagingNode(root, top, staging, subtrees, internals, &next)
}

// reifyStagingNode writes one staging node's two children into
// nodes[nodeIndex], allocating node ids for newly committed internal
// children from internals (consumed ascending, left-to-right) and
// recursing into them (spec §4.9 step 4).
func (t *Tree) reifyStagingNode(nodeIndex int32, staged stagingNode, staging []stagingNode, subtrees []subtreeRef, internals []int32, next *int) {
	t.reifyStagingChild(nodeIndex, 0, staged.A, staging, subtrees, internals, next)
	t.reifyStagingChild(nodeIndex, 1, staged.B, staging, subtrees, internals, next)
}

func (t *Tree) reifyStagingChild(parent, slot int32, child stagingChild, staging []stagingNode, subtrees []subtreeRef, internals []int32, next *int) {
	if child.isInternal {
		nodeID := internals[*next]
		*next++
		t.nodes[parent].child(slot).Bounds = child.bounds
		t.nodes[parent].child(slot).Index = nodeID
		t.nodes[parent].child(slot).LeafCount = child.leafCount
		t.metanodes[nodeID] = MetaNode{Parent: parent, IndexInParent: slot}
		t.reifyStagingNode(nodeID, staging[child.internalIndex], staging, subtrees, internals, next)
		return
	}

	subtree := subtrees[child.subtreeIndex]
	slotPtr := t.nodes[parent].child(slot)
	slotPtr.Bounds = child.bounds
	slotPtr.LeafCount = child.leafCount
	if subtree.isInternal {
		slotPtr.Index = subtree.nodeIndex
		t.metanodes[subtree.nodeIndex].Parent = parent
		t.metanodes[subtree.nodeIndex].IndexInParent = slot
		return
	}
	slotPtr.Index = encodeLeaf(subtree.leafIndex)
	t.leaves[subtree.leafIndex] = Leaf{NodeIndex: parent, ChildIndex: slot}
}
