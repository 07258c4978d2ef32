package broadphase

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinnedRefinePreservesLeafSetAndOverlaps(t *testing.T) {
	EnableDebugValidation(true)
	defer EnableDebugValidation(false)

	tr, err := New(256)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		min := Vec3{rng.Float32() * 50, rng.Float32() * 50, rng.Float32() * 50}
		size := rng.Float32()*4 + 0.5
		tr.Add(AABB{Min: min, Max: Vec3{min.X + size, min.Y + size, min.Z + size}})
	}

	before := newOverlapRecorder()
	tr.GetSelfOverlaps(before)

	for frame := int32(0); frame < 20; frame++ {
		require.NoError(t, tr.RefitAndRefine(frame, 1, 1))
	}
	require.NoError(t, tr.Validate())

	after := newOverlapRecorder()
	tr.GetSelfOverlaps(after)

	assert.Equal(t, before.pairs, after.pairs, "refinement must not change the reported overlap set when bounds are unchanged")
	assert.EqualValues(t, 200, tr.LeafCount())
}

func TestCollectSubtreesAlwaysIncludesBothRootChildren(t *testing.T) {
	tr, err := New(64)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		tr.Add(box(float32(i)*3, 0, 0, float32(i)*3+1, 1, 1))
	}

	heap := newSubtreeHeap(8)
	subtrees, internals, _ := tr.CollectSubtrees(0, 8, heap)

	assert.GreaterOrEqual(t, len(subtrees), 2)
	assert.Equal(t, len(subtrees)-2, len(internals))
	for i := 1; i < len(internals); i++ {
		assert.Less(t, internals[i-1], internals[i], "internals must be sorted ascending")
	}
}

// findPartitionBinned must weight the SAH cost by summed leaf count, not
// by the number of collected entries per bin: an un-expanded interior
// subtree entry can itself span many leaves. This builds a resources
// struct by hand so a single heavily weighted entry (leaf_count 100
// against everyone else's 1) tips the chosen boundary away from what an
// entry-count-only tally would pick.
func TestFindPartitionBinnedWeighsByLeafCount(t *testing.T) {
	tr, err := New(1)
	require.NoError(t, err)

	const n = 12
	res := newBinnedResources(n)
	for i := 0; i < n; i++ {
		res.bounds[i] = AABB{Min: Vec3{X: float32(i)}, Max: Vec3{X: float32(i) + 0.1, Y: 1, Z: 1}}
		res.centroids[i] = Vec3{X: float32(i)}
		res.leafCounts[i] = 1
		res.indexMap[i] = int32(i)
	}
	// Entry 0's subtree accounts for 100 leaves; every other entry is a
	// single leaf. Weighted by entry count alone the three bins tie and
	// the boundary defaults to splitting 8/4; weighted by leaf count the
	// heavy entry's bin is split off on its own instead, giving 4/8.
	res.leafCounts[0] = 100

	leftSize := tr.findPartitionBinned(0, n, res)

	require.EqualValues(t, 4, leftSize)
	assert.Equal(t, []int32{0, 1, 2, 3}, res.indexMap[:4])
	assert.Equal(t, []int32{4, 5, 6, 7, 8, 9, 10, 11}, res.indexMap[4:n])
}

func TestSubtreeHeapPopsMaxCostFirst(t *testing.T) {
	h := newSubtreeHeap(4)
	h.Insert(encodeLeaf(0), AABB{}, 5)
	h.Insert(encodeLeaf(1), AABB{}, 9)
	h.Insert(encodeLeaf(2), AABB{}, 1)

	first := h.Pop()
	assert.Equal(t, float32(9), first.cost)
	second := h.Pop()
	assert.Equal(t, float32(5), second.cost)
	third := h.Pop()
	assert.Equal(t, float32(1), third.cost)
}
