package broadphase

import (
	"math"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overlapRecorder struct {
	pairs map[[2]int32]int
}

func newOverlapRecorder() *overlapRecorder {
	return &overlapRecorder{pairs: make(map[[2]int32]int)}
}

func (r *overlapRecorder) Handle(a, b int32) {
	if a > b {
		a, b = b, a
	}
	r.pairs[[2]int32{a, b}]++
}

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrNegativeCapacity)
}

func TestAddSingleLeafOccupiesRootSlotZero(t *testing.T) {
	tr, err := New(4)
	require.NoError(t, err)

	leaf := tr.Add(box(0, 0, 0, 1, 1, 1))
	assert.EqualValues(t, 0, leaf)
	assert.EqualValues(t, 1, tr.LeafCount())
	assert.EqualValues(t, 1, tr.NodeCount())
}

func TestAddTwoLeavesBothOccupyRoot(t *testing.T) {
	tr, err := New(4)
	require.NoError(t, err)

	tr.Add(box(0, 0, 0, 1, 1, 1))
	tr.Add(box(5, 5, 5, 6, 6, 6))

	assert.EqualValues(t, 2, tr.LeafCount())
	assert.EqualValues(t, 1, tr.NodeCount())
	require.NoError(t, tr.Validate())
}

func TestAddThirdLeafCreatesInteriorNode(t *testing.T) {
	tr, err := New(4)
	require.NoError(t, err)

	tr.Add(box(0, 0, 0, 1, 1, 1))
	tr.Add(box(5, 5, 5, 6, 6, 6))
	tr.Add(box(10, 10, 10, 11, 11, 11))

	assert.EqualValues(t, 3, tr.LeafCount())
	assert.Greater(t, tr.NodeCount(), int32(1))
	require.NoError(t, tr.Validate())
}

// Scenario 1 from spec §8: three leaves, expected overlap pairs {(0,2),(1,2)}.
func TestScenarioThreeLeavesExpectedOverlaps(t *testing.T) {
	tr, err := New(4)
	require.NoError(t, err)

	tr.Add(box(0, 0, 0, 1, 1, 1))
	tr.Add(box(2, 2, 2, 3, 3, 3))
	tr.Add(box(0.5, 0.5, 0.5, 2.5, 2.5, 2.5))

	rec := newOverlapRecorder()
	tr.GetSelfOverlaps(rec)

	assert.Equal(t, map[[2]int32]int{{0, 2}: 1, {1, 2}: 1}, rec.pairs)
}

// Scenario 2 from spec §8: 1000 adjacent unit boxes along a line, 999
// overlapping pairs, unchanged across 100 frames of RefitAndRefine.
func TestScenarioGridOverlapsStableAcrossRefine(t *testing.T) {
	tr, err := New(1024)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		tr.Add(box(float32(i), 0, 0, float32(i+1), 1, 1))
	}

	rec := newOverlapRecorder()
	tr.GetSelfOverlaps(rec)
	assert.Len(t, rec.pairs, 999)

	for frame := int32(0); frame < 100; frame++ {
		require.NoError(t, tr.RefitAndRefine(frame, 1, 1))
	}

	rec2 := newOverlapRecorder()
	tr.GetSelfOverlaps(rec2)
	assert.Len(t, rec2.pairs, 999)
}

// Scenario 3 from spec §8: random AABBs, remove every other leaf
// descending, compare against a brute-force oracle on survivors.
func TestScenarioRandomRemovalMatchesBruteForce(t *testing.T) {
	EnableDebugValidation(true)
	defer EnableDebugValidation(false)

	tr, err := New(64)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	boxes := make(map[int32]AABB, 64)
	for i := 0; i < 64; i++ {
		min := Vec3{rng.Float32() * 20, rng.Float32() * 20, rng.Float32() * 20}
		size := rng.Float32()*3 + 0.5
		b := AABB{Min: min, Max: Vec3{min.X + size, min.Y + size, min.Z + size}}
		leaf := tr.Add(b)
		boxes[leaf] = b
	}
	require.NoError(t, tr.Validate())

	for leaf := int32(63); leaf >= 1; leaf -= 2 {
		moved, err := tr.RemoveAt(leaf)
		require.NoError(t, err)
		delete(boxes, leaf)
		if moved >= 0 {
			boxes[leaf] = boxes[moved]
			delete(boxes, moved)
		}
	}
	require.NoError(t, tr.Validate())

	want := make(map[[2]int32]bool)
	ids := make([]int32, 0, len(boxes))
	for id := range boxes {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			if Intersects(boxes[a], boxes[b]) {
				if a > b {
					a, b = b, a
				}
				want[[2]int32{a, b}] = true
			}
		}
	}

	rec := newOverlapRecorder()
	tr.GetSelfOverlaps(rec)
	got := make(map[[2]int32]bool, len(rec.pairs))
	for k := range rec.pairs {
		got[k] = true
	}
	if !assert.Equal(t, want, got) {
		t.Logf("surviving boxes:\n%s", spew.Sdump(boxes))
	}
}

// Scenario 4 from spec §8: coincident boxes report exactly one pair.
func TestScenarioCoincidentBoxesReportedOnce(t *testing.T) {
	tr, err := New(4)
	require.NoError(t, err)

	tr.Add(box(0, 0, 0, 1, 1, 1))
	tr.Add(box(0, 0, 0, 1, 1, 1))

	rec := newOverlapRecorder()
	tr.GetSelfOverlaps(rec)
	assert.Equal(t, map[[2]int32]int{{0, 1}: 1}, rec.pairs)
}

// Scenario 5 from spec §8: updating bounds so two leaves no longer
// intersect removes their pair from the overlap set.
func TestScenarioBoundsUpdateRemovesOverlap(t *testing.T) {
	tr, err := New(4)
	require.NoError(t, err)

	leafA := tr.Add(box(0, 0, 0, 1, 1, 1))
	tr.Add(box(0.5, 0.5, 0.5, 1.5, 1.5, 1.5))

	rec := newOverlapRecorder()
	tr.GetSelfOverlaps(rec)
	assert.Len(t, rec.pairs, 1)

	owner, err := tr.SetLeafBounds(leafA, box(100, 100, 100, 101, 101, 101))
	require.NoError(t, err)
	tr.RefitForNodeBoundsChange(owner)

	rec2 := newOverlapRecorder()
	tr.GetSelfOverlaps(rec2)
	assert.Empty(t, rec2.pairs)
}

// Scenario 6 from spec §8: a NaN cost change during RefitAndRefine fails
// with the numerical-corruption error.
func TestScenarioCorruptedBoundsFailsWithDedicatedError(t *testing.T) {
	tr, err := New(8)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		tr.Add(box(float32(i), 0, 0, float32(i+1), 1, 1))
	}

	poisoned, err := tr.LeafBounds(0)
	require.NoError(t, err)
	poisoned.Max.X = float32(math.NaN())
	owner, err := tr.SetLeafBounds(0, poisoned)
	require.NoError(t, err)
	tr.RefitForNodeBoundsChange(owner)

	err = tr.RefitAndRefine(0, 1, 1)
	var corrupted *BoundsCorruptedError
	require.ErrorAs(t, err, &corrupted)
}

func TestRemoveAtRejectsOutOfRange(t *testing.T) {
	tr, err := New(4)
	require.NoError(t, err)
	tr.Add(box(0, 0, 0, 1, 1, 1))

	_, err = tr.RemoveAt(5)
	assert.ErrorIs(t, err, ErrInvalidLeafIndex)
}

// Removing the leaf in root slot 0 (sibling left in slot 1) must collapse
// down to a singleton root with only slot 0 populated, same as removing
// the leaf in slot 1.
func TestRemoveAtCollapsesRootRegardlessOfRemovedSlot(t *testing.T) {
	for _, removedSlot := range []int32{0, 1} {
		tr, err := New(4)
		require.NoError(t, err)

		a := tr.Add(box(0, 0, 0, 1, 1, 1))
		b := tr.Add(box(5, 5, 5, 6, 6, 6))
		require.EqualValues(t, 0, a)
		require.EqualValues(t, 1, b)

		removed := a
		if removedSlot == 1 {
			removed = b
		}

		_, err = tr.RemoveAt(removed)
		require.NoError(t, err)

		require.NoError(t, tr.Validate())
		assert.EqualValues(t, 1, tr.LeafCount())
		assert.EqualValues(t, 0, tr.leaves[0].ChildIndex)
		assert.EqualValues(t, 0, tr.nodes[0].B.LeafCount, "vacated slot must be cleared")
	}
}

func TestAddThenRemoveReturnsToValidEmptyState(t *testing.T) {
	tr, err := New(4)
	require.NoError(t, err)

	leaf := tr.Add(box(0, 0, 0, 1, 1, 1))
	_, err = tr.RemoveAt(leaf)
	require.NoError(t, err)

	assert.EqualValues(t, 0, tr.LeafCount())
	require.NoError(t, tr.Validate())
}

func TestRefitForNodeBoundsChangeIsIdempotent(t *testing.T) {
	tr, err := New(16)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		tr.Add(box(float32(i)*3, 0, 0, float32(i)*3+1, 1, 1))
	}
	require.NoError(t, tr.Validate())

	before := make([]Node, tr.NodeCount())
	copy(before, tr.nodes[:tr.NodeCount()])

	tr.RefitForNodeBoundsChange(tr.leaves[0].NodeIndex)
	tr.RefitForNodeBoundsChange(tr.leaves[0].NodeIndex)

	if diff := cmp.Diff(before, tr.nodes[:len(before)]); diff != "" {
		t.Fatalf("repeated refit changed node records (-before +after):\n%s", diff)
	}
}
