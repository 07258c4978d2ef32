package broadphase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadPhaseAddActiveAndStatic(t *testing.T) {
	bp, err := NewBroadPhase(WithActiveCapacity(8), WithStaticCapacity(8))
	require.NoError(t, err)

	activeRef, err := NewDynamicReference(BodyHandle(42))
	require.NoError(t, err)
	staticRef, err := NewStaticReference(StaticHandle(7))
	require.NoError(t, err)

	activeIdx := bp.AddActive(activeRef, box(0, 0, 0, 1, 1, 1))
	staticIdx := bp.AddStatic(staticRef, box(0.5, 0.5, 0.5, 2, 2, 2))

	assert.EqualValues(t, 0, activeIdx)
	assert.EqualValues(t, 0, staticIdx)

	rec := newOverlapRecorder()
	bp.GetSelfOverlaps(rec)
	assert.Len(t, rec.pairs, 1)
}

func TestBroadPhaseUpdateBoundsSeparatesOverlap(t *testing.T) {
	bp, err := NewBroadPhase(WithActiveCapacity(8), WithStaticCapacity(8))
	require.NoError(t, err)

	ref, err := NewDynamicReference(BodyHandle(1))
	require.NoError(t, err)
	idx := bp.AddActive(ref, box(0, 0, 0, 1, 1, 1))
	bp.AddActive(ref, box(0.5, 0.5, 0.5, 1.5, 1.5, 1.5))

	rec := newOverlapRecorder()
	bp.GetSelfOverlaps(rec)
	assert.Len(t, rec.pairs, 1)

	require.NoError(t, bp.UpdateActiveBounds(idx, box(50, 50, 50, 51, 51, 51)))

	rec2 := newOverlapRecorder()
	bp.GetSelfOverlaps(rec2)
	assert.Empty(t, rec2.pairs)
}

func TestBroadPhaseRemoveActiveAtReportsMovedReference(t *testing.T) {
	bp, err := NewBroadPhase(WithActiveCapacity(8), WithStaticCapacity(8))
	require.NoError(t, err)

	refs := make([]CollidableReference, 3)
	for i := range refs {
		ref, err := NewDynamicReference(BodyHandle(int32(i)))
		require.NoError(t, err)
		refs[i] = ref
		bp.AddActive(ref, box(float32(i)*10, 0, 0, float32(i)*10+1, 1, 1))
	}

	moved, ok, err := bp.RemoveActiveAt(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, refs[2], moved)
}

func TestBroadPhaseUpdateAdvancesFrameAndWraps(t *testing.T) {
	bp, err := NewBroadPhase(WithActiveCapacity(8), WithStaticCapacity(8))
	require.NoError(t, err)

	require.NoError(t, bp.Update())
	assert.EqualValues(t, 1, bp.FrameIndex())

	bp.frameIndex = math.MaxInt32
	require.NoError(t, bp.Update())
	assert.EqualValues(t, 0, bp.FrameIndex())
}

func TestBroadPhaseClearResetsBothTrees(t *testing.T) {
	bp, err := NewBroadPhase(WithActiveCapacity(8), WithStaticCapacity(8))
	require.NoError(t, err)

	ref, err := NewDynamicReference(BodyHandle(1))
	require.NoError(t, err)
	bp.AddActive(ref, box(0, 0, 0, 1, 1, 1))

	require.NoError(t, bp.Clear())
	assert.EqualValues(t, 0, bp.active.LeafCount())
	assert.EqualValues(t, 0, bp.static.LeafCount())
}

func TestBroadPhaseEnsureCapacityNeverShrinks(t *testing.T) {
	bp, err := NewBroadPhase(WithActiveCapacity(4), WithStaticCapacity(4))
	require.NoError(t, err)

	ref, err := NewDynamicReference(BodyHandle(1))
	require.NoError(t, err)
	bp.AddActive(ref, box(0, 0, 0, 1, 1, 1))

	bp.EnsureCapacity(64, 64)
	assert.EqualValues(t, 1, bp.active.LeafCount())
	assert.GreaterOrEqual(t, len(bp.activeLeaves), 64)
}
