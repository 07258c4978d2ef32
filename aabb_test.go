package broadphase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func box(minX, minY, minZ, maxX, maxY, maxZ float32) AABB {
	return AABB{Min: Vec3{minX, minY, minZ}, Max: Vec3{maxX, maxY, maxZ}}
}

func TestMergeYieldsContainingBox(t *testing.T) {
	a := box(0, 0, 0, 1, 1, 1)
	b := box(2, 2, 2, 3, 3, 3)
	got := Merge(a, b)
	assert.Equal(t, box(0, 0, 0, 3, 3, 3), got)
}

func TestMergeWithEmptyIsIdentity(t *testing.T) {
	a := box(-1, -2, -3, 4, 5, 6)
	got := Merge(a, EmptyAABB())
	assert.Equal(t, a, got)
}

func TestIntersectsTouchingBoundary(t *testing.T) {
	a := box(0, 0, 0, 1, 1, 1)
	b := box(1, 1, 1, 2, 2, 2)
	assert.True(t, Intersects(a, b), "boxes sharing a face/edge/corner count as intersecting")
}

func TestIntersectsSeparated(t *testing.T) {
	a := box(0, 0, 0, 1, 1, 1)
	b := box(1.0001, 0, 0, 2, 1, 1)
	assert.False(t, Intersects(a, b))
}

func TestMetricDegenerateBoxIsZero(t *testing.T) {
	flat := box(0, 0, 0, 1, 1, 0)
	line := box(0, 0, 0, 1, 0, 0)
	assert.NotZero(t, Metric(flat))
	assert.Zero(t, Metric(line))
}

func TestMetricMatchesSurfaceAreaProxy(t *testing.T) {
	b := box(0, 0, 0, 2, 3, 4)
	got := Metric(b)
	want := float32(2*3 + 3*4 + 2*4)
	assert.Equal(t, want, got)
}

func TestCorruptedDetectsNaNAndInf(t *testing.T) {
	nanBox := box(0, 0, 0, float32(math.NaN()), 1, 1)
	infBox := box(0, 0, 0, float32(math.Inf(1)), 1, 1)
	clean := box(0, 0, 0, 1, 1, 1)

	assert.True(t, nanBox.Corrupted())
	assert.True(t, infBox.Corrupted())
	assert.False(t, clean.Corrupted())
}

func TestMergeScalarAndWideAgree(t *testing.T) {
	a := box(-1, 2, -3, 4, 5, 6)
	b := box(0, -2, 1, 7, 3, 2)
	assert.Equal(t, mergeScalar(a, b), mergeWide(a, b))
}
