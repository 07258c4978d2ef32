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

import (
	"math"

	"github.com/palisade-physics/broadphase/internal/simd"
)

// Vec3 is a 3-component single-precision vector. All tree and broad phase
// arithmetic is IEEE-754 float32, matching spec §4.1.
type Vec3 struct {
	X, Y, Z float32
}

// AABB is an axis-aligned bounding box. The zero value is not a valid box
// (it claims to contain only the origin); use EmptyAABB for the sentinel
// that merges to whatever it's merged with.
type AABB struct {
	Min, Max Vec3
}

// EmptyAABB returns the sentinel box (min=+math.MaxFloat32,
// max=-math.MaxFloat32) that, merged with any finite box, yields that box
// unchanged. It uses the largest finite float32 rather than infinities.
func EmptyAABB() AABB {
	return AABB{
		Min: Vec3{X: math.MaxFloat32, Y: math.MaxFloat32, Z: math.MaxFloat32},
		Max: Vec3{X: -math.MaxFloat32, Y: -math.MaxFloat32, Z: -math.MaxFloat32},
	}
}

// minf and maxf return NaN when either argument is NaN, so a corrupted
// component survives Merge and reaches the corruption check.
func minf(a, b float32) float32 {
	if a < b || a != a {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b || a != a {
		return a
	}
	return b
}

// Merge returns the smallest AABB containing both a and b.
func Merge(a, b AABB) AABB {
	if simd.WidePathEnabled {
		return mergeWide(a, b)
	}
	return mergeScalar(a, b)
}

func mergeScalar(a, b AABB) AABB {
	return AABB{
		Min: Vec3{minf(a.Min.X, b.Min.X), minf(a.Min.Y, b.Min.Y), minf(a.Min.Z, b.Min.Z)},
		Max: Vec3{maxf(a.Max.X, b.Max.X), maxf(a.Max.Y, b.Max.Y), maxf(a.Max.Z, b.Max.Z)},
	}
}

// mergeWide computes the same result as mergeScalar for finite inputs but
// avoids the data-dependent branches of minf/maxf by using arithmetic
// select, which pipelines better on cores wide enough to hide the extra
// ops (gated by internal/simd's cpuid probe). A NaN input yields NaN on
// both paths; an infinite component can come out as NaN here.
func mergeWide(a, b AABB) AABB {
	sel := func(x, y, lt float32) float32 {
		// lt is (x<y) as 0/1; branchless select without a conditional.
		return x*lt + y*(1-lt)
	}
	ltf := func(x, y float32) float32 {
		if x < y {
			return 1
		}
		return 0
	}
	return AABB{
		Min: Vec3{
			sel(a.Min.X, b.Min.X, ltf(a.Min.X, b.Min.X)),
			sel(a.Min.Y, b.Min.Y, ltf(a.Min.Y, b.Min.Y)),
			sel(a.Min.Z, b.Min.Z, ltf(a.Min.Z, b.Min.Z)),
		},
		Max: Vec3{
			sel(a.Max.X, b.Max.X, ltf(b.Max.X, a.Max.X)),
			sel(a.Max.Y, b.Max.Y, ltf(b.Max.Y, a.Max.Y)),
			sel(a.Max.Z, b.Max.Z, ltf(b.Max.Z, a.Max.Z)),
		},
	}
}

// Intersects reports whether a and b overlap on all three axes (spec §4.1).
func Intersects(a, b AABB) bool {
	return a.Max.X >= b.Min.X && a.Max.Y >= b.Min.Y && a.Max.Z >= b.Min.Z &&
		b.Max.X >= a.Min.X && b.Max.Y >= a.Min.Y && b.Max.Z >= a.Min.Z
}

// Metric computes a value proportional to the surface area of box, used
// as the SAH cost proxy throughout insertion and refinement (spec §4.1).
// It is zero only for degenerate (zero-volume-on-two-axes) boxes.
func Metric(box AABB) float32 {
	ex := box.Max.X - box.Min.X
	ey := box.Max.Y - box.Min.Y
	ez := box.Max.Z - box.Min.Z
	return ex*ey + ey*ez + ex*ez
}

// Valid reports whether box satisfies the min <= max invariant componentwise.
func (box AABB) Valid() bool {
	return box.Min.X <= box.Max.X && box.Min.Y <= box.Max.Y && box.Min.Z <= box.Max.Z
}

func isBadFloat(f float32) bool {
	return math.IsNaN(float64(f)) || math.IsInf(float64(f), 0)
}

// Corrupted reports whether any component of box is NaN or infinite. This
// is the general-purpose NaN/Inf probe referenced in spec §7.2 (and
// grounded on the original MathChecker helper that the physics engine
// this spec was distilled from ran throughout its bounding-box code).
func (box AABB) Corrupted() bool {
	return isBadFloat(box.Min.X) || isBadFloat(box.Min.Y) || isBadFloat(box.Min.Z) ||
		isBadFloat(box.Max.X) || isBadFloat(box.Max.Y) || isBadFloat(box.Max.Z)
}
