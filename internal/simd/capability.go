// Package simd selects between a scalar and a branch-reduced code path for
// AABB merge, the small vector op on the broad phase's hottest loop, based
// on runtime CPU feature detection. The SAH metric has a single path.
//
// There is no actual vector assembly here: the "wide" path is the same
// arithmetic reordered to remove data-dependent branches, which only pays
// off on cores wide enough to hide the extra scalar work. Gating it behind
// a detected feature keeps older cores on the straightforward path instead
// of guessing.
package simd

import "github.com/klauspost/cpuid/v2"

// WidePathEnabled reports whether the calling CPU is assumed wide enough to
// benefit from the branch-reduced AABB code path. Evaluated once at package
// init; cpuid.CPU is populated by the klauspost/cpuid init itself.
var WidePathEnabled = detectWidePath()

func detectWidePath() bool {
	return cpuid.CPU.Supports(cpuid.AVX2) || cpuid.CPU.Supports(cpuid.AVX)
}
