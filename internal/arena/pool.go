// Package arena is a minimal stand-in for the general-purpose byte-slab
// pool that spec.md §1 treats as an external, opaque collaborator owned by
// the body store. Tree only needs three operations from it (take a buffer
// sized to at least N elements, resize one in place while preserving a
// prefix, and return it for reuse), so rather than depend on a full
// allocator library this module carries the reference implementation of
// that narrow contract. Each Tree constructs its own Pool values; there is
// no way to pass a different pool in, and BroadPhase's leaf-reference
// arrays are plain slices that do not use it.
package arena

import "sync"

// Pool hands out power-of-two-capacity slices of T and recycles returned
// ones by capacity class, the same bucketing discipline the tree's own
// capacity growth (§4.2) assumes of its pool.
type Pool[T any] struct {
	mu   sync.Mutex
	free map[int][][]T
}

// NewPool constructs an empty pool.
func NewPool[T any]() *Pool[T] {
	return &Pool[T]{free: make(map[int][][]T)}
}

// CapacityForCount rounds count up to the next power of two, with a floor
// of 1. This is the same rounding rule Tree.resize relies on for its own
// node/leaf/metanode buffers.
func CapacityForCount(count int) int {
	if count <= 1 {
		return 1
	}
	n := 1
	for n < count {
		n <<= 1
	}
	return n
}

// TakeAtLeast returns a zeroed slice with length equal to the rounded
// capacity for count, reusing a previously Returned slice of the same
// capacity class when one is available.
func (p *Pool[T]) TakeAtLeast(count int) []T {
	capacity := CapacityForCount(count)
	p.mu.Lock()
	stack := p.free[capacity]
	var buf []T
	if n := len(stack); n > 0 {
		buf = stack[n-1]
		p.free[capacity] = stack[:n-1]
	}
	p.mu.Unlock()
	if buf == nil {
		return make([]T, capacity)
	}
	var zero T
	for i := range buf {
		buf[i] = zero
	}
	return buf
}

// ResizeToAtLeast grows buf to hold at least targetCount elements,
// preserving the first keep elements, and returns the (possibly new)
// slice. If buf's capacity already matches the rounded target, buf is
// returned unchanged.
func (p *Pool[T]) ResizeToAtLeast(buf []T, targetCount, keep int) []T {
	newCapacity := CapacityForCount(targetCount)
	if cap(buf) == newCapacity {
		return buf[:newCapacity]
	}
	next := p.TakeAtLeast(targetCount)
	if keep > len(buf) {
		keep = len(buf)
	}
	if keep > len(next) {
		keep = len(next)
	}
	copy(next, buf[:keep])
	p.Return(buf)
	return next
}

// Return releases buf back to the pool for future reuse by capacity class.
func (p *Pool[T]) Return(buf []T) {
	if buf == nil {
		return
	}
	c := cap(buf)
	full := buf[:c]
	p.mu.Lock()
	p.free[c] = append(p.free[c], full)
	p.mu.Unlock()
}
