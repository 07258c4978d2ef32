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

import "github.com/pkg/errors"

// Sentinel errors for the contract-violation family (spec §7.1). These are
// programmer errors: an out-of-range leaf id, a double remove, a handle
// array that has fallen out of sync with its tree. Callers should treat
// them as fatal, not as something to retry.
var (
	ErrInvalidLeafIndex    = errors.New("leaf index out of range")
	ErrInvalidNodeIndex    = errors.New("node index out of range")
	ErrNegativeCapacity    = errors.New("initial leaf capacity must be positive")
	ErrInvalidMobility     = errors.New("collidable mobility value does not exist")
	ErrMobilityMismatch    = errors.New("collidable reference mobility does not match the requested handle kind")
	ErrHandleOutOfRange    = errors.New("collidable handle exceeds the 30-bit packed range")
	ErrRefinementReentered = errors.New("refinement target visited twice in the same scheduling pass")
)

// BoundsCorruptedError is the numerical-corruption family (spec §7.2): a
// NaN or infinity was detected in a cost computation during
// Tree.RefitAndRefine. The tree cannot recover from this on its own;
// the caller must Clear and rebuild from known-good bounds.
type BoundsCorruptedError struct {
	FrameIndex int32
	NodeIndex  int32
	CostChange float32
}

func (e *BoundsCorruptedError) Error() string {
	return errors.Errorf(
		"tree bounds corrupted at frame %d near node %d (cost change = %v): "+
			"likely cause is a NaN or infinite pose or velocity upstream; "+
			"the tree cannot be trusted and must be cleared and rebuilt",
		e.FrameIndex, e.NodeIndex, e.CostChange,
	).Error()
}

// wrapIndex annotates an index-related contract violation with the offending
// value so callers see it without needing a debugger.
func wrapIndex(base error, index int32) error {
	return errors.Wrapf(base, "index=%d", index)
}
