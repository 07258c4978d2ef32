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

// Mobility classifies what owns a CollidableReference's handle: a moving
// rigid body, a kinematically driven body, or an immobile static.
type Mobility uint32

const (
	Dynamic Mobility = iota
	Kinematic
	Static
)

const (
	handleBits = 30
	handleMask = 1<<handleBits - 1
)

// BodyHandle identifies a dynamic or kinematic body in the external body
// store; StaticHandle identifies an entry in the static store. They are
// distinct types so a CollidableReference constructor can't be handed the
// wrong kind of handle by accident.
type BodyHandle int32
type StaticHandle int32

// CollidableReference is the opaque, packed identifier BroadPhase's leaf
// arrays store: 2 bits of Mobility plus a 30-bit handle (spec §4.12,
// §6).
type CollidableReference uint32

func newReference(mobility Mobility, handle int32) (CollidableReference, error) {
	if handle < 0 || handle > handleMask {
		return 0, ErrHandleOutOfRange
	}
	return CollidableReference(uint32(mobility)<<handleBits | uint32(handle)), nil
}

// NewDynamicReference packs a moving body's handle with Mobility=Dynamic.
func NewDynamicReference(handle BodyHandle) (CollidableReference, error) {
	return newReference(Dynamic, int32(handle))
}

// NewKinematicReference packs a kinematically driven body's handle with
// Mobility=Kinematic.
func NewKinematicReference(handle BodyHandle) (CollidableReference, error) {
	return newReference(Kinematic, int32(handle))
}

// NewStaticReference packs a static handle with Mobility=Static.
func NewStaticReference(handle StaticHandle) (CollidableReference, error) {
	return newReference(Static, int32(handle))
}

// Mobility unpacks the top 2 bits.
func (c CollidableReference) Mobility() Mobility {
	return Mobility(uint32(c) >> handleBits)
}

// RawHandle unpacks the bottom 30 bits regardless of mobility.
func (c CollidableReference) RawHandle() int32 {
	return int32(uint32(c) & handleMask)
}

// BodyHandle unpacks the handle as a BodyHandle; it errors if this
// reference is actually Static, since that would hand the body store a
// handle it doesn't own.
func (c CollidableReference) BodyHandle() (BodyHandle, error) {
	if c.Mobility() == Static {
		return 0, ErrMobilityMismatch
	}
	return BodyHandle(c.RawHandle()), nil
}

// StaticHandle unpacks the handle as a StaticHandle; it errors if this
// reference is actually Dynamic or Kinematic.
func (c CollidableReference) StaticHandle() (StaticHandle, error) {
	if c.Mobility() != Static {
		return 0, ErrMobilityMismatch
	}
	return StaticHandle(c.RawHandle()), nil
}
