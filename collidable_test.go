package broadphase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollidableReferenceRoundTripsDynamic(t *testing.T) {
	ref, err := NewDynamicReference(BodyHandle(123))
	require.NoError(t, err)
	assert.Equal(t, Dynamic, ref.Mobility())

	handle, err := ref.BodyHandle()
	require.NoError(t, err)
	assert.EqualValues(t, 123, handle)

	_, err = ref.StaticHandle()
	assert.ErrorIs(t, err, ErrMobilityMismatch)
}

func TestCollidableReferenceRoundTripsStatic(t *testing.T) {
	ref, err := NewStaticReference(StaticHandle(99))
	require.NoError(t, err)
	assert.Equal(t, Static, ref.Mobility())

	handle, err := ref.StaticHandle()
	require.NoError(t, err)
	assert.EqualValues(t, 99, handle)

	_, err = ref.BodyHandle()
	assert.ErrorIs(t, err, ErrMobilityMismatch)
}

func TestCollidableReferenceRejectsOutOfRangeHandle(t *testing.T) {
	_, err := NewDynamicReference(BodyHandle(1 << 30))
	assert.ErrorIs(t, err, ErrHandleOutOfRange)
}

func TestCollidableReferenceKinematicMobility(t *testing.T) {
	ref, err := NewKinematicReference(BodyHandle(5))
	require.NoError(t, err)
	assert.Equal(t, Kinematic, ref.Mobility())
}
