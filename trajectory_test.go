package otg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenphase/otg/vec"
)

func TestTrajectoryAtTime(t *testing.T) {
	t.Parallel()

	traj, res := NewGenerator(2, 0.01).Calculate(twoAxisInput())
	require.Equal(t, ResultWorking, res)

	t.Run("nil vectors skip quantities", func(t *testing.T) {
		t.Parallel()
		pos := vec.Zeros(2)
		traj.AtTime(0.5, pos, nil, nil)
		traj.AtTime(0.5, nil, nil, nil)
	})

	t.Run("before start clamps to initial state", func(t *testing.T) {
		t.Parallel()
		pos := vec.Zeros(2)
		traj.AtTime(-1, pos, nil, nil)
		assert.Zero(t, pos.At(0))
		assert.Zero(t, pos.At(1))
	})

	t.Run("beyond duration holds the target", func(t *testing.T) {
		t.Parallel()
		pos := vec.Zeros(2)
		traj.AtTime(traj.Duration()+5, pos, nil, nil)
		assert.InDelta(t, 1.0, pos.At(0), 1e-9)
		assert.InDelta(t, 8.0, pos.At(1), 1e-9)
	})
}

func TestTrajectorySections(t *testing.T) {
	t.Parallel()

	traj, res := NewGenerator(2, 0.01).Calculate(twoAxisInput())
	require.Equal(t, ResultWorking, res)

	assert.Equal(t, 1, traj.Sections())
	assert.Equal(t, 0, traj.SectionAt(0))
	assert.Equal(t, 0, traj.SectionAt(traj.Duration()+1), "beyond the end stays in the last section")
}

func TestPositionExtremaIncludesOvershoot(t *testing.T) {
	t.Parallel()

	// Arriving fast at a nearby target forces a braking overshoot past it.
	in := NewInputParameter(1)
	vec.Copy(in.CurrentVelocity, vec.Of(2))
	vec.Copy(in.TargetPosition, vec.Of(0.1))
	vec.Copy(in.MaxVelocity, vec.Of(2))
	vec.Copy(in.MaxAcceleration, vec.Of(1))
	vec.Copy(in.MaxJerk, vec.Of(10))

	traj, res := NewGenerator(1, 0.01).Calculate(in)
	require.Equal(t, ResultWorking, res)

	_, hi := traj.PositionExtrema()
	assert.Greater(t, hi.At(0), 0.5, "the extrema must see the overshoot, not just the endpoints")
}

func TestTrajectoryWithDenseVectors(t *testing.T) {
	t.Parallel()

	// gonum-backed vectors run through the whole engine unchanged.
	in := NewInputParameter(2)
	in.CurrentPosition = vec.NewDense(2, nil)
	in.TargetPosition = vec.NewDense(2, []float64{1, -1})
	in.MaxVelocity = vec.NewDense(2, []float64{1, 1})
	in.MaxAcceleration = vec.NewDense(2, []float64{1, 1})
	in.MaxJerk = vec.NewDense(2, []float64{1, 1})

	gen := NewGenerator(2, 0.01)
	out := NewOutputParameter(2)
	runToFinish(t, gen, in, out)
	assert.InDelta(t, 1.0, out.NewPosition.At(0), 1e-9)
	assert.InDelta(t, -1.0, out.NewPosition.At(1), 1e-9)
}
