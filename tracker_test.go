package otg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenphase/otg/vec"
)

func trackerInput() *InputParameter {
	in := NewInputParameter(1)
	vec.Copy(in.MaxVelocity, vec.Of(2))
	vec.Copy(in.MaxAcceleration, vec.Of(2))
	vec.Copy(in.MaxJerk, vec.Of(5))
	return in
}

func observed(pos float64) TargetState {
	target := NewTargetState(1)
	target.Position.Set(0, pos)
	return target
}

// runTracker drives tr against a fixed observed target until finished and
// returns the final output.
func runTracker(t *testing.T, tr *Tracker, target TargetState, in *InputParameter, out *OutputParameter) {
	t.Helper()
	for cycle := 0; ; cycle++ {
		require.Less(t, cycle, 1_000_000, "no finish")
		res := tr.Update(target, in, out)
		require.GreaterOrEqual(t, res, ResultWorking, "cycle %d: %s", cycle, res)
		if res == ResultFinished {
			return
		}
		out.PassToInput(in)
	}
}

func TestTrackerFullReactiveness(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1, 0.01)
	in := trackerInput()
	out := NewOutputParameter(1)

	runTracker(t, tr, observed(1.5), in, out)
	assert.InDelta(t, 1.5, out.NewPosition.At(0), 1e-9)
	assert.InDelta(t, 0.0, out.NewVelocity.At(0), 1e-9)
}

func TestTrackerBlendsTowardTarget(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1, 0.01)
	tr.Reactiveness = 0.25
	in := trackerInput()
	out := NewOutputParameter(1)

	// The commanded target approaches the observed one geometrically; the
	// run still converges and lands on it.
	runTracker(t, tr, observed(2), in, out)
	assert.InDelta(t, 2.0, out.NewPosition.At(0), 1e-6)
}

func TestTrackerZeroReactivenessHoldsCommand(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1, 0.01)
	tr.Reactiveness = 0
	in := trackerInput()
	out := NewOutputParameter(1)

	// The first observation seeds the held command; later observations are
	// ignored entirely.
	require.GreaterOrEqual(t, tr.Update(observed(1), in, out), ResultWorking)
	for i := 0; i < 5; i++ {
		out.PassToInput(in)
		require.GreaterOrEqual(t, tr.Update(observed(-3), in, out), ResultWorking)
	}
	assert.Equal(t, 1.0, in.TargetPosition.At(0))
}

func TestTrackerClampsReactiveness(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1, 0.01)
	tr.Reactiveness = 7 // treated as 1
	in := trackerInput()
	out := NewOutputParameter(1)

	require.GreaterOrEqual(t, tr.Update(observed(1), in, out), ResultWorking)
	assert.Equal(t, 1.0, in.TargetPosition.At(0))
}

func TestTrackerFollowsMovingTarget(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1, 0.01)
	in := trackerInput()
	out := NewOutputParameter(1)

	// A target ramping at constant velocity: the tracker must stay close
	// once the transient has settled.
	target := NewTargetState(1)
	target.Velocity.Set(0, 0.5)
	for cycle := 0; cycle < 600; cycle++ {
		target.Position.Set(0, 0.5*float64(cycle)*0.01)
		res := tr.Update(target, in, out)
		require.GreaterOrEqual(t, res, ResultWorking)
		out.PassToInput(in)
	}
	assert.InDelta(t, 0.5*600*0.01, out.NewPosition.At(0), 0.1)
	assert.InDelta(t, 0.5, out.NewVelocity.At(0), 0.05)
}
