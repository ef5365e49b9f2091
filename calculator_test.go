package otg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenphase/otg/vec"
)

// twoAxisInput is a plain rest-to-rest move with distinct distances per axis.
func twoAxisInput() *InputParameter {
	in := NewInputParameter(2)
	vec.Copy(in.TargetPosition, vec.Of(1, 8))
	vec.Copy(in.MaxVelocity, vec.Of(2, 2))
	vec.Copy(in.MaxAcceleration, vec.Of(1, 1))
	vec.Copy(in.MaxJerk, vec.Of(1, 1))
	return in
}

func TestSynchronizationTime(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(2, 0.01)
	traj, res := gen.Calculate(twoAxisInput())
	require.Equal(t, ResultWorking, res)

	assert.InDelta(t, traj.Duration(), traj.AxisDuration(0), 1e-6, "axes must share the block duration")
	assert.InDelta(t, traj.Duration(), traj.AxisDuration(1), 1e-6)

	pos := vec.Zeros(2)
	traj.AtTime(traj.Duration(), pos, nil, nil)
	assert.InDelta(t, 1.0, pos.At(0), 1e-9)
	assert.InDelta(t, 8.0, pos.At(1), 1e-9)
}

func TestSynchronizationNone(t *testing.T) {
	t.Parallel()

	in := twoAxisInput()
	in.Synchronization = SynchronizationNone
	gen := NewGenerator(2, 0.01)
	traj, res := gen.Calculate(in)
	require.Equal(t, ResultWorking, res)

	assert.Less(t, traj.AxisDuration(0), traj.AxisDuration(1), "the short axis finishes on its own")
	assert.InDelta(t, traj.AxisDuration(1), traj.Duration(), 1e-12)

	// Once the short axis is done it holds its target while the other
	// keeps moving.
	pos := vec.Zeros(2)
	mid := 0.5 * (traj.AxisDuration(0) + traj.AxisDuration(1))
	traj.AtTime(mid, pos, nil, nil)
	assert.InDelta(t, 1.0, pos.At(0), 1e-9)
	assert.Less(t, pos.At(1), 8.0)
}

func TestSynchronizationLoitersMovingAtTargetAxis(t *testing.T) {
	t.Parallel()

	// Axis 0 already sits on its moving target; axis 1 has a long move.
	// Axis 0 can take zero time or at least its 6s loiter excursion, so the
	// block duration rises from axis 1's 5.58s minimum to 6s.
	in := NewInputParameter(2)
	vec.Copy(in.CurrentVelocity, vec.Of(1, 0))
	vec.Copy(in.TargetPosition, vec.Of(0, 5))
	vec.Copy(in.TargetVelocity, vec.Of(1, 0))
	vec.Copy(in.MaxVelocity, vec.Of(2, 2))
	vec.Copy(in.MaxAcceleration, vec.Of(1, 1))
	vec.Copy(in.MaxJerk, vec.Of(1, 1))

	gen := NewGenerator(2, 0.01)
	traj, res := gen.Calculate(in)
	require.Equal(t, ResultWorking, res)
	assert.InDelta(t, 6.0, traj.Duration(), 1e-3)

	pos, vel := vec.Zeros(2), vec.Zeros(2)
	traj.AtTime(traj.Duration(), pos, vel, nil)
	assert.InDelta(t, 0.0, pos.At(0), 1e-6)
	assert.InDelta(t, 1.0, vel.At(0), 1e-6)
	assert.InDelta(t, 5.0, pos.At(1), 1e-6)

	lo, _ := traj.PositionExtrema()
	assert.Less(t, lo.At(0), -0.1, "the loitering axis dips backward")
}

func TestMinimumDuration(t *testing.T) {
	t.Parallel()

	t.Run("floors the block duration", func(t *testing.T) {
		t.Parallel()
		in := twoAxisInput()
		in.MinimumDuration = 30
		gen := NewGenerator(2, 0.01)
		traj, res := gen.Calculate(in)
		require.Equal(t, ResultWorking, res)
		assert.InDelta(t, 30.0, traj.Duration(), 1e-3)
	})

	t.Run("no effect below the minimum time", func(t *testing.T) {
		t.Parallel()
		base, res := NewGenerator(2, 0.01).Calculate(twoAxisInput())
		require.Equal(t, ResultWorking, res)

		in := twoAxisInput()
		in.MinimumDuration = 0.1
		traj, res := NewGenerator(2, 0.01).Calculate(in)
		require.Equal(t, ResultWorking, res)
		assert.InDelta(t, base.Duration(), traj.Duration(), 1e-6)
	})
}

func TestWaypoints(t *testing.T) {
	t.Parallel()

	in := NewInputParameter(1)
	vec.Copy(in.TargetPosition, vec.Of(2))
	vec.Copy(in.MaxVelocity, vec.Of(1))
	vec.Copy(in.MaxAcceleration, vec.Of(1))
	vec.Copy(in.MaxJerk, vec.Of(2))
	in.IntermediatePositions = []vec.Vector{vec.Of(1)}

	gen := NewGenerator(1, 0.01, WithMaxWaypoints(1))
	traj, res := gen.Calculate(in)
	require.Equal(t, ResultWorking, res)
	require.Equal(t, 2, traj.Sections())

	// Find the section transition and check the waypoint is passed there.
	boundary := -1.0
	for tm := 0.0; tm <= traj.Duration(); tm += 1e-4 {
		if traj.SectionAt(tm) == 1 {
			boundary = tm
			break
		}
	}
	require.Greater(t, boundary, 0.0, "section transition not found")

	pos := vec.Zeros(1)
	vel := vec.Zeros(1)
	traj.AtTime(boundary, pos, vel, nil)
	assert.InDelta(t, 1.0, pos.At(0), 1e-3, "waypoint must be passed at the section boundary")
	assert.Greater(t, vel.At(0), 0.0, "no stop at a pass-through waypoint")

	traj.AtTime(traj.Duration(), pos, nil, nil)
	assert.InDelta(t, 2.0, pos.At(0), 1e-9)
}

func TestWaypointReversalStops(t *testing.T) {
	t.Parallel()

	in := NewInputParameter(1)
	vec.Copy(in.TargetPosition, vec.Of(0))
	vec.Copy(in.MaxVelocity, vec.Of(1))
	vec.Copy(in.MaxAcceleration, vec.Of(1))
	vec.Copy(in.MaxJerk, vec.Of(2))
	in.IntermediatePositions = []vec.Vector{vec.Of(1)} // out and back

	gen := NewGenerator(1, 0.01, WithMaxWaypoints(1))
	traj, res := gen.Calculate(in)
	require.Equal(t, ResultWorking, res)

	lo, hi := traj.PositionExtrema()
	assert.InDelta(t, 1.0, hi.At(0), 1e-6, "reversal waypoint is the turning point")
	assert.InDelta(t, 0.0, lo.At(0), 1e-6)
}

func TestPerSectionMinimumDuration(t *testing.T) {
	t.Parallel()

	in := NewInputParameter(1)
	vec.Copy(in.TargetPosition, vec.Of(2))
	vec.Copy(in.MaxVelocity, vec.Of(1))
	vec.Copy(in.MaxAcceleration, vec.Of(1))
	vec.Copy(in.MaxJerk, vec.Of(2))
	in.IntermediatePositions = []vec.Vector{vec.Of(1)}
	in.PerSectionMinimumDuration = []float64{5, 7}

	gen := NewGenerator(1, 0.01, WithMaxWaypoints(1))
	traj, res := gen.Calculate(in)
	require.Equal(t, ResultWorking, res)

	assert.InDelta(t, 12.0, traj.Duration(), 1e-3, "floors dominate the minimal times")

	// The first section must span its full floor.
	boundary := -1.0
	for tm := 0.0; tm <= traj.Duration(); tm += 1e-3 {
		if traj.SectionAt(tm) == 1 {
			boundary = tm
			break
		}
	}
	assert.InDelta(t, 5.0, boundary, 1e-2)
}

func TestPositionalLimits(t *testing.T) {
	t.Parallel()

	// Moving fast toward a nearby target: braking overshoots past the
	// allowed maximum even though the target itself is inside.
	in := NewInputParameter(1)
	vec.Copy(in.CurrentVelocity, vec.Of(2))
	vec.Copy(in.TargetPosition, vec.Of(0.1))
	vec.Copy(in.MaxVelocity, vec.Of(2))
	vec.Copy(in.MaxAcceleration, vec.Of(1))
	vec.Copy(in.MaxJerk, vec.Of(10))
	in.MaxPosition = vec.Of(0.15)
	in.MinPosition = vec.Of(-10)

	gen := NewGenerator(1, 0.01)
	traj, res := gen.Calculate(in)
	assert.Nil(t, traj)
	assert.Equal(t, ResultErrorPositionalLimits, res)

	t.Run("target outside the range is invalid input", func(t *testing.T) {
		t.Parallel()
		bad := NewInputParameter(1)
		vec.Copy(bad.TargetPosition, vec.Of(1))
		vec.Copy(bad.MaxVelocity, vec.Of(1))
		vec.Copy(bad.MaxAcceleration, vec.Of(1))
		vec.Copy(bad.MaxJerk, vec.Of(1))
		bad.MaxPosition = vec.Of(0.5)
		_, res := NewGenerator(1, 0.01).Calculate(bad)
		assert.Equal(t, ResultErrorInvalidInput, res)
	})
}

func TestVelocityInterface(t *testing.T) {
	t.Parallel()

	in := NewInputParameter(2)
	in.ControlInterface = ControlVelocity
	vec.Copy(in.CurrentVelocity, vec.Of(0, 1))
	vec.Copy(in.TargetVelocity, vec.Of(2, -1))
	vec.Copy(in.MaxVelocity, vec.Of(10, 10))
	vec.Copy(in.MaxAcceleration, vec.Of(1, 1))
	vec.Copy(in.MaxJerk, vec.Of(1, 1))

	gen := NewGenerator(2, 0.01)
	traj, res := gen.Calculate(in)
	require.Equal(t, ResultWorking, res)

	assert.InDelta(t, traj.AxisDuration(0), traj.AxisDuration(1), 1e-6, "time synchronization applies")

	v := vec.Zeros(2)
	a := vec.Zeros(2)
	traj.AtTime(traj.Duration(), nil, v, a)
	assert.InDelta(t, 2.0, v.At(0), 1e-9)
	assert.InDelta(t, -1.0, v.At(1), 1e-9)
	assert.InDelta(t, 0.0, a.At(0), 1e-9)
	assert.InDelta(t, 0.0, a.At(1), 1e-9)

	t.Run("asymmetric limits honored", func(t *testing.T) {
		t.Parallel()
		one := NewInputParameter(1)
		one.ControlInterface = ControlVelocity
		vec.Copy(one.TargetVelocity, vec.Of(-3))
		vec.Copy(one.MaxVelocity, vec.Of(10))
		vec.Copy(one.MaxAcceleration, vec.Of(5))
		one.MinAcceleration = vec.Of(-0.5)
		vec.Copy(one.MaxJerk, vec.Of(1))

		slow, res := NewGenerator(1, 0.01).Calculate(one)
		require.Equal(t, ResultWorking, res)

		sym := NewInputParameter(1)
		sym.ControlInterface = ControlVelocity
		vec.Copy(sym.TargetVelocity, vec.Of(-3))
		vec.Copy(sym.MaxVelocity, vec.Of(10))
		vec.Copy(sym.MaxAcceleration, vec.Of(5))
		vec.Copy(sym.MaxJerk, vec.Of(1))

		fast, res := NewGenerator(1, 0.01).Calculate(sym)
		require.Equal(t, ResultWorking, res)
		assert.Greater(t, slow.Duration(), fast.Duration(), "a tighter braking bound slows deceleration")
	})
}

func TestCalculateOffline(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(3, 0.01)
	in := threeAxisInput()
	traj, res := gen.Calculate(in)
	require.Equal(t, ResultWorking, res)
	require.NotNil(t, traj)

	assert.Equal(t, StateIdle, gen.State(), "offline calculation leaves the controller untouched")
	assert.Equal(t, 3, traj.DOFs())

	pos := vec.Zeros(3)
	vel := vec.Zeros(3)
	acc := vec.Zeros(3)
	traj.AtTime(0, pos, vel, acc)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, in.CurrentPosition.At(i), pos.At(i), 1e-12, "axis %d", i)
		assert.InDelta(t, in.CurrentVelocity.At(i), vel.At(i), 1e-12, "axis %d", i)
		assert.InDelta(t, in.CurrentAcceleration.At(i), acc.At(i), 1e-12, "axis %d", i)
	}

	traj.AtTime(traj.Duration(), pos, vel, acc)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, in.TargetPosition.At(i), pos.At(i), 1e-9, "axis %d", i)
		assert.InDelta(t, in.TargetVelocity.At(i), vel.At(i), 1e-9, "axis %d", i)
	}

	// The trajectory never exceeds the velocity bounds on axes that start
	// inside them.
	for tm := 0.0; tm <= traj.Duration(); tm += traj.Duration() / 500 {
		traj.AtTime(tm, nil, vel, nil)
		assert.LessOrEqual(t, math.Abs(vel.At(0)), in.MaxVelocity.At(0)+1e-6)
		assert.LessOrEqual(t, math.Abs(vel.At(2)), in.MaxVelocity.At(2)+1e-6)
	}
}
