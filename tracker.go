package otg

import "github.com/sevenphase/otg/vec"

// TargetState is an externally observed target the Tracker follows: where
// the target currently is, how fast it moves, and how it accelerates.
type TargetState struct {
	Position     vec.Vector
	Velocity     vec.Vector
	Acceleration vec.Vector
}

// NewTargetState constructs a zeroed TargetState for dofs axes.
func NewTargetState(dofs int) TargetState {
	return TargetState{
		Position:     vec.Zeros(dofs),
		Velocity:     vec.Zeros(dofs),
		Acceleration: vec.Zeros(dofs),
	}
}

// Tracker is the tracking variant of the Generator: instead of a fixed
// target it re-targets every cycle against a time-varying target signal.
//
// Reactiveness in [0, 1] blends the newly observed target against the last
// commanded one: 0 keeps strict adherence to the previous trajectory
// (smooth, laggy), 1 re-targets immediately (responsive, but resets the
// boundary problem more abruptly within the limits).
type Tracker struct {
	Generator

	Reactiveness float64

	lastTarget *TargetState
}

// NewTracker constructs a Tracker for dofs axes updating every deltaTime
// seconds, with full reactiveness by default.
func NewTracker(dofs int, deltaTime float64, opts ...Option) *Tracker {
	return &Tracker{
		Generator:    *NewGenerator(dofs, deltaTime, opts...),
		Reactiveness: 1.0,
	}
}

// Update blends target into in's target state and advances the underlying
// Generator by one control cycle. Recalculation is as aggressive as the
// blended target demands: any movement of the target changes the input
// content and triggers a budgeted re-solve.
func (t *Tracker) Update(target TargetState, in *InputParameter, out *OutputParameter) Result {
	r := t.Reactiveness
	if r < 0 {
		r = 0
	} else if r > 1 {
		r = 1
	}

	if t.lastTarget == nil {
		lt := NewTargetState(in.DOFs())
		vec.Copy(lt.Position, target.Position)
		vec.Copy(lt.Velocity, target.Velocity)
		vec.Copy(lt.Acceleration, target.Acceleration)
		t.lastTarget = &lt
	}

	for i := 0; i < in.DOFs(); i++ {
		p := r*target.Position.At(i) + (1-r)*t.lastTarget.Position.At(i)
		v := r*target.Velocity.At(i) + (1-r)*t.lastTarget.Velocity.At(i)
		a := r*target.Acceleration.At(i) + (1-r)*t.lastTarget.Acceleration.At(i)
		in.TargetPosition.Set(i, p)
		in.TargetVelocity.Set(i, v)
		in.TargetAcceleration.Set(i, a)
		t.lastTarget.Position.Set(i, p)
		t.lastTarget.Velocity.Set(i, v)
		t.lastTarget.Acceleration.Set(i, a)
	}

	return t.Generator.Update(in, out)
}
