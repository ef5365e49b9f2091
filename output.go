package otg

import "github.com/sevenphase/otg/vec"

// OutputParameter carries the result of one Update call: the next kinematic
// state, the time cursor, the active trajectory, and the recalculation
// flags of this cycle.
type OutputParameter struct {
	NewPosition     vec.Vector
	NewVelocity     vec.Vector
	NewAcceleration vec.Vector

	// Time is the cursor along the active trajectory, in seconds.
	Time float64

	// NewSection is the waypoint section the cursor currently lies in.
	NewSection int

	// NewCalculation is true only on cycles that recomputed the trajectory.
	NewCalculation bool

	// WasCalculationInterrupted is true when the recalculation ran out of
	// its computation budget and the previous trajectory was kept.
	WasCalculationInterrupted bool

	// CalculationDuration is the measured duration of the last
	// recalculation in microseconds (observability only).
	CalculationDuration float64

	// Trajectory is the active trajectory, owned by the Generator until
	// superseded by the next recalculation.
	Trajectory *Trajectory
}

// NewOutputParameter constructs an OutputParameter for dofs axes with the
// state vectors allocated up front, so steady-state cycles that only sample
// the active trajectory reuse them. Cycles that recalculate still allocate
// for the new trajectory.
func NewOutputParameter(dofs int) *OutputParameter {
	return &OutputParameter{
		NewPosition:     vec.Zeros(dofs),
		NewVelocity:     vec.Zeros(dofs),
		NewAcceleration: vec.Zeros(dofs),
	}
}

// PassToInput copies the new kinematic state into in's current state,
// closing the feedback loop for the next control cycle. Ownership of in
// stays with the caller; this is an explicit copy, not aliasing.
func (out *OutputParameter) PassToInput(in *InputParameter) {
	vec.Copy(in.CurrentPosition, out.NewPosition)
	vec.Copy(in.CurrentVelocity, out.NewVelocity)
	vec.Copy(in.CurrentAcceleration, out.NewAcceleration)
}
