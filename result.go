// Package otg is an online trajectory generator: it computes time-optimal,
// jerk-limited motion profiles for a multi-axis system under per-axis
// velocity, acceleration, and jerk bounds, and recomputes them incrementally
// inside a control loop whenever the target changes.
//
// The typical cycle mirrors a hard real-time controller:
//
//	gen := otg.NewGenerator(3, 0.01)
//	in := otg.NewInputParameter(3)
//	out := otg.NewOutputParameter(3)
//	// ... fill in current state, target state, and limits ...
//	for gen.Update(in, out) == otg.ResultWorking {
//		// command out.NewPosition / NewVelocity / NewAcceleration
//		out.PassToInput(in)
//	}
//
// Single-axis solving lives in the profile package; the per-axis numeric
// container contract lives in the vec package.
package otg

import (
	"errors"
	"fmt"

	"github.com/sevenphase/otg/profile"
)

// Result is the status of one Update call. Values at or above zero are the
// normal progression; negative values are errors the caller must react to,
// typically by stopping the control loop.
type Result int

const (
	// ResultWorking means the trajectory is being followed.
	ResultWorking Result = 0
	// ResultFinished means the time cursor has reached the trajectory end.
	ResultFinished Result = 1
	// ResultError is an unspecific calculation failure.
	ResultError Result = -1
	// ResultErrorInvalidInput marks malformed limits or boundary states.
	ResultErrorInvalidInput Result = -100
	// ResultErrorPositionalLimits marks a trajectory that would leave the
	// configured position range.
	ResultErrorPositionalLimits Result = -102
	// ResultErrorExecutionTime means the calculation budget was exhausted
	// before any trajectory was found.
	ResultErrorExecutionTime Result = -110
	// ResultErrorSynchronization means an axis could not be stretched to
	// the common block duration.
	ResultErrorSynchronization Result = -111
	// ResultErrorWaypoint means a waypoint section could not satisfy its
	// minimum duration within the limits.
	ResultErrorWaypoint Result = -112
)

func (r Result) String() string {
	switch r {
	case ResultWorking:
		return "working"
	case ResultFinished:
		return "finished"
	case ResultErrorInvalidInput:
		return "error: invalid input"
	case ResultErrorPositionalLimits:
		return "error: positional limits"
	case ResultErrorExecutionTime:
		return "error: execution time"
	case ResultErrorSynchronization:
		return "error: synchronization"
	case ResultErrorWaypoint:
		return "error: waypoint"
	default:
		return "error"
	}
}

// Error taxonomy. The profile package's sentinels are re-exported so callers
// only import this package for errors.Is checks.
var (
	ErrInvalidInput           = profile.ErrInvalidInput
	ErrSynchronization        = profile.ErrStretch
	ErrCalculationInterrupted = profile.ErrInterrupted

	// ErrWaypointInfeasible marks a waypoint section that cannot respect
	// its enforced minimum duration within the axis limits.
	ErrWaypointInfeasible = errors.New("otg: waypoint section infeasible")

	// ErrPositionalLimits marks a trajectory whose position excursion
	// leaves the configured [MinPosition, MaxPosition] range.
	ErrPositionalLimits = errors.New("otg: position bounds exceeded")
)

// resultFor maps a calculation error onto the Result code reported to the
// control loop.
func resultFor(err error) Result {
	switch {
	case err == nil:
		return ResultWorking
	case errors.Is(err, ErrWaypointInfeasible):
		return ResultErrorWaypoint
	case errors.Is(err, ErrPositionalLimits):
		return ResultErrorPositionalLimits
	case errors.Is(err, ErrInvalidInput):
		return ResultErrorInvalidInput
	case errors.Is(err, ErrCalculationInterrupted):
		return ResultErrorExecutionTime
	case errors.Is(err, ErrSynchronization):
		return ResultErrorSynchronization
	default:
		return ResultError
	}
}

// ControllerState is the lifecycle state of a Generator.
type ControllerState int

const (
	// StateIdle means no trajectory has been computed yet.
	StateIdle ControllerState = iota
	// StateComputing means a recalculation is in progress.
	StateComputing
	// StateWorking means a trajectory is active and the cursor advancing.
	StateWorking
	// StateFinished means the cursor reached the total duration.
	StateFinished
	// StateErrored means the last calculation failed; the state persists
	// until a changed input produces a feasible trajectory.
	StateErrored
)

func (s ControllerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputing:
		return "computing"
	case StateWorking:
		return "working"
	case StateFinished:
		return "finished"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
