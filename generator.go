package otg

import (
	"errors"
	"fmt"
	"time"

	"github.com/sevenphase/otg/profile"
)

// Generator is the online trajectory generator: the stateful real-time
// driver that owns the active trajectory and advances it by one control
// cycle per Update call.
//
// A Generator is single-threaded per instance; independent instances share
// no state and may run on separate goroutines without coordination.
type Generator struct {
	dofs         int
	delta        float64
	maxWaypoints int

	state     ControllerState
	traj      *Trajectory
	cursor    float64
	lastInput *InputParameter
}

// Option configures a Generator at construction.
type Option func(*Generator)

// WithMaxWaypoints allows inputs with up to n intermediate waypoints.
// Inputs carrying more are rejected as invalid.
func WithMaxWaypoints(n int) Option {
	return func(g *Generator) { g.maxWaypoints = n }
}

// NewGenerator constructs a Generator for dofs axes updating every deltaTime
// seconds. The DOF count is fixed for the lifetime of the instance.
func NewGenerator(dofs int, deltaTime float64, opts ...Option) *Generator {
	g := &Generator{dofs: dofs, delta: deltaTime, state: StateIdle}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DOFs returns the number of axes.
func (g *Generator) DOFs() int { return g.dofs }

// DeltaTime returns the control cycle duration in seconds.
func (g *Generator) DeltaTime() float64 { return g.delta }

// State returns the controller lifecycle state.
func (g *Generator) State() ControllerState { return g.state }

// Reset discards the active trajectory and returns the controller to Idle.
func (g *Generator) Reset() {
	g.state = StateIdle
	g.traj = nil
	g.cursor = 0
	g.lastInput = nil
}

// Calculate computes the full trajectory for in without running the control
// loop; the one-shot offline entry point. The Generator's online state is
// untouched.
func (g *Generator) Calculate(in *InputParameter) (*Trajectory, Result) {
	if err := g.check(in); err != nil {
		return nil, resultFor(err)
	}
	traj, err := calculate(in, profile.NewBudget(in.InterruptCalculationDuration))
	if err != nil {
		if errors.Is(err, ErrCalculationInterrupted) {
			return nil, ResultErrorExecutionTime
		}
		return nil, resultFor(err)
	}
	return traj, ResultWorking
}

// check validates in against both its own invariants and the Generator's
// construction-time configuration.
func (g *Generator) check(in *InputParameter) error {
	if in.DOFs() != g.dofs {
		return fmt.Errorf("%w: input has %d degrees of freedom, generator %d", ErrInvalidInput, in.DOFs(), g.dofs)
	}
	if len(in.IntermediatePositions) > g.maxWaypoints {
		return fmt.Errorf("%w: %d waypoints exceed the reserved capacity %d", ErrInvalidInput, len(in.IntermediatePositions), g.maxWaypoints)
	}
	if g.delta <= 0 {
		return fmt.Errorf("%w: non-positive control cycle %g", ErrInvalidInput, g.delta)
	}
	return in.Validate()
}

// Update advances the controller by one control cycle.
//
// Each call decides whether the active trajectory is still valid (a full
// content comparison of in against the input that produced it), recomputes
// it if not under the input's computation budget, advances the time cursor
// by one control cycle, and writes the sampled kinematic state into out.
//
// On a budget interruption with a previous trajectory available, the
// controller degrades gracefully: it keeps following the previous
// trajectory and raises out.WasCalculationInterrupted. On any other
// calculation error (or an interruption with no trajectory at all) the
// cursor does not advance and the error Result is returned.
func (g *Generator) Update(in *InputParameter, out *OutputParameter) Result {
	out.NewCalculation = false
	out.WasCalculationInterrupted = false

	if g.lastInput == nil || !in.Equal(g.lastInput) {
		g.state = StateComputing
		if err := g.check(in); err != nil {
			g.state = StateErrored
			return resultFor(err)
		}
		started := time.Now()
		traj, err := calculate(in, profile.NewBudget(in.InterruptCalculationDuration))
		out.CalculationDuration = float64(time.Since(started)) / float64(time.Microsecond)
		if err != nil {
			if errors.Is(err, ErrCalculationInterrupted) && g.traj != nil {
				// Keep the best trajectory found so far; retried with a
				// fresh budget on the next cycle.
				out.WasCalculationInterrupted = true
			} else {
				g.state = StateErrored
				return resultFor(err)
			}
		} else {
			g.traj = traj
			g.cursor = 0
			g.lastInput = in.clone()
			out.NewCalculation = true
		}
	}

	g.cursor += g.delta
	if g.cursor > g.traj.Duration() {
		g.cursor = g.traj.Duration()
	}
	g.traj.AtTime(g.cursor, out.NewPosition, out.NewVelocity, out.NewAcceleration)
	out.Time = g.cursor
	out.NewSection = g.traj.SectionAt(g.cursor)
	out.Trajectory = g.traj

	// Advance the stored comparison state along the trajectory, so a caller
	// feeding the output back via PassToInput does not trigger a spurious
	// recalculation.
	if g.lastInput != nil {
		out.PassToInput(g.lastInput)
	}

	if g.cursor >= g.traj.Duration() {
		g.state = StateFinished
		return ResultFinished
	}
	g.state = StateWorking
	return ResultWorking
}
