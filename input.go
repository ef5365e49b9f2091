package otg

import (
	"fmt"
	"math"

	"github.com/sevenphase/otg/profile"
	"github.com/sevenphase/otg/vec"
)

// ControlInterface selects what the target of a motion is.
type ControlInterface int

const (
	// ControlPosition targets a full kinematic state (position, velocity,
	// acceleration). The default.
	ControlPosition ControlInterface = iota
	// ControlVelocity targets a velocity/acceleration pair; position is
	// unconstrained and simply integrates.
	ControlVelocity
)

// Synchronization selects how axes relate in time.
type Synchronization int

const (
	// SynchronizationTime stretches every axis to the slowest axis's
	// duration so all finish simultaneously. The default.
	SynchronizationTime Synchronization = iota
	// SynchronizationNone lets each axis finish in its own minimal time,
	// e.g. for an independent-axis emergency stop.
	SynchronizationNone
)

// InputParameter is the caller-owned description of one motion problem. The
// caller mutates it between cycles, commonly by passing the previous
// output's new state back in via OutputParameter.PassToInput.
type InputParameter struct {
	ControlInterface ControlInterface
	Synchronization  Synchronization

	CurrentPosition     vec.Vector
	CurrentVelocity     vec.Vector
	CurrentAcceleration vec.Vector

	TargetPosition     vec.Vector
	TargetVelocity     vec.Vector
	TargetAcceleration vec.Vector

	MaxVelocity     vec.Vector
	MaxAcceleration vec.Vector
	MaxJerk         vec.Vector

	// MinVelocity and MinAcceleration default to the negated maxima when
	// nil, giving symmetric corridors.
	MinVelocity     vec.Vector
	MinAcceleration vec.Vector

	// MinPosition and MaxPosition optionally bound the position excursion
	// of the whole trajectory.
	MinPosition vec.Vector
	MaxPosition vec.Vector

	// IntermediatePositions are ordered waypoints the trajectory passes
	// through on the way to the target (position control only).
	IntermediatePositions []vec.Vector

	// PerSectionMinimumDuration enforces a floor on each section's
	// duration; length must be len(IntermediatePositions)+1 when set.
	// Zero entries leave a section unconstrained.
	PerSectionMinimumDuration []float64

	// MinimumDuration is a floor on the total trajectory duration.
	MinimumDuration float64

	// InterruptCalculationDuration bounds a recalculation in accounted
	// microseconds of computation (a deterministic step budget, not wall
	// time). Zero means unlimited. Not part of the input comparison that
	// triggers recalculation.
	InterruptCalculationDuration float64

	dofs int
}

// NewInputParameter constructs an InputParameter for dofs axes with all
// required vectors pre-allocated to zero.
func NewInputParameter(dofs int) *InputParameter {
	return &InputParameter{
		CurrentPosition:     vec.Zeros(dofs),
		CurrentVelocity:     vec.Zeros(dofs),
		CurrentAcceleration: vec.Zeros(dofs),
		TargetPosition:      vec.Zeros(dofs),
		TargetVelocity:      vec.Zeros(dofs),
		TargetAcceleration:  vec.Zeros(dofs),
		MaxVelocity:         vec.Zeros(dofs),
		MaxAcceleration:     vec.Zeros(dofs),
		MaxJerk:             vec.Zeros(dofs),
		dofs:                dofs,
	}
}

// DOFs returns the number of axes.
func (in *InputParameter) DOFs() int {
	if in.dofs > 0 {
		return in.dofs
	}
	if in.CurrentPosition != nil {
		return in.CurrentPosition.Len()
	}
	return 0
}

// limits assembles the per-axis solver limits, applying the symmetric
// defaults for the optional minima.
func (in *InputParameter) limits(axis int) profile.Limits {
	lim := profile.Limits{
		VMax: in.MaxVelocity.At(axis),
		AMax: in.MaxAcceleration.At(axis),
		JMax: in.MaxJerk.At(axis),
	}
	if in.MinVelocity != nil {
		lim.VMin = in.MinVelocity.At(axis)
	} else {
		lim.VMin = -lim.VMax
	}
	if in.MinAcceleration != nil {
		lim.AMin = in.MinAcceleration.At(axis)
	} else {
		lim.AMin = -lim.AMax
	}
	return lim
}

func (in *InputParameter) currentState(axis int) profile.State {
	return profile.State{
		Pos: in.CurrentPosition.At(axis),
		Vel: in.CurrentVelocity.At(axis),
		Acc: in.CurrentAcceleration.At(axis),
	}
}

func (in *InputParameter) targetState(axis int) profile.State {
	st := profile.State{
		Vel: in.TargetVelocity.At(axis),
		Acc: in.TargetAcceleration.At(axis),
	}
	if in.ControlInterface == ControlPosition {
		st.Pos = in.TargetPosition.At(axis)
	}
	return st
}

// Validate checks the input for the error conditions of the InvalidInput
// taxonomy: vector lengths, limit signs, target states outside the limits,
// unrecoverable current states, and targets or waypoints outside the
// configured position range. Nothing is silently clamped.
func (in *InputParameter) Validate() error {
	dofs := in.DOFs()
	if dofs == 0 {
		return fmt.Errorf("%w: no degrees of freedom", ErrInvalidInput)
	}
	required := map[string]vec.Vector{
		"current position":     in.CurrentPosition,
		"current velocity":     in.CurrentVelocity,
		"current acceleration": in.CurrentAcceleration,
		"target velocity":      in.TargetVelocity,
		"target acceleration":  in.TargetAcceleration,
		"max velocity":         in.MaxVelocity,
		"max acceleration":     in.MaxAcceleration,
		"max jerk":             in.MaxJerk,
	}
	if in.ControlInterface == ControlPosition {
		required["target position"] = in.TargetPosition
	}
	for name, v := range required {
		if v == nil || v.Len() != dofs {
			return fmt.Errorf("%w: %s vector missing or not of length %d", ErrInvalidInput, name, dofs)
		}
	}
	for name, v := range map[string]vec.Vector{
		"min velocity":     in.MinVelocity,
		"min acceleration": in.MinAcceleration,
		"min position":     in.MinPosition,
		"max position":     in.MaxPosition,
	} {
		if v != nil && v.Len() != dofs {
			return fmt.Errorf("%w: %s vector not of length %d", ErrInvalidInput, name, dofs)
		}
	}

	if len(in.IntermediatePositions) > 0 && in.ControlInterface == ControlVelocity {
		return fmt.Errorf("%w: intermediate positions require the position control interface", ErrInvalidInput)
	}
	for i, w := range in.IntermediatePositions {
		if w == nil || w.Len() != dofs {
			return fmt.Errorf("%w: waypoint %d not of length %d", ErrInvalidInput, i, dofs)
		}
	}
	if n := len(in.PerSectionMinimumDuration); n != 0 && n != len(in.IntermediatePositions)+1 {
		return fmt.Errorf("%w: %d per-section minimum durations for %d sections", ErrInvalidInput, n, len(in.IntermediatePositions)+1)
	}
	for i, d := range in.PerSectionMinimumDuration {
		if d < 0 || math.IsNaN(d) {
			return fmt.Errorf("%w: negative minimum duration for section %d", ErrInvalidInput, i)
		}
	}
	if in.MinimumDuration < 0 || math.IsNaN(in.MinimumDuration) {
		return fmt.Errorf("%w: negative minimum duration", ErrInvalidInput)
	}

	withVelocity := in.ControlInterface == ControlPosition
	for axis := 0; axis < dofs; axis++ {
		lim := in.limits(axis)
		// The current state may exceed the limits, e.g. after the caller
		// tightened them mid-flight; the solver brakes back onto them.
		// The target state has to lie inside.
		if err := profile.ValidateCurrent(in.currentState(axis), lim, withVelocity); err != nil {
			return fmt.Errorf("axis %d current state: %w", axis, err)
		}
		if err := profile.Validate(in.targetState(axis), lim, withVelocity); err != nil {
			return fmt.Errorf("axis %d target state: %w", axis, err)
		}
		if err := in.validatePositionRange(axis); err != nil {
			return err
		}
	}
	return nil
}

// validatePositionRange rejects boundary positions already outside the
// configured range; the excursion of the computed trajectory is verified
// separately after the solve.
func (in *InputParameter) validatePositionRange(axis int) error {
	check := func(name string, p float64) error {
		if in.MinPosition != nil && p < in.MinPosition.At(axis) {
			return fmt.Errorf("%w: axis %d %s %g below min position %g", ErrInvalidInput, axis, name, p, in.MinPosition.At(axis))
		}
		if in.MaxPosition != nil && p > in.MaxPosition.At(axis) {
			return fmt.Errorf("%w: axis %d %s %g above max position %g", ErrInvalidInput, axis, name, p, in.MaxPosition.At(axis))
		}
		return nil
	}
	if err := check("current position", in.CurrentPosition.At(axis)); err != nil {
		return err
	}
	if in.ControlInterface == ControlPosition {
		if err := check("target position", in.TargetPosition.At(axis)); err != nil {
			return err
		}
	}
	for i, w := range in.IntermediatePositions {
		if err := check(fmt.Sprintf("waypoint %d", i), w.At(axis)); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether other describes the same motion problem: a full
// content comparison, not an identity check. The calculation budget is
// excluded since it does not alter the trajectory content.
func (in *InputParameter) Equal(other *InputParameter) bool {
	if other == nil {
		return false
	}
	if in.ControlInterface != other.ControlInterface ||
		in.Synchronization != other.Synchronization ||
		in.MinimumDuration != other.MinimumDuration {
		return false
	}
	pairs := [][2]vec.Vector{
		{in.CurrentPosition, other.CurrentPosition},
		{in.CurrentVelocity, other.CurrentVelocity},
		{in.CurrentAcceleration, other.CurrentAcceleration},
		{in.TargetPosition, other.TargetPosition},
		{in.TargetVelocity, other.TargetVelocity},
		{in.TargetAcceleration, other.TargetAcceleration},
		{in.MaxVelocity, other.MaxVelocity},
		{in.MaxAcceleration, other.MaxAcceleration},
		{in.MaxJerk, other.MaxJerk},
		{in.MinVelocity, other.MinVelocity},
		{in.MinAcceleration, other.MinAcceleration},
		{in.MinPosition, other.MinPosition},
		{in.MaxPosition, other.MaxPosition},
	}
	for _, p := range pairs {
		if !vec.Equal(p[0], p[1]) {
			return false
		}
	}
	if len(in.IntermediatePositions) != len(other.IntermediatePositions) {
		return false
	}
	for i := range in.IntermediatePositions {
		if !vec.Equal(in.IntermediatePositions[i], other.IntermediatePositions[i]) {
			return false
		}
	}
	if len(in.PerSectionMinimumDuration) != len(other.PerSectionMinimumDuration) {
		return false
	}
	for i := range in.PerSectionMinimumDuration {
		if in.PerSectionMinimumDuration[i] != other.PerSectionMinimumDuration[i] {
			return false
		}
	}
	return true
}

// clone deep-copies the input into engine-owned slice vectors, so later
// caller mutations cannot alias the stored comparison state.
func (in *InputParameter) clone() *InputParameter {
	out := &InputParameter{
		ControlInterface:             in.ControlInterface,
		Synchronization:              in.Synchronization,
		CurrentPosition:              vec.Clone(in.CurrentPosition),
		CurrentVelocity:              vec.Clone(in.CurrentVelocity),
		CurrentAcceleration:          vec.Clone(in.CurrentAcceleration),
		TargetPosition:               vec.Clone(in.TargetPosition),
		TargetVelocity:               vec.Clone(in.TargetVelocity),
		TargetAcceleration:           vec.Clone(in.TargetAcceleration),
		MaxVelocity:                  vec.Clone(in.MaxVelocity),
		MaxAcceleration:              vec.Clone(in.MaxAcceleration),
		MaxJerk:                      vec.Clone(in.MaxJerk),
		MinimumDuration:              in.MinimumDuration,
		InterruptCalculationDuration: in.InterruptCalculationDuration,
		dofs:                         in.DOFs(),
	}
	if in.MinVelocity != nil {
		out.MinVelocity = vec.Clone(in.MinVelocity)
	}
	if in.MinAcceleration != nil {
		out.MinAcceleration = vec.Clone(in.MinAcceleration)
	}
	if in.MinPosition != nil {
		out.MinPosition = vec.Clone(in.MinPosition)
	}
	if in.MaxPosition != nil {
		out.MaxPosition = vec.Clone(in.MaxPosition)
	}
	if len(in.IntermediatePositions) > 0 {
		out.IntermediatePositions = make([]vec.Vector, len(in.IntermediatePositions))
		for i, w := range in.IntermediatePositions {
			out.IntermediatePositions[i] = vec.Clone(w)
		}
	}
	if len(in.PerSectionMinimumDuration) > 0 {
		out.PerSectionMinimumDuration = append([]float64(nil), in.PerSectionMinimumDuration...)
	}
	return out
}
