// Package sim runs a JSON-described motion problem through the trajectory
// generator offline and returns a sampled log.
//
// The JSON contract is shared by the CLI, the WASM target, and tests: a Run
// document describing the boundary states and limits goes in, a Log with
// one row per control cycle comes out.
package sim

import (
	"encoding/json"
	"fmt"

	otg "github.com/sevenphase/otg"
	"github.com/sevenphase/otg/vec"
)

// Meta holds the identity and timing parameters of a motion run.
type Meta struct {
	RunID        string  `json:"run_id"`
	ControlCycle float64 `json:"control_cycle"` // seconds
}

// Motion is the JSON shape of one motion problem. Optional fields follow
// the engine's defaults: symmetric minima, time synchronization, position
// control.
type Motion struct {
	ControlInterface string `json:"control_interface,omitempty"` // "position" (default) or "velocity"
	Synchronization  string `json:"synchronization,omitempty"`   // "time" (default) or "none"

	CurrentPosition     []float64 `json:"current_position"`
	CurrentVelocity     []float64 `json:"current_velocity"`
	CurrentAcceleration []float64 `json:"current_acceleration"`

	TargetPosition     []float64 `json:"target_position,omitempty"`
	TargetVelocity     []float64 `json:"target_velocity"`
	TargetAcceleration []float64 `json:"target_acceleration"`

	MaxVelocity     []float64 `json:"max_velocity"`
	MaxAcceleration []float64 `json:"max_acceleration"`
	MaxJerk         []float64 `json:"max_jerk"`

	MinVelocity     []float64 `json:"min_velocity,omitempty"`
	MinAcceleration []float64 `json:"min_acceleration,omitempty"`
	MinPosition     []float64 `json:"min_position,omitempty"`
	MaxPosition     []float64 `json:"max_position,omitempty"`

	IntermediatePositions     [][]float64 `json:"intermediate_positions,omitempty"`
	PerSectionMinimumDuration []float64   `json:"per_section_minimum_duration,omitempty"`
	MinimumDuration           float64     `json:"minimum_duration,omitempty"`

	InterruptCalculationDuration float64 `json:"interrupt_calculation_duration,omitempty"` // accounted µs
}

// Input is the JSON-serialisable input of a run.
type Input struct {
	Meta   Meta   `json:"run_meta"`
	Motion Motion `json:"motion"`
}

// LogRow is the sampled kinematic state at one control cycle.
type LogRow struct {
	Time         float64   `json:"time"`
	Position     []float64 `json:"position"`
	Velocity     []float64 `json:"velocity"`
	Acceleration []float64 `json:"acceleration"`
}

// Log is the complete output of a run.
type Log struct {
	Meta     Meta     `json:"run_meta"`
	Duration float64  `json:"duration"`
	Result   string   `json:"result"`
	Output   []LogRow `json:"output"`
}

// controlInterface resolves the JSON discriminator for the control mode.
func controlInterface(s string) (otg.ControlInterface, error) {
	switch s {
	case "", "position":
		return otg.ControlPosition, nil
	case "velocity":
		return otg.ControlVelocity, nil
	default:
		return 0, fmt.Errorf("unknown control interface %q", s)
	}
}

// synchronization resolves the JSON discriminator for the synchronization mode.
func synchronization(s string) (otg.Synchronization, error) {
	switch s {
	case "", "time":
		return otg.SynchronizationTime, nil
	case "none":
		return otg.SynchronizationNone, nil
	default:
		return 0, fmt.Errorf("unknown synchronization mode %q", s)
	}
}

// BuildInput converts the JSON motion description into an engine
// InputParameter. Vector lengths are checked against the DOF count implied
// by the current position.
func BuildInput(m Motion) (*otg.InputParameter, error) {
	dofs := len(m.CurrentPosition)
	if dofs == 0 {
		return nil, fmt.Errorf("current_position is empty")
	}

	ci, err := controlInterface(m.ControlInterface)
	if err != nil {
		return nil, err
	}
	sync, err := synchronization(m.Synchronization)
	if err != nil {
		return nil, err
	}

	in := otg.NewInputParameter(dofs)
	in.ControlInterface = ci
	in.Synchronization = sync
	in.MinimumDuration = m.MinimumDuration
	in.InterruptCalculationDuration = m.InterruptCalculationDuration

	required := []struct {
		name   string
		values []float64
		dst    vec.Vector
	}{
		{"current_position", m.CurrentPosition, in.CurrentPosition},
		{"current_velocity", m.CurrentVelocity, in.CurrentVelocity},
		{"current_acceleration", m.CurrentAcceleration, in.CurrentAcceleration},
		{"target_velocity", m.TargetVelocity, in.TargetVelocity},
		{"target_acceleration", m.TargetAcceleration, in.TargetAcceleration},
		{"max_velocity", m.MaxVelocity, in.MaxVelocity},
		{"max_acceleration", m.MaxAcceleration, in.MaxAcceleration},
		{"max_jerk", m.MaxJerk, in.MaxJerk},
	}
	if ci == otg.ControlPosition {
		required = append(required, struct {
			name   string
			values []float64
			dst    vec.Vector
		}{"target_position", m.TargetPosition, in.TargetPosition})
	}
	for _, f := range required {
		if len(f.values) != dofs {
			return nil, fmt.Errorf("%s has %d values, want %d", f.name, len(f.values), dofs)
		}
		vec.Copy(f.dst, vec.Slice(f.values))
	}

	optional := []struct {
		name   string
		values []float64
		set    func(vec.Vector)
	}{
		{"min_velocity", m.MinVelocity, func(v vec.Vector) { in.MinVelocity = v }},
		{"min_acceleration", m.MinAcceleration, func(v vec.Vector) { in.MinAcceleration = v }},
		{"min_position", m.MinPosition, func(v vec.Vector) { in.MinPosition = v }},
		{"max_position", m.MaxPosition, func(v vec.Vector) { in.MaxPosition = v }},
	}
	for _, f := range optional {
		if f.values == nil {
			continue
		}
		if len(f.values) != dofs {
			return nil, fmt.Errorf("%s has %d values, want %d", f.name, len(f.values), dofs)
		}
		f.set(vec.Of(f.values...))
	}

	for i, w := range m.IntermediatePositions {
		if len(w) != dofs {
			return nil, fmt.Errorf("intermediate position %d has %d values, want %d", i, len(w), dofs)
		}
		in.IntermediatePositions = append(in.IntermediatePositions, vec.Of(w...))
	}
	if m.PerSectionMinimumDuration != nil {
		in.PerSectionMinimumDuration = append([]float64(nil), m.PerSectionMinimumDuration...)
	}
	return in, nil
}

// Run executes the control loop for input until the trajectory finishes and
// returns the sampled log.
func Run(input Input) (Log, error) {
	if input.Meta.ControlCycle <= 0 {
		return Log{}, fmt.Errorf("run %q: control_cycle must be positive", input.Meta.RunID)
	}
	in, err := BuildInput(input.Motion)
	if err != nil {
		return Log{}, fmt.Errorf("run %q: %w", input.Meta.RunID, err)
	}

	dofs := in.DOFs()
	gen := otg.NewGenerator(dofs, input.Meta.ControlCycle,
		otg.WithMaxWaypoints(len(in.IntermediatePositions)))
	out := otg.NewOutputParameter(dofs)

	log := Log{Meta: input.Meta}
	// Hard cap so a malformed problem cannot loop forever.
	const maxCycles = 10_000_000
	for cycle := 0; ; cycle++ {
		if cycle >= maxCycles {
			return Log{}, fmt.Errorf("run %q: no finish after %d cycles", input.Meta.RunID, maxCycles)
		}
		res := gen.Update(in, out)
		if res < 0 {
			return Log{}, fmt.Errorf("run %q: at t=%.4f: %s", input.Meta.RunID, out.Time, res)
		}
		log.Output = append(log.Output, LogRow{
			Time:         out.Time,
			Position:     vecValues(out.NewPosition),
			Velocity:     vecValues(out.NewVelocity),
			Acceleration: vecValues(out.NewAcceleration),
		})
		if res == otg.ResultFinished {
			log.Duration = out.Trajectory.Duration()
			log.Result = res.String()
			return log, nil
		}
		out.PassToInput(in)
	}
}

func vecValues(v vec.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}

// RunJSON is the entry point shared by the CLI and WASM targets: it accepts
// a JSON-encoded Input, runs the motion, and returns a JSON-encoded Log.
func RunJSON(jsonInput string) (string, error) {
	var input Input
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}
	log, err := Run(input)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(log)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
