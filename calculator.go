package otg

import (
	"fmt"
	"math"

	"github.com/sevenphase/otg/profile"
)

// positionTolerance is the geometric slack allowed when verifying the
// trajectory's excursion against the configured position range.
const positionTolerance = 1e-9

// calculate solves the full multi-axis problem: section decomposition,
// per-axis minimum-time solving, cross-axis synchronization, duration
// floors, and position-range verification. The budget is threaded through
// every solver call so the whole recalculation has a deterministic cost cap.
func calculate(in *InputParameter, bud *profile.Budget) (*Trajectory, error) {
	if in.ControlInterface == ControlVelocity {
		return calculateVelocity(in, bud)
	}

	boundaries := buildBoundaries(in)
	sections := len(boundaries) - 1
	dofs := in.DOFs()

	synchronized := in.Synchronization == SynchronizationTime || sections > 1
	if !synchronized {
		return calculateIndependent(in, boundaries, bud)
	}

	// Pass 1: per-axis minimal durations, then the common block duration
	// per section (the slowest axis, raised by the per-section floor). An
	// axis whose section boundaries coincide in a moving state takes either
	// zero time or at least its loiter excursion, so its excursion minimum
	// floors any nonzero block duration.
	sectionT := make([]float64, sections)
	detourFloor := make([]float64, sections)
	for s := 0; s < sections; s++ {
		for axis := 0; axis < dofs; axis++ {
			if err := bud.Tick(); err != nil {
				return nil, err
			}
			from := boundaries[s][axis]
			p, err := profile.SolvePosition(from, boundaries[s+1][axis], in.limits(axis), bud)
			if err != nil {
				return nil, fmt.Errorf("section %d axis %d: %w", s, axis, err)
			}
			if p.Duration() == 0 {
				d, err := profile.MinimumDetour(from, in.limits(axis), bud)
				if err != nil {
					return nil, fmt.Errorf("section %d axis %d: %w", s, axis, err)
				}
				detourFloor[s] = math.Max(detourFloor[s], d)
			}
			sectionT[s] = math.Max(sectionT[s], p.Duration())
		}
		if s < len(in.PerSectionMinimumDuration) {
			sectionT[s] = math.Max(sectionT[s], in.PerSectionMinimumDuration[s])
		}
		if sectionT[s] > 0 {
			sectionT[s] = math.Max(sectionT[s], detourFloor[s])
		}
	}

	// The global floor stretches the final section; earlier sections stay
	// minimal so waypoints are still passed as early as possible.
	var total float64
	for _, t := range sectionT {
		total += t
	}
	if total < in.MinimumDuration {
		sectionT[sections-1] += in.MinimumDuration - total
		if sectionT[sections-1] > 0 {
			sectionT[sections-1] = math.Max(sectionT[sections-1], detourFloor[sections-1])
		}
	}

	// Pass 2: re-derive every axis to exactly its section's block duration.
	tracks := make([]axisTrack, dofs)
	sectionEnds := make([]float64, sections)
	var offset float64
	for s := 0; s < sections; s++ {
		for axis := 0; axis < dofs; axis++ {
			p, err := profile.StretchPosition(boundaries[s][axis], boundaries[s+1][axis], in.limits(axis), sectionT[s], bud)
			if err != nil {
				if sections > 1 {
					return nil, fmt.Errorf("%w: section %d axis %d: %w", ErrWaypointInfeasible, s, axis, err)
				}
				return nil, fmt.Errorf("axis %d: %w", axis, err)
			}
			tracks[axis].profiles = append(tracks[axis].profiles, p)
			tracks[axis].offsets = append(tracks[axis].offsets, offset)
		}
		offset += sectionT[s]
		sectionEnds[s] = offset
	}
	for axis := range tracks {
		tracks[axis].duration = offset
	}

	traj := &Trajectory{axes: tracks, duration: offset, sectionEnds: sectionEnds}
	if err := verifyPositionRange(in, traj); err != nil {
		return nil, err
	}
	return traj, nil
}

// calculateIndependent handles SynchronizationNone: each axis keeps its own
// minimal profile and finishes independently; the trajectory's duration is
// the latest finishing axis. The global minimum duration still floors each
// axis individually.
func calculateIndependent(in *InputParameter, boundaries [][]profile.State, bud *profile.Budget) (*Trajectory, error) {
	dofs := in.DOFs()
	tracks := make([]axisTrack, dofs)
	var longest float64
	for axis := 0; axis < dofs; axis++ {
		if err := bud.Tick(); err != nil {
			return nil, err
		}
		p, err := profile.SolvePosition(boundaries[0][axis], boundaries[1][axis], in.limits(axis), bud)
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", axis, err)
		}
		if p.Duration() < in.MinimumDuration {
			floor := in.MinimumDuration
			if p.Duration() == 0 {
				// A moving at-target axis cannot loiter for less than its
				// excursion minimum; the floor only requires at least the
				// requested duration.
				d, err := profile.MinimumDetour(boundaries[0][axis], in.limits(axis), bud)
				if err != nil {
					return nil, fmt.Errorf("axis %d: %w", axis, err)
				}
				floor = math.Max(floor, d)
			}
			p, err = profile.StretchPosition(boundaries[0][axis], boundaries[1][axis], in.limits(axis), floor, bud)
			if err != nil {
				return nil, fmt.Errorf("axis %d: %w", axis, err)
			}
		}
		tracks[axis] = axisTrack{
			profiles: []profile.Profile{p},
			offsets:  []float64{0},
			duration: p.Duration(),
		}
		longest = math.Max(longest, p.Duration())
	}
	traj := &Trajectory{axes: tracks, duration: longest, sectionEnds: []float64{longest}}
	if err := verifyPositionRange(in, traj); err != nil {
		return nil, err
	}
	return traj, nil
}

// calculateVelocity handles the velocity control interface: a single
// section, no waypoints, position unconstrained.
func calculateVelocity(in *InputParameter, bud *profile.Budget) (*Trajectory, error) {
	dofs := in.DOFs()
	profs := make([]profile.Profile, dofs)
	var block float64
	for axis := 0; axis < dofs; axis++ {
		if err := bud.Tick(); err != nil {
			return nil, err
		}
		p, err := profile.SolveVelocity(in.currentState(axis), in.targetState(axis), in.limits(axis), bud)
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", axis, err)
		}
		profs[axis] = p
		block = math.Max(block, p.Duration())
	}
	block = math.Max(block, in.MinimumDuration)

	tracks := make([]axisTrack, dofs)
	var longest float64
	for axis := 0; axis < dofs; axis++ {
		p := profs[axis]
		floor := in.MinimumDuration
		if in.Synchronization == SynchronizationTime {
			floor = block
		}
		if p.Duration() < floor {
			var err error
			p, err = profile.StretchVelocity(in.currentState(axis), in.targetState(axis), in.limits(axis), floor, bud)
			if err != nil {
				return nil, fmt.Errorf("axis %d: %w", axis, err)
			}
		}
		tracks[axis] = axisTrack{
			profiles: []profile.Profile{p},
			offsets:  []float64{0},
			duration: p.Duration(),
		}
		longest = math.Max(longest, p.Duration())
	}
	return &Trajectory{axes: tracks, duration: longest, sectionEnds: []float64{longest}}, nil
}

// verifyPositionRange checks the trajectory's position extrema against the
// optional position range. There is no detour synthesis: an excursion
// outside the range fails the whole calculation.
func verifyPositionRange(in *InputParameter, traj *Trajectory) error {
	if in.MinPosition == nil && in.MaxPosition == nil {
		return nil
	}
	lo, hi := traj.PositionExtrema()
	for axis := 0; axis < traj.DOFs(); axis++ {
		if in.MinPosition != nil && lo[axis] < in.MinPosition.At(axis)-positionTolerance {
			return fmt.Errorf("%w: axis %d reaches %g below min position %g", ErrPositionalLimits, axis, lo[axis], in.MinPosition.At(axis))
		}
		if in.MaxPosition != nil && hi[axis] > in.MaxPosition.At(axis)+positionTolerance {
			return fmt.Errorf("%w: axis %d reaches %g above max position %g", ErrPositionalLimits, axis, hi[axis], in.MaxPosition.At(axis))
		}
	}
	return nil
}
