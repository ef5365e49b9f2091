package otg

import (
	"math"

	"github.com/sevenphase/otg/profile"
	"github.com/sevenphase/otg/vec"
)

// axisTrack is one axis's motion: one profile per waypoint section, with the
// start offset of each section on the shared time base.
type axisTrack struct {
	profiles []profile.Profile
	offsets  []float64
	duration float64
}

// at evaluates the axis at trajectory time t, clamping beyond the axis's own
// finish time so unsynchronized axes hold their target state once done.
func (a *axisTrack) at(t float64) profile.State {
	n := len(a.profiles)
	if n == 0 {
		return profile.State{}
	}
	if t >= a.duration {
		return a.profiles[n-1].End
	}
	for i := n - 1; i >= 0; i-- {
		if t >= a.offsets[i] {
			return a.profiles[i].At(t - a.offsets[i])
		}
	}
	return a.profiles[0].At(t)
}

// Trajectory is the finalized, immutable result of one calculation:
// concatenated per-axis profiles on a shared time base, queryable at
// arbitrary times.
type Trajectory struct {
	axes        []axisTrack
	duration    float64
	sectionEnds []float64
}

// DOFs returns the number of axes.
func (t *Trajectory) DOFs() int { return len(t.axes) }

// Duration returns the total duration: the shared block duration when
// synchronized, otherwise the finish time of the latest axis.
func (t *Trajectory) Duration() float64 { return t.duration }

// AxisDuration returns the finish time of a single axis. Under time
// synchronization all axes report the block duration.
func (t *Trajectory) AxisDuration(axis int) float64 { return t.axes[axis].duration }

// Sections returns the number of waypoint sections.
func (t *Trajectory) Sections() int { return len(t.sectionEnds) }

// SectionAt returns the index of the section containing time tm.
func (t *Trajectory) SectionAt(tm float64) int {
	for i, end := range t.sectionEnds {
		if tm < end {
			return i
		}
	}
	if n := len(t.sectionEnds); n > 0 {
		return n - 1
	}
	return 0
}

// AtTime evaluates the trajectory at time tm and writes the kinematic state
// into the given vectors. Vectors may be nil to skip that quantity.
func (t *Trajectory) AtTime(tm float64, pos, vel, acc vec.Vector) {
	for i := range t.axes {
		s := t.axes[i].at(tm)
		if pos != nil {
			pos.Set(i, s.Pos)
		}
		if vel != nil {
			vel.Set(i, s.Vel)
		}
		if acc != nil {
			acc.Set(i, s.Acc)
		}
	}
}

// PositionExtrema returns the minimum and maximum position each axis
// reaches over the full time range.
func (t *Trajectory) PositionExtrema() (lo, hi vec.Slice) {
	lo = vec.Zeros(len(t.axes))
	hi = vec.Zeros(len(t.axes))
	for i := range t.axes {
		axisLo, axisHi := math.Inf(1), math.Inf(-1)
		for p := range t.axes[i].profiles {
			l, h := t.axes[i].profiles[p].PosRange()
			axisLo = math.Min(axisLo, l)
			axisHi = math.Max(axisHi, h)
		}
		if len(t.axes[i].profiles) == 0 {
			axisLo, axisHi = 0, 0
		}
		lo[i] = axisLo
		hi[i] = axisHi
	}
	return lo, hi
}
