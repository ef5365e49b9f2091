package otg

import (
	"math"

	"github.com/sevenphase/otg/profile"
)

// cruiseFraction caps the derived interior-waypoint velocity below the axis
// velocity bound, leaving headroom for the neighbouring ramps.
const cruiseFraction = 0.75

// buildBoundaries decomposes the motion into consecutive boundary-value
// sub-problems: one boundary per waypoint plus the current and target
// states. Velocity and acceleration at interior waypoints are derived, not
// externally specified: acceleration is zero, velocity follows a
// direction-bisector heuristic that is zero whenever the axis reverses
// direction at the waypoint, preserving continuity while keeping each
// section independently solvable.
func buildBoundaries(in *InputParameter) [][]profile.State {
	dofs := in.DOFs()
	n := len(in.IntermediatePositions)
	boundaries := make([][]profile.State, 0, n+2)

	first := make([]profile.State, dofs)
	for axis := 0; axis < dofs; axis++ {
		first[axis] = in.currentState(axis)
	}
	boundaries = append(boundaries, first)

	for k := 0; k < n; k++ {
		states := make([]profile.State, dofs)
		for axis := 0; axis < dofs; axis++ {
			prev := boundaries[k][axis].Pos
			at := in.IntermediatePositions[k].At(axis)
			var next float64
			if k+1 < n {
				next = in.IntermediatePositions[k+1].At(axis)
			} else {
				next = in.TargetPosition.At(axis)
			}
			states[axis] = profile.State{
				Pos: at,
				Vel: interiorVelocity(prev, at, next, in.limits(axis)),
			}
		}
		boundaries = append(boundaries, states)
	}

	last := make([]profile.State, dofs)
	for axis := 0; axis < dofs; axis++ {
		last[axis] = in.targetState(axis)
	}
	boundaries = append(boundaries, last)
	return boundaries
}

// interiorVelocity derives the pass-through velocity for one axis at an
// interior waypoint. Reversals and stationary neighbours yield zero; a
// consistent direction yields that direction's sign with a magnitude capped
// both by the velocity bound and by what the acceleration bound can reach
// over the shorter neighbouring leg.
func interiorVelocity(prev, at, next float64, lim profile.Limits) float64 {
	d1 := at - prev
	d2 := next - at
	if d1 == 0 || d2 == 0 || math.Signbit(d1) != math.Signbit(d2) {
		return 0
	}
	leg := math.Min(math.Abs(d1), math.Abs(d2))
	aReach := math.Min(lim.AMax, -lim.AMin)
	mag := math.Sqrt(aReach * leg)
	if d1 > 0 {
		return math.Min(mag, cruiseFraction*lim.VMax)
	}
	return math.Max(-mag, cruiseFraction*lim.VMin)
}
