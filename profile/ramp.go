package profile

import (
	"fmt"
	"math"
)

// ramp describes a velocity change from (v0, a0) to (vt, at) as up to three
// constant-jerk phases: jerk toward the peak acceleration ap, hold ap for
// t2, jerk toward at. For an up ramp the jerk sequence is +j, 0, -j; for a
// down ramp it is mirrored.
type ramp struct {
	t1, t2, t3 float64
	ap         float64
	j          float64 // jerk magnitude of the shaping phases
	up         bool
}

// solveRamp computes the minimal ramp for the velocity change dv = vt - v0
// under the acceleration corridor [lim.AMin, lim.AMax] and jerk bound
// lim.JMax. The closed forms enumerate two cases per direction: triangular
// (peak acceleration below the bound) and trapezoidal (bound reached, held
// for t2). The reachable dv is continuous and monotonic in ap, so exactly
// one case applies.
func solveRamp(v0, a0, vt, at float64, lim Limits) (ramp, error) {
	j := lim.JMax
	dv := vt - v0

	if j == 0 {
		// Without jerk authority the acceleration cannot change.
		if math.Abs(a0-at) > stateEpsilon || math.Abs(dv) > stateEpsilon {
			return ramp{}, fmt.Errorf("%w: zero jerk limit with a required state change", ErrInvalidInput)
		}
		return ramp{j: 0, ap: a0, up: true}, nil
	}

	m := math.Max(a0, at)
	dvUp := (2*m*m - a0*a0 - at*at) / (2 * j)

	if dv >= dvUp {
		// Up ramp: ap >= max(a0, at). The radicand is non-negative by the
		// branch condition; the clamp absorbs float noise at the boundary.
		ap := math.Sqrt(math.Max((2*j*dv+a0*a0+at*at)/2, 0))
		var t2 float64
		if ap > lim.AMax {
			ap = lim.AMax
			t2 = (dv - (2*lim.AMax*lim.AMax-a0*a0-at*at)/(2*j)) / lim.AMax
		}
		r := ramp{t1: (ap - a0) / j, t2: t2, t3: (ap - at) / j, ap: ap, j: j, up: true}
		return r.checked()
	}

	// Down ramp: ap <= min(a0, at).
	ap := -math.Sqrt(math.Max((a0*a0+at*at-2*j*dv)/2, 0))
	var t2 float64
	if ap < lim.AMin {
		ap = lim.AMin
		t2 = (dv - (a0*a0+at*at-2*lim.AMin*lim.AMin)/(2*j)) / lim.AMin
	}
	r := ramp{t1: (a0 - ap) / j, t2: t2, t3: (at - ap) / j, ap: ap, j: j, up: false}
	return r.checked()
}

// checked clamps float-noise negatives to zero and rejects genuinely
// negative phase durations, which indicate a boundary state outside the
// acceleration corridor.
func (r ramp) checked() (ramp, error) {
	for _, t := range []float64{r.t1, r.t2, r.t3} {
		if t < -stateEpsilon {
			return ramp{}, fmt.Errorf("%w: acceleration bound excludes boundary state", ErrInvalidInput)
		}
	}
	r.t1 = math.Max(r.t1, 0)
	r.t2 = math.Max(r.t2, 0)
	r.t3 = math.Max(r.t3, 0)
	return r, nil
}

// duration returns the total ramp time.
func (r ramp) duration() float64 {
	return r.t1 + r.t2 + r.t3
}

// jerks returns the signed jerk of each of the three phases.
func (r ramp) jerks() (j1, j2, j3 float64) {
	if r.j == 0 {
		return 0, 0, 0
	}
	if r.up {
		return r.j, 0, -r.j
	}
	return -r.j, 0, r.j
}

// extent integrates the ramp from state s and returns the end state without
// allocating a profile. Used by the cruise-velocity search in the hot path.
func (r ramp) extent(s State) State {
	j1, j2, j3 := r.jerks()
	s = integrate(s, j1, r.t1)
	s = integrate(s, j2, r.t2)
	return integrate(s, j3, r.t3)
}

// emit appends the ramp's phases to b.
func (r ramp) emit(b *builder) {
	j1, j2, j3 := r.jerks()
	b.phase(j1, r.t1)
	b.phase(j2, r.t2)
	b.phase(j3, r.t3)
}

// validateFinite rejects NaN and infinite values in state and lim, and
// checks the signs of the limits themselves.
func validateFinite(state State, lim Limits, withVelocityBounds bool) error {
	for _, v := range []float64{state.Pos, state.Vel, state.Acc, lim.VMax, lim.VMin, lim.AMax, lim.AMin, lim.JMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidInput)
		}
	}
	if lim.JMax < 0 {
		return fmt.Errorf("%w: negative jerk limit %g", ErrInvalidInput, lim.JMax)
	}
	if lim.AMax <= 0 || lim.AMin >= 0 {
		return fmt.Errorf("%w: acceleration corridor [%g, %g] must straddle zero", ErrInvalidInput, lim.AMin, lim.AMax)
	}
	if withVelocityBounds && (lim.VMax <= 0 || lim.VMin >= 0) {
		return fmt.Errorf("%w: velocity corridor [%g, %g] must straddle zero", ErrInvalidInput, lim.VMin, lim.VMax)
	}
	return nil
}

// ValidateCurrent checks lim and that state can serve as the start of a
// profile. With a positive jerk bound any finite state is recoverable by
// braking, so only finiteness and the limit signs are required; with a zero
// jerk bound the state must already lie inside the limits.
func ValidateCurrent(state State, lim Limits, withVelocityBounds bool) error {
	if err := validateFinite(state, lim, withVelocityBounds); err != nil {
		return err
	}
	if lim.JMax == 0 {
		return Validate(state, lim, withVelocityBounds)
	}
	return nil
}

// Validate checks lim itself and that state lies inside it. The overshoot
// checks follow from winding the acceleration down to zero at full jerk: a
// state whose unavoidable velocity excursion already crosses a velocity
// bound has no bounded profile at all and is rejected as invalid input
// rather than reported as unreachable.
func Validate(state State, lim Limits, withVelocityBounds bool) error {
	if err := validateFinite(state, lim, withVelocityBounds); err != nil {
		return err
	}
	if state.Acc > lim.AMax+stateEpsilon || state.Acc < lim.AMin-stateEpsilon {
		return fmt.Errorf("%w: acceleration %g outside [%g, %g]", ErrInvalidInput, state.Acc, lim.AMin, lim.AMax)
	}
	if !withVelocityBounds {
		return nil
	}
	if state.Vel > lim.VMax+stateEpsilon || state.Vel < lim.VMin-stateEpsilon {
		return fmt.Errorf("%w: velocity %g outside [%g, %g]", ErrInvalidInput, state.Vel, lim.VMin, lim.VMax)
	}
	if lim.JMax > 0 {
		// Unavoidable velocity excursion while the acceleration unwinds.
		excursion := state.Acc * math.Abs(state.Acc) / (2 * lim.JMax)
		if reach := state.Vel + excursion; reach > lim.VMax+stateEpsilon || reach < lim.VMin-stateEpsilon {
			return fmt.Errorf("%w: velocity bound will be exceeded while unwinding acceleration %g at velocity %g", ErrInvalidInput, state.Acc, state.Vel)
		}
	}
	return nil
}
