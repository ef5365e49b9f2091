package profile

import (
	"fmt"
	"math"
)

// bisectionIterations bounds every root search in the solver. Together with
// the Budget ticks this keeps the worst-case cost of a solve deterministic.
const bisectionIterations = 128

// atTarget reports whether the boundary-value problem is degenerate: the
// axis already rests at its target state.
func atTarget(start, target State) bool {
	return math.Abs(target.Pos-start.Pos) < stateEpsilon &&
		math.Abs(target.Vel-start.Vel) < stateEpsilon &&
		math.Abs(target.Acc-start.Acc) < stateEpsilon
}

// doubleRamp solves the two S-curve ramps of the cruise-velocity
// parameterisation: start up (or down) to the cruise velocity vc with zero
// acceleration, later from (vc, 0) to the target velocity and acceleration.
func doubleRamp(start, target State, vc float64, lim Limits) (r1, r2 ramp, err error) {
	r1, err = solveRamp(start.Vel, start.Acc, vc, 0, lim)
	if err != nil {
		return ramp{}, ramp{}, err
	}
	r2, err = solveRamp(vc, 0, target.Vel, target.Acc, lim)
	if err != nil {
		return ramp{}, ramp{}, err
	}
	return r1, r2, nil
}

// reach integrates both ramps from start and returns the final state.
func reach(start State, vc float64, r1, r2 ramp) State {
	s := r1.extent(start)
	s.Vel = vc // absorb shaping residue before the second ramp
	s.Acc = 0
	return r2.extent(s)
}

// SolvePosition computes the minimum-time jerk-limited profile from start to
// target. The case enumeration follows the binding constraint:
//
//   - velocity-limited: the displacement exceeds what both ramps cover at
//     the velocity bound, so a cruise phase at VMax (or VMin) absorbs the
//     remainder (closed form);
//   - acceleration- or jerk-limited: no cruise phase exists and the cruise
//     velocity is the root of the monotonic displacement function, found by
//     a bounded bisection.
//
// A start state outside the limits is first braked back onto them via a
// recovery ramp; the minimum-time solve then proceeds from the recovered
// state.
//
// The Budget is ticked once per bisection iteration.
func SolvePosition(start, target State, lim Limits, bud *Budget) (Profile, error) {
	rec, s0 := recoverySteps(start, lim, true)
	p, _, err := solvePositionMin(s0, target, lim, bud)
	if err != nil {
		return Profile{}, err
	}
	return prepend(start, rec, p), nil
}

// solvePositionMin additionally returns the cruise velocity of the solution
// for reuse by the duration-stretching solver.
func solvePositionMin(start, target State, lim Limits, bud *Budget) (Profile, float64, error) {
	if atTarget(start, target) {
		return Profile{End: target}, 0, nil
	}

	build := func(vc, cruise float64, r1, r2 ramp) Profile {
		b := newBuilder(start)
		r1.emit(b)
		b.cur.Vel = vc
		b.cur.Acc = 0
		b.phase(0, cruise)
		r2.emit(b)
		return b.build(&target)
	}

	rTop1, rTop2, err := doubleRamp(start, target, lim.VMax, lim)
	if err != nil {
		return Profile{}, 0, err
	}
	if top := reach(start, lim.VMax, rTop1, rTop2); target.Pos >= top.Pos {
		cruise := (target.Pos - top.Pos) / lim.VMax
		return build(lim.VMax, cruise, rTop1, rTop2), lim.VMax, nil
	}

	rBot1, rBot2, err := doubleRamp(start, target, lim.VMin, lim)
	if err != nil {
		return Profile{}, 0, err
	}
	if bot := reach(start, lim.VMin, rBot1, rBot2); target.Pos <= bot.Pos {
		cruise := (target.Pos - bot.Pos) / lim.VMin
		return build(lim.VMin, cruise, rBot1, rBot2), lim.VMin, nil
	}

	// The double-ramp displacement is not monotone in the cruise velocity
	// over all of [VMin, VMax]: with nonzero boundary velocities a profile
	// that dips toward zero covers the same displacement as a faster one
	// that rises above them. The landing velocities (each boundary with its
	// acceleration wound down to zero at full jerk) split the range into
	// three brackets, each containing at most one root, and the branch is
	// picked by where the target displacement falls.
	landStart := start.Vel + start.Acc*math.Abs(start.Acc)/(2*lim.JMax)
	landTarget := target.Vel - target.Acc*math.Abs(target.Acc)/(2*lim.JMax)
	vHi := clampVel(math.Max(landStart, landTarget), lim)
	vLo := clampVel(math.Min(landStart, landTarget), lim)

	displacementAt := func(vc float64) (float64, error) {
		r1, r2, err := doubleRamp(start, target, vc, lim)
		if err != nil {
			return 0, err
		}
		return reach(start, vc, r1, r2).Pos, nil
	}

	dHi, err := displacementAt(vHi)
	if err != nil {
		return Profile{}, 0, err
	}
	var lo, hi float64
	switch {
	case target.Pos >= dHi:
		lo, hi = vHi, lim.VMax
	default:
		dLo, err := displacementAt(vLo)
		if err != nil {
			return Profile{}, 0, err
		}
		if target.Pos <= dLo {
			lo, hi = lim.VMin, vLo
		} else {
			lo, hi = vLo, vHi
		}
	}
	var vc float64
	for i := 0; i < bisectionIterations; i++ {
		if err := bud.Tick(); err != nil {
			return Profile{}, 0, err
		}
		vc = 0.5 * (lo + hi)
		r1, r2, err := doubleRamp(start, target, vc, lim)
		if err != nil {
			return Profile{}, 0, err
		}
		if reach(start, vc, r1, r2).Pos < target.Pos {
			lo = vc
		} else {
			hi = vc
		}
	}
	vc = 0.5 * (lo + hi)
	r1, r2, err := doubleRamp(start, target, vc, lim)
	if err != nil {
		return Profile{}, 0, err
	}
	return build(vc, 0, r1, r2), vc, nil
}

func clampVel(v float64, lim Limits) float64 {
	return math.Min(math.Max(v, lim.VMin), lim.VMax)
}

// detourCruise returns the cruise direction and depth bound for a
// zero-displacement excursion from a moving state: the axis dips against
// its direction of travel, as deep as the opposite velocity bound allows.
func detourCruise(s State, lim Limits) (sign, mag float64) {
	v := s.Vel
	if math.Abs(v) < stateEpsilon {
		v = s.Acc
	}
	if v > 0 {
		return -1, -lim.VMin
	}
	return 1, lim.VMax
}

// MinimumDetour returns the shortest duration of a profile that leaves a
// moving state and rejoins it at the same position: the excursion an axis
// needs to mark time while staying on its limits. A resting state can mark
// time for free and returns 0. Synchronization uses this as a duration
// floor when an axis's start and target coincide in a moving state.
func MinimumDetour(s State, lim Limits, bud *Budget) (float64, error) {
	if math.Abs(s.Vel) < stateEpsilon && math.Abs(s.Acc) < stateEpsilon {
		return 0, nil
	}
	sign, mag := detourCruise(s, lim)
	d, _, _, _, err := detourAt(s, s, lim, sign, mag)
	if err != nil {
		return 0, err
	}
	if !math.IsNaN(d) {
		return d, nil
	}
	// The deepest dip overshoots backward; the shortest valid excursion
	// sits on the zero-cruise boundary.
	lo, hi := 0.0, mag
	for i := 0; i < bisectionIterations; i++ {
		if err := bud.Tick(); err != nil {
			return 0, err
		}
		mid := 0.5 * (lo + hi)
		d, _, _, _, err := detourAt(s, s, lim, sign, mid)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(d) {
			hi = mid
		} else {
			lo = mid
		}
	}
	d, _, _, _, err = detourAt(s, s, lim, sign, lo)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// detourAt evaluates the loiter profile that dips to the cruise velocity
// sign*x and rejoins. NaN duration marks a dip too deep to compensate with
// a non-negative cruise phase.
func detourAt(start, target State, lim Limits, sign, x float64) (d, cruise float64, r1, r2 ramp, err error) {
	vc := sign * x
	r1, r2, err = doubleRamp(start, target, vc, lim)
	if err != nil {
		return 0, 0, ramp{}, ramp{}, err
	}
	leftover := target.Pos - reach(start, vc, r1, r2).Pos
	cruise = leftover / vc
	if cruise < -stateEpsilon {
		return math.NaN(), 0, r1, r2, nil
	}
	cruise = math.Max(cruise, 0)
	return r1.duration() + r2.duration() + cruise, cruise, r1, r2, nil
}

// stretchByDetour builds the loiter profile of exactly duration T for a
// boundary problem whose start and target coincide in a moving state. The
// dip depth is bisected: deeper dips are shorter, and dips beyond the
// zero-cruise boundary cannot rejoin.
func stretchByDetour(start, target State, lim Limits, T float64, bud *Budget) (Profile, error) {
	sign, mag := detourCruise(start, lim)
	lo, hi := 0.0, mag
	for i := 0; i < bisectionIterations; i++ {
		if err := bud.Tick(); err != nil {
			return Profile{}, err
		}
		mid := 0.5 * (lo + hi)
		d, _, _, _, err := detourAt(start, target, lim, sign, mid)
		if err != nil {
			return Profile{}, err
		}
		switch {
		case math.IsNaN(d):
			hi = mid
		case d > T:
			lo = mid
		default:
			hi = mid
		}
	}
	d, cruise, r1, r2, err := detourAt(start, target, lim, sign, hi)
	if err != nil {
		return Profile{}, err
	}
	if math.IsNaN(d) || math.Abs(d-T) > 1e-6*math.Max(1, T) {
		// hi may sit on the invalid boundary when T is at the excursion
		// minimum; the last valid depth is at lo.
		d, cruise, r1, r2, err = detourAt(start, target, lim, sign, lo)
		if err != nil {
			return Profile{}, err
		}
		if math.IsNaN(d) || math.Abs(d-T) > 1e-6*math.Max(1, T) {
			return Profile{}, fmt.Errorf("%w: duration %g below the minimum excursion", ErrStretch, T)
		}
		hi = lo
	}
	vc := sign * hi
	b := newBuilder(start)
	r1.emit(b)
	b.cur.Vel = vc
	b.cur.Acc = 0
	b.phase(0, cruise)
	r2.emit(b)
	return b.build(&target), nil
}

// StretchPosition re-solves the boundary-value problem so the profile takes
// exactly duration T >= the minimum time. The primary method lowers the
// cruise velocity, trading speed for time while keeping every limit intact;
// when the minimum-time solution has no usable cruise direction, a bracketed
// bisection on a uniform limit scale takes over. A start that already
// coincides with a moving target loiters via a detour excursion, feasible
// for any T at or above MinimumDetour. Stretching below the per-axis
// minimum is never attempted and fails with ErrStretch.
func StretchPosition(start, target State, lim Limits, T float64, bud *Budget) (Profile, error) {
	rec, s0 := recoverySteps(start, lim, true)
	T -= stepsDuration(rec) // the recovery ramp is incompressible

	minProf, vcPeak, err := solvePositionMin(s0, target, lim, bud)
	if err != nil {
		return Profile{}, err
	}
	tMin := minProf.Duration()
	tol := 1e-9 * math.Max(1, tMin)
	if T < tMin-tol {
		return Profile{}, fmt.Errorf("%w: requested %g below minimum %g", ErrStretch, T, tMin)
	}
	if T-tMin <= tol {
		return prepend(start, rec, minProf), nil
	}

	if atTarget(s0, target) {
		if math.Abs(s0.Vel) < stateEpsilon && math.Abs(s0.Acc) < stateEpsilon {
			p := Rest(s0, T)
			p.End = target
			return prepend(start, rec, p), nil
		}
		// Start and target coincide but the axis is moving: loiter away
		// from the travel direction and rejoin.
		p, err := stretchByDetour(s0, target, lim, T, bud)
		if err != nil {
			return Profile{}, err
		}
		return prepend(start, rec, p), nil
	}

	if p, ok, err := stretchByCruise(s0, target, lim, T, vcPeak, bud); err != nil {
		return Profile{}, err
	} else if ok {
		return prepend(start, rec, p), nil
	}
	p, err := stretchByScaling(s0, target, lim, T, bud)
	if err != nil {
		return Profile{}, err
	}
	return prepend(start, rec, p), nil
}

// stretchByCruise searches a lower cruise velocity whose slower travel takes
// exactly T. Valid whenever the minimum-time solution passes through a
// nonzero cruise velocity.
func stretchByCruise(start, target State, lim Limits, T, vcPeak float64, bud *Budget) (Profile, bool, error) {
	mag := math.Abs(vcPeak)
	if mag <= stateEpsilon {
		return Profile{}, false, nil
	}
	sign := 1.0
	if vcPeak < 0 {
		sign = -1
	}

	// Duration of the cruise-extended profile at cruise velocity sign*x.
	// Decreasing in x: slower cruise, longer trajectory.
	duration := func(x float64) (float64, float64, ramp, ramp, error) {
		vc := sign * x
		r1, r2, err := doubleRamp(start, target, vc, lim)
		if err != nil {
			return 0, 0, ramp{}, ramp{}, err
		}
		leftover := target.Pos - reach(start, vc, r1, r2).Pos
		cruise := leftover / vc
		if cruise < -stateEpsilon {
			return math.NaN(), 0, r1, r2, nil
		}
		cruise = math.Max(cruise, 0)
		return r1.duration() + r2.duration() + cruise, cruise, r1, r2, nil
	}

	lo, hi := 0.0, mag
	for i := 0; i < bisectionIterations; i++ {
		if err := bud.Tick(); err != nil {
			return Profile{}, false, err
		}
		mid := 0.5 * (lo + hi)
		d, _, _, _, err := duration(mid)
		if err != nil {
			return Profile{}, false, err
		}
		if math.IsNaN(d) || d > T {
			lo = mid
		} else {
			hi = mid
		}
	}

	d, cruise, r1, r2, err := duration(hi)
	if err != nil {
		return Profile{}, false, err
	}
	if math.IsNaN(d) || math.Abs(d-T) > 1e-6*math.Max(1, T) {
		return Profile{}, false, nil
	}
	vc := sign * hi
	b := newBuilder(start)
	r1.emit(b)
	b.cur.Vel = vc
	b.cur.Acc = 0
	b.phase(0, cruise)
	r2.emit(b)
	return b.build(&target), true, nil
}

// stretchByScaling slows the whole axis down by shrinking all limits by a
// common factor and re-solving for minimum time, bisecting the factor until
// the minimum time equals T. The factor floor keeps the boundary states
// inside the scaled limits.
func stretchByScaling(start, target State, lim Limits, T float64, bud *Budget) (Profile, error) {
	// Keeps the unavoidable velocity excursion of a nonzero boundary
	// acceleration inside the unscaled velocity corridor even as the jerk
	// limit shrinks.
	excursionFloor := func(v, a float64) float64 {
		switch {
		case a > 0 && lim.VMax > v:
			return a * a / (2 * lim.JMax * (lim.VMax - v))
		case a < 0 && lim.VMin < v:
			return a * a / (2 * lim.JMax * (v - lim.VMin))
		case a == 0:
			return 0
		default:
			return 1
		}
	}
	floor := 1e-6
	for _, r := range []float64{
		start.Vel / lim.VMax, start.Vel / lim.VMin,
		target.Vel / lim.VMax, target.Vel / lim.VMin,
		start.Acc / lim.AMax, start.Acc / lim.AMin,
		target.Acc / lim.AMax, target.Acc / lim.AMin,
		excursionFloor(start.Vel, start.Acc),
		excursionFloor(target.Vel, target.Acc),
	} {
		if r > floor {
			floor = r
		}
	}
	floor = math.Min(floor*(1+1e-9)+1e-12, 1)
	if floor >= 1 {
		return Profile{}, fmt.Errorf("%w: boundary state saturates the limits", ErrStretch)
	}

	scaled := func(f float64) Limits {
		return Limits{VMax: lim.VMax * f, VMin: lim.VMin * f, AMax: lim.AMax * f, AMin: lim.AMin * f, JMax: lim.JMax * f}
	}
	durationAt := func(f float64) (float64, error) {
		p, _, err := solvePositionMin(start, target, scaled(f), bud)
		if err != nil {
			return 0, err
		}
		return p.Duration(), nil
	}

	dFloor, err := durationAt(floor)
	if err != nil {
		return Profile{}, err
	}
	if dFloor < T {
		return Profile{}, fmt.Errorf("%w: duration %g not reachable (max stretchable %g)", ErrStretch, T, dFloor)
	}

	lo, hi := floor, 1.0
	for i := 0; i < bisectionIterations; i++ {
		if err := bud.Tick(); err != nil {
			return Profile{}, err
		}
		mid := 0.5 * (lo + hi)
		d, err := durationAt(mid)
		if err != nil {
			return Profile{}, err
		}
		if d > T {
			lo = mid
		} else {
			hi = mid
		}
	}
	f := 0.5 * (lo + hi)
	p, _, err := solvePositionMin(start, target, scaled(f), bud)
	if err != nil {
		return Profile{}, err
	}
	if math.Abs(p.Duration()-T) > 1e-5*math.Max(1, T) {
		return Profile{}, fmt.Errorf("%w: no limit scale matches duration %g", ErrStretch, T)
	}
	return p, nil
}
