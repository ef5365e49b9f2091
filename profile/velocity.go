package profile

import (
	"fmt"
	"math"
)

// SolveVelocity computes the minimum-time profile that takes the axis from
// its current velocity and acceleration to the target velocity and
// acceleration. Position is unconstrained under the velocity control
// interface and simply integrates. A start acceleration outside the
// corridor is first jerked back onto it via a recovery ramp.
func SolveVelocity(start, target State, lim Limits, bud *Budget) (Profile, error) {
	_ = bud // the single ramp is closed form; nothing to account
	rec, s0 := recoverySteps(start, lim, false)
	p, err := solveVelocityMin(s0, target, lim)
	if err != nil {
		return Profile{}, err
	}
	return prepend(start, rec, p), nil
}

// solveVelocityMin solves the single-ramp problem from a start state whose
// acceleration already lies inside the corridor.
func solveVelocityMin(start, target State, lim Limits) (Profile, error) {
	if math.Abs(target.Vel-start.Vel) < stateEpsilon && math.Abs(target.Acc-start.Acc) < stateEpsilon {
		end := start
		end.Vel = target.Vel
		end.Acc = target.Acc
		return Profile{End: end}, nil
	}
	r, err := solveRamp(start.Vel, start.Acc, target.Vel, target.Acc, lim)
	if err != nil {
		return Profile{}, err
	}
	b := newBuilder(start)
	r.emit(b)
	end := b.cur
	end.Vel = target.Vel
	end.Acc = target.Acc
	return b.build(&end), nil
}

// StretchVelocity re-solves the velocity-interface problem to take exactly
// duration T, by shrinking the acceleration and jerk limits by a common
// factor. The factor floor keeps the boundary accelerations inside the
// scaled corridor; a boundary acceleration at the corridor edge therefore
// cannot be stretched and fails with ErrStretch.
func StretchVelocity(start, target State, lim Limits, T float64, bud *Budget) (Profile, error) {
	rec, s0 := recoverySteps(start, lim, false)
	T -= stepsDuration(rec) // the recovery ramp is incompressible

	minProf, err := solveVelocityMin(s0, target, lim)
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

	if math.Abs(target.Vel-s0.Vel) < stateEpsilon &&
		math.Abs(s0.Acc) < stateEpsilon && math.Abs(target.Acc) < stateEpsilon {
		// Constant-velocity hold.
		p := Rest(s0, T)
		end := p.End
		end.Vel = target.Vel
		end.Acc = target.Acc
		p.End = end
		return prepend(start, rec, p), nil
	}

	floor := 1e-6
	for _, r := range []float64{
		s0.Acc / lim.AMax, s0.Acc / lim.AMin,
		target.Acc / lim.AMax, target.Acc / lim.AMin,
	} {
		if r > floor {
			floor = r
		}
	}
	floor = math.Min(floor*(1+1e-9)+1e-12, 1)
	if floor >= 1 {
		return Profile{}, fmt.Errorf("%w: boundary acceleration saturates the limits", ErrStretch)
	}

	scaled := func(f float64) Limits {
		out := lim
		out.AMax *= f
		out.AMin *= f
		out.JMax *= f
		return out
	}
	durationAt := func(f float64) (Profile, float64, error) {
		p, err := solveVelocityMin(s0, target, scaled(f))
		if err != nil {
			return Profile{}, 0, err
		}
		return p, p.Duration(), nil
	}

	if _, d, err := durationAt(floor); err != nil {
		return Profile{}, err
	} else if d < T {
		return Profile{}, fmt.Errorf("%w: duration %g not reachable (max stretchable %g)", ErrStretch, T, d)
	}

	lo, hi := floor, 1.0
	for i := 0; i < bisectionIterations; i++ {
		if err := bud.Tick(); err != nil {
			return Profile{}, err
		}
		mid := 0.5 * (lo + hi)
		_, d, err := durationAt(mid)
		if err != nil {
			return Profile{}, err
		}
		if d > T {
			lo = mid
		} else {
			hi = mid
		}
	}
	p, d, err := durationAt(0.5 * (lo + hi))
	if err != nil {
		return Profile{}, err
	}
	if math.Abs(d-T) > 1e-5*math.Max(1, T) {
		return Profile{}, fmt.Errorf("%w: no limit scale matches duration %g", ErrStretch, T)
	}
	return prepend(start, rec, p), nil
}
