package profile

import "math"

// step is one constant-jerk piece of a recovery ramp.
type step struct {
	j, t float64
}

// recoverySteps returns the constant-jerk steps that bring a state whose
// acceleration or unavoidable velocity excursion lies outside the limits
// back onto the feasible boundary, together with the state at the end of
// the steps. States already inside the limits yield no steps.
//
// The current state of a control loop can legitimately exceed the limits,
// e.g. after the caller tightened them mid-flight. Braking at full jerk
// authority first, then solving the boundary-value problem from the
// recovered state, guarantees the trajectory never moves further outside
// the limits than the input already is.
func recoverySteps(s State, lim Limits, withVelocity bool) ([]step, State) {
	j := lim.JMax
	if j <= 0 {
		return nil, s
	}
	var steps []step
	add := func(jerk, t float64) {
		if t <= timeEpsilon {
			return
		}
		steps = append(steps, step{j: jerk, t: t})
		s = integrate(s, jerk, t)
	}

	if s.Acc > lim.AMax {
		add(-j, (s.Acc-lim.AMax)/j)
		s.Acc = lim.AMax
	} else if s.Acc < lim.AMin {
		add(j, (lim.AMin-s.Acc)/j)
		s.Acc = lim.AMin
	}
	if !withVelocity {
		return steps, s
	}

	// Velocity where the excursion lands once the acceleration unwinds to
	// zero at full jerk. A landing outside the corridor needs braking: jerk
	// to the counter-acceleration whose own unwind lands exactly on the
	// bound, held at the acceleration limit when that counter-acceleration
	// is not reachable.
	landing := s.Vel + s.Acc*math.Abs(s.Acc)/(2*j)
	if landing > lim.VMax+stateEpsilon {
		brake := -math.Sqrt(math.Max(j*(s.Vel-lim.VMax)+s.Acc*s.Acc/2, 0))
		if brake < lim.AMin {
			add(-j, (s.Acc-lim.AMin)/j)
			add(0, (lim.VMax-s.Vel+lim.AMin*lim.AMin/(2*j))/lim.AMin)
		} else {
			add(-j, (s.Acc-brake)/j)
		}
	} else if landing < lim.VMin-stateEpsilon {
		brake := math.Sqrt(math.Max(j*(lim.VMin-s.Vel)+s.Acc*s.Acc/2, 0))
		if brake > lim.AMax {
			add(j, (lim.AMax-s.Acc)/j)
			add(0, (lim.VMin-s.Vel-lim.AMax*lim.AMax/(2*j))/lim.AMax)
		} else {
			add(j, (brake-s.Acc)/j)
		}
	}
	return steps, s
}

// stepsDuration returns the total duration of a recovery ramp.
func stepsDuration(steps []step) float64 {
	var d float64
	for _, st := range steps {
		d += st.t
	}
	return d
}

// prepend re-bases p onto the recovery ramp starting at start. The phase
// boundary states are re-threaded through the builder so the profile's
// continuity invariant holds across the splice.
func prepend(start State, rec []step, p Profile) Profile {
	if len(rec) == 0 {
		return p
	}
	b := newBuilder(start)
	for _, st := range rec {
		b.phase(st.j, st.t)
	}
	for i := range p.Phases {
		b.phase(p.Phases[i].Jerk, p.Phases[i].Duration)
	}
	end := p.End
	return b.build(&end)
}
