// Package profile implements the single-axis jerk-limited profile solver.
//
// A profile is a piecewise constant-jerk description of one axis's motion:
// up to seven phases (jerk up, hold acceleration, jerk down to the cruise
// velocity, an optional cruise, then the mirrored three phases down to the
// target acceleration). The solver produces the minimum-time feasible
// profile for a kinematic boundary-value problem, or re-solves the same
// problem to take exactly a requested longer duration so that multiple axes
// can share one block duration.
package profile

import "math"

// State is the instantaneous kinematic state of a single axis.
type State struct {
	Pos float64
	Vel float64
	Acc float64
}

// Limits are the per-axis kinematic bounds. VMax and AMax must be positive,
// VMin and AMin negative, JMax non-negative.
type Limits struct {
	VMax float64
	VMin float64
	AMax float64
	AMin float64
	JMax float64
}

// Phase is one constant-jerk piece of a profile. From is the state at the
// start of the phase.
type Phase struct {
	Duration float64
	Jerk     float64
	From     State
}

// Profile is an ordered sequence of constant-jerk phases.
//
// Invariant: each phase's From equals the previous phase integrated over its
// duration, and End equals the last phase integrated over its duration (up
// to the numeric tolerance of the solve).
type Profile struct {
	Phases []Phase
	End    State
}

// integrate advances s by t seconds under constant jerk j.
func integrate(s State, j, t float64) State {
	return State{
		Pos: s.Pos + s.Vel*t + 0.5*s.Acc*t*t + j*t*t*t/6,
		Vel: s.Vel + s.Acc*t + 0.5*j*t*t,
		Acc: s.Acc + j*t,
	}
}

// Duration returns the total duration of the profile.
func (p *Profile) Duration() float64 {
	var d float64
	for i := range p.Phases {
		d += p.Phases[i].Duration
	}
	return d
}

// At evaluates the profile at time t since its start. Times before 0 clamp
// to the initial state; times at or beyond the total duration return End.
func (p *Profile) At(t float64) State {
	if len(p.Phases) == 0 {
		return p.End
	}
	if t <= 0 {
		return p.Phases[0].From
	}
	for i := range p.Phases {
		ph := &p.Phases[i]
		if t < ph.Duration {
			return integrate(ph.From, ph.Jerk, t)
		}
		t -= ph.Duration
	}
	return p.End
}

// VelRange returns the minimum and maximum velocity reached over the full
// profile, including interior extrema where the acceleration crosses zero.
func (p *Profile) VelRange() (lo, hi float64) {
	if len(p.Phases) == 0 {
		return p.End.Vel, p.End.Vel
	}
	lo, hi = p.Phases[0].From.Vel, p.Phases[0].From.Vel
	note := func(v float64) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for i := range p.Phases {
		ph := &p.Phases[i]
		note(integrate(ph.From, ph.Jerk, ph.Duration).Vel)
		// Interior velocity extremum at the acceleration zero crossing.
		if ph.Jerk != 0 {
			t := -ph.From.Acc / ph.Jerk
			if t > 0 && t < ph.Duration {
				note(integrate(ph.From, ph.Jerk, t).Vel)
			}
		}
	}
	note(p.End.Vel)
	return lo, hi
}

// PosRange returns the minimum and maximum position reached over the full
// profile, including interior extrema where the velocity crosses zero.
func (p *Profile) PosRange() (lo, hi float64) {
	if len(p.Phases) == 0 {
		return p.End.Pos, p.End.Pos
	}
	lo, hi = p.Phases[0].From.Pos, p.Phases[0].From.Pos
	note := func(x float64) {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	for i := range p.Phases {
		ph := &p.Phases[i]
		note(integrate(ph.From, ph.Jerk, ph.Duration).Pos)
		for _, t := range velocityZeros(ph) {
			if t > 0 && t < ph.Duration {
				note(integrate(ph.From, ph.Jerk, t).Pos)
			}
		}
	}
	note(p.End.Pos)
	return lo, hi
}

// velocityZeros returns the roots of v(t) = 0 within a phase, where
// v(t) = v0 + a0 t + j t²/2.
func velocityZeros(ph *Phase) []float64 {
	v0, a0, j := ph.From.Vel, ph.From.Acc, ph.Jerk
	if j == 0 {
		if a0 == 0 {
			return nil
		}
		return []float64{-v0 / a0}
	}
	// Quadratic (j/2) t² + a0 t + v0 = 0.
	disc := a0*a0 - 2*j*v0
	if disc < 0 {
		return nil
	}
	r := math.Sqrt(disc)
	return []float64{(-a0 - r) / j, (-a0 + r) / j}
}

// builder accumulates phases, threading the kinematic state through them.
type builder struct {
	prof Profile
	cur  State
}

func newBuilder(start State) *builder {
	return &builder{cur: start}
}

// phase appends a constant-jerk phase of duration t. Degenerate durations
// are skipped so profiles stay at most seven phases.
func (b *builder) phase(j, t float64) {
	if t < 0 {
		t = 0
	}
	if t <= timeEpsilon {
		return
	}
	b.prof.Phases = append(b.prof.Phases, Phase{Duration: t, Jerk: j, From: b.cur})
	b.cur = integrate(b.cur, j, t)
}

// build finalises the profile. end, when non-nil, replaces the integrated
// final state to absorb the residual of the numeric solve.
func (b *builder) build(end *State) Profile {
	if end != nil {
		b.prof.End = *end
	} else {
		b.prof.End = b.cur
	}
	return b.prof
}

const (
	// timeEpsilon is the duration below which a phase is dropped entirely.
	timeEpsilon = 1e-12
	// stateEpsilon is the tolerance for treating two kinematic values as equal.
	stateEpsilon = 1e-9
)

// Rest returns a profile that holds start at rest (or constant velocity) for
// exactly d seconds.
func Rest(start State, d float64) Profile {
	b := newBuilder(start)
	b.phase(0, d)
	return b.build(nil)
}
