package profile

import "errors"

// Sentinel errors of the solver. The engine maps these onto its result codes
// at the control-loop boundary; they never cross it as panics.
var (
	// ErrInvalidInput marks a malformed boundary-value problem: limits with
	// the wrong sign, boundary states outside the limits, or a zero jerk
	// bound with a required acceleration change.
	ErrInvalidInput = errors.New("profile: invalid input")

	// ErrUnreachable marks a boundary-value problem with no feasible
	// jerk-limited profile.
	ErrUnreachable = errors.New("profile: target unreachable within limits")

	// ErrStretch marks a profile that cannot be extended to the requested
	// block duration without violating its limits.
	ErrStretch = errors.New("profile: cannot stretch to requested duration")

	// ErrInterrupted marks an exhausted computation budget.
	ErrInterrupted = errors.New("profile: calculation budget exhausted")
)

// Budget is a deterministic computation allowance shared across one
// recalculation. One tick accounts for one solver iteration, costed at one
// nominal microsecond, so the worst-case latency of a recalculation is a
// fixed function of the budget rather than of wall time. A nil Budget is
// unlimited.
type Budget struct {
	remaining float64
}

// NewBudget returns a budget of us accounted microseconds. Non-positive
// values mean unlimited and return nil.
func NewBudget(us float64) *Budget {
	if us <= 0 {
		return nil
	}
	return &Budget{remaining: us}
}

// Tick consumes one accounted microsecond. It returns ErrInterrupted once
// the budget is exhausted.
func (b *Budget) Tick() error {
	if b == nil {
		return nil
	}
	if b.remaining <= 0 {
		return ErrInterrupted
	}
	b.remaining--
	return nil
}
