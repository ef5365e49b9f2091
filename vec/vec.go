// Package vec defines the per-axis numeric container contract consumed by the
// trajectory engine, together with two implementations: a plain slice-backed
// vector and an adapter for gonum's dense vector type.
//
// The engine is parametric over this contract only; any indexable, sized,
// equality-comparable sequence of float64 works, without the engine depending
// on a particular linear-algebra library.
package vec

// Vector is the capability contract for a per-axis value container.
type Vector interface {
	// At returns the value for axis i.
	At(i int) float64
	// Set stores v as the value for axis i.
	Set(i int, v float64)
	// Len returns the number of axes.
	Len() int
}

// Slice is the default Vector implementation, a plain float64 slice.
type Slice []float64

func (s Slice) At(i int) float64     { return s[i] }
func (s Slice) Set(i int, v float64) { s[i] = v }
func (s Slice) Len() int             { return len(s) }

// Of constructs a Slice from a literal sequence of per-axis values.
func Of(values ...float64) Slice {
	out := make(Slice, len(values))
	copy(out, values)
	return out
}

// Zeros constructs a zero-valued Slice of length n.
func Zeros(n int) Slice {
	return make(Slice, n)
}

// Equal reports whether a and b have the same length and identical values.
// Either argument may be nil; two nil vectors compare equal.
func Equal(a, b Vector) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != b.At(i) {
			return false
		}
	}
	return true
}

// Copy copies src into dst. Both must have the same length.
func Copy(dst, src Vector) {
	for i := 0; i < src.Len(); i++ {
		dst.Set(i, src.At(i))
	}
}

// Clone returns a Slice copy of v, or nil if v is nil.
func Clone(v Vector) Vector {
	if v == nil {
		return nil
	}
	out := make(Slice, v.Len())
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}
