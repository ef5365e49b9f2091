package vec

import "gonum.org/v1/gonum/mat"

// Dense adapts a gonum *mat.VecDense to the Vector contract, so callers
// already working in gonum can hand their vectors to the engine directly.
type Dense struct {
	V *mat.VecDense
}

// FromDense wraps v. The wrapper shares v's backing storage.
func FromDense(v *mat.VecDense) Dense {
	return Dense{V: v}
}

// NewDense constructs a Dense of length n backed by a fresh gonum vector.
func NewDense(n int, data []float64) Dense {
	return Dense{V: mat.NewVecDense(n, data)}
}

func (d Dense) At(i int) float64     { return d.V.AtVec(i) }
func (d Dense) Set(i int, v float64) { d.V.SetVec(i, v) }
func (d Dense) Len() int             { return d.V.Len() }
