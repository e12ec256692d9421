package ontolstm

import (
	"math"
)

// normEpsilon guards the attention normalizations against division by zero
// when every score in a group is masked out.
const normEpsilon = 1e-7

// An Activation is a pointwise nonlinearity applied to gate or candidate
// pre-activations.
type Activation func(float64) float64

func Sigmoid(x float64) float64 {
	return 1.0 / (1 + math.Exp(-x))
}

func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// HardSigmoid is the piecewise-linear sigmoid approximation 0.2*x + 0.5,
// clipped to [0, 1].
func HardSigmoid(x float64) float64 {
	y := 0.2*x + 0.5
	if y < 0 {
		return 0
	}
	if y > 1 {
		return 1
	}
	return y
}

func Linear(x float64) float64 {
	return x
}

func ReLU(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

func activationByName(name string) (Activation, bool) {
	switch name {
	case "tanh":
		return Tanh, true
	case "sigmoid":
		return Sigmoid, true
	case "hard_sigmoid":
		return HardSigmoid, true
	case "relu":
		return ReLU, true
	case "linear":
		return Linear, true
	}
	return nil, false
}

func MakeTensor2(n, m int) [][]float64 {
	t := make([][]float64, n)
	for i := 0; i < len(t); i++ {
		t[i] = make([]float64, m)
	}
	return t
}

func MakeTensor3(n, m, p int) [][][]float64 {
	t := make([][][]float64, n)
	for i := 0; i < len(t); i++ {
		t[i] = MakeTensor2(m, p)
	}
	return t
}
