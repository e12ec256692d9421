package ontolstm

import (
	"github.com/gonum/blas"
	"github.com/gonum/blas/blas64"
)

// A Cell is a gated recurrent step function: a pure function of the input
// vector and the prior (hidden, cell) state. It knows nothing about senses
// or hypernyms; the attention pipeline produces its input.
type Cell interface {
	// Step writes the next state into hNext and cNext. The destination
	// slices must not alias h or c.
	Step(x, h, c, hNext, cNext []float64)
	InputDim() int
	StateDim() int
}

// LSTMCell is the standard LSTM update with input, forget and output gates.
// Gate pre-activations for one step are computed in one block: the four
// gates are stacked row-wise in Wx and Wh in the order input, forget,
// candidate, output.
type LSTMCell struct {
	// Wx is (4*stateDim) x inputDim, Wh is (4*stateDim) x stateDim.
	Wx blas64.General
	Wh blas64.General
	// B has length 4*stateDim; ignored when UseBias is false.
	B       []float64
	UseBias bool

	// Gate squashes the three gates, Inner the candidate and the outgoing
	// cell state.
	Gate  Activation
	Inner Activation
}

// NewLSTMCell allocates a zero-weight LSTM cell with the conventional
// sigmoid gates and tanh candidate activation.
func NewLSTMCell(inputDim, stateDim int) *LSTMCell {
	return &LSTMCell{
		Wx: blas64.General{
			Rows:   4 * stateDim,
			Cols:   inputDim,
			Stride: inputDim,
			Data:   make([]float64, 4*stateDim*inputDim),
		},
		Wh: blas64.General{
			Rows:   4 * stateDim,
			Cols:   stateDim,
			Stride: stateDim,
			Data:   make([]float64, 4*stateDim*stateDim),
		},
		B:       make([]float64, 4*stateDim),
		UseBias: true,
		Gate:    Sigmoid,
		Inner:   Tanh,
	}
}

func (l *LSTMCell) InputDim() int {
	return l.Wx.Cols
}

func (l *LSTMCell) StateDim() int {
	return l.Wh.Cols
}

func (l *LSTMCell) Step(x, h, c, hNext, cNext []float64) {
	n := l.StateDim()
	pre := make([]float64, 4*n)
	if l.UseBias {
		copy(pre, l.B)
	}
	pv := blas64.Vector{Inc: 1, Data: pre}
	blas64.Gemv(blas.NoTrans, 1, l.Wx, blas64.Vector{Inc: 1, Data: x}, 1, pv)
	blas64.Gemv(blas.NoTrans, 1, l.Wh, blas64.Vector{Inc: 1, Data: h}, 1, pv)

	for j := 0; j < n; j++ {
		i := l.Gate(pre[j])
		f := l.Gate(pre[n+j])
		g := l.Inner(pre[2*n+j])
		o := l.Gate(pre[3*n+j])
		cNext[j] = f*c[j] + i*g
		hNext[j] = o * l.Inner(cNext[j])
	}
}
