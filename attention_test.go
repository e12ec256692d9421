package ontolstm

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gonum/blas/blas64"
	"github.com/gonum/floats"
)

func randGrid(cells, dim int) blas64.General {
	g := blas64.General{Rows: cells, Cols: dim, Stride: dim, Data: make([]float64, cells*dim)}
	for i := range g.Data {
		g.Data[i] = rand.NormFloat64()
	}
	return g
}

func allValid(n int) []bool {
	v := make([]bool, n)
	for i := range v {
		v[i] = true
	}
	return v
}

func TestUniformAttention(t *testing.T) {
	emb := randGrid(3, 2)
	valid := []bool{true, false, true}
	dst := make([]float64, 3)
	UniformAttention{}.Weights(emb, valid, nil, dst)
	want := []float64{1, 0, 1}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %f, want %f", i, dst[i], want[i])
		}
	}
}

func TestLearnedAttentionSoftmax(t *testing.T) {
	rand.Seed(3)
	const (
		senses = 2
		hyps   = 3
		embDim = 4
		outDim = 5
	)
	a := NewLearnedAttention(embDim, outDim)
	for i := range a.InputProjector.Data {
		a.InputProjector.Data[i] = rand.NormFloat64()
	}
	for i := range a.ContextProjector.Data {
		a.ContextProjector.Data[i] = rand.NormFloat64()
	}
	for i := range a.Scorer {
		a.Scorer[i] = rand.NormFloat64()
	}

	emb := randGrid(senses*hyps, embDim)
	h := make([]float64, outDim)
	for i := range h {
		h[i] = rand.NormFloat64()
	}
	valid := allValid(senses * hyps)
	valid[4] = false

	dst := make([]float64, senses*hyps)
	a.Weights(emb, valid, h, dst)

	if dst[4] != 0 {
		t.Errorf("masked cell has weight %f", dst[4])
	}
	if sum := floats.Sum(dst); math.Abs(sum-1) > 1e-9 {
		t.Errorf("softmax sum: %.12f, want 1", sum)
	}
	for i, v := range dst {
		if valid[i] && v <= 0 {
			t.Errorf("valid cell %d holds non-positive weight %f", i, v)
		}
	}
}

func TestLearnedAttentionAgainstHandComputation(t *testing.T) {
	// One sense, two hyps, so the softmax is a two-way comparison we can
	// compute by hand.
	const (
		embDim = 2
		outDim = 2
	)
	a := NewLearnedAttention(embDim, outDim)
	copy(a.InputProjector.Data, []float64{
		1, 0,
		0, 1,
	})
	copy(a.ContextProjector.Data, []float64{
		0.5, 0,
		0, 0.5,
	})
	copy(a.Scorer, []float64{1, -1})

	emb := blas64.General{Rows: 2, Cols: embDim, Stride: embDim,
		Data: []float64{0.2, -0.3, -0.1, 0.4}}
	h := []float64{0.6, -0.2}

	score := func(e []float64) float64 {
		var s float64
		proj := []float64{e[0] + 0.5*h[0], e[1] + 0.5*h[1]}
		s += Sigmoid(proj[0]) * 1
		s += Sigmoid(proj[1]) * -1
		return s
	}
	s0 := score([]float64{0.2, -0.3})
	s1 := score([]float64{-0.1, 0.4})
	max := math.Max(s0, s1)
	e0 := math.Exp(s0 - max)
	e1 := math.Exp(s1 - max)
	want := []float64{e0 / (e0 + e1), e1 / (e0 + e1)}

	dst := make([]float64, 2)
	a.Weights(emb, allValid(2), h, dst)
	if !floats.EqualApprox(dst, want, 1e-12) {
		t.Errorf("weights: %v, want %v", dst, want)
	}
}

func TestLearnedAttentionAllMasked(t *testing.T) {
	a := NewLearnedAttention(2, 2)
	emb := randGrid(4, 2)
	dst := []float64{1, 2, 3, 4}
	a.Weights(emb, make([]bool, 4), []float64{0, 0}, dst)
	for i, v := range dst {
		if v != 0 {
			t.Errorf("dst[%d] = %f, want 0", i, v)
		}
	}
}
