package ontolstm

import (
	"math"

	"github.com/gonum/blas"
	"github.com/gonum/blas/blas64"
)

// HypAttention scores the hypernym slots of one sample-timestep. The two
// implementations are the learned, context-conditioned attention and the
// uniform fallback; they are interchangeable below the combiner.
type HypAttention interface {
	// Weights fills dst (length senses*hyps) with raw, pre-renormalization
	// attention weights. emb is the flattened (senses*hyps) x embeddingDim
	// grid of hypernym embeddings, valid marks unmasked cells, and hPrev is
	// the hidden state from the previous timestep. Masked cells receive
	// exactly zero weight.
	Weights(emb blas64.General, valid []bool, hPrev, dst []float64)
}

// UniformAttention gives every valid hypernym slot equal weight. It has no
// parameters and ignores the hidden state, degenerating the combiner into an
// unweighted average over the hierarchy.
type UniformAttention struct{}

func (UniformAttention) Weights(emb blas64.General, valid []bool, hPrev, dst []float64) {
	for i := 0; i < emb.Rows; i++ {
		if valid[i] {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
}

// LearnedAttention scores each hypernym embedding against the previous
// hidden state: both are projected into a shared space, added, squashed with
// a sigmoid, and reduced to a scalar with the scorer vector. The scores
// compete in a single softmax over the whole flattened (sense, hyp) grid, so
// senses and hypernym levels are traded off jointly rather than per sense.
type LearnedAttention struct {
	// InputProjector is embeddingDim x outputDim.
	InputProjector blas64.General
	// ContextProjector is outputDim x outputDim.
	ContextProjector blas64.General
	// Scorer has length outputDim.
	Scorer []float64
}

// NewLearnedAttention allocates zero-valued parameters of the right shapes.
func NewLearnedAttention(embeddingDim, outputDim int) *LearnedAttention {
	return &LearnedAttention{
		InputProjector: blas64.General{
			Rows:   embeddingDim,
			Cols:   outputDim,
			Stride: outputDim,
			Data:   make([]float64, embeddingDim*outputDim),
		},
		ContextProjector: blas64.General{
			Rows:   outputDim,
			Cols:   outputDim,
			Stride: outputDim,
			Data:   make([]float64, outputDim*outputDim),
		},
		Scorer: make([]float64, outputDim),
	}
}

func (a *LearnedAttention) Weights(emb blas64.General, valid []bool, hPrev, dst []float64) {
	cells := emb.Rows
	dim := a.InputProjector.Cols

	proj := blas64.General{
		Rows:   cells,
		Cols:   dim,
		Stride: dim,
		Data:   make([]float64, cells*dim),
	}
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, emb, a.InputProjector, 0, proj)

	// Context projection of the previous hidden state, broadcast-added to
	// every cell's projection below.
	ctx := make([]float64, dim)
	blas64.Gemv(blas.Trans, 1, a.ContextProjector,
		blas64.Vector{Inc: 1, Data: hPrev}, 0,
		blas64.Vector{Inc: 1, Data: ctx})

	scorer := blas64.Vector{Inc: 1, Data: a.Scorer}
	max := math.Inf(-1)
	nvalid := 0
	for i := 0; i < cells; i++ {
		if !valid[i] {
			dst[i] = 0
			continue
		}
		row := proj.Data[i*proj.Stride : i*proj.Stride+dim]
		for j := range row {
			row[j] = Sigmoid(row[j] + ctx[j])
		}
		dst[i] = blas64.Dot(dim, blas64.Vector{Inc: 1, Data: row}, scorer)
		if dst[i] > max {
			max = dst[i]
		}
		nvalid++
	}
	if nvalid == 0 {
		return
	}

	// Softmax over valid cells only, with the usual max subtraction for
	// numerical stability. Masked cells stay at exactly zero.
	var sum float64
	for i := 0; i < cells; i++ {
		if !valid[i] {
			continue
		}
		dst[i] = math.Exp(dst[i] - max)
		sum += dst[i]
	}
	for i := 0; i < cells; i++ {
		if valid[i] {
			dst[i] /= sum
		}
	}
}
