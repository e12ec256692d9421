package ontolstm

import (
	"github.com/gonum/blas"
	"github.com/gonum/blas/blas64"
	"github.com/gonum/floats"
)

// Combiner collapses the hypernym attention grid and the sense distribution
// of one sample-timestep into a joint distribution over (sense, hyp) cells
// and the attention-weighted average embedding.
type Combiner struct {
	NumSenses    int
	NumHyps      int
	EmbeddingDim int
}

// Combine renormalizes hypAttn within each sense to p(hyp|sense), multiplies
// in senseProbs to form the joint distribution, and writes it to joint
// (length senses*hyps). The weighted average embedding goes to xEff (length
// EmbeddingDim). Masked cells contribute neither attention nor embedding
// mass; over valid cells the joint distribution sums to 1 up to the
// epsilon-bounded normalization error, and to 0 for a fully masked step.
func (cb Combiner) Combine(emb blas64.General, valid []bool, senseProbs, hypAttn, joint, xEff []float64) {
	for s := 0; s < cb.NumSenses; s++ {
		row := hypAttn[s*cb.NumHyps : (s+1)*cb.NumHyps]
		scale := senseProbs[s] / (floats.Sum(row) + normEpsilon)
		for h := 0; h < cb.NumHyps; h++ {
			i := s*cb.NumHyps + h
			if valid[i] {
				joint[i] = hypAttn[i] * scale
			} else {
				joint[i] = 0
			}
		}
	}
	// xEff = emb^T * joint. Zero joint entries stand in for masking the
	// embeddings themselves.
	blas64.Gemv(blas.Trans, 1, emb,
		blas64.Vector{Inc: 1, Data: joint}, 0,
		blas64.Vector{Inc: 1, Data: xEff})
}
