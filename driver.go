package ontolstm

import (
	"github.com/gonum/blas/blas64"
)

// A MaskProjection reduces one timestep's (senses x hyps) mask to a single
// validity flag for the collapsed output. It is injectable because the
// output's rank differs from the input's and callers may want a different
// reduction over the eliminated axes.
type MaskProjection func(step [][]bool) bool

// AnyValid is the default projection: a timestep is valid in the output if
// any of its hypernym slots is unmasked.
func AnyValid(step [][]bool) bool {
	for _, row := range step {
		for _, ok := range row {
			if ok {
				return true
			}
		}
	}
	return false
}

// Result carries the outputs of one forward pass. Hidden or Sequence is set
// in hidden-output mode, Attention or AttentionSeq when the driver is
// configured to emit the joint attention grids; the pair member used depends
// on ReturnSequences. OutputMask is set only in sequence mode with a mask
// supplied.
type Result struct {
	Hidden       [][]float64     // batch x outputDim, last emitted step
	Sequence     [][][]float64   // batch x time x outputDim
	Attention    [][][]float64   // batch x senses x hyps, last emitted step
	AttentionSeq [][][][]float64 // batch x time x senses x hyps
	OutputMask   [][]bool        // batch x time
}

// SequenceDriver owns the scan over timesteps: it threads (hidden, cell)
// state through time, runs the sense/hypernym collapse and the cell update
// at each step, projects the fine-grained mask down to the output's rank,
// and assembles the configured outputs.
//
// Outputs are emitted in processing order, so with Backwards set the
// sequence output runs from the last input timestep to the first.
type SequenceDriver struct {
	NumSenses    int
	NumHyps      int
	EmbeddingDim int
	OutputDim    int

	Backwards       bool
	Unroll          bool
	ReturnSequences bool
	ReturnAttention bool
	Project         MaskProjection

	Sense SenseProbs
	Attn  HypAttention
	Comb  Combiner
	Cell  Cell
}

// stepInput is one timestep's slice of the hierarchical input, flattened for
// the attention pipeline.
type stepInput struct {
	emb    blas64.General // (senses*hyps) x embeddingDim
	lambda float64
	valid  []bool // senses*hyps
	sense  []bool // per-sense: any valid hyp
	ok     bool   // projected output validity
}

func (d *SequenceDriver) extract(x [][][]float64, mask [][]bool, dst *stepInput) {
	for s := 0; s < d.NumSenses; s++ {
		anyHyp := false
		for h := 0; h < d.NumHyps; h++ {
			i := s*d.NumHyps + h
			copy(dst.emb.Data[i*dst.emb.Stride:i*dst.emb.Stride+d.EmbeddingDim], x[s][h])
			ok := mask == nil || mask[s][h]
			dst.valid[i] = ok
			anyHyp = anyHyp || ok
		}
		dst.sense[s] = anyHyp
	}
	// The sense-prior parameter is replicated across the grid; slot (0, 0)
	// is the canonical copy.
	dst.lambda = x[0][0][d.EmbeddingDim]
	if mask == nil {
		dst.ok = true
	} else {
		dst.ok = d.Project(mask)
	}
}

func newStepInput(numSenses, numHyps, embeddingDim int) *stepInput {
	cells := numSenses * numHyps
	return &stepInput{
		emb: blas64.General{
			Rows:   cells,
			Cols:   embeddingDim,
			Stride: embeddingDim,
			Data:   make([]float64, cells*embeddingDim),
		},
		valid: make([]bool, cells),
		sense: make([]bool, numSenses),
	}
}

// Run scans the batch. h0 and c0 are the initial states, one pair of
// outputDim vectors per sample; they are read but not written. The final
// states are returned alongside the result so the caller can implement
// stateful carry-over.
func (d *SequenceDriver) Run(x [][][][][]float64, mask [][][][]bool, h0, c0 [][]float64) (*Result, [][]float64, [][]float64) {
	batch := len(x)
	steps := 0
	if batch > 0 {
		steps = len(x[0])
	}
	cells := d.NumSenses * d.NumHyps

	res := &Result{}
	if d.ReturnAttention {
		if d.ReturnSequences {
			res.AttentionSeq = make([][][][]float64, batch)
		} else {
			res.Attention = make([][][]float64, batch)
		}
	} else {
		if d.ReturnSequences {
			res.Sequence = make([][][]float64, batch)
		} else {
			res.Hidden = MakeTensor2(batch, d.OutputDim)
		}
	}
	if d.ReturnSequences && mask != nil {
		res.OutputMask = make([][]bool, batch)
	}

	hFinal := MakeTensor2(batch, d.OutputDim)
	cFinal := MakeTensor2(batch, d.OutputDim)

	senseProbs := make([]float64, d.NumSenses)
	hypAttn := make([]float64, cells)
	joint := make([]float64, cells)
	xEff := make([]float64, d.EmbeddingDim)

	for b := 0; b < batch; b++ {
		h := hFinal[b]
		c := cFinal[b]
		copy(h, h0[b])
		copy(c, c0[b])
		hNext := make([]float64, d.OutputDim)
		cNext := make([]float64, d.OutputDim)

		var inputs []*stepInput
		scratch := newStepInput(d.NumSenses, d.NumHyps, d.EmbeddingDim)
		if d.Unroll {
			// Unrolled iteration extracts every timestep slice up front;
			// dynamic iteration reuses one scratch slice. The step
			// computation is shared, so both produce identical results.
			inputs = make([]*stepInput, steps)
			for t := 0; t < steps; t++ {
				inputs[t] = newStepInput(d.NumSenses, d.NumHyps, d.EmbeddingDim)
				d.extract(x[b][t], maskStep(mask, b, t), inputs[t])
			}
		}

		if d.ReturnSequences {
			if d.ReturnAttention {
				res.AttentionSeq[b] = make([][][]float64, steps)
			} else {
				res.Sequence[b] = MakeTensor2(steps, d.OutputDim)
			}
			if mask != nil {
				res.OutputMask[b] = make([]bool, steps)
			}
		}

		for i := 0; i < steps; i++ {
			t := i
			if d.Backwards {
				t = steps - 1 - i
			}
			in := scratch
			if d.Unroll {
				in = inputs[t]
			} else {
				d.extract(x[b][t], maskStep(mask, b, t), in)
			}

			if in.ok {
				d.Sense.Distribution(in.lambda, in.sense, senseProbs)
				d.Attn.Weights(in.emb, in.valid, h, hypAttn)
				d.Comb.Combine(in.emb, in.valid, senseProbs, hypAttn, joint, xEff)
				d.Cell.Step(xEff, h, c, hNext, cNext)
				h, hNext = hNext, h
				c, cNext = cNext, c
			} else {
				// Fully masked step: the state does not advance and the
				// joint attention carries no mass.
				for j := range joint {
					joint[j] = 0
				}
			}

			if d.ReturnSequences {
				if d.ReturnAttention {
					res.AttentionSeq[b][i] = reshapeGrid(joint, d.NumSenses, d.NumHyps)
				} else {
					copy(res.Sequence[b][i], h)
				}
				if mask != nil {
					res.OutputMask[b][i] = in.ok
				}
			} else if i == steps-1 {
				if d.ReturnAttention {
					res.Attention[b] = reshapeGrid(joint, d.NumSenses, d.NumHyps)
				} else {
					copy(res.Hidden[b], h)
				}
			}
		}

		copy(hFinal[b], h)
		copy(cFinal[b], c)
	}

	return res, hFinal, cFinal
}

func maskStep(mask [][][][]bool, b, t int) [][]bool {
	if mask == nil {
		return nil
	}
	return mask[b][t]
}

func reshapeGrid(joint []float64, numSenses, numHyps int) [][]float64 {
	grid := MakeTensor2(numSenses, numHyps)
	for s := 0; s < numSenses; s++ {
		copy(grid[s], joint[s*numHyps:(s+1)*numHyps])
	}
	return grid
}
