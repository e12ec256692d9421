// Package disambig generates synthetic sense-separated hypernym hierarchies
// for exercising the ontolstm layer.
package disambig

import (
	"math/rand"
)

// GenBatch builds a random hierarchical input batch of shape
// (batch, steps, senses, hyps, embDim+1) plus a matching mask. Each step
// draws one sense-prior lambda from (0, 1] and replicates it across the
// step's grid, as the layer expects. Every slot is unmasked with probability
// keepProb, except slot (0, 0) of each step which is always kept so no step
// is entirely invalid.
func GenBatch(batch, steps, senses, hyps, embDim int, keepProb float64) ([][][][][]float64, [][][][]bool) {
	x := make([][][][][]float64, batch)
	mask := make([][][][]bool, batch)
	for b := 0; b < batch; b++ {
		x[b] = make([][][][]float64, steps)
		mask[b] = make([][][]bool, steps)
		for t := 0; t < steps; t++ {
			lambda := 1 - rand.Float64()
			x[b][t] = make([][][]float64, senses)
			mask[b][t] = make([][]bool, senses)
			for s := 0; s < senses; s++ {
				x[b][t][s] = make([][]float64, hyps)
				mask[b][t][s] = make([]bool, hyps)
				for h := 0; h < hyps; h++ {
					slot := make([]float64, embDim+1)
					for d := 0; d < embDim; d++ {
						slot[d] = rand.NormFloat64()
					}
					slot[embDim] = lambda
					x[b][t][s][h] = slot
					mask[b][t][s][h] = (s == 0 && h == 0) || rand.Float64() < keepProb
				}
			}
		}
	}
	return x, mask
}
