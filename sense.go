package ontolstm

import (
	"math"

	"github.com/gonum/floats"
)

// SenseProbs turns the per-timestep sense-prior parameter lambda into a
// probability distribution over sense ranks. The raw score of sense k is the
// exponential density lambda * exp(-lambda*k), so larger lambdas concentrate
// mass on lower-ranked (more common) senses.
//
// Lambda is not validated: for lambda == 0 every score is zero and the
// epsilon-guarded normalization returns an all-zero distribution; for
// lambda < 0 the scores grow with k instead of decaying.
type SenseProbs struct {
	NumSenses int
}

// Distribution writes the sense distribution for one sample into dst.
// senseValid[k] reports whether sense k has at least one unmasked hypernym
// slot; invalid senses get zero mass. A nil senseValid means all senses are
// valid. The distribution sums to 1 over valid senses, or to 0 when every
// sense is masked (or every score is zero).
func (sp SenseProbs) Distribution(lambda float64, senseValid []bool, dst []float64) {
	for k := 0; k < sp.NumSenses; k++ {
		if senseValid != nil && !senseValid[k] {
			dst[k] = 0
			continue
		}
		dst[k] = lambda * math.Exp(-lambda*float64(k))
	}
	sum := floats.Sum(dst[:sp.NumSenses])
	floats.Scale(1/(sum+normEpsilon), dst[:sp.NumSenses])
}
