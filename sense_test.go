package ontolstm

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestSenseProbsDecreasing(t *testing.T) {
	sp := SenseProbs{NumSenses: 3}
	p := make([]float64, 3)
	sp.Distribution(1.0, nil, p)

	sum := floats.Sum(p)
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("sum: %f, want 1", sum)
	}
	for k := 1; k < 3; k++ {
		if !(p[k] < p[k-1]) {
			t.Errorf("p[%d] = %f not less than p[%d] = %f", k, p[k], k-1, p[k-1])
		}
	}

	// Against the density normalized by hand.
	scores := []float64{1 * math.Exp(0), 1 * math.Exp(-1), 1 * math.Exp(-2)}
	z := floats.Sum(scores) + normEpsilon
	for k := range scores {
		want := scores[k] / z
		if math.Abs(p[k]-want) > 1e-9 {
			t.Errorf("p[%d] = %.12f, want %.12f", k, p[k], want)
		}
	}
}

func TestSenseProbsMasked(t *testing.T) {
	sp := SenseProbs{NumSenses: 3}
	p := make([]float64, 3)
	sp.Distribution(0.7, []bool{true, false, true}, p)

	if p[1] != 0 {
		t.Errorf("masked sense has mass %f", p[1])
	}
	if sum := floats.Sum(p); math.Abs(sum-1) > 1e-6 {
		t.Errorf("sum over valid senses: %f, want 1", sum)
	}
	// Mass redistributes onto the remaining senses.
	s0 := 0.7
	s2 := 0.7 * math.Exp(-1.4)
	want0 := s0 / (s0 + s2 + normEpsilon)
	if math.Abs(p[0]-want0) > 1e-9 {
		t.Errorf("p[0] = %.12f, want %.12f", p[0], want0)
	}
}

func TestSenseProbsAllMasked(t *testing.T) {
	sp := SenseProbs{NumSenses: 2}
	p := []float64{3, 7}
	sp.Distribution(1.0, []bool{false, false}, p)
	for k, v := range p {
		if v != 0 {
			t.Errorf("p[%d] = %f, want 0", k, v)
		}
	}
}

func TestSenseProbsZeroLambda(t *testing.T) {
	sp := SenseProbs{NumSenses: 3}
	p := make([]float64, 3)
	sp.Distribution(0, nil, p)
	for k, v := range p {
		if v != 0 {
			t.Errorf("p[%d] = %f, want 0 for lambda = 0", k, v)
		}
		if math.IsNaN(v) {
			t.Fatalf("p[%d] is NaN", k)
		}
	}
}

func TestSenseProbsNegativeLambda(t *testing.T) {
	// Not rejected: scores grow with rank instead of decaying, but the
	// result is still a normalized, NaN-free distribution.
	sp := SenseProbs{NumSenses: 3}
	p := make([]float64, 3)
	sp.Distribution(-0.5, nil, p)
	if sum := floats.Sum(p); math.Abs(sum-1) > 1e-6 {
		t.Errorf("sum: %f, want 1", sum)
	}
	for k := 1; k < 3; k++ {
		if !(p[k] > p[k-1]) {
			t.Errorf("expected increasing mass for negative lambda, got %v", p)
		}
	}
}
