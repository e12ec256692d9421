package ontolstm

import (
	"encoding/json"
	"fmt"
	"os"
)

// NumWeights returns the number of learned parameters: the cell's, plus the
// attention parameters when the learned variant is configured.
func (l *Layer) NumWeights() int {
	n := len(l.cell.Wx.Data) + len(l.cell.Wh.Data) + len(l.cell.B)
	if a, ok := l.attn.(*LearnedAttention); ok {
		n += len(a.InputProjector.Data) + len(a.ContextProjector.Data) + len(a.Scorer)
	}
	return n
}

// WeightsVal returns a copy of all learned parameters flattened in a fixed
// order: cell input weights, cell recurrent weights, cell bias, then (for
// learned attention) input projector, context projector, scorer.
func (l *Layer) WeightsVal() []float64 {
	w := make([]float64, 0, l.NumWeights())
	w = append(w, l.cell.Wx.Data...)
	w = append(w, l.cell.Wh.Data...)
	w = append(w, l.cell.B...)
	if a, ok := l.attn.(*LearnedAttention); ok {
		w = append(w, a.InputProjector.Data...)
		w = append(w, a.ContextProjector.Data...)
		w = append(w, a.Scorer...)
	}
	return w
}

// SetWeightsVal installs externally supplied parameters. The slice must have
// exactly NumWeights entries, laid out as in WeightsVal.
func (l *Layer) SetWeightsVal(w []float64) error {
	if len(w) != l.NumWeights() {
		return fmt.Errorf("ontolstm: got %d weights, layer has %d", len(w), l.NumWeights())
	}
	w = w[copy(l.cell.Wx.Data, w):]
	w = w[copy(l.cell.Wh.Data, w):]
	w = w[copy(l.cell.B, w):]
	if a, ok := l.attn.(*LearnedAttention); ok {
		w = w[copy(a.InputProjector.Data, w):]
		w = w[copy(a.ContextProjector.Data, w):]
		copy(a.Scorer, w)
	}
	return nil
}

// SaveWeights writes the flattened parameters to path as JSON.
func (l *Layer) SaveWeights(path string) error {
	b, err := json.Marshal(l.WeightsVal())
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// LoadWeights reads JSON-encoded parameters from path and installs them.
func (l *Layer) LoadWeights(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var w []float64
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("ontolstm: decoding weights from %s: %v", path, err)
	}
	return l.SetWeightsVal(w)
}
