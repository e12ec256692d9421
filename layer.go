package ontolstm

import (
	"fmt"
)

// Config describes a layer. The yaml tags let run tools load it from a
// config file; the zero value of each optional flag picks the conventional
// default.
type Config struct {
	OutputDim    int `yaml:"output_dim" json:"output_dim"`
	NumSenses    int `yaml:"num_senses" json:"num_senses"`
	NumHyps      int `yaml:"num_hyps" json:"num_hyps"`
	EmbeddingDim int `yaml:"embedding_dim" json:"embedding_dim"`

	// UseAttention selects the learned hypernym attention; without it every
	// valid slot is weighted uniformly and no attention parameters exist.
	UseAttention bool `yaml:"use_attention" json:"use_attention"`
	// ReturnAttention emits the joint attention grids instead of hidden
	// vectors. Meant for inspection, not for feeding downstream layers.
	ReturnAttention bool `yaml:"return_attention" json:"return_attention"`
	ReturnSequences bool `yaml:"return_sequences" json:"return_sequences"`
	Backwards       bool `yaml:"backwards" json:"backwards"`
	Stateful        bool `yaml:"stateful" json:"stateful"`
	Unroll          bool `yaml:"unroll" json:"unroll"`

	// PrecomputeGates asks for the mode where gate inputs are computed for
	// all timesteps ahead of the scan. The sense/hypernym collapse makes
	// each step's input depend on the previous hidden state, so the mode
	// cannot be honored; Validate downgrades it with a diagnostic.
	PrecomputeGates bool `yaml:"precompute_gates" json:"precompute_gates"`

	// GateActivation and InnerActivation name the cell's nonlinearities;
	// empty means sigmoid gates and tanh elsewhere.
	GateActivation  string `yaml:"gate_activation" json:"gate_activation"`
	InnerActivation string `yaml:"inner_activation" json:"inner_activation"`
	// Bias disables the cell's bias vector when explicitly set to false.
	Bias *bool `yaml:"bias" json:"bias"`
}

// Validate checks the configuration, returning an adjusted copy plus
// diagnostics for every non-fatal downgrade performed. Fatal problems are
// returned as an error instead.
func (cfg Config) Validate() (Config, []string, error) {
	if cfg.OutputDim <= 0 {
		return cfg, nil, fmt.Errorf("ontolstm: output_dim must be positive, got %d", cfg.OutputDim)
	}
	if cfg.NumSenses <= 0 || cfg.NumHyps <= 0 {
		return cfg, nil, fmt.Errorf("ontolstm: num_senses and num_hyps must be positive, got %d and %d",
			cfg.NumSenses, cfg.NumHyps)
	}
	if cfg.EmbeddingDim <= 0 {
		return cfg, nil, fmt.Errorf("ontolstm: embedding_dim must be positive, got %d", cfg.EmbeddingDim)
	}
	var diags []string
	if cfg.PrecomputeGates {
		diags = append(diags, "precompute_gates is unsupported: gate inputs depend on the previous hidden state; running step-by-step instead")
		cfg.PrecomputeGates = false
	}
	if cfg.GateActivation == "" {
		cfg.GateActivation = "sigmoid"
	}
	if cfg.InnerActivation == "" {
		cfg.InnerActivation = "tanh"
	}
	if _, ok := activationByName(cfg.GateActivation); !ok {
		return cfg, diags, fmt.Errorf("ontolstm: unknown gate activation %q", cfg.GateActivation)
	}
	if _, ok := activationByName(cfg.InnerActivation); !ok {
		return cfg, diags, fmt.Errorf("ontolstm: unknown inner activation %q", cfg.InnerActivation)
	}
	return cfg, diags, nil
}

// Layer is the ontology-aware recurrent layer: a sense/hypernym attention
// collapse feeding a gated recurrent cell, scanned over time.
type Layer struct {
	cfg    Config
	attn   HypAttention
	cell   *LSTMCell
	driver SequenceDriver

	// Stateful carry; nil until the first stateful pass completes.
	h, c [][]float64
}

// NewLayer validates cfg and builds a layer with zero-valued parameters.
// The returned diagnostics describe configuration downgrades and should be
// surfaced to the user; they do not indicate failure.
func NewLayer(cfg Config) (*Layer, []string, error) {
	cfg, diags, err := cfg.Validate()
	if err != nil {
		return nil, diags, err
	}

	var attn HypAttention = UniformAttention{}
	if cfg.UseAttention {
		attn = NewLearnedAttention(cfg.EmbeddingDim, cfg.OutputDim)
	}

	cell := NewLSTMCell(cfg.EmbeddingDim, cfg.OutputDim)
	cell.Gate, _ = activationByName(cfg.GateActivation)
	cell.Inner, _ = activationByName(cfg.InnerActivation)
	if cfg.Bias != nil {
		cell.UseBias = *cfg.Bias
	}

	l := &Layer{
		cfg:  cfg,
		attn: attn,
		cell: cell,
		driver: SequenceDriver{
			NumSenses:       cfg.NumSenses,
			NumHyps:         cfg.NumHyps,
			EmbeddingDim:    cfg.EmbeddingDim,
			OutputDim:       cfg.OutputDim,
			Backwards:       cfg.Backwards,
			Unroll:          cfg.Unroll,
			ReturnSequences: cfg.ReturnSequences,
			ReturnAttention: cfg.ReturnAttention,
			Project:         AnyValid,
			Sense:           SenseProbs{NumSenses: cfg.NumSenses},
			Attn:            attn,
			Comb: Combiner{
				NumSenses:    cfg.NumSenses,
				NumHyps:      cfg.NumHyps,
				EmbeddingDim: cfg.EmbeddingDim,
			},
			Cell: cell,
		},
	}
	return l, diags, nil
}

// Config returns the layer's validated configuration.
func (l *Layer) Config() Config {
	return l.cfg
}

// Cell exposes the wrapped recurrent cell.
func (l *Layer) Cell() *LSTMCell {
	return l.cell
}

// Attention exposes the hypernym attention variant; *LearnedAttention when
// UseAttention is set, UniformAttention otherwise.
func (l *Layer) Attention() HypAttention {
	return l.attn
}

// SetMaskProjection replaces the reduction used to derive per-timestep
// output validity from the fine-grained mask. The default is AnyValid.
func (l *Layer) SetMaskProjection(p MaskProjection) {
	l.driver.Project = p
}

// Forward runs one pass over a batch. x is shaped (batch, time, senses,
// hyps, embeddingDim+1), with the sense-prior parameter replicated in the
// last scalar of every slot. mask, when non-nil, is shaped (batch, time,
// senses, hyps). Shape mismatches against the configuration are reported as
// errors before any computation.
//
// In stateful mode the final (hidden, cell) state of this pass seeds the
// next one; otherwise every pass starts from zero state.
func (l *Layer) Forward(x [][][][][]float64, mask [][][][]bool) (*Result, error) {
	if err := l.checkShape(x, mask); err != nil {
		return nil, err
	}
	batch := len(x)

	h0 := l.h
	c0 := l.c
	if !l.cfg.Stateful || h0 == nil || len(h0) != batch {
		h0 = MakeTensor2(batch, l.cfg.OutputDim)
		c0 = MakeTensor2(batch, l.cfg.OutputDim)
	}

	res, hFinal, cFinal := l.driver.Run(x, mask, h0, c0)
	if l.cfg.Stateful {
		l.h = hFinal
		l.c = cFinal
	}
	return res, nil
}

// ResetStates drops the stateful carry so the next Forward starts from zero
// state. It is a no-op for stateless layers.
func (l *Layer) ResetStates() {
	l.h = nil
	l.c = nil
}

// States returns the carried (hidden, cell) state, or nil before the first
// stateful pass.
func (l *Layer) States() (h, c [][]float64) {
	return l.h, l.c
}

func (l *Layer) checkShape(x [][][][][]float64, mask [][][][]bool) error {
	for b := range x {
		if b > 0 && len(x[b]) != len(x[0]) {
			return fmt.Errorf("ontolstm: ragged time axis: sample %d has %d steps, sample 0 has %d",
				b, len(x[b]), len(x[0]))
		}
		for t := range x[b] {
			if got := len(x[b][t]); got != l.cfg.NumSenses {
				return fmt.Errorf("ontolstm: sample %d step %d has %d senses, config says %d",
					b, t, got, l.cfg.NumSenses)
			}
			for s := range x[b][t] {
				if got := len(x[b][t][s]); got != l.cfg.NumHyps {
					return fmt.Errorf("ontolstm: sample %d step %d sense %d has %d hyps, config says %d",
						b, t, s, got, l.cfg.NumHyps)
				}
				for h := range x[b][t][s] {
					if got := len(x[b][t][s][h]); got != l.cfg.EmbeddingDim+1 {
						return fmt.Errorf("ontolstm: slot vector has length %d, want embedding_dim+1 = %d",
							got, l.cfg.EmbeddingDim+1)
					}
				}
			}
		}
	}
	if mask != nil {
		if len(mask) != len(x) {
			return fmt.Errorf("ontolstm: mask batch %d does not match input batch %d", len(mask), len(x))
		}
		for b := range mask {
			if len(mask[b]) != len(x[b]) {
				return fmt.Errorf("ontolstm: mask for sample %d has %d steps, input has %d",
					b, len(mask[b]), len(x[b]))
			}
			for t := range mask[b] {
				if len(mask[b][t]) != l.cfg.NumSenses {
					return fmt.Errorf("ontolstm: mask step has %d senses, config says %d",
						len(mask[b][t]), l.cfg.NumSenses)
				}
				for s := range mask[b][t] {
					if len(mask[b][t][s]) != l.cfg.NumHyps {
						return fmt.Errorf("ontolstm: mask sense has %d hyps, config says %d",
							len(mask[b][t][s]), l.cfg.NumHyps)
					}
				}
			}
		}
	}
	return nil
}
