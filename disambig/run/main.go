package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"ontolstm"
	"ontolstm/disambig"
)

var (
	configPath  = flag.String("config", "config.yaml", "layer configuration file")
	weightsPath = flag.String("weights", "", "JSON weights to load; random init when empty")
	saveWeights = flag.String("saveweights", "", "write the (possibly random) weights here")
	outPath     = flag.String("out", "", "write run output JSON here instead of stdout")
	batch       = flag.Int("batch", 4, "batch size")
	steps       = flag.Int("steps", 8, "sequence length")
	keepProb    = flag.Float64("keep", 0.8, "probability of keeping a hypernym slot unmasked")
	seed        = flag.Int64("seed", 5, "random seed")
)

type runOutput struct {
	RunID        string          `json:"run_id"`
	Config       ontolstm.Config `json:"config"`
	Hidden       [][]float64     `json:"hidden,omitempty"`
	Sequence     [][][]float64   `json:"sequence,omitempty"`
	Attention    [][][]float64   `json:"attention,omitempty"`
	AttentionSeq [][][][]float64 `json:"attention_seq,omitempty"`
	OutputMask   [][]bool        `json:"output_mask,omitempty"`
}

func main() {
	flag.Parse()
	rand.Seed(*seed)
	log.Printf("seed: %d", *seed)

	b, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	var cfg ontolstm.Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		log.Fatalf("parsing %s: %v", *configPath, err)
	}

	layer, diags, err := ontolstm.NewLayer(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	for _, d := range diags {
		log.Printf("config: %s", d)
	}

	if *weightsPath != "" {
		if err := layer.LoadWeights(*weightsPath); err != nil {
			log.Fatalf("%v", err)
		}
	} else {
		weights := make([]float64, layer.NumWeights())
		for i := range weights {
			weights[i] = 1 * (rand.Float64() - 0.5)
		}
		if err := layer.SetWeightsVal(weights); err != nil {
			log.Fatalf("%v", err)
		}
	}
	if *saveWeights != "" {
		if err := layer.SaveWeights(*saveWeights); err != nil {
			log.Fatalf("%v", err)
		}
	}

	cfg = layer.Config()
	x, mask := disambig.GenBatch(*batch, *steps, cfg.NumSenses, cfg.NumHyps, cfg.EmbeddingDim, *keepProb)
	res, err := layer.Forward(x, mask)
	if err != nil {
		log.Fatalf("%v", err)
	}

	out := runOutput{
		RunID:        uuid.New().String(),
		Config:       cfg,
		Hidden:       res.Hidden,
		Sequence:     res.Sequence,
		Attention:    res.Attention,
		AttentionSeq: res.AttentionSeq,
		OutputMask:   res.OutputMask,
	}
	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *outPath == "" {
		os.Stdout.Write(append(enc, '\n'))
		return
	}
	if err := os.WriteFile(*outPath, enc, 0644); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("run %s written to %s", out.RunID, *outPath)
}
