package model

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

const (
	kindPrior = "prior"
	kindConv  = "conv"
)

// savedModel is the gob envelope written by Save. Kind selects the
// concrete type; the size fields reproduce its construction arguments.
type savedModel struct {
	Kind        string
	HeatmapSize int
	InputSize   int
	Kernel      int
	Params      []float64
}

// Save writes m to path as a gob envelope that Load can reconstruct.
func Save(path string, m Model) error {
	var s savedModel
	switch m := m.(type) {
	case *Prior:
		s = savedModel{Kind: kindPrior, HeatmapSize: m.size, Params: m.Snapshot()}
	case *Conv:
		s = savedModel{
			Kind:        kindConv,
			HeatmapSize: m.heatmapSize,
			InputSize:   m.inputSize,
			Kernel:      m.kernel,
			Params:      m.Snapshot(),
		}
	default:
		return errors.Errorf("cannot save model type %T", m)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "saving model")
	}
	if err := gob.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return errors.Wrapf(err, "encoding model to %s", path)
	}
	return errors.Wrapf(f.Close(), "saving model to %s", path)
}

// Load reads a model envelope written by Save and rebuilds the model with
// its trained parameters.
func Load(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "loading model")
	}
	defer f.Close()

	var s savedModel
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, errors.Wrapf(err, "decoding model from %s", path)
	}

	switch s.Kind {
	case kindPrior:
		if s.HeatmapSize <= 0 {
			return nil, errors.Errorf("model %s: bad heatmap size %d", path, s.HeatmapSize)
		}
		m := NewPrior(s.HeatmapSize)
		if len(s.Params) != len(m.logits) {
			return nil, errors.Errorf("model %s: got %d parameters, want %d", path, len(s.Params), len(m.logits))
		}
		m.Restore(s.Params)
		return m, nil
	case kindConv:
		m, err := NewConv(s.InputSize, s.HeatmapSize, s.Kernel)
		if err != nil {
			return nil, errors.Wrapf(err, "model %s", path)
		}
		if want := len(m.weights) + len(m.bias); len(s.Params) != want {
			return nil, errors.Errorf("model %s: got %d parameters, want %d", path, len(s.Params), want)
		}
		m.Restore(s.Params)
		return m, nil
	default:
		return nil, errors.Errorf("model %s: unknown kind %q", path, s.Kind)
	}
}
