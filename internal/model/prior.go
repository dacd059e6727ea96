package model

import (
	"gonum.org/v1/gonum/floats"

	"github.com/sorobanworks/boundary-train/internal/heatmap"
)

// Prior predicts the same learned logit grid for every sample, ignoring
// the pixels. It is the strongest model that never looks at the input,
// which makes it a useful baseline and a fast way to drive the training
// loop end to end.
type Prior struct {
	size   int
	logits []float64
	grad   []float64
}

// NewPrior returns a zero-initialized prior over size x size planes.
func NewPrior(size int) *Prior {
	n := heatmap.Channels * size * size
	return &Prior{
		size:   size,
		logits: make([]float64, n),
		grad:   make([]float64, n),
	}
}

// Forward tiles the learned grid across the batch. inputs may be nil.
func (p *Prior) Forward(inputs []float64, n int) []float64 {
	out := make([]float64, n*len(p.logits))
	for i := 0; i < n; i++ {
		copy(out[i*len(p.logits):], p.logits)
	}
	return out
}

// Backward folds the per-sample logit gradients onto the shared grid.
func (p *Prior) Backward(grad []float64) {
	c := len(p.logits)
	for i := 0; i+c <= len(grad); i += c {
		floats.Add(p.grad, grad[i:i+c])
	}
}

// Step applies one SGD update and clears the accumulated gradient.
func (p *Prior) Step(lr float64) {
	floats.AddScaled(p.logits, -lr, p.grad)
	for i := range p.grad {
		p.grad[i] = 0
	}
}

func (p *Prior) Snapshot() []float64 {
	return append([]float64(nil), p.logits...)
}

func (p *Prior) Restore(weights []float64) {
	copy(p.logits, weights)
}

func (p *Prior) HeatmapSize() int { return p.size }

// InputSize returns 0: the prior accepts frames of any size.
func (p *Prior) InputSize() int { return 0 }
