package training

import (
	"github.com/sorobanworks/boundary-train/internal/dataset"
	"github.com/sorobanworks/boundary-train/internal/heatmap"
	"github.com/sorobanworks/boundary-train/internal/imaging"
)

// batcher assembles model inputs, target heatmaps, and ground-truth
// coordinates for a run of samples, reusing its buffers across batches.
type batcher struct {
	inputSize   int
	heatmapSize int
	sigma       float64

	inputs  []float64
	targets []float64
	coords  []float64
	gradBuf []float64
}

func newBatcher(cfg Config) *batcher {
	return &batcher{
		inputSize:   cfg.InputSize,
		heatmapSize: cfg.HeatmapSize,
		sigma:       cfg.Sigma,
	}
}

// build fills the shared buffers for samples picked by idx; a nil idx
// means all samples in order. The returned slices stay valid until the
// next call.
func (b *batcher) build(samples []dataset.Sample, idx []int) (inputs, targets, coords []float64, n int) {
	n = len(samples)
	if idx != nil {
		n = len(idx)
	}
	perIn := 3 * b.inputSize * b.inputSize
	perHM := heatmap.Channels * b.heatmapSize * b.heatmapSize
	b.inputs = grow(b.inputs, n*perIn)
	b.targets = grow(b.targets, n*perHM)
	b.coords = grow(b.coords, n*8)

	for i := 0; i < n; i++ {
		s := samples[i]
		if idx != nil {
			s = samples[idx[i]]
		}
		imaging.TensorInto(b.inputs[i*perIn:(i+1)*perIn], s.Image)
		heatmap.EncodeInto(b.targets[i*perHM:(i+1)*perHM], s.Corners, b.heatmapSize, b.sigma)
		flat := s.Corners.Flat()
		copy(b.coords[i*8:(i+1)*8], flat[:])
	}
	return b.inputs, b.targets, b.coords, n
}

// grad returns a zeroed gradient buffer sized for a batch of n samples.
func (b *batcher) grad(n int) []float64 {
	b.gradBuf = grow(b.gradBuf, n*heatmap.Channels*b.heatmapSize*b.heatmapSize)
	for i := range b.gradBuf {
		b.gradBuf[i] = 0
	}
	return b.gradBuf
}

func grow(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
