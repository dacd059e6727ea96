// Package model provides small reference models for the corner training
// loop. Both are honest gradient learners rather than stand-ins: Prior
// learns the dataset's average corner layout, Conv learns a single
// convolution over a pooled view of the frame. They share the Model
// interface, which also carries the persistence surface used by Save and
// Load.
package model

// Model is a trainable corner predictor. Forward consumes a batch of
// planar RGB tensors and produces one logit plane per corner channel;
// Backward accumulates parameter gradients from the loss gradient over
// those logits; Step applies and clears them.
type Model interface {
	Forward(inputs []float64, n int) []float64
	Backward(grad []float64)
	Step(lr float64)

	// Snapshot returns a copy of the parameters; Restore writes one back.
	Snapshot() []float64
	Restore(weights []float64)

	// HeatmapSize is the side length of the predicted logit planes.
	HeatmapSize() int
	// InputSize is the expected input side length, 0 when any size works.
	InputSize() int
}
