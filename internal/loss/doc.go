// Package loss implements the training objective for the heatmap corner
// detector: an adaptive wing loss on the predicted heatmaps, a smooth-L1
// loss on the DSNT-decoded coordinates, and a convexity penalty on the
// decoded quadrilateral, combined as
//
//	total = heatmap + 0.5*coordinate + 0.01*convexity
//
// Every term comes as a value/gradient pair so an optimizer can drive model
// logits directly; the coordinate and convexity gradients chain through the
// decoder's softmax Jacobian back to the heatmap values.
//
// The term weights and the adaptive wing constants are fixed package
// constants rather than configuration. Models are trained against these
// exact values; changing them is a retraining decision.
package loss
