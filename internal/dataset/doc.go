// Package dataset loads annotated training frames from disk and prepares
// them for the trainer.
//
// A dataset directory holds PNG frames with JSON sidecars of the same
// basename. The sidecar carries the four normalized frame corners:
//
//	{"corners": {"topLeft":     {"x": 0.12, "y": 0.08},
//	             "topRight":    {"x": 0.91, "y": 0.10},
//	             "bottomLeft":  {"x": 0.11, "y": 0.93},
//	             "bottomRight": {"x": 0.90, "y": 0.95}}}
//
// Loading walks the directory recursively. A PNG without a sidecar is
// skipped and counted; a sidecar that is present but malformed aborts the
// load naming the file. Each usable frame is marker-masked, expanded into
// augmented copies, and resized to the model input resolution. A masking
// failure downgrades that frame to its unmasked pixels with a warning, the
// only error that degrades instead of failing.
//
// Fewer than MinFrames usable frames is not enough signal to train on;
// Load reports ErrTooFewFrames so the caller can tell the user to record
// more.
package dataset
