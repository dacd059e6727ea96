// Package visualize renders training diagnostics: ground-truth and
// predicted corner overlays, heatmap channel blends, the dataset pipeline
// contact sheet and per-run loss curves. Everything here is presentation
// only; the pipeline stages it renders live in mask, augment and imaging.
package visualize
