// Package heatmap implements the Gaussian target encoder and the DSNT
// coordinate decoder used by the boundary detector.
//
// # Tensor Layout
//
// Heatmap tensors are flat []float64 slices in planar layout: channel c of
// an S x S map occupies the contiguous range [c*S*S, (c+1)*S*S), row-major
// within the plane. Channels follow the pipeline corner order: top-left,
// top-right, bottom-left, bottom-right. Batched tensors concatenate samples,
// so sample i channel c starts at (i*4+c)*S*S.
//
// # Decoding
//
// Decode converts a heatmap channel to a normalized coordinate by treating
// the tempered softmax of the channel as a probability mass and taking the
// expected position over inclusive-endpoint coordinate grids (grid[i] =
// i/(S-1)). Subtracting the channel maximum before exponentiation keeps the
// softmax finite, which also makes the decode invariant to any constant
// shift of the input. The softmax temperature is fixed; models are trained
// against this exact decode, so changing it invalidates saved weights.
package heatmap
