// Package mask hides the physical corner markers in training frames so the
// detector learns the frame's geometry instead of the markers' appearance.
//
// Each corner gets a rotated square region: a square of twice the estimated
// marker size, pushed outward from the quad centroid by 0.4 marker sizes
// and rotated to face along the outward direction. The marker size is 18%
// of the quad's shorter visible edge, clamped to [20, 150] pixels.
//
// # Fill Methods
//
// Four fills are available. "noise" (the default) replaces the region with
// a heavily blurred copy of the surrounding image plus uniform per-channel
// noise, "blur" is the same without noise, "black" zeroes the region, and
// "inpaint" diffuses surrounding colors inward in the manner of a
// Telea-style inpaint.
//
// # Determinism
//
// The noise fill takes an explicit *rand.Rand, so dataset loading and the
// pipeline preview can reproduce each other's output exactly from a shared
// seed. The other methods are fully deterministic.
package mask
