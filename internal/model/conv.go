package model

import (
	"github.com/pkg/errors"

	"github.com/sorobanworks/boundary-train/internal/heatmap"
)

const momentum = 0.9

// Conv pools the input down to the heatmap resolution and applies one
// k x k same-padded convolution from the 3 RGB planes to the corner
// channels, plus a per-channel bias. Updates use SGD with momentum.
type Conv struct {
	inputSize   int
	heatmapSize int
	kernel      int

	weights []float64 // laid out ((channel*3+plane)*kernel+ky)*kernel+kx
	bias    []float64
	wGrad   []float64
	bGrad   []float64
	wVel    []float64
	bVel    []float64

	pooled []float64 // 3 x S x S activations per sample from the last Forward
	n      int
}

// NewConv builds a zero-initialized convolution model. inputSize must be a
// multiple of heatmapSize (average pooling bridges the two) and kernel must
// be odd.
func NewConv(inputSize, heatmapSize, kernel int) (*Conv, error) {
	if inputSize <= 0 || heatmapSize <= 0 {
		return nil, errors.Errorf("sizes must be positive, got input %d heatmap %d", inputSize, heatmapSize)
	}
	if inputSize%heatmapSize != 0 {
		return nil, errors.Errorf("input size %d is not a multiple of heatmap size %d", inputSize, heatmapSize)
	}
	if kernel < 1 || kernel%2 == 0 {
		return nil, errors.Errorf("kernel must be odd and positive, got %d", kernel)
	}
	nw := heatmap.Channels * 3 * kernel * kernel
	return &Conv{
		inputSize:   inputSize,
		heatmapSize: heatmapSize,
		kernel:      kernel,
		weights:     make([]float64, nw),
		bias:        make([]float64, heatmap.Channels),
		wGrad:       make([]float64, nw),
		bGrad:       make([]float64, heatmap.Channels),
		wVel:        make([]float64, nw),
		bVel:        make([]float64, heatmap.Channels),
	}, nil
}

// Forward expects n planar RGB tensors of InputSize x InputSize laid out
// back to back. The pooled activations stay cached for Backward.
func (c *Conv) Forward(inputs []float64, n int) []float64 {
	s := c.heatmapSize
	perPooled := 3 * s * s
	if cap(c.pooled) < n*perPooled {
		c.pooled = make([]float64, n*perPooled)
	}
	c.pooled = c.pooled[:n*perPooled]
	c.n = n

	perIn := 3 * c.inputSize * c.inputSize
	for i := 0; i < n; i++ {
		c.pool(inputs[i*perIn:(i+1)*perIn], c.pooled[i*perPooled:(i+1)*perPooled])
	}

	perOut := heatmap.Channels * s * s
	out := make([]float64, n*perOut)
	for i := 0; i < n; i++ {
		c.convolve(c.pooled[i*perPooled:(i+1)*perPooled], out[i*perOut:(i+1)*perOut])
	}
	return out
}

// pool averages p x p blocks of each RGB plane down to the heatmap grid.
func (c *Conv) pool(in, out []float64) {
	s := c.heatmapSize
	p := c.inputSize / s
	norm := 1 / float64(p*p)
	for plane := 0; plane < 3; plane++ {
		src := in[plane*c.inputSize*c.inputSize:]
		dst := out[plane*s*s:]
		for oy := 0; oy < s; oy++ {
			for ox := 0; ox < s; ox++ {
				sum := 0.0
				for dy := 0; dy < p; dy++ {
					row := (oy*p + dy) * c.inputSize
					for dx := 0; dx < p; dx++ {
						sum += src[row+ox*p+dx]
					}
				}
				dst[oy*s+ox] = sum * norm
			}
		}
	}
}

func (c *Conv) convolve(pooled, out []float64) {
	s, k := c.heatmapSize, c.kernel
	half := k / 2
	for o := 0; o < heatmap.Channels; o++ {
		dst := out[o*s*s:]
		for y := 0; y < s; y++ {
			for x := 0; x < s; x++ {
				sum := c.bias[o]
				for plane := 0; plane < 3; plane++ {
					src := pooled[plane*s*s:]
					wBase := (o*3 + plane) * k * k
					for ky := 0; ky < k; ky++ {
						iy := y + ky - half
						if iy < 0 || iy >= s {
							continue
						}
						for kx := 0; kx < k; kx++ {
							ix := x + kx - half
							if ix < 0 || ix >= s {
								continue
							}
							sum += c.weights[wBase+ky*k+kx] * src[iy*s+ix]
						}
					}
				}
				dst[y*s+x] = sum
			}
		}
	}
}

// Backward accumulates weight and bias gradients from the loss gradient
// over the last Forward's logits.
func (c *Conv) Backward(grad []float64) {
	s, k := c.heatmapSize, c.kernel
	half := k / 2
	perPooled := 3 * s * s
	perOut := heatmap.Channels * s * s
	for i := 0; i < c.n; i++ {
		pooled := c.pooled[i*perPooled : (i+1)*perPooled]
		g := grad[i*perOut : (i+1)*perOut]
		for o := 0; o < heatmap.Channels; o++ {
			gp := g[o*s*s:]
			for y := 0; y < s; y++ {
				for x := 0; x < s; x++ {
					gv := gp[y*s+x]
					c.bGrad[o] += gv
					for plane := 0; plane < 3; plane++ {
						src := pooled[plane*s*s:]
						wBase := (o*3 + plane) * k * k
						for ky := 0; ky < k; ky++ {
							iy := y + ky - half
							if iy < 0 || iy >= s {
								continue
							}
							for kx := 0; kx < k; kx++ {
								ix := x + kx - half
								if ix < 0 || ix >= s {
									continue
								}
								c.wGrad[wBase+ky*k+kx] += gv * src[iy*s+ix]
							}
						}
					}
				}
			}
		}
	}
}

// Step applies one momentum SGD update and clears the gradients.
func (c *Conv) Step(lr float64) {
	for j := range c.weights {
		c.wVel[j] = momentum*c.wVel[j] - lr*c.wGrad[j]
		c.weights[j] += c.wVel[j]
		c.wGrad[j] = 0
	}
	for j := range c.bias {
		c.bVel[j] = momentum*c.bVel[j] - lr*c.bGrad[j]
		c.bias[j] += c.bVel[j]
		c.bGrad[j] = 0
	}
}

// Snapshot lays out the weights followed by the biases.
func (c *Conv) Snapshot() []float64 {
	out := make([]float64, 0, len(c.weights)+len(c.bias))
	out = append(out, c.weights...)
	return append(out, c.bias...)
}

func (c *Conv) Restore(weights []float64) {
	n := copy(c.weights, weights)
	copy(c.bias, weights[n:])
}

func (c *Conv) HeatmapSize() int { return c.heatmapSize }

func (c *Conv) InputSize() int { return c.inputSize }
