package evaluate

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sorobanworks/boundary-train/internal/geometry"
)

// CornerEval scores one corner of one frame.
type CornerEval struct {
	Corner   string
	GT       geometry.Point
	Pred     geometry.Point
	PixelErr float64
	Peak     float64
	Strength string
}

// SampleEval holds the per-corner results for one frame. Unmasked is nil
// unless the run compared masked and unmasked inputs.
type SampleEval struct {
	Path         string
	Masked       []CornerEval
	MaskedMean   float64
	Unmasked     []CornerEval
	UnmaskedMean float64
}

// Aggregate summarizes mean corner errors across frames, in pixels at the
// evaluation resolution.
type Aggregate struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// WeakChannel flags a heatmap channel whose peak stayed below the strong
// threshold on a frame.
type WeakChannel struct {
	Path   string
	Corner string
	Peak   float64
}

// Report is the outcome of an evaluation run.
type Report struct {
	InputSize    int
	Frames       int
	Skipped      int
	MaskFailures int
	Masked       Aggregate
	Unmasked     *Aggregate
	Weak         []WeakChannel
	Samples      []SampleEval
	Verdict      string
}

// Write renders the report as text, one block per frame followed by the
// aggregate summary and the verdict.
func (r *Report) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range r.Samples {
		fmt.Fprintf(bw, "%s\n", s.Path)
		writeCorners(bw, "masked", s.Masked, s.MaskedMean)
		if s.Unmasked != nil {
			writeCorners(bw, "unmasked", s.Unmasked, s.UnmaskedMean)
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintf(bw, "evaluated %d frames at %dx%d", r.Frames, r.InputSize, r.InputSize)
	if r.Skipped > 0 {
		fmt.Fprintf(bw, " (%d without annotations skipped)", r.Skipped)
	}
	if r.MaskFailures > 0 {
		fmt.Fprintf(bw, " (%d mask failures)", r.MaskFailures)
	}
	fmt.Fprintln(bw)
	writeAggregate(bw, "masked", r.Masked)
	if r.Unmasked != nil {
		writeAggregate(bw, "unmasked", *r.Unmasked)
	}
	if len(r.Weak) > 0 {
		fmt.Fprintln(bw, "weak channels:")
		for _, wc := range r.Weak {
			fmt.Fprintf(bw, "  %s %s (peak %.2f)\n", wc.Path, wc.Corner, wc.Peak)
		}
	}
	fmt.Fprintf(bw, "verdict: %s\n", r.Verdict)
	return bw.Flush()
}

func writeCorners(w io.Writer, label string, evals []CornerEval, mean float64) {
	fmt.Fprintf(w, "  %s:\n", label)
	for _, e := range evals {
		fmt.Fprintf(w, "    %-13s (%.3f, %.3f) -> (%.3f, %.3f)  %6.1fpx  peak %.2f %s\n",
			e.Corner, e.GT.X, e.GT.Y, e.Pred.X, e.Pred.Y, e.PixelErr, e.Peak, e.Strength)
	}
	fmt.Fprintf(w, "    %-13s %32s  %6.1fpx\n", "mean", "", mean)
}

func writeAggregate(w io.Writer, label string, a Aggregate) {
	fmt.Fprintf(w, "  %-9s mean %.1fpx ± %.1fpx, range %.1fpx - %.1fpx\n",
		label+":", a.Mean, a.Std, a.Min, a.Max)
}
