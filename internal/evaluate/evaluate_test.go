package evaluate

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sorobanworks/boundary-train/internal/geometry"
	"github.com/sorobanworks/boundary-train/internal/heatmap"
	"github.com/sorobanworks/boundary-train/internal/mask"
	"github.com/sorobanworks/boundary-train/internal/model"
)

func evalQuad() geometry.Quad {
	return geometry.Quad{
		{X: 0.25, Y: 0.25},
		{X: 0.75, Y: 0.25},
		{X: 0.25, Y: 0.75},
		{X: 0.75, Y: 0.75},
	}
}

func writeEvalFrame(t *testing.T, dir, name string, size int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 + x), G: uint8(40 + y), B: 90, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create frame: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close frame: %v", err)
	}
}

func writeEvalSidecar(t *testing.T, dir, name string, q geometry.Quad) {
	t.Helper()
	blob := fmt.Sprintf(
		`{"corners":{"topLeft":{"x":%g,"y":%g},"topRight":{"x":%g,"y":%g},"bottomLeft":{"x":%g,"y":%g},"bottomRight":{"x":%g,"y":%g}}}`,
		q[0].X, q[0].Y, q[1].X, q[1].Y, q[2].X, q[2].Y, q[3].X, q[3].Y)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(blob), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
}

func writeAnnotatedFrames(t *testing.T, dir string, n int, q geometry.Quad) {
	t.Helper()
	for i := 0; i < n; i++ {
		writeEvalFrame(t, dir, fmt.Sprintf("frame%d.png", i), 32)
		writeEvalSidecar(t, dir, fmt.Sprintf("frame%d.json", i), q)
	}
}

// trainedPrior holds the exact target heatmaps for q, so its predictions
// land on the nearest grid cells of every corner.
func trainedPrior(q geometry.Quad, size int) *model.Prior {
	p := model.NewPrior(size)
	p.Restore(heatmap.Encode(q, size, 1.0))
	return p
}

func evalOptions() Options {
	return Options{
		InputSize:  32,
		MaskMethod: mask.MethodBlack,
		MarkerSize: 6,
	}
}

func TestRun_TrainedPrior(t *testing.T) {
	dir := t.TempDir()
	q := evalQuad()
	writeAnnotatedFrames(t, dir, 3, q)
	writeEvalFrame(t, dir, "zz-raw.png", 32)

	rep, err := Run(trainedPrior(q, 8), dir, evalOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Frames != 3 {
		t.Fatalf("Frames = %d, want 3", rep.Frames)
	}
	if rep.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", rep.Skipped)
	}
	if len(rep.Samples) != 3 {
		t.Fatalf("len(Samples) = %d, want 3", len(rep.Samples))
	}
	for _, s := range rep.Samples {
		if len(s.Masked) != heatmap.Channels {
			t.Fatalf("sample %s has %d corner evals, want %d", s.Path, len(s.Masked), heatmap.Channels)
		}
		if s.Unmasked != nil {
			t.Errorf("sample %s has unmasked evals without compare mode", s.Path)
		}
		if s.MaskedMean <= 0.5 || s.MaskedMean >= 8 {
			t.Errorf("sample %s mean error = %.3fpx, want within (0.5, 8)", s.Path, s.MaskedMean)
		}
		for i, ce := range s.Masked {
			if ce.Corner != geometry.CornerNames[i] {
				t.Errorf("corner %d named %q, want %q", i, ce.Corner, geometry.CornerNames[i])
			}
			if ce.GT != q[i] {
				t.Errorf("corner %s GT = %v, want %v", ce.Corner, ce.GT, q[i])
			}
			if ce.Peak != 1 {
				t.Errorf("corner %s peak = %v, want 1", ce.Corner, ce.Peak)
			}
			if ce.Strength != "strong" {
				t.Errorf("corner %s strength = %q, want strong", ce.Corner, ce.Strength)
			}
		}
	}
	if rep.Samples[0].Path != "frame0.png" {
		t.Errorf("Samples[0].Path = %q, want frame0.png", rep.Samples[0].Path)
	}
	if len(rep.Weak) != 0 {
		t.Errorf("Weak has %d entries, want none", len(rep.Weak))
	}
	if rep.Unmasked != nil {
		t.Error("Unmasked aggregate set without compare mode")
	}

	// Identical frames through a model that ignores pixels score identically.
	agg := rep.Masked
	if math.Abs(agg.Min-agg.Max) > 1e-12 || math.Abs(agg.Mean-agg.Min) > 1e-12 {
		t.Errorf("aggregate not flat across identical frames: %+v", agg)
	}
	if agg.Std > 1e-12 {
		t.Errorf("Std = %v, want 0", agg.Std)
	}
	if rep.Verdict != "accuracy is good" {
		t.Errorf("Verdict = %q, want accuracy is good", rep.Verdict)
	}
}

func TestRun_CompareMode(t *testing.T) {
	dir := t.TempDir()
	q := evalQuad()
	writeAnnotatedFrames(t, dir, 2, q)

	opts := evalOptions()
	opts.Compare = true
	rep, err := Run(model.NewPrior(8), dir, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Unmasked == nil {
		t.Fatal("Unmasked aggregate missing in compare mode")
	}
	if math.Abs(rep.Unmasked.Mean-rep.Masked.Mean) > 1e-12 {
		t.Errorf("pixel-blind model scored masked %.6f vs unmasked %.6f",
			rep.Masked.Mean, rep.Unmasked.Mean)
	}

	// A zero prior decodes every corner to the grid center.
	wantErr := math.Hypot(0.25, 0.25) * 32
	s := rep.Samples[0]
	if len(s.Unmasked) != heatmap.Channels {
		t.Fatalf("len(Unmasked) = %d, want %d", len(s.Unmasked), heatmap.Channels)
	}
	for _, ce := range s.Masked {
		if math.Abs(ce.Pred.X-0.5) > 1e-12 || math.Abs(ce.Pred.Y-0.5) > 1e-12 {
			t.Errorf("corner %s pred = %v, want (0.5, 0.5)", ce.Corner, ce.Pred)
		}
		if math.Abs(ce.PixelErr-wantErr) > 1e-9 {
			t.Errorf("corner %s error = %v, want %v", ce.Corner, ce.PixelErr, wantErr)
		}
		if ce.Strength != "very weak" {
			t.Errorf("corner %s strength = %q, want very weak", ce.Corner, ce.Strength)
		}
	}
	if math.Abs(s.UnmaskedMean-s.MaskedMean) > 1e-12 {
		t.Errorf("UnmaskedMean = %v, MaskedMean = %v", s.UnmaskedMean, s.MaskedMean)
	}

	if want := 2 * heatmap.Channels; len(rep.Weak) != want {
		t.Fatalf("len(Weak) = %d, want %d", len(rep.Weak), want)
	}
	if rep.Weak[0].Corner != "top-left" || rep.Weak[0].Peak != 0 {
		t.Errorf("Weak[0] = %+v, want top-left with peak 0", rep.Weak[0])
	}
	if rep.Verdict != "accuracy is good" {
		t.Errorf("Verdict = %q, want accuracy is good", rep.Verdict)
	}
}

func TestRun_SamplesCap(t *testing.T) {
	dir := t.TempDir()
	writeAnnotatedFrames(t, dir, 4, evalQuad())

	opts := evalOptions()
	opts.Samples = 2
	rep, err := Run(model.NewPrior(8), dir, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Frames != 2 || len(rep.Samples) != 2 {
		t.Fatalf("Frames = %d, len(Samples) = %d, want 2 and 2", rep.Frames, len(rep.Samples))
	}
	if rep.Samples[0].Path != "frame0.png" || rep.Samples[1].Path != "frame1.png" {
		t.Errorf("capped to %q, %q; want the first two frames",
			rep.Samples[0].Path, rep.Samples[1].Path)
	}
}

func TestRun_WritesHeatmapBlends(t *testing.T) {
	dir := t.TempDir()
	writeAnnotatedFrames(t, dir, 1, evalQuad())

	opts := evalOptions()
	opts.VizDir = filepath.Join(t.TempDir(), "viz")
	if _, err := Run(model.NewPrior(8), dir, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, corner := range geometry.CornerNames {
		path := filepath.Join(opts.VizDir, "frame0-"+corner+".png")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing blend %s: %v", path, err)
		}
	}
}

func TestRun_Validation(t *testing.T) {
	dir := t.TempDir()
	writeAnnotatedFrames(t, dir, 1, evalQuad())
	conv, err := model.NewConv(16, 8, 3)
	if err != nil {
		t.Fatalf("NewConv: %v", err)
	}

	cases := []struct {
		name    string
		m       model.Model
		dir     string
		mutate  func(*Options)
		wantErr string
	}{
		{
			name:    "no frames",
			m:       model.NewPrior(8),
			dir:     t.TempDir(),
			mutate:  func(o *Options) {},
			wantErr: "no annotated frames",
		},
		{
			name:    "input size unset for prior",
			m:       model.NewPrior(8),
			dir:     dir,
			mutate:  func(o *Options) { o.InputSize = 0 },
			wantErr: "input size",
		},
		{
			name:    "input size conflicts with model",
			m:       conv,
			dir:     dir,
			mutate:  func(o *Options) { o.InputSize = 32 },
			wantErr: "model expects 16x16",
		},
		{
			name:    "unknown mask method",
			m:       model.NewPrior(8),
			dir:     dir,
			mutate:  func(o *Options) { o.MaskMethod = "glitter" },
			wantErr: "mask method",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := evalOptions()
			tc.mutate(&opts)
			_, err := Run(tc.m, tc.dir, opts)
			if err == nil {
				t.Fatal("Run succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestRun_ModelInputSizeIsDefault(t *testing.T) {
	dir := t.TempDir()
	writeAnnotatedFrames(t, dir, 1, evalQuad())
	conv, err := model.NewConv(32, 8, 3)
	if err != nil {
		t.Fatalf("NewConv: %v", err)
	}

	opts := evalOptions()
	opts.InputSize = 0
	rep, err := Run(conv, dir, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.InputSize != 32 {
		t.Errorf("InputSize = %d, want the model's 32", rep.InputSize)
	}
}

func TestStrength(t *testing.T) {
	cases := []struct {
		peak float64
		want string
	}{
		{0.9, "strong"},
		{0.51, "strong"},
		{0.5, "weak"},
		{0.2, "weak"},
		{0.1, "very weak"},
		{0.0, "very weak"},
	}
	for _, tc := range cases {
		if got := strength(tc.peak); got != tc.want {
			t.Errorf("strength(%v) = %q, want %q", tc.peak, got, tc.want)
		}
	}
}

func TestVerdict(t *testing.T) {
	agg := func(mean float64) *Aggregate { return &Aggregate{Mean: mean} }
	cases := []struct {
		name     string
		masked   float64
		unmasked *Aggregate
		want     string
	}{
		{"good without compare", 5, nil, "accuracy is good"},
		{"good both", 5, agg(6), "accuracy is good"},
		{"depends on masking", 5, agg(20), "unmasked error is much higher; mask markers before inference"},
		{"good masked only", 12, agg(16), "accuracy is good with masked inputs only"},
		{"high error", 30, nil, "error is high; train longer or record more frames"},
		{"high error both", 20, agg(25), "error is high; train longer or record more frames"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := verdict(Aggregate{Mean: tc.masked}, tc.unmasked); got != tc.want {
				t.Errorf("verdict = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	got := aggregate([]float64{2, 4, 6})
	if got.Mean != 4 || got.Min != 2 || got.Max != 6 {
		t.Errorf("aggregate = %+v, want mean 4 min 2 max 6", got)
	}
	if math.Abs(got.Std-2) > 1e-12 {
		t.Errorf("Std = %v, want 2", got.Std)
	}

	single := aggregate([]float64{5})
	if single.Mean != 5 || single.Min != 5 || single.Max != 5 || single.Std != 0 {
		t.Errorf("single-frame aggregate = %+v, want all 5 with zero spread", single)
	}
}
