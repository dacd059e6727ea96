// Package evaluate runs a trained model over annotated frames and scores the
// predictions against the stored corner positions. It reports per-corner
// pixel error and heatmap peak strength, and can compare masked against
// unmasked inputs to show how much the model depends on marker masking.
package evaluate

import (
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sorobanworks/boundary-train/internal/dataset"
	"github.com/sorobanworks/boundary-train/internal/geometry"
	"github.com/sorobanworks/boundary-train/internal/heatmap"
	"github.com/sorobanworks/boundary-train/internal/imaging"
	"github.com/sorobanworks/boundary-train/internal/mask"
	"github.com/sorobanworks/boundary-train/internal/model"
	"github.com/sorobanworks/boundary-train/internal/visualize"
)

// Peak thresholds classifying heatmap channel strength.
const (
	strongPeak = 0.5
	weakPeak   = 0.1
)

// goodPixelError is the accuracy bar for a usable detector at the default
// input resolution.
const goodPixelError = 15.0

// Options configure Run.
type Options struct {
	// InputSize is the square resolution frames are resized to before
	// inference. Zero means use the model's own input size.
	InputSize int
	// MaskMethod fills marker regions before inference. Empty means
	// mask.MethodNoise.
	MaskMethod mask.Method
	// MarkerSize overrides the estimated marker size when positive.
	MarkerSize int
	// Samples caps the number of frames evaluated. Zero means all.
	Samples int
	// Compare additionally runs every frame unmasked.
	Compare bool
	// VizDir, when set, receives one heatmap blend PNG per frame and
	// corner.
	VizDir string
	// Seed drives masking noise.
	Seed int64
	// Logger may be nil.
	Logger *zap.Logger
}

// Run evaluates m on the annotated PNG frames under dir. Frames without a
// sidecar are skipped and counted; a malformed sidecar aborts the run, the
// same way dataset.Load treats it.
func Run(m model.Model, dir string, opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("eval")

	size := opts.InputSize
	if size == 0 {
		size = m.InputSize()
	}
	if size <= 0 {
		return nil, errors.New("input size must be set for models that accept any resolution")
	}
	if ms := m.InputSize(); ms != 0 && ms != size {
		return nil, errors.Errorf("model expects %dx%d inputs, asked to evaluate at %dx%d",
			ms, ms, size, size)
	}
	if opts.MaskMethod == "" {
		opts.MaskMethod = mask.MethodNoise
	}
	if _, err := mask.ParseMethod(string(opts.MaskMethod)); err != nil {
		return nil, err
	}

	frames, err := dataset.ListFrames(dir)
	if err != nil {
		return nil, err
	}
	if opts.VizDir != "" {
		if err := os.MkdirAll(opts.VizDir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating %s", opts.VizDir)
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	rep := &Report{InputSize: size}
	var maskedErrs, unmaskedErrs []float64
	for _, path := range frames {
		if opts.Samples > 0 && rep.Frames >= opts.Samples {
			break
		}
		sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
		if _, err := os.Stat(sidecar); err != nil {
			if os.IsNotExist(err) {
				rep.Skipped++
				log.Debug("frame has no annotation sidecar",
					zap.String("frame", path))
				continue
			}
			return nil, errors.Wrapf(err, "checking sidecar for %s", path)
		}
		corners, err := dataset.ReadAnnotation(sidecar)
		if err != nil {
			return nil, err
		}
		img, err := imaging.LoadImage(path)
		if err != nil {
			return nil, err
		}

		masked, err := mask.MaskMarkers(img, corners, opts.MaskMethod, opts.MarkerSize, rng)
		if err != nil {
			rep.MaskFailures++
			log.Warn("marker masking failed, evaluating the frame unmasked",
				zap.String("frame", path),
				zap.Error(err))
			masked = imaging.ToNRGBA(img)
		}

		se := SampleEval{Path: filepath.Base(path)}
		logits, maskedEval := evalFrame(m, masked, corners, size)
		se.Masked = maskedEval
		se.MaskedMean = meanErr(maskedEval)
		maskedErrs = append(maskedErrs, se.MaskedMean)
		if opts.Compare {
			_, unmaskedEval := evalFrame(m, imaging.ToNRGBA(img), corners, size)
			se.Unmasked = unmaskedEval
			se.UnmaskedMean = meanErr(unmaskedEval)
			unmaskedErrs = append(unmaskedErrs, se.UnmaskedMean)
		}
		for _, ce := range se.Masked {
			if ce.Strength != "strong" {
				rep.Weak = append(rep.Weak, WeakChannel{
					Path:   se.Path,
					Corner: ce.Corner,
					Peak:   ce.Peak,
				})
			}
		}
		if opts.VizDir != "" {
			if err := saveBlends(opts.VizDir, se.Path, masked, logits, m.HeatmapSize()); err != nil {
				log.Warn("heatmap visualization failed",
					zap.String("frame", path),
					zap.Error(err))
			}
		}
		rep.Frames++
		rep.Samples = append(rep.Samples, se)
		log.Debug("frame evaluated",
			zap.String("frame", se.Path),
			zap.Float64("pixel_error", se.MaskedMean))
	}

	if rep.Frames == 0 {
		return nil, errors.Errorf("no annotated frames in %s", dir)
	}
	rep.Masked = aggregate(maskedErrs)
	if opts.Compare {
		agg := aggregate(unmaskedErrs)
		rep.Unmasked = &agg
	}
	rep.Verdict = verdict(rep.Masked, rep.Unmasked)
	log.Info("evaluation finished",
		zap.Int("frames", rep.Frames),
		zap.Int("skipped", rep.Skipped),
		zap.Float64("mean_pixel_error", rep.Masked.Mean),
		zap.String("verdict", rep.Verdict))
	return rep, nil
}

// evalFrame runs one frame through the model and scores each corner against
// the annotation. Errors are in pixels at the evaluation resolution.
func evalFrame(m model.Model, frame *image.NRGBA, gt geometry.Quad, size int) ([]float64, []CornerEval) {
	logits := m.Forward(imaging.ToTensor(frame, size), 1)
	hs := m.HeatmapSize()
	pred := heatmap.DecodeQuad(logits, hs)
	stats := heatmap.Stats(logits, hs)

	evals := make([]CornerEval, heatmap.Channels)
	for i := range evals {
		evals[i] = CornerEval{
			Corner:   geometry.CornerNames[i],
			GT:       gt[i],
			Pred:     pred[i],
			PixelErr: gt[i].Dist(pred[i]) * float64(size),
			Peak:     stats[i].Max,
			Strength: strength(stats[i].Max),
		}
	}
	return logits, evals
}

func strength(peak float64) string {
	switch {
	case peak > strongPeak:
		return "strong"
	case peak > weakPeak:
		return "weak"
	default:
		return "very weak"
	}
}

func meanErr(evals []CornerEval) float64 {
	var sum float64
	for _, e := range evals {
		sum += e.PixelErr
	}
	return sum / float64(len(evals))
}

func aggregate(errs []float64) Aggregate {
	agg := Aggregate{
		Mean: stat.Mean(errs, nil),
		Min:  floats.Min(errs),
		Max:  floats.Max(errs),
	}
	if len(errs) > 1 {
		agg.Std = stat.StdDev(errs, nil)
	}
	return agg
}

func verdict(masked Aggregate, unmasked *Aggregate) string {
	switch {
	case unmasked != nil && unmasked.Mean > masked.Mean*1.5:
		return "unmasked error is much higher; mask markers before inference"
	case masked.Mean < goodPixelError && (unmasked == nil || unmasked.Mean < goodPixelError):
		return "accuracy is good"
	case masked.Mean < goodPixelError:
		return "accuracy is good with masked inputs only"
	default:
		return "error is high; train longer or record more frames"
	}
}

// saveBlends writes one heatmap blend per corner so weak channels can be
// inspected visually.
func saveBlends(dir, name string, frame *image.NRGBA, logits []float64, size int) error {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for c := 0; c < heatmap.Channels; c++ {
		plane := logits[c*size*size : (c+1)*size*size]
		blend := visualize.BlendHeatmap(frame, plane, size, c)
		path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", base, geometry.CornerNames[c]))
		if err := visualize.SavePNG(path, blend); err != nil {
			return err
		}
	}
	return nil
}
