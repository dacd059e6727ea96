package dataset

import (
	"image"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sorobanworks/boundary-train/internal/augment"
	"github.com/sorobanworks/boundary-train/internal/geometry"
	"github.com/sorobanworks/boundary-train/internal/imaging"
	"github.com/sorobanworks/boundary-train/internal/mask"
)

// MinFrames is the smallest number of usable frames a training run accepts.
const MinFrames = 50

// ErrTooFewFrames reports a dataset below MinFrames. Load wraps it with the
// actual count and a hint.
var ErrTooFewFrames = errors.New("too few usable frames")

// Sample is one training example. Image is the masked, optionally jittered
// frame already resized to the network input size; Corners holds the
// ground-truth positions in unit coordinates.
type Sample struct {
	Path      string
	Frame     int
	Augmented bool
	Image     *image.NRGBA
	Corners   geometry.Quad
}

// Options configure Load.
type Options struct {
	// InputSize is the square side length samples are resized to.
	InputSize int
	// MaskMethod fills the marker regions before training. Empty means
	// MethodNoise.
	MaskMethod mask.Method
	// MarkerSize overrides the estimated marker size when positive.
	MarkerSize int
	// AugmentCopies is the number of color-jittered duplicates per frame,
	// added on top of the unjittered sample.
	AugmentCopies int
	// Seed drives masking noise and jitter factors.
	Seed int64
	// Logger may be nil.
	Logger *zap.Logger
}

// Dataset is a loaded and prepared corpus.
type Dataset struct {
	Samples      []Sample
	Frames       int
	Skipped      int
	MaskFailures int
}

// Load reads every annotated PNG frame under dir and prepares training
// samples from it: marker regions masked, AugmentCopies jittered duplicates
// added, everything resized to InputSize. Frames without a sidecar are
// skipped and counted; a malformed sidecar aborts the load. A frame whose
// masking fails is kept unmasked and counted in MaskFailures.
func Load(dir string, opts Options) (*Dataset, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.InputSize <= 0 {
		return nil, errors.Errorf("input size must be positive, got %d", opts.InputSize)
	}
	if opts.AugmentCopies < 0 {
		return nil, errors.Errorf("augment copies must not be negative, got %d", opts.AugmentCopies)
	}
	if opts.MaskMethod == "" {
		opts.MaskMethod = mask.MethodNoise
	}
	if _, err := mask.ParseMethod(string(opts.MaskMethod)); err != nil {
		return nil, err
	}

	frames, err := ListFrames(dir)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	ds := &Dataset{}
	for _, path := range frames {
		sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
		if _, err := os.Stat(sidecar); err != nil {
			if os.IsNotExist(err) {
				ds.Skipped++
				log.Debug("frame has no annotation sidecar",
					zap.String("frame", path))
				continue
			}
			return nil, errors.Wrapf(err, "checking sidecar for %s", path)
		}
		corners, err := ReadAnnotation(sidecar)
		if err != nil {
			return nil, err
		}
		img, err := imaging.LoadImage(path)
		if err != nil {
			return nil, err
		}

		masked, err := mask.MaskMarkers(img, corners, opts.MaskMethod, opts.MarkerSize, rng)
		if err != nil {
			ds.MaskFailures++
			log.Warn("marker masking failed, keeping frame unmasked",
				zap.String("frame", path),
				zap.Error(err))
			masked = imaging.ToNRGBA(img)
		}

		frame := ds.Frames
		ds.Frames++
		ds.Samples = append(ds.Samples, Sample{
			Path:    path,
			Frame:   frame,
			Image:   imaging.Prepare(masked, opts.InputSize),
			Corners: corners,
		})
		for i := 0; i < opts.AugmentCopies; i++ {
			jittered := augment.Jitter(rng).Apply(masked)
			ds.Samples = append(ds.Samples, Sample{
				Path:      path,
				Frame:     frame,
				Augmented: true,
				Image:     imaging.Prepare(jittered, opts.InputSize),
				Corners:   corners,
			})
		}
	}

	if ds.Frames < MinFrames {
		return nil, errors.Wrapf(ErrTooFewFrames,
			"found %d usable frames in %s, need at least %d; record and annotate more frames",
			ds.Frames, dir, MinFrames)
	}

	log.Info("dataset loaded",
		zap.Int("frames", ds.Frames),
		zap.Int("samples", len(ds.Samples)),
		zap.Int("skipped", ds.Skipped),
		zap.Int("mask_failures", ds.MaskFailures),
		zap.String("mask_method", string(opts.MaskMethod)))
	return ds, nil
}

// ListFrames collects the PNG files under dir. filepath.WalkDir visits
// entries in lexical order, so the result is stable across runs.
func ListFrames(dir string) ([]string, error) {
	var frames []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".png") {
			frames = append(frames, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s", dir)
	}
	return frames, nil
}
