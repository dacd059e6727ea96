package training

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sorobanworks/boundary-train/internal/heatmap"
	"github.com/sorobanworks/boundary-train/internal/mask"
)

// Config collects every tunable of a training run. Algorithmic constants
// that would invalidate trained weights if changed (DSNT temperature, loss
// term weights, Adaptive Wing shape) are deliberately absent; they are
// package constants where they are used.
type Config struct {
	// Epochs is the maximum number of passes over the training set.
	Epochs int `yaml:"epochs"`
	// BatchSize is the number of samples per gradient step.
	BatchSize int `yaml:"batch_size"`
	// LearningRate is the cosine schedule's starting rate.
	LearningRate float64 `yaml:"learning_rate"`
	// MinLR is the schedule floor as a fraction of LearningRate.
	MinLR float64 `yaml:"min_lr"`
	// Patience is how many epochs without MinDelta improvement stop the run.
	Patience int `yaml:"patience"`
	// MinDelta is the smallest validation-loss drop that counts as progress.
	MinDelta float64 `yaml:"min_delta"`
	// ValFraction is the share of frames held out for validation.
	ValFraction float64 `yaml:"val_fraction"`
	// Seed drives shuffling, masking noise, and augmentation.
	Seed int64 `yaml:"seed"`
	// HeatmapSize is the side length of the target and predicted planes.
	HeatmapSize int `yaml:"heatmap_size"`
	// Sigma is the Gaussian radius of encoded target peaks, in cells.
	Sigma float64 `yaml:"sigma"`
	// InputSize is the square network input resolution.
	InputSize int `yaml:"input_size"`
	// MaskMethod fills marker regions: noise, blur, black, or inpaint.
	MaskMethod string `yaml:"mask_method"`
	// AugmentCopies is the number of jittered duplicates per frame.
	AugmentCopies int `yaml:"augment_copies"`
	// VizSamples is how many validation overlays to render per epoch.
	VizSamples int `yaml:"viz_samples"`
	// DataDir holds the annotated PNG frames.
	DataDir string `yaml:"data_dir"`
	// OutputDir receives one run directory per training run.
	OutputDir string `yaml:"output_dir"`
	// StopFile is polled at epoch boundaries; empty means
	// <run dir>/stop-training.
	StopFile string `yaml:"stop_file"`
}

// DefaultConfig returns the documented defaults. DataDir and OutputDir
// have no default and must be set before Validate passes.
func DefaultConfig() Config {
	return Config{
		Epochs:        100,
		BatchSize:     16,
		LearningRate:  1e-3,
		MinLR:         0.01,
		Patience:      8,
		MinDelta:      0.001,
		ValFraction:   0.2,
		Seed:          42,
		HeatmapSize:   heatmap.DefaultSize,
		Sigma:         heatmap.DefaultSigma,
		InputSize:     224,
		MaskMethod:    string(mask.MethodNoise),
		AugmentCopies: 8,
		VizSamples:    3,
	}
}

// LoadConfig reads a YAML file over the defaults, so a partial file only
// overrides the keys it names.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// Validate checks every field and names the first offender.
func (c Config) Validate() error {
	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning_rate must be positive, got %g", c.LearningRate)
	}
	if c.MinLR < 0 || c.MinLR > 1 {
		return errors.Errorf("min_lr must be in [0, 1], got %g", c.MinLR)
	}
	if c.Patience <= 0 {
		return errors.Errorf("patience must be positive, got %d", c.Patience)
	}
	if c.MinDelta < 0 {
		return errors.Errorf("min_delta must not be negative, got %g", c.MinDelta)
	}
	if c.ValFraction <= 0 || c.ValFraction >= 1 {
		return errors.Errorf("val_fraction must be in (0, 1), got %g", c.ValFraction)
	}
	if c.HeatmapSize < 2 {
		return errors.Errorf("heatmap_size must be at least 2, got %d", c.HeatmapSize)
	}
	if c.Sigma <= 0 {
		return errors.Errorf("sigma must be positive, got %g", c.Sigma)
	}
	if c.InputSize <= 0 {
		return errors.Errorf("input_size must be positive, got %d", c.InputSize)
	}
	if _, err := mask.ParseMethod(c.MaskMethod); err != nil {
		return err
	}
	if c.AugmentCopies < 0 {
		return errors.Errorf("augment_copies must not be negative, got %d", c.AugmentCopies)
	}
	if c.VizSamples < 0 {
		return errors.Errorf("viz_samples must not be negative, got %d", c.VizSamples)
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	return nil
}

// Save writes the config as YAML, used to snapshot the effective settings
// into the run directory.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}
