package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sorobanworks/boundary-train/internal/dataset"
	"github.com/sorobanworks/boundary-train/internal/evaluate"
	"github.com/sorobanworks/boundary-train/internal/imaging"
	"github.com/sorobanworks/boundary-train/internal/mask"
	"github.com/sorobanworks/boundary-train/internal/model"
	"github.com/sorobanworks/boundary-train/internal/training"
	"github.com/sorobanworks/boundary-train/internal/visualize"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("boundary-train %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	}

	// Logging goes to stderr; stdout is for reports and summaries.
	log, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}

	var cmdErr error
	switch os.Args[1] {
	case "train":
		cmdErr = runTrain(os.Args[2:], log)
	case "preview":
		cmdErr = runPreview(os.Args[2:], log)
	case "eval":
		cmdErr = runEval(os.Args[2:], log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		log.Error("command failed",
			zap.String("command", os.Args[1]),
			zap.Error(cmdErr))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func usage() {
	fmt.Println("boundary-train - heatmap corner detector training pipeline")
	fmt.Println()
	fmt.Println("Usage: boundary-train <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  train      train a corner detector on annotated frames")
	fmt.Println("  preview    render the masking and augmentation stages for one frame")
	fmt.Println("  eval       score a trained model against its annotations")
	fmt.Println("  version    print version information")
	fmt.Println()
	fmt.Println("Run 'boundary-train <command> -h' for the command's flags.")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  BOUNDARY_TRAIN_LOG_LEVEL=debug    Enable debug logging")
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if os.Getenv("BOUNDARY_TRAIN_LOG_LEVEL") == "debug" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func runTrain(args []string, log *zap.Logger) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file (defaults apply when empty)")
	dataDir := fs.String("data", "", "directory of annotated PNG frames (overrides config)")
	outDir := fs.String("out", "", "directory receiving run directories (overrides config)")
	modelKind := fs.String("model", "conv", "model to train: conv or prior")
	kernel := fs.Int("kernel", 3, "conv kernel size, odd")
	epochs := fs.Int("epochs", 0, "override the configured epoch count")
	seed := fs.Int64("seed", 0, "override the configured seed")
	fs.Parse(args)

	cfg := training.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = training.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *epochs > 0 {
		cfg.Epochs = *epochs
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := dataset.Load(cfg.DataDir, dataset.Options{
		InputSize:     cfg.InputSize,
		MaskMethod:    mask.Method(cfg.MaskMethod),
		AugmentCopies: cfg.AugmentCopies,
		Seed:          cfg.Seed,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	train, val, err := dataset.Split(ds.Samples, cfg.ValFraction, cfg.Seed)
	if err != nil {
		return err
	}

	m, err := buildModel(*modelKind, *kernel, cfg)
	if err != nil {
		return err
	}
	tr, err := training.New(cfg, m, log)
	if err != nil {
		return err
	}
	res, err := tr.Run(train, val)
	if err != nil {
		return err
	}

	fmt.Printf("run %s finished: %s\n", res.RunID, res.StopReason)
	fmt.Printf("  epochs run: %d\n", res.EpochsRun)
	fmt.Printf("  best epoch %d, validation loss %.6f\n", res.BestEpoch, res.BestVal)
	fmt.Printf("  model: %s\n", res.ModelPath)
	return nil
}

func buildModel(kind string, kernel int, cfg training.Config) (model.Model, error) {
	switch kind {
	case "prior":
		return model.NewPrior(cfg.HeatmapSize), nil
	case "conv":
		return model.NewConv(cfg.InputSize, cfg.HeatmapSize, kernel)
	}
	return nil, errors.Errorf("unknown model %q (want conv or prior)", kind)
}

func runPreview(args []string, log *zap.Logger) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	framePath := fs.String("frame", "", "annotated PNG frame to run through the pipeline")
	outDir := fs.String("out", "preview", "directory receiving the stage images")
	method := fs.String("method", string(mask.MethodNoise), "marker fill: noise, blur, black or inpaint")
	marker := fs.Int("marker", 0, "marker size in pixels (0 estimates from the frame)")
	size := fs.Int("size", 224, "network input resolution")
	seed := fs.Int64("seed", 42, "noise seed")
	fs.Parse(args)

	if *framePath == "" {
		return errors.New("-frame is required")
	}
	m, err := mask.ParseMethod(*method)
	if err != nil {
		return err
	}

	sidecar := strings.TrimSuffix(*framePath, filepath.Ext(*framePath)) + ".json"
	quad, err := dataset.ReadAnnotation(sidecar)
	if err != nil {
		return err
	}
	img, info, err := imaging.LoadImageInfo(*framePath)
	if err != nil {
		return err
	}
	fmt.Printf("frame %s: %dx%d %s, %d bytes\n",
		*framePath, info.Width, info.Height, info.Format, info.FileSizeBytes)

	opts := visualize.PreviewOptions{
		Method:     m,
		MarkerSize: *marker,
		InputSize:  *size,
		Seed:       *seed,
	}
	if err := visualize.Preview(img, quad, *outDir, opts); err != nil {
		return err
	}
	log.Info("preview written",
		zap.String("frame", *framePath),
		zap.String("dir", *outDir))
	fmt.Printf("pipeline preview written to %s\n", *outDir)
	return nil
}

func runEval(args []string, log *zap.Logger) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	modelPath := fs.String("model", "", "trained model (model.gob from a run directory)")
	dataDir := fs.String("data", "", "directory of annotated PNG frames")
	size := fs.Int("size", 0, "inference resolution (0 uses the model's own)")
	method := fs.String("method", string(mask.MethodNoise), "marker fill: noise, blur, black or inpaint")
	marker := fs.Int("marker", 0, "marker size in pixels (0 estimates from the frame)")
	samples := fs.Int("samples", 5, "number of frames to evaluate (0 means all)")
	compare := fs.Bool("compare", false, "also evaluate unmasked inputs")
	vizDir := fs.String("viz", "", "directory receiving heatmap blends (empty disables)")
	seed := fs.Int64("seed", 42, "noise seed")
	fs.Parse(args)

	if *modelPath == "" || *dataDir == "" {
		return errors.New("-model and -data are required")
	}
	mm, err := mask.ParseMethod(*method)
	if err != nil {
		return err
	}
	mdl, err := model.Load(*modelPath)
	if err != nil {
		return err
	}

	rep, err := evaluate.Run(mdl, *dataDir, evaluate.Options{
		InputSize:  *size,
		MaskMethod: mm,
		MarkerSize: *marker,
		Samples:    *samples,
		Compare:    *compare,
		VizDir:     *vizDir,
		Seed:       *seed,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	return rep.Write(os.Stdout)
}
