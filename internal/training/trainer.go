// Package training implements the custom training loop: cosine learning
// rate decay, per-epoch validation, checkpointing with early stopping, a
// consumable stop file, and run-directory bookkeeping. The loop drives any
// model through the Trainable interface.
package training

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sorobanworks/boundary-train/internal/dataset"
	"github.com/sorobanworks/boundary-train/internal/geometry"
	"github.com/sorobanworks/boundary-train/internal/heatmap"
	"github.com/sorobanworks/boundary-train/internal/loss"
	"github.com/sorobanworks/boundary-train/internal/model"
	"github.com/sorobanworks/boundary-train/internal/visualize"
)

// Trainable is the surface the loop needs from a model. Forward maps a
// batch of planar RGB tensors to corner logit planes; Backward accumulates
// parameter gradients from the loss gradient over those logits; Step
// applies them and clears the accumulators.
type Trainable interface {
	Forward(inputs []float64, n int) []float64
	Backward(grad []float64)
	Step(lr float64)
	Snapshot() []float64
	Restore(weights []float64)
}

// Stop reasons recorded in Result and History.
const (
	ReasonCompleted = "completed"
	ReasonEarlyStop = "early-stop"
	ReasonStopFile  = "stop-file"
)

// Result summarizes a finished run.
type Result struct {
	RunID      string
	RunDir     string
	ModelPath  string
	BestEpoch  int
	BestVal    float64
	EpochsRun  int
	StopReason string
	History    *History
}

// Trainer drives a Trainable through the epoch state machine.
type Trainer struct {
	cfg   Config
	model Trainable
	log   *zap.Logger
}

// New validates the config and builds a Trainer. logger may be nil.
func New(cfg Config, m Trainable, logger *zap.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("training needs a model")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{cfg: cfg, model: m, log: logger.Named("trainer")}, nil
}

// Run trains the model on train, validating on val, until the epoch budget
// is spent, the validation loss plateaus, or the stop file appears. On
// every exit path the best-seen weights are restored and persisted to the
// run directory along with the history and loss curves.
func (t *Trainer) Run(train, val []dataset.Sample) (*Result, error) {
	if len(train) == 0 || len(val) == 0 {
		return nil, errors.New("training needs non-empty train and validation sets")
	}
	if b := train[0].Image.Bounds(); b.Dx() != t.cfg.InputSize || b.Dy() != t.cfg.InputSize {
		return nil, errors.Errorf("samples are %dx%d but input_size is %d", b.Dx(), b.Dy(), t.cfg.InputSize)
	}

	runDir, runID, err := newRunDir(t.cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := t.cfg.Save(filepath.Join(runDir, "config.yaml")); err != nil {
		return nil, err
	}
	stopPath := t.cfg.StopFile
	if stopPath == "" {
		stopPath = filepath.Join(runDir, "stop-training")
	}

	t.log.Info("run starting",
		zap.String("run_id", runID),
		zap.String("run_dir", runDir),
		zap.Int("train_samples", len(train)),
		zap.Int("val_samples", len(val)),
		zap.Int("epochs", t.cfg.Epochs))

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	b := newBatcher(t.cfg)
	stopper := newEarlyStop(t.cfg.Patience, t.cfg.MinDelta)
	hist := &History{RunID: runID}
	reason := ReasonCompleted

	var best []float64
	bestEpoch := 0

	order := make([]int, len(train))
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if checkStop(stopPath, t.log) {
			reason = ReasonStopFile
			t.log.Info("stop file found, finishing run", zap.Int("epoch", epoch))
			break
		}

		start := time.Now()
		lr := cosineLR(t.cfg, epoch-1)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		trainTerms := t.trainEpoch(train, order, b, lr)
		valTerms, valMAE := t.validate(val, b)

		improved, stop := stopper.observe(valTerms.Total)
		if improved {
			best = t.model.Snapshot()
			bestEpoch = epoch
		}

		rec := EpochStats{
			Epoch:          epoch,
			LR:             lr,
			TrainLoss:      trainTerms.Total,
			TrainHeatmap:   trainTerms.Heatmap,
			TrainCoord:     trainTerms.Coord,
			TrainConvexity: trainTerms.Convexity,
			ValLoss:        valTerms.Total,
			ValMAE:         valMAE,
			PixelError:     valMAE * float64(t.cfg.InputSize),
			Improved:       improved,
			Seconds:        time.Since(start).Seconds(),
		}
		hist.Epochs = append(hist.Epochs, rec)

		t.log.Info("epoch finished",
			zap.Int("epoch", epoch),
			zap.Float64("lr", lr),
			zap.Float64("train_loss", trainTerms.Total),
			zap.Float64("val_loss", valTerms.Total),
			zap.Float64("val_mae", valMAE),
			zap.Float64("pixel_error", rec.PixelError),
			zap.Bool("improved", improved))

		if t.cfg.VizSamples > 0 {
			if err := t.renderSamples(runDir, epoch, val, b, rng); err != nil {
				t.log.Warn("visualization failed", zap.Error(err))
			}
		}

		if stop {
			reason = ReasonEarlyStop
			t.log.Info("validation loss plateaued, stopping",
				zap.Int("epoch", epoch),
				zap.Int("best_epoch", bestEpoch))
			break
		}
	}

	// Every exit path leaves the model holding its best-seen weights.
	if best != nil {
		t.model.Restore(best)
	}
	hist.BestEpoch = bestEpoch
	hist.BestVal = stopper.best
	hist.StopReason = reason

	modelPath := filepath.Join(runDir, "model.gob")
	if err := t.saveModel(modelPath); err != nil {
		return nil, err
	}
	if err := hist.Save(filepath.Join(runDir, "history.json")); err != nil {
		return nil, err
	}
	if err := saveCurves(filepath.Join(runDir, "curves.svg"), hist); err != nil {
		t.log.Warn("could not write loss curves", zap.Error(err))
	}

	t.log.Info("run finished",
		zap.String("reason", reason),
		zap.Int("epochs_run", len(hist.Epochs)),
		zap.Int("best_epoch", bestEpoch),
		zap.Float64("best_val_loss", stopper.best),
		zap.String("model", modelPath))

	return &Result{
		RunID:      runID,
		RunDir:     runDir,
		ModelPath:  modelPath,
		BestEpoch:  bestEpoch,
		BestVal:    stopper.best,
		EpochsRun:  len(hist.Epochs),
		StopReason: reason,
		History:    hist,
	}, nil
}

// trainEpoch runs one shuffled pass of gradient steps and returns the
// batch-weighted mean loss terms.
func (t *Trainer) trainEpoch(train []dataset.Sample, order []int, b *batcher, lr float64) loss.Terms {
	var avg termAverages
	bs := t.cfg.BatchSize
	for start := 0; start < len(order); start += bs {
		end := start + bs
		if end > len(order) {
			end = len(order)
		}
		inputs, targets, coords, n := b.build(train, order[start:end])
		grad := b.grad(n)
		out := t.model.Forward(inputs, n)
		terms := loss.Eval(out, targets, coords, n, t.cfg.HeatmapSize, grad)
		t.model.Backward(grad)
		t.model.Step(lr)
		avg.add(terms, float64(n))
	}
	return avg.terms()
}

// validate runs a forward-only pass and returns the mean loss terms and
// the coordinate MAE.
func (t *Trainer) validate(val []dataset.Sample, b *batcher) (loss.Terms, float64) {
	var avg termAverages
	var mae average
	bs := t.cfg.BatchSize
	for start := 0; start < len(val); start += bs {
		end := start + bs
		if end > len(val) {
			end = len(val)
		}
		inputs, targets, coords, n := b.build(val[start:end], nil)
		out := t.model.Forward(inputs, n)
		terms := loss.Eval(out, targets, coords, n, t.cfg.HeatmapSize, nil)
		avg.add(terms, float64(n))

		pred := heatmap.DecodeBatch(out, n, t.cfg.HeatmapSize)
		sum := 0.0
		for j := range pred {
			sum += math.Abs(pred[j] - coords[j])
		}
		mae.add(sum/float64(len(pred)), float64(n))
	}
	return avg.terms(), mae.mean
}

// renderSamples overlays predictions for a few random validation samples
// under <run dir>/viz.
func (t *Trainer) renderSamples(runDir string, epoch int, val []dataset.Sample, b *batcher, rng *rand.Rand) error {
	k := t.cfg.VizSamples
	if k > len(val) {
		k = len(val)
	}
	for i, idx := range rng.Perm(len(val))[:k] {
		s := val[idx]
		inputs, _, _, _ := b.build(val[idx:idx+1], nil)
		out := t.model.Forward(inputs, 1)
		pred := heatmap.DecodeQuad(out, t.cfg.HeatmapSize)

		path := filepath.Join(runDir, "viz", fmt.Sprintf("epoch%03d-sample%d.png", epoch, i))
		err := visualize.SaveOverlay(path, s.Image, s.Corners, pred, pixelError(pred, s.Corners, t.cfg.InputSize))
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Trainer) saveModel(path string) error {
	m, ok := t.model.(model.Model)
	if !ok {
		return errors.Errorf("model type %T cannot be persisted", t.model)
	}
	return model.Save(path, m)
}

func saveCurves(path string, h *History) error {
	points := make([]visualize.CurvePoint, len(h.Epochs))
	for i, e := range h.Epochs {
		points[i] = visualize.CurvePoint{
			Epoch:      e.Epoch,
			TrainLoss:  e.TrainLoss,
			ValLoss:    e.ValLoss,
			PixelError: e.PixelError,
		}
	}
	return visualize.SaveCurves(path, points)
}

// cosineLR returns the learning rate for a zero-based epoch index: the
// base rate at epoch 0 decaying to base*MinLR across the epoch budget.
func cosineLR(cfg Config, epoch int) float64 {
	min := cfg.LearningRate * cfg.MinLR
	return min + 0.5*(cfg.LearningRate-min)*(1+math.Cos(math.Pi*float64(epoch)/float64(cfg.Epochs)))
}

// pixelError is the mean corner distance in pixels at the network input
// resolution.
func pixelError(pred, gt geometry.Quad, inputSize int) float64 {
	sum := 0.0
	for i := range pred {
		sum += pred[i].Dist(gt[i])
	}
	return sum / 4 * float64(inputSize)
}
