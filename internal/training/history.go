package training

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/sorobanworks/boundary-train/internal/loss"
)

// EpochStats is one epoch's record in the run history.
type EpochStats struct {
	Epoch          int     `json:"epoch"`
	LR             float64 `json:"lr"`
	TrainLoss      float64 `json:"train_loss"`
	TrainHeatmap   float64 `json:"train_heatmap"`
	TrainCoord     float64 `json:"train_coord"`
	TrainConvexity float64 `json:"train_convexity"`
	ValLoss        float64 `json:"val_loss"`
	ValMAE         float64 `json:"val_mae"`
	PixelError     float64 `json:"pixel_error"`
	Improved       bool    `json:"improved"`
	Seconds        float64 `json:"seconds"`
}

// History is the full training trajectory, written to history.json in the
// run directory.
type History struct {
	RunID      string       `json:"run_id"`
	BestEpoch  int          `json:"best_epoch"`
	BestVal    float64      `json:"best_val_loss"`
	StopReason string       `json:"stop_reason"`
	Epochs     []EpochStats `json:"epochs"`
}

// Save writes the history as indented JSON.
func (h *History) Save(path string) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding history")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}

// average is an incrementally updated weighted mean, used to fold batch
// statistics into epoch statistics.
type average struct {
	weight float64
	mean   float64
}

func (a *average) add(x, w float64) {
	a.weight += w
	a.mean += (x - a.mean) * w / a.weight
}

// termAverages folds per-batch loss terms into epoch means, weighted by
// batch size.
type termAverages struct {
	heatmap, coord, convexity, total average
}

func (a *termAverages) add(t loss.Terms, n float64) {
	a.heatmap.add(t.Heatmap, n)
	a.coord.add(t.Coord, n)
	a.convexity.add(t.Convexity, n)
	a.total.add(t.Total, n)
}

func (a *termAverages) terms() loss.Terms {
	return loss.Terms{
		Heatmap:   a.heatmap.mean,
		Coord:     a.coord.mean,
		Convexity: a.convexity.mean,
		Total:     a.total.mean,
	}
}
