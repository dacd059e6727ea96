package dataset

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Split partitions samples into training and validation sets. The partition
// is by frame: every variant of one frame lands on the same side, so
// jittered copies of a validation frame never appear in training. Frame
// order is shuffled with the given seed, making the partition reproducible.
func Split(samples []Sample, valFraction float64, seed int64) (train, val []Sample, err error) {
	if valFraction <= 0 || valFraction >= 1 {
		return nil, nil, errors.Errorf("validation fraction must be in (0, 1), got %g", valFraction)
	}

	var order []int
	seen := map[int]bool{}
	for _, s := range samples {
		if !seen[s.Frame] {
			seen[s.Frame] = true
			order = append(order, s.Frame)
		}
	}
	if len(order) < 2 {
		return nil, nil, errors.Errorf("need at least 2 frames to split, got %d", len(order))
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	nVal := int(float64(len(order)) * valFraction)
	if nVal < 1 {
		nVal = 1
	}
	if nVal >= len(order) {
		nVal = len(order) - 1
	}
	inVal := map[int]bool{}
	for _, f := range order[:nVal] {
		inVal[f] = true
	}

	for _, s := range samples {
		if inVal[s.Frame] {
			val = append(val, s)
		} else {
			train = append(train, s)
		}
	}
	return train, val, nil
}
