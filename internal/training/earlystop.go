package training

// earlyStop tracks the best validation loss and the patience countdown.
type earlyStop struct {
	patience int
	minDelta float64
	best     float64
	bad      int
	seen     bool
}

func newEarlyStop(patience int, minDelta float64) *earlyStop {
	return &earlyStop{patience: patience, minDelta: minDelta}
}

// observe feeds one epoch's validation loss. improved means the loss beat
// the best seen by more than minDelta; stop means patience ran out. The
// first observation always improves.
func (e *earlyStop) observe(loss float64) (improved, stop bool) {
	if !e.seen || loss < e.best-e.minDelta {
		e.seen = true
		e.best = loss
		e.bad = 0
		return true, false
	}
	e.bad++
	return false, e.bad >= e.patience
}
