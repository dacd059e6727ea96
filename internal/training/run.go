package training

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// newRunDir creates <output>/run-<timestamp>-<short id> with its viz
// subdirectory and returns the directory and the full run id.
func newRunDir(outputDir string) (dir, runID string, err error) {
	runID = uuid.NewString()
	name := fmt.Sprintf("run-%s-%s", time.Now().Format("20060102-150405"), runID[:8])
	dir = filepath.Join(outputDir, name)
	if err := os.MkdirAll(filepath.Join(dir, "viz"), 0o755); err != nil {
		return "", "", errors.Wrap(err, "creating run directory")
	}
	return dir, runID, nil
}

// checkStop reports whether the stop file exists and consumes it, so a
// stale file cannot halt the next run.
func checkStop(path string, log *zap.Logger) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		log.Warn("could not remove stop file",
			zap.String("path", path),
			zap.Error(err))
	}
	return true
}
