package dataset

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/sorobanworks/boundary-train/internal/geometry"
)

type sidecarPoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type sidecarCorners struct {
	TopLeft     *sidecarPoint `json:"topLeft"`
	TopRight    *sidecarPoint `json:"topRight"`
	BottomLeft  *sidecarPoint `json:"bottomLeft"`
	BottomRight *sidecarPoint `json:"bottomRight"`
}

type sidecarFile struct {
	Corners *sidecarCorners `json:"corners"`
}

// ReadAnnotation parses a sidecar annotation file into a corner set in
// pipeline order. Every corner must be present with both coordinates in
// [0,1]; anything less is an input error naming the file.
func ReadAnnotation(path string) (geometry.Quad, error) {
	var q geometry.Quad

	raw, err := os.ReadFile(path)
	if err != nil {
		return q, errors.Wrapf(err, "annotation %s", path)
	}

	var f sidecarFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return q, errors.Wrapf(err, "annotation %s", path)
	}
	if f.Corners == nil {
		return q, errors.Errorf("annotation %s: missing corners object", path)
	}

	named := []struct {
		name string
		p    *sidecarPoint
	}{
		{"topLeft", f.Corners.TopLeft},
		{"topRight", f.Corners.TopRight},
		{"bottomLeft", f.Corners.BottomLeft},
		{"bottomRight", f.Corners.BottomRight},
	}
	for i, c := range named {
		if c.p == nil {
			return q, errors.Errorf("annotation %s: missing corner %s", path, c.name)
		}
		if c.p.X == nil || c.p.Y == nil {
			return q, errors.Errorf("annotation %s: corner %s missing x or y", path, c.name)
		}
		q[i] = geometry.Point{X: *c.p.X, Y: *c.p.Y}
	}

	if !q.InUnitRange() {
		return q, errors.Errorf("annotation %s: corners outside the [0,1] range", path)
	}
	return q, nil
}
