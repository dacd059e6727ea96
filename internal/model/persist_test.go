package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sorobanworks/boundary-train/internal/heatmap"
)

func TestSaveLoad_Prior(t *testing.T) {
	p := NewPrior(5)
	w := make([]float64, heatmap.Channels*25)
	for j := range w {
		w[j] = float64(j) * 0.001
	}
	p.Restore(w)

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := Save(path, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, ok := m.(*Prior); !ok {
		t.Fatalf("loaded model is %T, want *Prior", m)
	}
	if m.HeatmapSize() != 5 {
		t.Errorf("HeatmapSize: got %d, want 5", m.HeatmapSize())
	}
	if m.InputSize() != 0 {
		t.Errorf("InputSize: got %d, want 0", m.InputSize())
	}
	got := m.Snapshot()
	for j := range w {
		if got[j] != w[j] {
			t.Fatalf("param %d: got %g, want %g", j, got[j], w[j])
		}
	}
}

func TestSaveLoad_Conv(t *testing.T) {
	c, err := NewConv(8, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	params := make([]float64, heatmap.Channels*3*9+heatmap.Channels)
	for j := range params {
		params[j] = float64(j)*0.01 - 0.5
	}
	c.Restore(params)

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := Save(path, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, ok := m.(*Conv); !ok {
		t.Fatalf("loaded model is %T, want *Conv", m)
	}
	if m.HeatmapSize() != 4 {
		t.Errorf("HeatmapSize: got %d, want 4", m.HeatmapSize())
	}
	if m.InputSize() != 8 {
		t.Errorf("InputSize: got %d, want 8", m.InputSize())
	}
	got := m.Snapshot()
	for j := range params {
		if got[j] != params[j] {
			t.Fatalf("param %d: got %g, want %g", j, got[j], params[j])
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Fatal("expected an error for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.gob")
	if err := os.WriteFile(bad, []byte("not a gob stream"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("expected an error for a corrupt file")
	}
}
