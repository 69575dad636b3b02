package meta

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zrcbench/internal/evalerr"
	"zrcbench/internal/features"
)

const validYAML = `author: Jane Doe
affiliation: Example Lab
description: layer 4 activations of a small model
open_source: true
train_set: train-clean-100
gpu_budget: 60
visually_grounded: true
parameters:
  phonetic:
    metric: cosine
    frame_shift: 0.01
  semantic:
    metric: euclidean
    pooling: max
`

func writeMeta(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meta.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(writeMeta(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Author != "Jane Doe" || !m.OpenSource {
		t.Errorf("unexpected metadata: %+v", m)
	}
	if got := m.SemanticPooling(); got != features.PoolMax {
		t.Errorf("SemanticPooling() = %q, want max", got)
	}
	// Phonetic pooling is optional and defaults to mean.
	if got := m.PhoneticPooling(); got != features.PoolMean {
		t.Errorf("PhoneticPooling() = %q, want mean", got)
	}
	if got := m.Parameters.Phonetic.FrameShift; got != 0.01 {
		t.Errorf("FrameShift = %v, want 0.01", got)
	}
	if m.GPUBudget != 60 {
		t.Errorf("GPUBudget = %v, want 60", m.GPUBudget)
	}
	if !m.VisuallyGrounded {
		t.Error("VisuallyGrounded = false, want true")
	}
}

func TestLoadAcceptsLegacyBudgetKey(t *testing.T) {
	legacy := strings.Replace(validYAML, "gpu_budget: 60", "budget: 60", 1)
	m, err := Load(writeMeta(t, legacy))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.GPUBudget != 60 {
		t.Errorf("GPUBudget = %v, want 60 from the budget key", m.GPUBudget)
	}
}

func TestLoadRejectsMissingBudget(t *testing.T) {
	broken := strings.Replace(validYAML, "gpu_budget: 60\n", "", 1)
	_, err := Load(writeMeta(t, broken))
	if err == nil || !strings.Contains(err.Error(), "gpu_budget") {
		t.Fatalf("Load() error = %v, want gpu_budget validation failure", err)
	}
}

func TestLoadCollectsFieldErrors(t *testing.T) {
	broken := strings.NewReplacer(
		"author: Jane Doe", "author: \"\"",
		"metric: cosine", "metric: manhattan",
		"pooling: max", "pooling: median",
	).Replace(validYAML)

	_, err := Load(writeMeta(t, broken))
	var validation *evalerr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Load() error = %v, want ValidationError", err)
	}
	if len(validation.Errs) != 3 {
		t.Errorf("got %d field errors, want 3: %v", len(validation.Errs), validation.Errs)
	}
}

func TestLoadRejectsMissingFrameShift(t *testing.T) {
	broken := strings.Replace(validYAML, "    frame_shift: 0.01\n", "", 1)
	_, err := Load(writeMeta(t, broken))
	if err == nil || !strings.Contains(err.Error(), "frame_shift") {
		t.Fatalf("Load() error = %v, want frame_shift validation failure", err)
	}
}
