package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	opts := Default()

	if opts.SegmentWidthMultiplier != 5 {
		t.Errorf("expected segment width multiplier 5, got %v", opts.SegmentWidthMultiplier)
	}
	if opts.GraphUpdateInterval != 250*time.Millisecond {
		t.Errorf("expected graph update interval 250ms, got %v", opts.GraphUpdateInterval)
	}
	if opts.FullGraphRebuild {
		t.Error("expected full graph rebuild to be false by default")
	}
	if opts.RtreeMaxEntries != 5 {
		t.Errorf("expected rtree max entries 5, got %d", opts.RtreeMaxEntries)
	}
	if opts.ReaderTimeout != 10*time.Millisecond {
		t.Errorf("expected reader timeout 10ms, got %v", opts.ReaderTimeout)
	}
	if opts.WriterTimeout != 20*time.Millisecond {
		t.Errorf("expected writer timeout 20ms, got %v", opts.WriterTimeout)
	}
	if opts.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", opts.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
segment_width_multiplier: 3
graph_update_interval: 500ms
full_graph_rebuild: true
rtree_max_entries: 8
logging:
  level: "debug"
  log_file: "engine.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	opts := Default()
	if err := loadFromFile(opts, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if opts.SegmentWidthMultiplier != 3 {
		t.Errorf("expected segment width multiplier 3, got %v", opts.SegmentWidthMultiplier)
	}
	if opts.GraphUpdateInterval != 500*time.Millisecond {
		t.Errorf("expected graph update interval 500ms, got %v", opts.GraphUpdateInterval)
	}
	if !opts.FullGraphRebuild {
		t.Error("expected full graph rebuild to be true")
	}
	if opts.RtreeMaxEntries != 8 {
		t.Errorf("expected rtree max entries 8, got %d", opts.RtreeMaxEntries)
	}
	if opts.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", opts.Logging.Level)
	}
	if opts.Logging.LogFile != "engine.log" {
		t.Errorf("expected log file 'engine.log', got %s", opts.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(configPath, []byte("segment_width_multiplier: [not a number\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	opts := Default()
	if err := loadFromFile(opts, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	opts := Default()
	if err := loadFromFile(opts, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidateClampsSegmentWidthMultiplier(t *testing.T) {
	opts := Default()
	opts.SegmentWidthMultiplier = 50
	if corrected := opts.Validate(); !corrected {
		t.Error("expected Validate to report a correction")
	}
	if opts.SegmentWidthMultiplier != 10 {
		t.Errorf("expected multiplier clamped to 10, got %v", opts.SegmentWidthMultiplier)
	}

	opts.SegmentWidthMultiplier = 0
	opts.Validate()
	if opts.SegmentWidthMultiplier != 1 {
		t.Errorf("expected multiplier clamped to 1, got %v", opts.SegmentWidthMultiplier)
	}
}

func TestEffectiveMinEntriesDerivesFromMaxWhenUnset(t *testing.T) {
	opts := Default()
	opts.RtreeMaxEntries = 5
	opts.RtreeMinEntries = 0
	if got := opts.EffectiveMinEntries(); got != 2 {
		t.Errorf("expected derived min entries 2 for max 5, got %d", got)
	}
}

func TestEffectiveMinEntriesHonorsExplicitOverride(t *testing.T) {
	opts := Default()
	opts.RtreeMaxEntries = 5
	opts.RtreeMinEntries = 4
	if got := opts.EffectiveMinEntries(); got != 4 {
		t.Errorf("expected explicit override 4 to win over the derived value, got %d", got)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned error for a missing optional file: %v", err)
	}
	if opts.SegmentWidthMultiplier != 5 {
		t.Errorf("expected defaults to survive a missing config file, got %v", opts.SegmentWidthMultiplier)
	}
}
