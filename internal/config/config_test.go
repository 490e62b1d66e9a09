package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultAndNormalize(t *testing.T) {
	cfg := Default()
	if cfg.InputDir == "" || cfg.OutputDir == "" || cfg.MaxFileSizeBytes < 1 || cfg.ProcessingIntervalSeconds < 1 {
		t.Fatalf("default config invalid: %+v", cfg)
	}

	got := normalizeExtensions([]string{"TXT", ".csv", "txt", "  .JSON"})

	has := func(slice []string, s string) bool {
		for _, v := range slice {
			if v == s {
				return true
			}
		}
		return false
	}
	if !has(got, ".txt") || !has(got, ".csv") || !has(got, ".json") {
		t.Fatalf("expected normalized set to contain .txt,.csv,.json got %v", got)
	}
	if len(got) != 3 {
		t.Fatalf("expected duplicates removed, got %v", got)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("not_exists.yml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.QueueSize != Default().QueueSize {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadReadsAndValidates(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "cfg.yml")
	content := []byte("input_dir: in\noutput_dir: out\nsupported_extensions: [txt, .JSON]\nmax_file_size_bytes: 1024\nprocessing_interval_seconds: 5\nqueue_size: 8\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InputDir != "in" || cfg.OutputDir != "out" || cfg.MaxFileSizeBytes != 1024 || cfg.QueueSize != 8 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Interval() != 5*time.Second {
		t.Fatalf("unexpected interval: %v", cfg.Interval())
	}

	if len(cfg.SupportedExtensions) != 2 || cfg.SupportedExtensions[0] != ".txt" || cfg.SupportedExtensions[1] != ".json" {
		t.Fatalf("extensions not normalized: %v", cfg.SupportedExtensions)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []string{
		"max_file_size_bytes: -1\n",
		"processing_interval_seconds: -3\n",
		"queue_size: -1\n",
	}
	for _, content := range cases {
		path := filepath.Join(t.TempDir(), "cfg.yml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error for config %q", content)
		}
	}
}
