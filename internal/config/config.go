package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultInputDir        = "data/input"
	defaultOutputDir       = "data/output"
	defaultMaxFileSize     = 10 << 20 // 10 MiB
	defaultIntervalSeconds = 30
	defaultQueueSize       = 64
)

// Config describes runtime configuration for the pipeline.
type Config struct {
	InputDir                  string   `yaml:"input_dir"`
	OutputDir                 string   `yaml:"output_dir"`
	SupportedExtensions       []string `yaml:"supported_extensions"`
	MaxFileSizeBytes          int64    `yaml:"max_file_size_bytes"`
	ProcessingIntervalSeconds int      `yaml:"processing_interval_seconds"`
	QueueSize                 int      `yaml:"queue_size"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		InputDir:                  defaultInputDir,
		OutputDir:                 defaultOutputDir,
		SupportedExtensions:       []string{".txt", ".csv", ".json", ".xml"},
		MaxFileSizeBytes:          defaultMaxFileSize,
		ProcessingIntervalSeconds: defaultIntervalSeconds,
		QueueSize:                 defaultQueueSize,
	}
}

// Load reads YAML config from the provided path. If the file does not exist
// or is empty, defaults are returned with no error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty config path")
	}
	fileData, err := os.ReadFile(path) //nolint:gosec // config path is controlled by deployment
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(fileData) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(fileData, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	// basic normalization
	if cfg.InputDir == "" {
		cfg.InputDir = defaultInputDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	if cfg.MaxFileSizeBytes == 0 {
		cfg.MaxFileSizeBytes = defaultMaxFileSize
	}
	if cfg.ProcessingIntervalSeconds == 0 {
		cfg.ProcessingIntervalSeconds = defaultIntervalSeconds
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = defaultQueueSize
	}
	// validate explicitly: negative or sub-minimum values are not allowed
	if cfg.MaxFileSizeBytes < 1 {
		return cfg, fmt.Errorf("invalid max_file_size_bytes: %d (must be >= 1)", cfg.MaxFileSizeBytes)
	}
	if cfg.ProcessingIntervalSeconds < 1 {
		return cfg, fmt.Errorf("invalid processing_interval_seconds: %d (must be >= 1)", cfg.ProcessingIntervalSeconds)
	}
	if cfg.QueueSize < 1 {
		return cfg, fmt.Errorf("invalid queue_size: %d (must be >= 1)", cfg.QueueSize)
	}
	cfg.SupportedExtensions = normalizeExtensions(cfg.SupportedExtensions)
	return cfg, nil
}

// Interval returns the reconciliation cadence as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.ProcessingIntervalSeconds) * time.Second
}

func normalizeExtensions(in []string) []string {
	if len(in) == 0 {
		return Default().SupportedExtensions
	}
	seen := make(map[string]struct{}, len(in))
	normalized := make([]string, 0, len(in))
	for _, ext := range in {
		e := strings.ToLower(strings.TrimSpace(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		normalized = append(normalized, e)
	}
	return normalized
}
