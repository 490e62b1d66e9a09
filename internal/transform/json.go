package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"filepipe/internal/fileutil"
	"filepipe/internal/process"
)

type jsonMetadata struct {
	ProcessedAt string `json:"ProcessedAt"`
	Source      string `json:"Source"`
	SizeBytes   int64  `json:"SizeBytes"`
	Valid       bool   `json:"Valid"`
}

// transformJSON verifies well-formedness and wraps the parsed document
// under OriginalContent alongside a Metadata object. Malformed input is a
// failure, not a skip.
func (d *Dispatcher) transformJSON(path, outputPath string, ts time.Time) error {
	raw, err := os.ReadFile(path) //nolint:gosec // path originates from directory scan
	if err != nil {
		return fmt.Errorf("read json file: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: invalid json in %s: %v", process.ErrMalformedContent, filepath.Base(path), err)
	}

	envelope := map[string]any{
		"Metadata": jsonMetadata{
			ProcessedAt: ts.Format(headerTimeLayout),
			Source:      filepath.Base(path),
			SizeBytes:   int64(len(raw)),
			Valid:       true,
		},
		"OriginalContent": parsed,
	}
	pretty, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	if err := fileutil.WriteAtomic(outputPath, append(pretty, '\n')); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}
