package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"filepipe/internal/fileutil"
)

type sidecarMetadata struct {
	ProcessedAt string `json:"ProcessedAt"`
	Source      string `json:"Source"`
	SizeBytes   int64  `json:"SizeBytes"`
}

// copyGeneric byte-copies the file unmodified and writes a sibling
// {output}.metadata JSON sidecar describing it.
func (d *Dispatcher) copyGeneric(path, outputPath string, ts time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat generic file: %w", err)
	}
	src, err := os.Open(path) //nolint:gosec // path originates from directory scan
	if err != nil {
		return fmt.Errorf("open generic file: %w", err)
	}
	copyErr := fileutil.CopyAtomic(outputPath, src)
	if closeErr := src.Close(); closeErr != nil && copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return fmt.Errorf("copy generic file: %w", copyErr)
	}

	meta := sidecarMetadata{
		ProcessedAt: ts.Format(headerTimeLayout),
		Source:      filepath.Base(path),
		SizeBytes:   info.Size(),
	}
	if err := fileutil.WriteJSONAtomic(outputPath+".metadata", meta); err != nil {
		return fmt.Errorf("write metadata sidecar: %w", err)
	}
	return nil
}
