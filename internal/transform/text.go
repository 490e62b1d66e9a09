package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filepipe/internal/fileutil"
)

// transformText numbers each line and prepends the metadata header block.
func (d *Dispatcher) transformText(path, outputPath string, ts time.Time) error {
	raw, err := os.ReadFile(path) //nolint:gosec // path originates from directory scan
	if err != nil {
		return fmt.Errorf("read text file: %w", err)
	}
	decoded, err := decodeToUTF8(raw)
	if err != nil {
		return fmt.Errorf("decode text file: %w", err)
	}
	lines := splitLines(decoded)

	out := metadataHeader(filepath.Base(path), ts, len(lines))
	for i, line := range lines {
		out = append(out, fmt.Sprintf("%d: %s", i+1, line))
	}
	content := strings.Join(out, "\n") + "\n"
	if err := fileutil.WriteAtomic(outputPath, []byte(content)); err != nil {
		return fmt.Errorf("write text output: %w", err)
	}
	return nil
}
