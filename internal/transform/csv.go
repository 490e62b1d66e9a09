package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filepipe/internal/fileutil"
)

// transformCSV tags the first line as the header and numbers each data
// row, keeping the raw line content intact. The output deliberately
// prefixes raw lines rather than re-encoding fields, so quoting in the
// source survives unchanged.
func (d *Dispatcher) transformCSV(path, outputPath string, ts time.Time) error {
	raw, err := os.ReadFile(path) //nolint:gosec // path originates from directory scan
	if err != nil {
		return fmt.Errorf("read csv file: %w", err)
	}
	decoded, err := decodeToUTF8(raw)
	if err != nil {
		return fmt.Errorf("decode csv file: %w", err)
	}
	lines := splitLines(decoded)

	out := metadataHeader(filepath.Base(path), ts, len(lines))
	for i, line := range lines {
		if i == 0 {
			out = append(out, "HEADER,"+line)
			continue
		}
		out = append(out, fmt.Sprintf("ROW_%04d,%s", i, line))
	}
	content := strings.Join(out, "\n") + "\n"
	if err := fileutil.WriteAtomic(outputPath, []byte(content)); err != nil {
		return fmt.Errorf("write csv output: %w", err)
	}
	return nil
}
