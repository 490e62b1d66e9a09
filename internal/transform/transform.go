// Package transform implements the per-type file transformations: text,
// CSV, JSON, XML and a generic byte-copy for any other allowed extension.
// Strategy selection is by extension; output names embed a timestamp so
// repeated runs with the same source name never collide.
package transform

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// tsLayout is the timestamp suffix embedded in output filenames.
	tsLayout = "20060102_150405"
	// headerTimeLayout is the human-readable timestamp in metadata headers.
	headerTimeLayout = "2006-01-02 15:04:05"
)

// Dispatcher maps a file extension to its transform and writes the result
// into the output directory.
type Dispatcher struct {
	outputDir string
	now       func() time.Time
}

// NewDispatcher creates a dispatcher writing into outputDir.
func NewDispatcher(outputDir string) *Dispatcher {
	return &Dispatcher{outputDir: outputDir, now: time.Now}
}

// UseClock allows tests to fix the timestamps embedded in outputs.
// Intended for test setup only.
func (d *Dispatcher) UseClock(now func() time.Time) {
	d.now = now
}

// Transform runs the extension-appropriate strategy and returns the output
// path. Unknown (but allowed) extensions are byte-copied with a metadata
// sidecar.
func (d *Dispatcher) Transform(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	ts := d.now()
	outputPath := d.outputName(path, ts)

	var err error
	switch ext {
	case ".txt":
		err = d.transformText(path, outputPath, ts)
	case ".csv":
		err = d.transformCSV(path, outputPath, ts)
	case ".json":
		err = d.transformJSON(path, outputPath, ts)
	case ".xml":
		err = d.transformXML(path, outputPath, ts)
	default:
		err = d.copyGeneric(path, outputPath, ts)
	}
	if err != nil {
		return "", err
	}
	log.Debug().Str("path", path).Str("output", outputPath).Str("type", ext).Msg("transform complete")
	return outputPath, nil
}

// outputName builds {outputDir}/{base}_processed_{timestamp}{ext}.
func (d *Dispatcher) outputName(path string, ts time.Time) string {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return filepath.Join(d.outputDir, fmt.Sprintf("%s_processed_%s%s", base, ts.Format(tsLayout), ext))
}

// metadataHeader renders the four-line header shared by the line-oriented
// transforms.
func metadataHeader(source string, ts time.Time, lineCount int) []string {
	return []string{
		"=== Processed File ===",
		"Source: " + source,
		"Processed: " + ts.Format(headerTimeLayout),
		fmt.Sprintf("Lines: %d", lineCount),
	}
}

// splitLines splits decoded content into lines, tolerating CRLF endings
// and a single trailing newline. Empty content yields no lines.
func splitLines(content []byte) []string {
	s := strings.ReplaceAll(string(content), "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
