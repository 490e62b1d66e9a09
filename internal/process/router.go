package process

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"filepipe/internal/fileutil"
)

// errorsSubdir is created under the output directory on first use.
const errorsSubdir = "errors"

// ErrorRouter moves files that failed processing into a timestamped
// location under the output directory's errors/ subdirectory, so they are
// neither deleted nor reprocessed indefinitely.
type ErrorRouter struct {
	outputDir string
	now       func() time.Time
}

// NewErrorRouter creates a router writing under outputDir/errors.
func NewErrorRouter(outputDir string) *ErrorRouter {
	return &ErrorRouter{outputDir: outputDir, now: time.Now}
}

// UseClock allows tests to fix the timestamp embedded in error filenames.
func (r *ErrorRouter) UseClock(now func() time.Time) {
	r.now = now
}

// Route moves the file to {output}/errors/{base}_error_{timestamp}{ext}.
// The destination path is returned for logging. A failed move leaves the
// source in place; the next reconciliation pass will retry.
func (r *ErrorRouter) Route(path string) (string, error) {
	errDir := filepath.Join(r.outputDir, errorsSubdir)
	if err := fileutil.EnsureDir(errDir); err != nil {
		return "", fmt.Errorf("ensure errors dir: %w", err)
	}
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	dest := filepath.Join(errDir, fmt.Sprintf("%s_error_%s%s", base, r.now().Format("20060102_150405"), ext))
	if err := fileutil.Move(path, dest); err != nil {
		return "", fmt.Errorf("move to errors dir: %w", err)
	}
	return dest, nil
}
