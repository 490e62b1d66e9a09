package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validator classifies candidate files as eligible or ineligible against
// the extension allow-list and size ceiling. Ineligible is not an error:
// the caller logs and leaves the file untouched.
type Validator struct {
	allowed map[string]struct{}
	maxSize int64
}

// NewValidator builds a validator from an already-normalized extension list
// (lower-case, leading dot) and a size ceiling in bytes.
func NewValidator(extensions []string, maxSizeBytes int64) *Validator {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &Validator{allowed: allowed, maxSize: maxSizeBytes}
}

// Eligible reports whether the file may be transformed, with a short
// human-readable reason when it may not.
func (v *Validator) Eligible(path string) (bool, string) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := v.allowed[ext]; !ok {
		return false, fmt.Sprintf("extension %q not allowed", ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Sprintf("stat failed: %v", err)
	}
	if !info.Mode().IsRegular() {
		return false, "not a regular file"
	}
	if info.Size() > v.maxSize {
		return false, fmt.Sprintf("size %d exceeds limit %d", info.Size(), v.maxSize)
	}
	return true, ""
}
