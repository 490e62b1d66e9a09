// Package fileutil provides the small set of filesystem primitives the
// pipeline relies on: create-if-absent directories, atomic writes and a
// move that survives cross-device boundaries.
package fileutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const appDirPerm os.FileMode = 0o750

// EnsureDir creates the directory if it does not exist.
func EnsureDir(dirPath string) error {
	if dirPath == "" {
		return errors.New("empty dir path")
	}
	if err := os.MkdirAll(dirPath, appDirPerm); err != nil { //nolint:gosec // app-owned data dir
		return fmt.Errorf("ensure dir: %w", err)
	}
	return nil
}

// WriteAtomic writes data to filename via a temporary file in the same
// directory followed by a rename, so readers never observe a partial file.
func WriteAtomic(filename string, data []byte) error {
	if filename == "" {
		return errors.New("empty filename")
	}
	return commitTemp(filename, func(tempFile *os.File) error {
		_, err := tempFile.Write(data)
		return err
	})
}

// WriteJSONAtomic marshals the value and atomically writes it to filename.
func WriteJSONAtomic(filename string, v any) error {
	if filename == "" {
		return errors.New("empty filename")
	}
	return commitTemp(filename, func(tempFile *os.File) error {
		jsonEncoder := json.NewEncoder(tempFile)
		jsonEncoder.SetIndent("", "  ")
		return jsonEncoder.Encode(v)
	})
}

// CopyAtomic streams data from the reader to the destination file atomically.
func CopyAtomic(filename string, reader io.Reader) error {
	if filename == "" {
		return errors.New("empty filename")
	}
	return commitTemp(filename, func(tempFile *os.File) error {
		_, err := io.Copy(tempFile, reader)
		return err
	})
}

// Move renames src to dst, falling back to copy-and-remove when the rename
// crosses a filesystem boundary.
func Move(src, dst string) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	srcFile, err := os.Open(src) //nolint:gosec // path originates from directory scan
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	copyErr := CopyAtomic(dst, srcFile)
	closeErr := srcFile.Close()
	if copyErr != nil {
		return fmt.Errorf("copy to destination: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close source: %w", closeErr)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// commitTemp writes through a synced temp file in the target directory and
// renames it into place. The temp file is removed on any failure.
func commitTemp(filename string, fill func(*os.File) error) error {
	dir := filepath.Dir(filename)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tempFile.Name()

	if err := fill(tempFile); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	// ensure data hits disk
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}

	// remove existing file to avoid permission issues on Windows
	if _, err := os.Stat(filename); err == nil {
		// ignore error; if remove fails, rename may still succeed on POSIX
		_ = os.Remove(filename)
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("rename temp: %w", err)
	}
	return nil
}
