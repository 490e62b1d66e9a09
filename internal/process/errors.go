package process

import "errors"

var (
	// ErrStillLocked indicates the readiness gate exhausted its attempts
	// while the file was still being written by another process.
	ErrStillLocked = errors.New("file still locked after readiness retries")

	// ErrMalformedContent indicates a transform rejected the file content
	// (for example unparseable JSON or XML).
	ErrMalformedContent = errors.New("malformed content")

	// ErrNotRegular indicates the candidate path is not a regular file.
	ErrNotRegular = errors.New("not a regular file")
)
