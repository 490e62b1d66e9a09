package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultReadinessAttempts = 10
	defaultReadinessDelay    = 500 * time.Millisecond
)

var errAwaitingStability = errors.New("awaiting a stable observation window")

// ReadinessGate checks that a file is no longer being written before it is
// read fully. A file counts as ready only after two consecutive attempts,
// one Delay apart, in which the open probe succeeds and size and mtime are
// unchanged between them. Attempts are bounded, so worst-case latency is
// Attempts*Delay (5s with defaults). The bound is deliberately fixed
// regardless of file size: a very slow writer of a large file can be
// classified as still locked, and the caller routes that to the error path.
type ReadinessGate struct {
	Attempts int
	Delay    time.Duration
	probe    func(path string) error
}

// NewReadinessGate returns a gate with the default bound (10 attempts,
// 500ms apart).
func NewReadinessGate() *ReadinessGate {
	return &ReadinessGate{
		Attempts: defaultReadinessAttempts,
		Delay:    defaultReadinessDelay,
		probe:    probeFile,
	}
}

// UseProbe allows tests to inject a fake open probe. Intended for test
// setup only; not safe to call while WaitUntilReady is running.
func (g *ReadinessGate) UseProbe(probe func(path string) error) {
	g.probe = probe
}

// WaitUntilReady blocks until the file passes a readiness probe in two
// consecutive attempts with identical size and mtime, or the attempt
// budget is exhausted, in which case ErrStillLocked is returned. Context
// cancellation aborts between attempts. POSIX offers no mandatory write
// locks, so the open probe alone cannot prove a writer is done; the
// inter-attempt stability window is what actually gates an active writer.
func (g *ReadinessGate) WaitUntilReady(ctx context.Context, path string) error {
	attempts := g.Attempts
	if attempts < 2 {
		// stability needs two observations
		attempts = 2
	}
	var lastErr error
	prevSize := int64(-1)
	var prevMod time.Time
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = g.probe(path)
		if lastErr == nil {
			info, statErr := os.Stat(path)
			switch {
			case statErr != nil:
				lastErr = fmt.Errorf("stat: %w", statErr)
				prevSize = -1
			case !info.Mode().IsRegular():
				lastErr = ErrNotRegular
				prevSize = -1
			case prevSize >= 0 && info.Size() == prevSize && info.ModTime().Equal(prevMod):
				return nil
			default:
				prevSize = info.Size()
				prevMod = info.ModTime()
				lastErr = errAwaitingStability
			}
		} else {
			// a failed probe invalidates the baseline
			prevSize = -1
		}
		log.Debug().
			Str("path", path).
			Int("attempt", attempt).
			Err(lastErr).
			Msg("file not ready")
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return fmt.Errorf("readiness wait aborted: %w", ctx.Err())
		}
	}
	return fmt.Errorf("%w: %s (last: %v)", ErrStillLocked, path, lastErr)
}

// probeFile is the default readiness probe: the file must be a regular
// file that can be opened for writing (which fails on platforms with
// mandatory locks while a writer holds the file).
func probeFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		return ErrNotRegular
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0) //nolint:gosec // path originates from directory scan
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
