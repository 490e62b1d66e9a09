package process

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func newFastGate(attempts int) *ReadinessGate {
	g := NewReadinessGate()
	g.Attempts = attempts
	g.Delay = time.Millisecond
	return g
}

func TestWaitUntilReadyQuietFile(t *testing.T) {
	g := newFastGate(3)
	path := writeTemp(t, "quiet.txt", "done writing")

	if err := g.WaitUntilReady(context.Background(), path); err != nil {
		t.Fatalf("expected quiet file to become ready: %v", err)
	}
}

func TestWaitUntilReadyRequiresStableWindow(t *testing.T) {
	g := newFastGate(5)
	path := writeTemp(t, "steady.txt", "content")
	calls := 0
	g.UseProbe(func(string) error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	})

	if err := g.WaitUntilReady(context.Background(), path); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	// two failed probes, then a baseline observation, then a stable one
	if calls != 4 {
		t.Fatalf("expected 4 probe calls, got %d", calls)
	}
}

func TestWaitUntilReadyExhaustsToStillLocked(t *testing.T) {
	g := newFastGate(4)
	calls := 0
	g.UseProbe(func(path string) error {
		calls++
		return errors.New("busy")
	})

	err := g.WaitUntilReady(context.Background(), "whatever")
	if !errors.Is(err, ErrStillLocked) {
		t.Fatalf("expected ErrStillLocked, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected the bound to cap attempts at 4, got %d", calls)
	}
}

func TestWaitUntilReadyHoldsWhileWriterActive(t *testing.T) {
	path := writeTemp(t, "growing.txt", "start")
	g := NewReadinessGate()
	g.Attempts = 40
	g.Delay = 50 * time.Millisecond

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	const writeDuration = 300 * time.Millisecond
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		deadline := time.Now().Add(writeDuration)
		for time.Now().Before(deadline) {
			if _, err := f.Write([]byte("chunk\n")); err != nil {
				t.Errorf("append: %v", err)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		if err := f.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	start := time.Now()
	if err := g.WaitUntilReady(context.Background(), path); err != nil {
		t.Fatalf("expected ready once writes stopped: %v", err)
	}
	elapsed := time.Since(start)
	<-writerDone
	if elapsed < writeDuration-50*time.Millisecond {
		t.Fatalf("gate declared ready after %v while the writer was still appending", elapsed)
	}
}

func TestWaitUntilReadyExhaustsAgainstPersistentWriter(t *testing.T) {
	path := writeTemp(t, "endless.txt", "start")
	g := newFastGate(4)
	g.Delay = 20 * time.Millisecond

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer f.Close()
		for {
			select {
			case <-stop:
				return
			default:
				if _, err := f.Write([]byte("chunk\n")); err != nil {
					return
				}
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()

	err = g.WaitUntilReady(context.Background(), path)
	close(stop)
	<-writerDone
	if !errors.Is(err, ErrStillLocked) {
		t.Fatalf("expected ErrStillLocked against a persistent writer, got %v", err)
	}
}

func TestWaitUntilReadyAbortsOnCancel(t *testing.T) {
	g := newFastGate(1000)
	g.Delay = 50 * time.Millisecond
	g.UseProbe(func(path string) error { return errors.New("busy") })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := g.WaitUntilReady(ctx, "whatever")
	if err == nil || errors.Is(err, ErrStillLocked) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancellation did not abort promptly")
	}
}

func TestDefaultProbeRejectsMissingFile(t *testing.T) {
	if err := probeFile("does-not-exist.txt"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultBoundMatchesContract(t *testing.T) {
	g := NewReadinessGate()
	if g.Attempts != 10 || g.Delay != 500*time.Millisecond {
		t.Fatalf("readiness bound changed: attempts=%d delay=%v", g.Attempts, g.Delay)
	}
}
