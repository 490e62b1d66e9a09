// Package watch wires OS filesystem notifications into the pipeline's
// intake. The watcher is non-recursive and self-healing: a failure of the
// underlying notification channel faults the watcher, which restarts
// itself after a bounded backoff instead of escalating.
package watch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// State is the watcher lifecycle state, observable by tests and logs.
type State string

const (
	StateRunning    State = "running"
	StateFaulted    State = "faulted"
	StateRestarting State = "restarting"
	StateStopped    State = "stopped"
)

const defaultRestartBackoff = time.Second

// Watcher subscribes to creation and modification events for one
// directory and hands each affected path to the submit callback. The
// callback may block (the pipeline queue provides backpressure); it must
// not panic.
type Watcher struct {
	dir     string
	submit  func(path string)
	backoff time.Duration

	// newWatcher allows tests to inject a failing or fake factory.
	newWatcher func() (*fsnotify.Watcher, error)

	mu      sync.Mutex
	fw      *fsnotify.Watcher
	state   State
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// New creates a watcher for dir. Start must be called before events flow.
func New(dir string, submit func(path string)) *Watcher {
	return &Watcher{
		dir:        dir,
		submit:     submit,
		backoff:    defaultRestartBackoff,
		newWatcher: fsnotify.NewWatcher,
		state:      StateStopped,
	}
}

// UseFactory allows tests to inject a watcher factory. Test setup only.
func (w *Watcher) UseFactory(factory func() (*fsnotify.Watcher, error)) {
	w.newWatcher = factory
}

// UseBackoff shortens the restart backoff in tests.
func (w *Watcher) UseBackoff(d time.Duration) {
	w.backoff = d
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Start opens the notification channel and launches the event loop.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := w.open()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.fw = fw
	w.state = StateRunning
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)
	log.Info().Str("component", "watcher").Str("dir", w.dir).Msg("directory watcher started")
	return nil
}

// Stop tears the watcher down and waits for the event loop to exit.
// Idempotent.
func (w *Watcher) Stop() {
	if w.stopped.Swap(true) {
		return
	}
	w.mu.Lock()
	if w.fw != nil {
		_ = w.fw.Close()
	}
	w.mu.Unlock()
	w.wg.Wait()
	w.setState(StateStopped)
}

func (w *Watcher) open() (*fsnotify.Watcher, error) {
	fw, err := w.newWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}
	return fw, nil
}

// run drains the notification channels. Channel failure or closure sends
// the watcher through Faulted -> Restarting -> Running; shutdown exits.
func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		w.mu.Lock()
		fw := w.fw
		w.mu.Unlock()
		if fw == nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				if !w.restart(ctx) {
					return
				}
				continue
			}
			w.handleEvent(event)
		case err, ok := <-fw.Errors:
			if !ok {
				if !w.restart(ctx) {
					return
				}
				continue
			}
			log.Warn().Str("component", "watcher").Err(err).Msg("notification channel error")
			if !w.restart(ctx) {
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	w.submit(event.Name)
}

// restart performs the bounded self-healing cycle. It returns false when
// the watcher should exit instead (shutdown in progress).
func (w *Watcher) restart(ctx context.Context) bool {
	if w.stopped.Load() || ctx.Err() != nil {
		return false
	}
	w.setState(StateFaulted)
	w.mu.Lock()
	if w.fw != nil {
		_ = w.fw.Close()
		w.fw = nil
	}
	w.mu.Unlock()

	for {
		w.setState(StateRestarting)
		log.Warn().Str("component", "watcher").Dur("backoff", w.backoff).Msg("restarting directory watcher")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(w.backoff):
		}
		if w.stopped.Load() {
			return false
		}
		fw, err := w.open()
		if err != nil {
			log.Error().Str("component", "watcher").Err(err).Msg("watcher restart failed, will retry")
			continue
		}
		w.mu.Lock()
		w.fw = fw
		w.state = StateRunning
		w.mu.Unlock()
		log.Info().Str("component", "watcher").Msg("directory watcher recovered")
		return true
	}
}
