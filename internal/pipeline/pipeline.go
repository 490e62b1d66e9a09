// Package pipeline owns the processing lifecycle: it starts the directory
// watcher and the reconciliation loop, funnels discovered paths through a
// bounded intake queue, and drives the single-flight processor until
// shutdown.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"filepipe/internal/config"
	"filepipe/internal/fileutil"
	"filepipe/internal/process"
	"filepipe/internal/transform"
	"filepipe/internal/watch"
)

// Pipeline wires discovery, queueing and processing together. Create with
// New, then Start; Stop drains in-flight work.
type Pipeline struct {
	cfg        config.Config
	gate       *process.ReadinessGate
	dispatcher *transform.Dispatcher
	processor  *process.Processor
	watcher    *watch.Watcher

	queue      chan process.FileTask
	inflight   map[string]struct{}
	inflightMu sync.Mutex

	// procMu is the global single-flight mutex: at most one transform
	// executes at any instant, regardless of how many discovery paths race.
	procMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// onOutcome is a test hook invoked after every processed task.
	onOutcome func(process.FileTask, process.Outcome)
}

// New builds a pipeline from configuration. No goroutines start until
// Start is called.
func New(cfg config.Config) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		gate:       process.NewReadinessGate(),
		dispatcher: transform.NewDispatcher(cfg.OutputDir),
		queue:      make(chan process.FileTask, cfg.QueueSize),
		inflight:   make(map[string]struct{}),
	}
	validator := process.NewValidator(cfg.SupportedExtensions, cfg.MaxFileSizeBytes)
	router := process.NewErrorRouter(cfg.OutputDir)
	p.processor = process.NewProcessor(validator, p.gate, router, p.dispatcher, &p.procMu)
	p.watcher = watch.New(cfg.InputDir, func(path string) {
		p.submit(process.NewFileTask(path, process.SourceWatcher))
	})
	return p
}

// Gate exposes the readiness gate so tests can tighten its bound.
func (p *Pipeline) Gate() *process.ReadinessGate { return p.gate }

// Watcher exposes the directory watcher for state assertions.
func (p *Pipeline) Watcher() *watch.Watcher { return p.watcher }

// UseOutcomeHook registers a callback observed after each task finishes.
// Intended for test setup only; must be set before Start.
func (p *Pipeline) UseOutcomeHook(hook func(process.FileTask, process.Outcome)) {
	p.onOutcome = hook
}

// Start creates the directories, launches the consumer, the watcher and
// the reconciliation loop, and performs an initial scan so files already
// present in the input directory are picked up.
func (p *Pipeline) Start(ctx context.Context) error {
	if err := fileutil.EnsureDir(p.cfg.InputDir); err != nil {
		return fmt.Errorf("input dir: %w", err)
	}
	if err := fileutil.EnsureDir(p.cfg.OutputDir); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.consume()

	if err := p.watcher.Start(p.ctx); err != nil {
		p.cancel()
		return fmt.Errorf("start watcher: %w", err)
	}

	p.scan()

	p.wg.Add(1)
	go p.reconcileLoop()

	log.Info().
		Str("input", p.cfg.InputDir).
		Str("output", p.cfg.OutputDir).
		Strs("extensions", p.cfg.SupportedExtensions).
		Dur("interval", p.cfg.Interval()).
		Msg("pipeline started")
	return nil
}

// Stop halts intake immediately, then waits for in-flight work to finish
// or the context to expire. Returns true if the drain completed.
func (p *Pipeline) Stop(ctx context.Context) bool {
	p.watcher.Stop()
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Msg("pipeline stopped")
		return true
	case <-ctx.Done():
		log.Warn().Msg("pipeline stop timed out with work in flight")
		return false
	}
}

// submit deduplicates against in-flight paths and blocks on the bounded
// queue: producers wait rather than drop when intake is saturated.
func (p *Pipeline) submit(task process.FileTask) bool {
	p.inflightMu.Lock()
	if _, busy := p.inflight[task.Path]; busy {
		p.inflightMu.Unlock()
		return false
	}
	p.inflight[task.Path] = struct{}{}
	p.inflightMu.Unlock()

	select {
	case p.queue <- task:
		log.Debug().Str("task_id", task.ID).Str("path", task.Path).Str("source", string(task.Source)).Msg("task queued")
		return true
	case <-p.ctx.Done():
		p.clearInflight(task.Path)
		return false
	}
}

func (p *Pipeline) clearInflight(path string) {
	p.inflightMu.Lock()
	delete(p.inflight, path)
	p.inflightMu.Unlock()
}

// consume is the single worker loop. Tasks still queued at shutdown are
// dropped: their files stay in the input directory and are rediscovered
// on the next run.
func (p *Pipeline) consume() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.queue:
			outcome := p.processor.Process(p.ctx, task)
			p.clearInflight(task.Path)
			if p.onOutcome != nil {
				p.onOutcome(task, outcome)
			}
		}
	}
}
