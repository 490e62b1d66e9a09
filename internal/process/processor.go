package process

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Transformer turns a source file into an output file and returns the
// output path. Implemented by the transform package's Dispatcher.
type Transformer interface {
	Transform(path string) (string, error)
}

// Processor orchestrates one file's journey: existence check, eligibility,
// readiness, transformation, source deletion. Any failure past eligibility
// is routed to the error directory. A single mutex, owned by the pipeline,
// guarantees at most one transformation at any instant.
type Processor struct {
	validator   *Validator
	gate        *ReadinessGate
	router      *ErrorRouter
	transformer Transformer
	mu          *sync.Mutex
}

// NewProcessor wires the processing steps around the shared single-flight
// mutex.
func NewProcessor(validator *Validator, gate *ReadinessGate, router *ErrorRouter, transformer Transformer, mu *sync.Mutex) *Processor {
	return &Processor{
		validator:   validator,
		gate:        gate,
		router:      router,
		transformer: transformer,
		mu:          mu,
	}
}

// Process runs a task to completion. It never returns an error: every
// failure is contained here, logged, and reflected in the outcome.
func (p *Processor) Process(ctx context.Context, task FileTask) Outcome {
	taskLog := log.With().
		Str("task_id", task.ID).
		Str("path", task.Path).
		Str("source", string(task.Source)).
		Logger()

	// Another actor may have removed the file between discovery and now.
	if _, err := os.Stat(task.Path); os.IsNotExist(err) {
		taskLog.Debug().Msg("file gone before processing, dropping")
		return Outcome{Status: StatusSkipped}
	}

	if ok, reason := p.validator.Eligible(task.Path); !ok {
		taskLog.Warn().Str("reason", reason).Msg("file not eligible, left in place")
		return Outcome{Status: StatusSkipped}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.gate.WaitUntilReady(ctx, task.Path); err != nil {
		// shutdown is not a file fault: leave the file in the input dir
		// so it is rediscovered on the next run
		if ctx.Err() != nil {
			taskLog.Debug().Msg("shutdown during readiness wait, file left in place")
			return Outcome{Status: StatusSkipped}
		}
		taskLog.Error().Err(err).Msg("file never became ready")
		return p.fail(taskLog, task, err)
	}

	outputPath, err := p.transformer.Transform(task.Path)
	if err != nil {
		taskLog.Error().Err(err).Msg("transform failed")
		return p.fail(taskLog, task, err)
	}

	if err := os.Remove(task.Path); err != nil {
		taskLog.Error().Err(err).Str("output", outputPath).Msg("delete source failed")
		return p.fail(taskLog, task, fmt.Errorf("delete source: %w", err))
	}

	taskLog.Info().Str("output", outputPath).Msg("file processed")
	return Outcome{Status: StatusSuccess, OutputPath: outputPath}
}

// fail routes the source file to the error directory. A failed move is
// logged and the file stays put for the next reconciliation pass.
func (p *Processor) fail(taskLog zerolog.Logger, task FileTask, cause error) Outcome {
	dest, routeErr := p.router.Route(task.Path)
	if routeErr != nil {
		taskLog.Error().Err(routeErr).Msg("error routing failed, file left in input dir")
	} else {
		taskLog.Warn().Str("error_path", dest).Msg("file moved to errors dir")
	}
	return Outcome{Status: StatusFailed, Err: cause}
}
