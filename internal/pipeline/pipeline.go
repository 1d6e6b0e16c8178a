// Package pipeline implements the generic, cancellable sequential executor
// every multi-step mutation in the system is built on: import, export,
// deletion, migration, and cloud sync all compose a Pipeline out of Steps.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcadekeep/arcadekeep/internal/apperr"
)

// ErrCancelled is returned when a pipeline run is aborted by context
// cancellation rather than a step failure. It is the same sentinel the
// rest of the engine uses (apperr.ErrCancelled), so callers can check
// either name with errors.Is.
var ErrCancelled = apperr.ErrCancelled

// Outcome is the three-way result a Step returns after executing.
type Outcome int

const (
	// Continue proceeds to the next step.
	Continue Outcome = iota
	// Skip terminates the pipeline successfully without running the
	// remaining steps. Used for normal early exit (e.g. "nothing to do").
	Skip
	// Abort terminates the pipeline with failure. The error returned
	// alongside Abort surfaces to the caller, wrapped with the step name.
	Abort
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Step is a named unit of work in a pipeline. ShouldExecute is consulted
// before Execute on every run; a guard returning false is a no-op, the
// pipeline simply proceeds to the next step. Execute is only ever called
// when ShouldExecute returned true, so Execute may assume any precondition
// the guard establishes — violating that assumption from within Execute is
// a programmer error, not a runtime failure.
type Step[C any] interface {
	// Name identifies the step for logging and error context.
	Name() string
	// ShouldExecute decides whether this step runs on this invocation.
	ShouldExecute(ctx context.Context, c C) bool
	// Execute performs the step's work, mutating the shared context.
	Execute(ctx context.Context, c C) (Outcome, error)
}

// StepFunc adapts a plain function into a Step with an always-true guard.
// Useful for steps with no conditional skip logic.
type StepFunc[C any] struct {
	StepName string
	Fn       func(ctx context.Context, c C) (Outcome, error)
	Guard    func(ctx context.Context, c C) bool
}

func (s StepFunc[C]) Name() string { return s.StepName }

func (s StepFunc[C]) ShouldExecute(ctx context.Context, c C) bool {
	if s.Guard == nil {
		return true
	}

	return s.Guard(ctx, c)
}

func (s StepFunc[C]) Execute(ctx context.Context, c C) (Outcome, error) {
	return s.Fn(ctx, c)
}

// Pipeline is an ordered sequence of steps operating on a single context
// type. Execution is strictly sequential: step N begins only after step
// N-1 completes or is skipped by its guard.
type Pipeline[C any] struct {
	name   string
	steps  []Step[C]
	logger *slog.Logger
}

// New creates a Pipeline with the given name (used in trace logging) and
// ordered steps. A nil logger falls back to slog.Default().
func New[C any](name string, logger *slog.Logger, steps ...Step[C]) *Pipeline[C] {
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline[C]{name: name, steps: steps, logger: logger}
}

// Run executes the pipeline's steps in order against c. It returns the
// outcome of the final step considered (Skip on early exit, Continue if
// every step ran and none skipped or aborted) and an error only when a
// step aborted or the context was cancelled between steps.
//
// Cancellation is checked before each step's guard: a cancelled context
// converts the run into an Abort(ErrCancelled) rather than starting a
// fresh step. A step already in flight is never interrupted mid-body —
// cooperative steps must poll ctx themselves for finer-grained
// cancellation within batched work.
func (p *Pipeline[C]) Run(ctx context.Context, c C) (Outcome, error) {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline: cancelled before step",
				slog.String("pipeline", p.name),
				slog.String("step", step.Name()))

			return Abort, fmt.Errorf("%s: %w", step.Name(), ErrCancelled)
		}

		if !step.ShouldExecute(ctx, c) {
			p.logger.Debug("pipeline: step skipped by guard",
				slog.String("pipeline", p.name),
				slog.String("step", step.Name()))

			continue
		}

		start := time.Now()
		p.logger.Debug("pipeline: step starting",
			slog.String("pipeline", p.name),
			slog.String("step", step.Name()))

		outcome, err := step.Execute(ctx, c)
		elapsed := time.Since(start)

		p.logger.Debug("pipeline: step finished",
			slog.String("pipeline", p.name),
			slog.String("step", step.Name()),
			slog.String("outcome", outcome.String()),
			slog.Duration("elapsed", elapsed))

		switch outcome {
		case Continue:
			continue
		case Skip:
			p.logger.Info("pipeline: skipped by step",
				slog.String("pipeline", p.name),
				slog.String("step", step.Name()))

			return Skip, nil
		case Abort:
			wrapped := fmt.Errorf("%s: %w", step.Name(), err)
			p.logger.Error("pipeline: aborted",
				slog.String("pipeline", p.name),
				slog.String("step", step.Name()),
				slog.Any("error", err))

			return Abort, wrapped
		default:
			panic(fmt.Sprintf("pipeline: step %q returned unknown outcome %d", step.Name(), outcome))
		}
	}

	return Continue, nil
}

// Name returns the pipeline's identifying name.
func (p *Pipeline[C]) Name() string { return p.name }

// Steps returns the ordered steps, primarily for introspection in tests.
func (p *Pipeline[C]) Steps() []Step[C] { return p.steps }
