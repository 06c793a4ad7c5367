package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/recipecrawl/internal/model"
)

// Step is one stage of a run.
type Step interface {
	// Do executes the step. Failures that should not stop the run are
	// recorded in the report and nil is returned.
	Do(ctx context.Context, run *model.RunReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Finalizer marks a step that must run even after cancellation.
// Finalizers receive a context that is never cancelled.
type Finalizer interface {
	Finalize() bool
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing steps after one fails.
// The failure is still recorded in the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order. Once ctx is cancelled only Finalizer
// steps run. It returns the first step error unless continueOnError is
// set, and ctx.Err() when the run was cancelled.
func (p *Pipeline) Execute(ctx context.Context, run *model.RunReport) error {
	var firstErr error
	cancelled := false

	p.logger.Debug("starting pipeline", "steps", p.StepNames())

	for _, step := range p.steps {
		stepCtx := ctx
		if ctx.Err() != nil {
			if !isFinalizer(step) {
				if !cancelled {
					p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", ctx.Err())
				}
				cancelled = true
				continue
			}
			stepCtx = context.WithoutCancel(ctx)
		}

		p.logger.Debug("executing step", "step", step.Name())

		if err := step.Do(stepCtx, run); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "error", err)
			run.RecordStepError(step.Name(), err)

			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed", "step", step.Name())
	}

	if firstErr != nil {
		return firstErr
	}
	if cancelled || ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func isFinalizer(step Step) bool {
	f, ok := step.(Finalizer)
	return ok && f.Finalize()
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
