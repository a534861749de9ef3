package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/reviewscan/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the report
// filled in by the steps before it.
type Step interface {
	// Do executes the pipeline step.
	// Non-critical failures are recorded in the report and Do returns nil.
	Do(ctx context.Context, report *model.TaskReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs the steps of one search task in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
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

// Execute runs all pipeline steps in sequence and stamps the report's
// duration when it returns.
//
// Cancellation is checked before each step; steps handle their own
// timeouts. The first error is recorded in the report and returned; a
// step records its per-link failures itself and returns nil for them.
func (p *Pipeline) Execute(ctx context.Context, report *model.TaskReport) error {
	defer func() {
		report.Duration = time.Since(report.StartedAt)
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"query", report.Task.Query(),
				"reason", ctx.Err(),
			)
			report.Cancelled = true
			p.record(report, ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"query", report.Task.Query(),
		)

		err := step.Do(ctx, report)
		report.PerformedSteps = append(report.PerformedSteps, step.Name())
		if err == nil {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"query", report.Task.Query(),
			)
			continue
		}

		if ctx.Err() != nil {
			report.Cancelled = true
		}
		p.logger.Error("step failed",
			"step", step.Name(),
			"query", report.Task.Query(),
			"error", err,
		)
		p.record(report, err)
		return err
	}

	return nil
}

func (p *Pipeline) record(report *model.TaskReport, err error) {
	if report.Error != nil {
		return
	}
	report.Error = err
	report.ErrorMessage = err.Error()
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
