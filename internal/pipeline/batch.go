package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/model"
)

// ErrNoAgents is returned when a BatchProcessor has no browser agent to run on.
var ErrNoAgents = errors.New("no browser agent available")

// BatchProcessor runs search tasks concurrently, one browser agent per
// running task. Concurrency equals the number of agents; with a single
// agent the tasks run strictly in order.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline bound to an agent for each task.
	pipelineFactory func(agent browser.Agent) *Pipeline

	// agents is the pool of idle agents.
	agents chan browser.Agent

	// concurrency is the number of tasks running at once.
	concurrency int

	// onTaskDone is called after each task that ran, from the worker goroutine.
	onTaskDone func(report *model.TaskReport, index int)

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed task reports in task order.
	results []*model.TaskReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithTaskDone sets a callback invoked after each task that ran.
// It may be called from several goroutines at once.
func WithTaskDone(fn func(report *model.TaskReport, index int)) BatchOption {
	return func(b *BatchProcessor) {
		b.onTaskDone = fn
	}
}

// NewBatchProcessor creates a BatchProcessor over agents.
//
// The pipelineFactory function is called for each task with the agent the
// task runs on, so that pipeline state doesn't leak between tasks.
func NewBatchProcessor(agents []browser.Agent, pipelineFactory func(agent browser.Agent) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		agents:          make(chan browser.Agent, len(agents)),
		concurrency:     len(agents),
	}
	for _, a := range agents {
		bp.agents <- a
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs every task and returns the reports in task order.
// Tasks that never started are nil.
//
// Per-task failures are recorded in the reports and do not stop the batch.
// A transport failure or cancellation stops the batch: running tasks are
// cancelled, no new task starts and the error is returned alongside the
// reports collected so far.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, tasks []model.SearchTask) ([]*model.TaskReport, error) {
	if bp.concurrency == 0 {
		return nil, ErrNoAgents
	}

	bp.logger.Info("starting batch processing",
		"total_tasks", len(tasks),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.TaskReport, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			var agent browser.Agent
			select {
			case <-ctx.Done():
				return ctx.Err()
			case agent = <-bp.agents:
			}
			defer func() { bp.agents <- agent }()

			// The agent and the cancellation can be ready together.
			if err := ctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("processing task",
				"query", task.Query(),
				"index", i+1,
				"total", len(tasks),
			)

			report := model.NewTaskReport(task)
			err := bp.pipelineFactory(agent).Execute(ctx, report)

			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if bp.onTaskDone != nil {
				bp.onTaskDone(report, i)
			}

			if err != nil {
				if browser.IsFatal(err) || ctx.Err() != nil {
					return err
				}
				bp.logger.Warn("task failed",
					"query", task.Query(),
					"error", err,
				)
			}
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_tasks", len(tasks),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	return bp.results, err
}
