package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/crawler"
	"github.com/nao1215/reviewscan/internal/model"
)

// Default crawl pacing.
const (
	// DefaultThrottleMin and DefaultThrottleMax bound the pause between
	// two location visits.
	DefaultThrottleMin = 2 * time.Second
	DefaultThrottleMax = 5 * time.Second

	// DefaultResultPauseMin and DefaultResultPauseMax bound the pause after
	// each scroll of the result list.
	DefaultResultPauseMin = 2 * time.Second
	DefaultResultPauseMax = 4 * time.Second

	// DefaultReviewPause is the pause after each scroll of a review list.
	DefaultReviewPause = 3 * time.Second
)

// Settings tunes the crawl components built for every worker.
type Settings struct {
	Selectors crawler.Selectors
	BaseURL   string

	ResultPauseMin      time.Duration
	ResultPauseMax      time.Duration
	ReviewPause         time.Duration
	MaxScrollIterations int
	MaxScrollDuration   time.Duration

	ThrottleMin time.Duration
	ThrottleMax time.Duration

	ResultTimeout  time.Duration
	ConsentTimeout time.Duration
	PageTimeout    time.Duration
	FieldTimeout   time.Duration

	ExpandWait      time.Duration
	ExpandPause     time.Duration
	MaxExpandClicks int
}

// DefaultSettings returns the pacing and timeouts of a polite crawl.
func DefaultSettings() Settings {
	return Settings{
		Selectors:           crawler.DefaultSelectors(),
		BaseURL:             crawler.DefaultBaseURL,
		ResultPauseMin:      DefaultResultPauseMin,
		ResultPauseMax:      DefaultResultPauseMax,
		ReviewPause:         DefaultReviewPause,
		MaxScrollIterations: crawler.DefaultMaxScrollIterations,
		MaxScrollDuration:   crawler.DefaultMaxScrollDuration,
		ThrottleMin:         DefaultThrottleMin,
		ThrottleMax:         DefaultThrottleMax,
		ResultTimeout:       crawler.DefaultResultTimeout,
		ConsentTimeout:      crawler.DefaultConsentTimeout,
		PageTimeout:         crawler.DefaultPageTimeout,
		FieldTimeout:        crawler.DefaultFieldTimeout,
		ExpandWait:          crawler.DefaultExpandWait,
		ExpandPause:         crawler.DefaultExpandPause,
		MaxExpandClicks:     crawler.DefaultMaxExpandClicks,
	}
}

// Driver crawls the cross-product of organizations and cities.
// Every task runs a discover step and a visit step on one of the agents;
// all tasks share one session.
type Driver struct {
	agents     []browser.Agent
	session    *crawler.Session
	settings   Settings
	onTaskDone func(report *model.TaskReport, index int)
	logger     *slog.Logger

	// discoveries keeps one Discovery per agent so the consent dialog
	// is only looked for once per tab.
	discoveries map[browser.Agent]*crawler.Discovery
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithSettings sets the component settings.
func WithSettings(s Settings) DriverOption {
	return func(d *Driver) {
		d.settings = s
	}
}

// WithDriverTaskDone sets a callback invoked after each task that ran.
func WithDriverTaskDone(fn func(report *model.TaskReport, index int)) DriverOption {
	return func(d *Driver) {
		d.onTaskDone = fn
	}
}

// WithDriverLogger sets the logger passed to every component.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a Driver running on agents and collecting into session.
func NewDriver(agents []browser.Agent, session *crawler.Session, opts ...DriverOption) *Driver {
	d := &Driver{
		agents:   agents,
		session:  session,
		settings: DefaultSettings(),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	d.discoveries = make(map[browser.Agent]*crawler.Discovery, len(agents))
	for _, a := range agents {
		d.discoveries[a] = d.newDiscovery(a)
	}

	return d
}

// Run crawls tasks in order and returns the run summary.
// The summary is returned even when err is non-nil; it covers the tasks
// that ran. Rows stay in the session sink for the caller to persist.
func (d *Driver) Run(ctx context.Context, tasks []model.SearchTask) (*model.RunSummary, error) {
	summary := model.NewRunSummary()

	bp := NewBatchProcessor(d.agents, d.pipelineFor,
		WithBatchLogger(d.logger),
		WithTaskDone(d.onTaskDone),
	)

	reports, err := bp.ProcessBatch(ctx, tasks)
	summary.Tasks = reports
	summary.Finalize(err)

	d.logger.Info("crawl finished",
		"tasks", len(summary.Tasks),
		"locations", summary.TotalLocations,
		"rows", summary.TotalRows,
		"visited", d.session.Visited.Len(),
		"elapsed", summary.Duration().Round(time.Second),
	)

	return summary, err
}

// pipelineFor builds the steps of one task on agent.
func (d *Driver) pipelineFor(agent browser.Agent) *Pipeline {
	s := d.settings

	reviewStabilizer := crawler.NewStabilizer(agent,
		crawler.WithPause(s.ReviewPause, s.ReviewPause),
		crawler.WithMaxIterations(s.MaxScrollIterations),
		crawler.WithMaxDuration(s.MaxScrollDuration),
		crawler.WithStabilizerLogger(d.logger),
	)

	locations := crawler.NewLocationExtractor(agent,
		crawler.WithLocationSelectors(s.Selectors),
		crawler.WithPageTimeout(s.PageTimeout),
		crawler.WithFieldTimeout(s.FieldTimeout),
		crawler.WithLocationLogger(d.logger),
	)

	reviews := crawler.NewReviewExtractor(agent, reviewStabilizer,
		crawler.WithReviewSelectors(s.Selectors),
		crawler.WithExpand(s.ExpandWait, s.ExpandPause, s.MaxExpandClicks),
		crawler.WithReviewLogger(d.logger),
	)

	p := New(WithLogger(d.logger))
	p.AddSteps(
		NewDiscoverStep(d.discoveries[agent], WithDiscoverLogger(d.logger)),
		NewVisitStep(d.session, locations, reviews,
			WithThrottle(s.ThrottleMin, s.ThrottleMax),
			WithVisitLogger(d.logger),
		),
	)
	d.logger.Debug("pipeline built", "steps", p.StepNames())
	return p
}

func (d *Driver) newDiscovery(agent browser.Agent) *crawler.Discovery {
	s := d.settings

	resultStabilizer := crawler.NewStabilizer(agent,
		crawler.WithPause(s.ResultPauseMin, s.ResultPauseMax),
		crawler.WithMaxIterations(s.MaxScrollIterations),
		crawler.WithMaxDuration(s.MaxScrollDuration),
		crawler.WithStabilizerLogger(d.logger),
	)

	return crawler.NewDiscovery(agent, resultStabilizer,
		crawler.WithBaseURL(s.BaseURL),
		crawler.WithDiscoverySelectors(s.Selectors),
		crawler.WithResultTimeout(s.ResultTimeout),
		crawler.WithConsentTimeout(s.ConsentTimeout),
		crawler.WithDiscoveryLogger(d.logger),
	)
}
