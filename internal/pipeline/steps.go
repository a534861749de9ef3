package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/crawler"
	"github.com/nao1215/reviewscan/internal/model"
)

// DiscoverStep runs the search query of a task and stores the result links.
// A search that times out marks the report and lets the task end with no links.
type DiscoverStep struct {
	discovery *crawler.Discovery
	logger    *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithDiscoverLogger sets a custom logger for the discover step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates a discover step backed by discovery.
func NewDiscoverStep(discovery *crawler.Discovery, opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{
		discovery: discovery,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover"
}

// Do executes the discover step.
func (s *DiscoverStep) Do(ctx context.Context, report *model.TaskReport) error {
	found, err := s.discovery.Discover(ctx, report.Task)
	if err != nil {
		if errors.Is(err, crawler.ErrDiscoveryTimeout) {
			report.DiscoveryTimedOut = true
			return nil
		}
		return err
	}

	report.Links = found.Links
	report.ScrollTruncated = found.Scroll.Truncated

	s.logger.Info("links discovered",
		"query", report.Task.Query(),
		"links", len(found.Links),
	)

	return nil
}

// VisitStep visits every discovered link that was not visited earlier in the
// run, extracts the location and its reviews and appends the flattened rows
// to the session sink.
//
// A link whose page does not load is recorded as a failure and stays
// visited. Transport failures and cancellation stop the step.
type VisitStep struct {
	session   *crawler.Session
	locations *crawler.LocationExtractor
	reviews   *crawler.ReviewExtractor

	// throttleMin and throttleMax bound the pause after each extracted location.
	throttleMin time.Duration
	throttleMax time.Duration

	logger *slog.Logger
}

// VisitStepOption configures a VisitStep.
type VisitStepOption func(*VisitStep)

// WithThrottle sets the random pause after each extracted location.
func WithThrottle(lo, hi time.Duration) VisitStepOption {
	return func(s *VisitStep) {
		s.throttleMin = lo
		s.throttleMax = hi
	}
}

// WithVisitLogger sets a custom logger for the visit step.
func WithVisitLogger(logger *slog.Logger) VisitStepOption {
	return func(s *VisitStep) {
		s.logger = logger
	}
}

// NewVisitStep creates a visit step sharing session with the other workers.
func NewVisitStep(
	session *crawler.Session,
	locations *crawler.LocationExtractor,
	reviews *crawler.ReviewExtractor,
	opts ...VisitStepOption,
) *VisitStep {
	s := &VisitStep{
		session:     session,
		locations:   locations,
		reviews:     reviews,
		throttleMin: DefaultThrottleMin,
		throttleMax: DefaultThrottleMax,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Name returns the step name.
func (s *VisitStep) Name() string {
	return "visit"
}

// Do executes the visit step.
func (s *VisitStep) Do(ctx context.Context, report *model.TaskReport) error {
	for _, link := range report.Links {
		if !s.session.Visited.ShouldVisit(link) {
			report.Skipped++
			s.logger.Debug("location already visited", "link", link.URL)
			continue
		}

		if err := s.visit(ctx, report, link); err != nil {
			return err
		}
	}

	s.logger.Info("task visited",
		"query", report.Task.Query(),
		"locations", len(report.Locations),
		"failures", len(report.Failures),
		"skipped", report.Skipped,
		"rows", report.Rows,
	)

	return nil
}

func (s *VisitStep) visit(ctx context.Context, report *model.TaskReport, link model.LocationLink) error {
	loc, err := s.locations.Extract(ctx, link)
	if err != nil {
		if browser.IsFatal(err) || ctx.Err() != nil {
			return err
		}
		s.logger.Warn("location skipped",
			"link", link.URL,
			"error", err,
		)
		report.Failures = append(report.Failures, model.LinkFailure{
			Link:   link.URL,
			Reason: err.Error(),
		})
		return nil
	}

	reviews, err := s.reviews.Extract(ctx)
	if err != nil {
		return err
	}

	rows := model.NewOutputRows(report.Task, link, loc, reviews.Items)
	added := s.session.Sink.Append(rows...)
	report.Rows += added

	report.Locations = append(report.Locations, model.LocationRecord{
		Link:             link.URL,
		Location:         loc,
		ReviewCount:      len(reviews.Items),
		ReviewsTruncated: reviews.Scroll.Truncated,
	})

	s.logger.Info("location extracted",
		"name", loc.Name,
		"reviews", len(reviews.Items),
		"skipped_reviews", reviews.Skipped,
	)

	// Pacing follows completed visits only.
	return crawler.Throttle(ctx, s.throttleMin, s.throttleMax)
}
