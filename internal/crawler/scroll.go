package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/reviewscan/internal/browser"
)

// Default scroll bounds.
const (
	// DefaultMaxScrollIterations caps scrolls per container.
	DefaultMaxScrollIterations = 60

	// DefaultMaxScrollDuration caps the time spent scrolling one container.
	DefaultMaxScrollDuration = 3 * time.Minute
)

// Stabilizer drives a lazily-loading container to the end of its content.
// It scrolls, waits, and re-measures until two consecutive extent
// readings are equal.
type Stabilizer struct {
	agent browser.Agent

	// pauseMin and pauseMax bound the wait after each scroll.
	pauseMin time.Duration
	pauseMax time.Duration

	// maxIterations and maxDuration bound the loop. Zero disables a bound.
	maxIterations int
	maxDuration   time.Duration

	logger *slog.Logger
}

// StabilizerOption configures a Stabilizer.
type StabilizerOption func(*Stabilizer)

// WithPause sets the wait after each scroll to a random value in [lo, hi].
// Use lo == hi for a fixed pause.
func WithPause(lo, hi time.Duration) StabilizerOption {
	return func(s *Stabilizer) {
		s.pauseMin = lo
		s.pauseMax = hi
	}
}

// WithMaxIterations caps the number of scrolls. Zero means unbounded.
func WithMaxIterations(n int) StabilizerOption {
	return func(s *Stabilizer) {
		s.maxIterations = n
	}
}

// WithMaxDuration caps the time spent on one container. Zero means unbounded.
func WithMaxDuration(d time.Duration) StabilizerOption {
	return func(s *Stabilizer) {
		s.maxDuration = d
	}
}

// WithStabilizerLogger sets the logger.
func WithStabilizerLogger(logger *slog.Logger) StabilizerOption {
	return func(s *Stabilizer) {
		s.logger = logger
	}
}

// NewStabilizer creates a Stabilizer with the default bounds and no pause.
func NewStabilizer(agent browser.Agent, opts ...StabilizerOption) *Stabilizer {
	s := &Stabilizer{
		agent:         agent,
		maxIterations: DefaultMaxScrollIterations,
		maxDuration:   DefaultMaxScrollDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ScrollResult describes how a Stabilize call ended.
type ScrollResult struct {
	// Iterations is the number of scrolls performed.
	Iterations int

	// FinalExtent is the last extent reading.
	FinalExtent int

	// Truncated is true when a bound stopped the loop before the extent settled.
	Truncated bool
}

// Stabilize scrolls container ("" for the document) until its extent stops
// changing or a bound is hit. A container that cannot be measured or
// scrolled ends the loop without error; only transport failures and
// context cancellation are returned.
func (s *Stabilizer) Stabilize(ctx context.Context, container string) (ScrollResult, error) {
	var res ScrollResult
	start := time.Now()

	previous, err := s.agent.MeasureExtent(ctx, container)
	if err != nil {
		return res, s.stop(ctx, container, "measure", err)
	}
	res.FinalExtent = previous

	for {
		if s.maxIterations > 0 && res.Iterations >= s.maxIterations {
			res.Truncated = true
			break
		}
		if s.maxDuration > 0 && time.Since(start) >= s.maxDuration {
			res.Truncated = true
			break
		}

		if err := s.agent.ScrollToBottom(ctx, container); err != nil {
			return res, s.stop(ctx, container, "scroll", err)
		}
		res.Iterations++

		if err := sleep(ctx, jitter(s.pauseMin, s.pauseMax)); err != nil {
			return res, err
		}

		current, err := s.agent.MeasureExtent(ctx, container)
		if err != nil {
			return res, s.stop(ctx, container, "measure", err)
		}
		res.FinalExtent = current

		if current == previous {
			break
		}
		previous = current
	}

	if res.Truncated {
		s.logger.Warn("scroll bound reached before content settled",
			"container", containerName(container),
			"iterations", res.Iterations,
			"extent", res.FinalExtent,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	} else {
		s.logger.Debug("scroll settled",
			"container", containerName(container),
			"iterations", res.Iterations,
			"extent", res.FinalExtent,
		)
	}
	return res, nil
}

// stop decides whether a failed agent call ends the loop quietly.
func (s *Stabilizer) stop(ctx context.Context, container, op string, err error) error {
	if browser.IsFatal(err) || ctx.Err() != nil {
		return err
	}
	s.logger.Debug("scroll stopped",
		"container", containerName(container),
		"op", op,
		"error", err,
	)
	return nil
}

func containerName(container string) string {
	if container == "" {
		return "document"
	}
	return container
}
