package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/model"
)

// Default review expansion settings.
const (
	// DefaultExpandWait bounds the wait for the "more reviews" control.
	DefaultExpandWait = 5 * time.Second

	// DefaultExpandPause is the pause after each click on the control.
	DefaultExpandPause = 2 * time.Second

	// DefaultMaxExpandClicks caps clicks on the control per page.
	DefaultMaxExpandClicks = 50
)

// ReviewExtractor reads every review of the currently loaded detail page.
type ReviewExtractor struct {
	agent      browser.Agent
	stabilizer *Stabilizer
	selectors  Selectors

	expandWait      time.Duration
	expandPause     time.Duration
	maxExpandClicks int

	logger *slog.Logger
}

// ReviewOption configures a ReviewExtractor.
type ReviewOption func(*ReviewExtractor)

// WithReviewSelectors sets the selectors.
func WithReviewSelectors(s Selectors) ReviewOption {
	return func(e *ReviewExtractor) {
		e.selectors = s
	}
}

// WithExpand sets the wait for the "more reviews" control, the pause after
// each click and the click cap.
func WithExpand(wait, pause time.Duration, maxClicks int) ReviewOption {
	return func(e *ReviewExtractor) {
		e.expandWait = wait
		e.expandPause = pause
		e.maxExpandClicks = maxClicks
	}
}

// WithReviewLogger sets the logger.
func WithReviewLogger(logger *slog.Logger) ReviewOption {
	return func(e *ReviewExtractor) {
		e.logger = logger
	}
}

// NewReviewExtractor creates a ReviewExtractor that scrolls with stabilizer.
func NewReviewExtractor(agent browser.Agent, stabilizer *Stabilizer, opts ...ReviewOption) *ReviewExtractor {
	e := &ReviewExtractor{
		agent:           agent,
		stabilizer:      stabilizer,
		selectors:       DefaultSelectors(),
		expandWait:      DefaultExpandWait,
		expandPause:     DefaultExpandPause,
		maxExpandClicks: DefaultMaxExpandClicks,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Reviews is the outcome of one review extraction.
type Reviews struct {
	// Items are the complete reviews in page order.
	Items []model.Review

	// Skipped counts review elements lacking text or date.
	Skipped int

	// Expansions counts clicks on the "more reviews" control.
	Expansions int

	// Scroll describes how the review list was scrolled.
	Scroll ScrollResult
}

// Extract expands and scrolls the review list, then reads every review.
// A review element without text or without a date is skipped.
func (e *ReviewExtractor) Extract(ctx context.Context) (*Reviews, error) {
	out := &Reviews{}

	n, err := e.expand(ctx)
	if err != nil {
		return nil, err
	}
	out.Expansions = n

	out.Scroll, err = e.stabilizer.Stabilize(ctx, e.selectors.ReviewsPane)
	if err != nil {
		return nil, err
	}

	items, err := e.agent.FindAll(ctx, e.selectors.ReviewItem)
	if err != nil {
		if browser.IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		e.logger.Debug("review list unavailable", "error", err)
		return out, nil
	}

	out.Items = make([]model.Review, 0, len(items))
	for _, item := range items {
		review, err := e.read(ctx, item)
		if err != nil {
			if browser.IsFatal(err) || ctx.Err() != nil {
				return nil, err
			}
			// Reviews without text or date are common; anything else is not.
			if !browser.IsAbsent(err) {
				e.logger.Warn("review unreadable, skipping", "error", err)
			}
			out.Skipped++
			continue
		}
		out.Items = append(out.Items, review)
	}

	return out, nil
}

// expand clicks the "more reviews" control until it stops appearing.
func (e *ReviewExtractor) expand(ctx context.Context) (int, error) {
	if e.selectors.MoreReviews == "" {
		return 0, nil
	}

	clicks := 0
	for e.maxExpandClicks <= 0 || clicks < e.maxExpandClicks {
		if err := e.agent.Click(ctx, e.selectors.MoreReviews, e.expandWait); err != nil {
			if browser.IsFatal(err) || ctx.Err() != nil {
				return clicks, err
			}
			break
		}
		clicks++
		if err := sleep(ctx, e.expandPause); err != nil {
			return clicks, err
		}
	}
	return clicks, nil
}

func (e *ReviewExtractor) read(ctx context.Context, item browser.Element) (model.Review, error) {
	textEl, err := e.agent.FindIn(ctx, item, e.selectors.ReviewText)
	if err != nil {
		return model.Review{}, err
	}
	text, err := e.agent.TextOf(ctx, textEl)
	if err != nil {
		return model.Review{}, err
	}

	dateEl, err := e.agent.FindIn(ctx, item, e.selectors.ReviewDate)
	if err != nil {
		return model.Review{}, err
	}
	date, err := e.agent.TextOf(ctx, dateEl)
	if err != nil {
		return model.Review{}, err
	}

	return model.Review{
		Text:     text,
		Date:     date,
		Language: DetectLanguage(text),
	}, nil
}
