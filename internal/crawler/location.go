package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/model"
)

// Default location extraction timeouts.
const (
	// DefaultPageTimeout bounds the wait for a detail page to show its name.
	DefaultPageTimeout = 15 * time.Second

	// DefaultFieldTimeout bounds the wait for each individual field.
	DefaultFieldTimeout = 5 * time.Second
)

// LocationExtractor reads the name, address and rating of a location.
type LocationExtractor struct {
	agent        browser.Agent
	selectors    Selectors
	pageTimeout  time.Duration
	fieldTimeout time.Duration
	logger       *slog.Logger
}

// LocationOption configures a LocationExtractor.
type LocationOption func(*LocationExtractor)

// WithLocationSelectors sets the selectors.
func WithLocationSelectors(s Selectors) LocationOption {
	return func(e *LocationExtractor) {
		e.selectors = s
	}
}

// WithPageTimeout sets the wait for a detail page to load.
func WithPageTimeout(t time.Duration) LocationOption {
	return func(e *LocationExtractor) {
		e.pageTimeout = t
	}
}

// WithFieldTimeout sets the wait for each field.
func WithFieldTimeout(t time.Duration) LocationOption {
	return func(e *LocationExtractor) {
		e.fieldTimeout = t
	}
}

// WithLocationLogger sets the logger.
func WithLocationLogger(logger *slog.Logger) LocationOption {
	return func(e *LocationExtractor) {
		e.logger = logger
	}
}

// NewLocationExtractor creates a LocationExtractor with default timeouts.
func NewLocationExtractor(agent browser.Agent, opts ...LocationOption) *LocationExtractor {
	e := &LocationExtractor{
		agent:        agent,
		selectors:    DefaultSelectors(),
		pageTimeout:  DefaultPageTimeout,
		fieldTimeout: DefaultFieldTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract navigates to link and reads its fields.
// If the page does not load, it returns ErrNavigationFailure and no record.
// Otherwise every field is either read or set to its sentinel, and the
// record is always complete.
func (e *LocationExtractor) Extract(ctx context.Context, link model.LocationLink) (*model.Location, error) {
	if err := e.agent.Navigate(ctx, link.URL); err != nil {
		return nil, e.navigationFailure(ctx, link, err)
	}
	if err := e.agent.WaitForAny(ctx, []string{e.selectors.LocationName}, e.pageTimeout); err != nil {
		return nil, e.navigationFailure(ctx, link, err)
	}

	loc := model.NewLocation()
	fields := []struct {
		name     string
		selector string
		dst      *string
	}{
		{model.FieldName, e.selectors.LocationName, &loc.Name},
		{model.FieldAddress, e.selectors.LocationAddress, &loc.Address},
		{model.FieldRating, e.selectors.LocationRating, &loc.Rating},
	}

	for _, f := range fields {
		text, err := e.readField(ctx, f.selector)
		if err != nil {
			if browser.IsFatal(err) || ctx.Err() != nil {
				return nil, err
			}
			if browser.IsAbsent(err) {
				e.logger.Debug("field missing, using sentinel",
					"link", link.URL,
					"field", f.name,
					"error", err,
				)
			} else {
				e.logger.Warn("field unreadable, using sentinel",
					"link", link.URL,
					"field", f.name,
					"error", err,
				)
			}
			loc.MarkMissing(f.name)
			continue
		}
		*f.dst = text
	}

	return loc, nil
}

// readField waits briefly for selector and returns the first match's text.
// Whitespace-only text counts as missing.
func (e *LocationExtractor) readField(ctx context.Context, selector string) (string, error) {
	if err := e.agent.WaitForAny(ctx, []string{selector}, e.fieldTimeout); err != nil {
		return "", err
	}
	els, err := e.agent.FindAll(ctx, selector)
	if err != nil {
		return "", err
	}
	if len(els) == 0 {
		return "", fmt.Errorf("%w: %s", browser.ErrElementMissing, selector)
	}
	text, err := e.agent.TextOf(ctx, els[0])
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s is empty", browser.ErrElementMissing, selector)
	}
	return text, nil
}

func (e *LocationExtractor) navigationFailure(ctx context.Context, link model.LocationLink, err error) error {
	if browser.IsFatal(err) || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrNavigationFailure, link.URL, err)
}
