package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/model"
)

// Default discovery settings.
const (
	// DefaultBaseURL is the directory landing page.
	DefaultBaseURL = "https://www.google.com/maps"

	// DefaultInputTimeout bounds the wait for the search box.
	DefaultInputTimeout = 10 * time.Second

	// DefaultResultTimeout bounds the wait for the first search result.
	DefaultResultTimeout = 10 * time.Second

	// DefaultConsentTimeout bounds the wait for a consent dialog.
	DefaultConsentTimeout = 3 * time.Second
)

// Discovery runs search queries and collects the location links they return.
type Discovery struct {
	agent      browser.Agent
	stabilizer *Stabilizer
	selectors  Selectors
	baseURL    string

	inputTimeout   time.Duration
	resultTimeout  time.Duration
	consentTimeout time.Duration

	// consentChecked is set after the first consent check; the dialog
	// only appears on a fresh browser profile.
	consentChecked bool

	logger *slog.Logger
}

// DiscoveryOption configures a Discovery.
type DiscoveryOption func(*Discovery)

// WithBaseURL sets the landing page.
func WithBaseURL(u string) DiscoveryOption {
	return func(d *Discovery) {
		if u != "" {
			d.baseURL = u
		}
	}
}

// WithDiscoverySelectors sets the selectors.
func WithDiscoverySelectors(s Selectors) DiscoveryOption {
	return func(d *Discovery) {
		d.selectors = s
	}
}

// WithResultTimeout sets the wait for the first result.
func WithResultTimeout(t time.Duration) DiscoveryOption {
	return func(d *Discovery) {
		d.resultTimeout = t
	}
}

// WithConsentTimeout sets the wait for a consent dialog. Zero skips the check.
func WithConsentTimeout(t time.Duration) DiscoveryOption {
	return func(d *Discovery) {
		d.consentTimeout = t
	}
}

// WithDiscoveryLogger sets the logger.
func WithDiscoveryLogger(logger *slog.Logger) DiscoveryOption {
	return func(d *Discovery) {
		d.logger = logger
	}
}

// NewDiscovery creates a Discovery that scrolls result lists with stabilizer.
func NewDiscovery(agent browser.Agent, stabilizer *Stabilizer, opts ...DiscoveryOption) *Discovery {
	d := &Discovery{
		agent:          agent,
		stabilizer:     stabilizer,
		selectors:      DefaultSelectors(),
		baseURL:        DefaultBaseURL,
		inputTimeout:   DefaultInputTimeout,
		resultTimeout:  DefaultResultTimeout,
		consentTimeout: DefaultConsentTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Discovered is the outcome of one search.
type Discovered struct {
	// Links are the result links in page order. Duplicates within a page are kept.
	Links []model.LocationLink

	// Scroll describes how the result list was scrolled.
	Scroll ScrollResult
}

// Discover searches for task and returns every result link once the list
// has been scrolled to its end. A search that shows no result in time
// returns ErrDiscoveryTimeout and no links.
func (d *Discovery) Discover(ctx context.Context, task model.SearchTask) (*Discovered, error) {
	if err := d.agent.Navigate(ctx, d.baseURL); err != nil {
		return nil, d.fail(ctx, task, "failed to open search page", err)
	}

	if err := d.dismissConsent(ctx); err != nil {
		return nil, err
	}

	if err := d.agent.WaitForAny(ctx, []string{d.selectors.SearchInput}, d.inputTimeout); err != nil {
		return nil, d.fail(ctx, task, "search box not found", err)
	}
	if err := d.agent.Submit(ctx, d.selectors.SearchInput, task.Query()); err != nil {
		return nil, d.fail(ctx, task, "failed to submit query", err)
	}

	if err := d.agent.WaitForAny(ctx, []string{d.selectors.ResultItem}, d.resultTimeout); err != nil {
		return nil, d.fail(ctx, task, "no results", err)
	}

	scroll, err := d.stabilizer.Stabilize(ctx, d.selectors.ResultsPane)
	if err != nil {
		return nil, err
	}

	items, err := d.agent.FindAll(ctx, d.selectors.ResultItem)
	if err != nil {
		return nil, d.fail(ctx, task, "failed to list results", err)
	}

	links := make([]model.LocationLink, 0, len(items))
	for _, item := range items {
		href, err := d.agent.AttributeOf(ctx, item, "href")
		if err != nil {
			if browser.IsFatal(err) || ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		if link, ok := d.resolve(href); ok {
			links = append(links, link)
		}
	}

	d.logger.Info("search completed",
		"query", task.Query(),
		"links", len(links),
		"scrolls", scroll.Iterations,
		"truncated", scroll.Truncated,
	)

	return &Discovered{Links: links, Scroll: scroll}, nil
}

// fail classifies a non-fatal discovery failure as ErrDiscoveryTimeout.
func (d *Discovery) fail(ctx context.Context, task model.SearchTask, msg string, err error) error {
	if browser.IsFatal(err) || ctx.Err() != nil {
		return err
	}
	d.logger.Warn("search skipped",
		"query", task.Query(),
		"reason", msg,
		"error", err,
	)
	return fmt.Errorf("%w: %s: %s: %w", ErrDiscoveryTimeout, task.Query(), msg, err)
}

// dismissConsent accepts a cookie consent dialog if one is shown.
func (d *Discovery) dismissConsent(ctx context.Context) error {
	if d.consentChecked || d.consentTimeout <= 0 || len(d.selectors.ConsentButtons) == 0 {
		return nil
	}
	d.consentChecked = true

	if err := d.agent.WaitForAny(ctx, d.selectors.ConsentButtons, d.consentTimeout); err != nil {
		if browser.IsFatal(err) || ctx.Err() != nil {
			return err
		}
		return nil
	}

	for _, sel := range d.selectors.ConsentButtons {
		err := d.agent.Click(ctx, sel, d.consentTimeout)
		if err == nil {
			d.logger.Debug("consent dialog accepted", "selector", sel)
			return nil
		}
		if browser.IsFatal(err) || ctx.Err() != nil {
			return err
		}
	}
	return nil
}

// resolve turns an href into an absolute link. Empty hrefs are dropped.
func (d *Discovery) resolve(href string) (model.LocationLink, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return model.LocationLink{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return model.LocationLink{}, false
	}
	if ref.IsAbs() {
		return model.LocationLink{URL: href}, true
	}
	base, err := url.Parse(d.baseURL)
	if err != nil {
		return model.LocationLink{URL: href}, true
	}
	return model.LocationLink{URL: base.ResolveReference(ref).String()}, true
}
