package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// Default Chrome settings.
const (
	// DefaultUserAgent is a desktop Chrome user agent. Headless Chrome
	// otherwise announces itself as HeadlessChrome.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// DefaultLanguage is the browser UI language. Review dates are
	// rendered in this language (e.g., "il y a 2 mois").
	DefaultLanguage = "fr-FR"

	// DefaultNavigationTimeout bounds a single page load.
	DefaultNavigationTimeout = 60 * time.Second

	// DefaultQueryTimeout bounds element lookups, reads and scripts.
	DefaultQueryTimeout = 10 * time.Second

	defaultWindowWidth  = 1440
	defaultWindowHeight = 900
)

// Chrome is an Agent backed by one tab of a chromedp-controlled browser.
type Chrome struct {
	// tab is the chromedp context of this tab.
	tab context.Context

	// cancel closes the tab. For the root tab it also closes the browser.
	cancel context.CancelFunc

	// root is true for the Chrome returned by NewChrome.
	root bool

	navigationTimeout time.Duration
	queryTimeout      time.Duration
	logger            *slog.Logger
}

type chromeConfig struct {
	headless          bool
	execPath          string
	userAgent         string
	language          string
	width             int
	height            int
	navigationTimeout time.Duration
	queryTimeout      time.Duration
	logger            *slog.Logger
}

// ChromeOption configures a Chrome browser.
type ChromeOption func(*chromeConfig)

// WithHeadless runs the browser without a window.
func WithHeadless(headless bool) ChromeOption {
	return func(c *chromeConfig) {
		c.headless = headless
	}
}

// WithExecPath sets the browser binary. Empty means chromedp's lookup.
func WithExecPath(path string) ChromeOption {
	return func(c *chromeConfig) {
		c.execPath = path
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) ChromeOption {
	return func(c *chromeConfig) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLanguage sets the browser UI language (e.g., "fr-FR").
func WithLanguage(lang string) ChromeOption {
	return func(c *chromeConfig) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithWindowSize sets the browser window size in pixels.
func WithWindowSize(width, height int) ChromeOption {
	return func(c *chromeConfig) {
		if width > 0 && height > 0 {
			c.width = width
			c.height = height
		}
	}
}

// WithNavigationTimeout bounds each page load.
func WithNavigationTimeout(d time.Duration) ChromeOption {
	return func(c *chromeConfig) {
		if d > 0 {
			c.navigationTimeout = d
		}
	}
}

// WithQueryTimeout bounds element lookups and reads.
func WithQueryTimeout(d time.Duration) ChromeOption {
	return func(c *chromeConfig) {
		if d > 0 {
			c.queryTimeout = d
		}
	}
}

// WithChromeLogger sets the logger for browser diagnostics.
func WithChromeLogger(logger *slog.Logger) ChromeOption {
	return func(c *chromeConfig) {
		c.logger = logger
	}
}

// NewChrome starts a browser and returns its first tab.
// The browser lives until Close is called on the returned Chrome or ctx is done.
func NewChrome(ctx context.Context, opts ...ChromeOption) (*Chrome, error) {
	cfg := &chromeConfig{
		headless:          true,
		userAgent:         DefaultUserAgent,
		language:          DefaultLanguage,
		width:             defaultWindowWidth,
		height:            defaultWindowHeight,
		navigationTimeout: DefaultNavigationTimeout,
		queryTimeout:      DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", cfg.language),
		chromedp.UserAgent(cfg.userAgent),
		chromedp.WindowSize(cfg.width, cfg.height),
	)
	if cfg.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	logger := cfg.logger
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		}),
	)

	// An empty Run starts the browser process.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("%w: failed to start browser: %w", ErrTransport, err)
	}

	logger.Debug("browser started",
		"headless", cfg.headless,
		"exec_path", cfg.execPath,
		"language", cfg.language,
	)

	return &Chrome{
		tab: tabCtx,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		root:              true,
		navigationTimeout: cfg.navigationTimeout,
		queryTimeout:      cfg.queryTimeout,
		logger:            logger,
	}, nil
}

// NewTab opens another tab in the same browser.
// Closing the tab leaves the browser running.
func (c *Chrome) NewTab() (*Chrome, error) {
	tabCtx, cancel := chromedp.NewContext(c.tab)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: failed to open tab: %w", ErrTransport, err)
	}
	return &Chrome{
		tab:               tabCtx,
		cancel:            cancel,
		navigationTimeout: c.navigationTimeout,
		queryTimeout:      c.queryTimeout,
		logger:            c.logger,
	}, nil
}

// Close closes the tab, and the browser when c is the root tab.
func (c *Chrome) Close() {
	c.cancel()
	if c.root {
		c.logger.Debug("browser closed")
	}
}

// Navigate implements Agent.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	err := c.run(ctx, c.navigationTimeout, chromedp.Navigate(url))
	if err == nil {
		return nil
	}
	if IsFatal(err) || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
}

// WaitForAny implements Agent.
func (c *Chrome) WaitForAny(ctx context.Context, selectors []string, timeout time.Duration) error {
	if len(selectors) == 0 {
		return nil
	}
	return c.run(ctx, timeout, chromedp.WaitReady(strings.Join(selectors, ", "), chromedp.ByQuery))
}

// Submit implements Agent.
func (c *Chrome) Submit(ctx context.Context, inputSelector, text string) error {
	err := c.run(ctx, c.queryTimeout,
		chromedp.WaitVisible(inputSelector, chromedp.ByQuery),
		chromedp.SetValue(inputSelector, "", chromedp.ByQuery),
		chromedp.SendKeys(inputSelector, text+kb.Enter, chromedp.ByQuery),
	)
	if errors.Is(err, ErrWaitTimeout) {
		return fmt.Errorf("%w: %s: %w", ErrElementMissing, inputSelector, err)
	}
	return err
}

// Click implements Agent.
func (c *Chrome) Click(ctx context.Context, selector string, timeout time.Duration) error {
	err := c.run(ctx, timeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	if errors.Is(err, ErrWaitTimeout) {
		return fmt.Errorf("%w: %s: %w", ErrElementMissing, selector, err)
	}
	return err
}

const scrollScript = `(function(sel) {
	var el = sel ? document.querySelector(sel) : (document.scrollingElement || document.body);
	if (!el) { return false; }
	el.scrollTop = el.scrollHeight;
	if (!sel) { window.scrollTo(0, document.body.scrollHeight); }
	return true;
})(%s)`

const extentScript = `(function(sel) {
	var el = sel ? document.querySelector(sel) : document.body;
	if (!el) { return -1; }
	return el.scrollHeight;
})(%s)`

// ScrollToBottom implements Agent.
func (c *Chrome) ScrollToBottom(ctx context.Context, container string) error {
	var found bool
	if err := c.run(ctx, c.queryTimeout, chromedp.Evaluate(script(scrollScript, container), &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrElementMissing, container)
	}
	return nil
}

// MeasureExtent implements Agent.
func (c *Chrome) MeasureExtent(ctx context.Context, container string) (int, error) {
	var height int
	if err := c.run(ctx, c.queryTimeout, chromedp.Evaluate(script(extentScript, container), &height)); err != nil {
		return 0, err
	}
	if height < 0 {
		return 0, fmt.Errorf("%w: %s", ErrElementMissing, container)
	}
	return height, nil
}

// FindAll implements Agent.
func (c *Chrome) FindAll(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, c.queryTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return nil, err
	}
	return wrapNodes(nodes), nil
}

// FindIn implements Agent.
func (c *Chrome) FindIn(ctx context.Context, parent Element, selector string) (Element, error) {
	node, err := nodeOf(parent)
	if err != nil {
		return Element{}, err
	}

	var nodes []*cdp.Node
	if err := c.run(ctx, c.queryTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0), chromedp.FromNode(node)),
	); err != nil {
		return Element{}, err
	}
	if len(nodes) == 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrElementMissing, selector)
	}
	return NewElement(nodes[0]), nil
}

// TextOf implements Agent.
func (c *Chrome) TextOf(ctx context.Context, el Element) (string, error) {
	node, err := nodeOf(el)
	if err != nil {
		return "", err
	}

	var text string
	err = c.run(ctx, c.queryTimeout, chromedp.Text([]cdp.NodeID{node.NodeID}, &text, chromedp.ByNodeID))
	if errors.Is(err, ErrWaitTimeout) {
		return "", fmt.Errorf("%w: text not visible: %w", ErrElementMissing, err)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// AttributeOf implements Agent.
func (c *Chrome) AttributeOf(ctx context.Context, el Element, name string) (string, error) {
	node, err := nodeOf(el)
	if err != nil {
		return "", err
	}

	var (
		value string
		ok    bool
	)
	if err := c.run(ctx, c.queryTimeout,
		chromedp.AttributeValue([]cdp.NodeID{node.NodeID}, name, &value, &ok, chromedp.ByNodeID),
	); err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: attribute %s", ErrElementMissing, name)
	}
	return value, nil
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
// chromedp actions must run on the tab context, so the caller's
// cancellation is forwarded with context.AfterFunc.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(c.tab, timeout)
	} else {
		runCtx, cancel = context.WithCancel(c.tab)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return c.classify(ctx, runCtx, chromedp.Run(runCtx, actions...))
}

// classify maps a chromedp error onto the package error classes.
func (c *Chrome) classify(callerCtx, runCtx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if callerCtx.Err() != nil {
		return callerCtx.Err()
	}
	if c.tab.Err() != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrWaitTimeout, err)
	}
	if errors.Is(err, chromedp.ErrInvalidContext) || errors.Is(err, chromedp.ErrChannelClosed) {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return err
}

func nodeOf(el Element) (*cdp.Node, error) {
	node, ok := el.Ref().(*cdp.Node)
	if !ok || node == nil {
		return nil, fmt.Errorf("%w: stale or foreign element", ErrElementMissing)
	}
	return node, nil
}

func wrapNodes(nodes []*cdp.Node) []Element {
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, NewElement(n))
	}
	return elements
}

// script formats a JavaScript template with sel as a JSON string literal.
func script(tmpl, sel string) string {
	quoted, err := json.Marshal(sel)
	if err != nil {
		quoted = []byte(`""`)
	}
	return fmt.Sprintf(tmpl, quoted)
}

var _ Agent = (*Chrome)(nil)
