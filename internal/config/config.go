package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/crawler"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/pipeline"
	"github.com/nao1215/reviewscan/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "reviewscan"

	// DefaultWorkers is one browser tab crawling tasks strictly in order.
	// More workers open more tabs on the same browser.
	DefaultWorkers = 1

	// DefaultOutputFile is the CSV artifact written after a crawl.
	DefaultOutputFile = report.DefaultCSVFile

	// DefaultHeadless runs the browser without a window.
	DefaultHeadless = true

	// DefaultMaxWorkers caps Workers.
	DefaultMaxWorkers = 8
)

// Config holds all configuration options for a reviewscan run.
// It is populated from the configuration file, then CLI flags, and passed
// through the application rather than kept in global state.
type Config struct {
	// Organizations are searched in this order, each against every city.
	Organizations []string

	// Cities qualify every organization search, in this order.
	Cities []string

	// OutputPath is the CSV artifact path.
	OutputPath string

	// Workers is the number of browser tabs crawling concurrently.
	Workers int

	// Headless runs the browser without a window.
	Headless bool

	// ChromePath is the browser binary. Empty means automatic lookup.
	ChromePath string

	// UserAgent is the browser user agent.
	UserAgent string

	// Language is the browser UI language; review dates are rendered in it.
	Language string

	// BaseURL is the directory landing page.
	BaseURL string

	// Selectors override the directory markup selectors.
	Selectors crawler.Selectors

	// MaxScrollIterations caps scrolls per container. Zero means unbounded.
	MaxScrollIterations int

	// MaxScrollDuration caps the time spent scrolling one container.
	// Zero means unbounded.
	MaxScrollDuration time.Duration

	// ThrottleMin and ThrottleMax bound the random pause between two
	// location visits.
	ThrottleMin time.Duration
	ThrottleMax time.Duration

	// PageTimeout bounds the wait for a location page to show its name.
	PageTimeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// JSONReport prints the run summary as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the run summary as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the run summary.
	// When empty, the summary is written to stdout.
	ReportFile string

	// DBDir is the directory holding the crawl database.
	// Defaults to the XDG data directory (~/.local/share/reviewscan on Linux).
	DBDir string

	// SaveToDB stores the run and its rows in the crawl database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputPath:          DefaultOutputFile,
		Workers:             DefaultWorkers,
		Headless:            DefaultHeadless,
		UserAgent:           browser.DefaultUserAgent,
		Language:            browser.DefaultLanguage,
		BaseURL:             crawler.DefaultBaseURL,
		Selectors:           crawler.DefaultSelectors(),
		MaxScrollIterations: crawler.DefaultMaxScrollIterations,
		MaxScrollDuration:   crawler.DefaultMaxScrollDuration,
		ThrottleMin:         pipeline.DefaultThrottleMin,
		ThrottleMax:         pipeline.DefaultThrottleMax,
		PageTimeout:         crawler.DefaultPageTimeout,
		DBDir:               XDGDataDir(),
		SaveToDB:            true,
	}
}

// XDGDataDir returns the XDG data directory for reviewscan.
// On Linux: ~/.local/share/reviewscan
// On macOS: ~/Library/Application Support/reviewscan
// On Windows: %LOCALAPPDATA%\reviewscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for reviewscan.
// On Linux: ~/.config/reviewscan
// On macOS: ~/Library/Application Support/reviewscan
// On Windows: %APPDATA%\reviewscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Tasks returns the search tasks of the run: every organization against
// every city, organizations first.
func (c *Config) Tasks() []model.SearchTask {
	return model.CrossProduct(c.Organizations, c.Cities)
}

// Settings returns the crawl component settings derived from c.
func (c *Config) Settings() pipeline.Settings {
	s := pipeline.DefaultSettings()
	s.Selectors = c.Selectors
	s.BaseURL = c.BaseURL
	s.MaxScrollIterations = c.MaxScrollIterations
	s.MaxScrollDuration = c.MaxScrollDuration
	s.ThrottleMin = c.ThrottleMin
	s.ThrottleMax = c.ThrottleMax
	s.PageTimeout = c.PageTimeout
	return s
}

// Apply copies every value set in f into c. Lists in f replace c's lists.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	if len(f.Organizations) > 0 {
		c.Organizations = f.Organizations
	}
	if len(f.Cities) > 0 {
		c.Cities = f.Cities
	}
	if f.Output != "" {
		c.OutputPath = f.Output
	}
	if f.Workers > 0 {
		c.Workers = f.Workers
	}
	if f.Headless != nil {
		c.Headless = *f.Headless
	}
	if f.ChromePath != "" {
		c.ChromePath = f.ChromePath
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Language != "" {
		c.Language = f.Language
	}
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	c.Selectors = c.Selectors.Merge(f.Selectors)

	t := f.Timing
	if t.MaxScrollIterations != nil {
		c.MaxScrollIterations = *t.MaxScrollIterations
	}
	if t.MaxScrollDuration != nil {
		c.MaxScrollDuration = *t.MaxScrollDuration
	}
	if t.ThrottleMin != nil {
		c.ThrottleMin = *t.ThrottleMin
	}
	if t.ThrottleMax != nil {
		c.ThrottleMax = *t.ThrottleMax
	}
	if t.PageTimeout != nil {
		c.PageTimeout = *t.PageTimeout
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Organizations) == 0 {
		return ErrNoOrganizations
	}

	if len(c.Cities) == 0 {
		return ErrNoCities
	}

	if c.OutputPath == "" {
		return ErrNoOutput
	}

	if c.Workers <= 0 || c.Workers > DefaultMaxWorkers {
		return ErrInvalidWorkers
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.ThrottleMin < 0 || c.ThrottleMax < c.ThrottleMin {
		return ErrInvalidThrottle
	}

	if c.MaxScrollIterations < 0 || c.MaxScrollDuration < 0 {
		return ErrInvalidScrollBounds
	}

	if c.PageTimeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}
