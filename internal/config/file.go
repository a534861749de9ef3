package config

import (
	"time"

	"github.com/nao1215/reviewscan/internal/crawler"
)

// File represents the structure of the .reviewscan configuration file.
// Every field is optional; set fields override the defaults and CLI flags
// override the file.
type File struct {
	// Organizations are searched in this order.
	Organizations []string `yaml:"organizations,omitempty"`

	// Cities qualify every organization search, in this order.
	Cities []string `yaml:"cities,omitempty"`

	// Output is the CSV artifact path.
	Output string `yaml:"output,omitempty"`

	// Workers is the number of browser tabs crawling concurrently.
	Workers int `yaml:"workers,omitempty"`

	// Headless runs the browser without a window. Unset keeps the default.
	Headless *bool `yaml:"headless,omitempty"`

	// ChromePath is the browser binary.
	ChromePath string `yaml:"chromePath,omitempty"`

	// UserAgent is the browser user agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Language is the browser UI language (e.g., "fr-FR").
	Language string `yaml:"language,omitempty"`

	// BaseURL is the directory landing page.
	BaseURL string `yaml:"baseURL,omitempty"`

	// Selectors override individual markup selectors.
	Selectors crawler.Selectors `yaml:"selectors,omitempty"`

	// Timing overrides scroll bounds, throttling and timeouts.
	Timing Timing `yaml:"timing,omitempty"`
}

// Timing holds the optional pacing overrides of the configuration file.
// Durations use Go syntax ("2s", "3m").
type Timing struct {
	MaxScrollIterations *int           `yaml:"maxScrollIterations,omitempty"`
	MaxScrollDuration   *time.Duration `yaml:"maxScrollDuration,omitempty"`
	ThrottleMin         *time.Duration `yaml:"throttleMin,omitempty"`
	ThrottleMax         *time.Duration `yaml:"throttleMax,omitempty"`
	PageTimeout         *time.Duration `yaml:"pageTimeout,omitempty"`
}
