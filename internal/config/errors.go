package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be tested with
// errors.Is().
var (
	// ErrNoOrganizations is returned when no organization is configured.
	ErrNoOrganizations = errors.New("no organization specified: use --org or the organizations list of the config file")

	// ErrNoCities is returned when no city is configured.
	ErrNoCities = errors.New("no city specified: use --city or the cities list of the config file")

	// ErrNoOutput is returned when the CSV output path is empty.
	ErrNoOutput = errors.New("no output file specified")

	// ErrInvalidWorkers is returned when the worker count is out of range.
	ErrInvalidWorkers = errors.New("invalid worker count: must be between 1 and 8")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidThrottle is returned when the throttle range is negative or inverted.
	ErrInvalidThrottle = errors.New("invalid throttle: min must be non-negative and not greater than max")

	// ErrInvalidScrollBounds is returned when a scroll bound is negative.
	ErrInvalidScrollBounds = errors.New("invalid scroll bounds: must be non-negative")

	// ErrInvalidTimeout is returned when the page timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid page timeout: must be positive")
)
