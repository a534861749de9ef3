package crawler

import "errors"

var (
	// ErrDiscoveryTimeout is returned when a search shows no results in time.
	ErrDiscoveryTimeout = errors.New("discovery timed out")

	// ErrNavigationFailure is returned when a detail page cannot be used.
	ErrNavigationFailure = errors.New("location navigation failed")
)
