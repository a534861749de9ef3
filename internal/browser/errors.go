package browser

import "errors"

var (
	// ErrNavigation is returned when a page cannot be loaded.
	ErrNavigation = errors.New("navigation failed")

	// ErrWaitTimeout is returned when a bounded wait elapses.
	ErrWaitTimeout = errors.New("wait timed out")

	// ErrElementMissing is returned when an element or attribute is absent.
	ErrElementMissing = errors.New("element missing")

	// ErrTransport is returned when the browser session is lost.
	ErrTransport = errors.New("browser transport failure")
)

// IsFatal reports whether err means the browser session cannot continue.
func IsFatal(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsAbsent reports whether err means a looked-up element was not there,
// either immediately or after a bounded wait.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrElementMissing) || errors.Is(err, ErrWaitTimeout)
}
