package browser

import (
	"context"
	"time"
)

// Agent abstracts a single browser tab.
// An Agent is not safe for concurrent use; concurrent workers each own one.
type Agent interface {
	// Navigate loads url in the tab.
	Navigate(ctx context.Context, url string) error

	// WaitForAny blocks until at least one element matches any of the
	// selectors, or returns ErrWaitTimeout after timeout.
	WaitForAny(ctx context.Context, selectors []string, timeout time.Duration) error

	// Submit types text into the element matching inputSelector and presses Enter.
	Submit(ctx context.Context, inputSelector, text string) error

	// Click clicks the first visible element matching selector. It returns
	// ErrElementMissing when nothing clickable appears within timeout.
	Click(ctx context.Context, selector string, timeout time.Duration) error

	// ScrollToBottom scrolls the container to its end. An empty container
	// scrolls the document.
	ScrollToBottom(ctx context.Context, container string) error

	// MeasureExtent returns the scrollable height of the container. An
	// empty container measures the document.
	MeasureExtent(ctx context.Context, container string) (int, error)

	// FindAll returns every element matching selector, possibly none.
	FindAll(ctx context.Context, selector string) ([]Element, error)

	// FindIn returns the first descendant of parent matching selector.
	FindIn(ctx context.Context, parent Element, selector string) (Element, error)

	// TextOf returns the rendered text of el.
	TextOf(ctx context.Context, el Element) (string, error)

	// AttributeOf returns the value of attribute name on el.
	AttributeOf(ctx context.Context, el Element, name string) (string, error)
}

// Element is an opaque handle to a node found by an Agent.
// Handles are only valid on the page they were found on.
type Element struct {
	ref any
}

// NewElement wraps an implementation-specific node reference.
func NewElement(ref any) Element {
	return Element{ref: ref}
}

// Ref returns the implementation-specific node reference.
func (e Element) Ref() any {
	return e.ref
}

// IsZero reports whether e refers to nothing.
func (e Element) IsZero() bool {
	return e.ref == nil
}
