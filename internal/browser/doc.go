// Package browser drives a real browser session for the crawler.
//
// The Agent interface is the only surface the crawler uses: navigation,
// bounded waits, typing a query, clicking, scrolling, measuring scroll
// extent and reading element text or attributes. Chrome implements it on
// top of chromedp; the browsertest package provides a scripted in-memory
// implementation for tests.
//
// # Error classes
//
// Every method returns one of the sentinel errors below (wrapped), or the
// caller's context error:
//   - ErrNavigation: the page could not be loaded
//   - ErrWaitTimeout: a bounded wait elapsed without the condition holding
//   - ErrElementMissing: an element or attribute is not present
//   - ErrTransport: the browser session itself is unusable
//
// Only ErrTransport is fatal to a crawl run.
package browser
