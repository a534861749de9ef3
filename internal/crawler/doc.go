// Package crawler extracts locations and reviews from a map directory.
//
// # Components
//
//   - Stabilizer: scrolls a lazily-loading container until its extent stops growing
//   - Discovery: runs one search query and collects every result link
//   - VisitedSet: process-wide "visit each location once" gate
//   - LocationExtractor: reads name, address and rating from a detail page
//   - ReviewExtractor: expands, scrolls and reads every review on a detail page
//   - ResultSink: accumulates output rows and persists them once at the end
//   - Session: the visited set and sink shared by every worker of a run
//
// Every component talks to the page through browser.Agent and never
// touches chromedp directly.
//
// # Usage
//
//	stab := crawler.NewStabilizer(agent, crawler.WithPause(2*time.Second, 4*time.Second))
//	disc := crawler.NewDiscovery(agent, stab)
//	found, err := disc.Discover(ctx, task)
//
// # Failure handling
//
// A missing field falls back to a sentinel, a missing review element is
// skipped, a detail page that never loads is skipped, and a search that
// shows no results yields zero links. Only browser.ErrTransport and
// context cancellation propagate out of a component.
package crawler
