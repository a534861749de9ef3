// Package model defines the core data structures used throughout reviewscan.
//
// This package contains the following main types:
//   - SearchTask: One (organization, city) query of a crawl run
//   - LocationLink: A link to a single location detail page
//   - Location: Name, address and rating extracted from a detail page
//   - Review: One customer review with its detected language
//   - OutputRow: One flattened (location, review) record of the output artifact
//   - TaskReport and RunSummary: Per-task and per-run crawl outcomes
//
// Multiple packages (crawler, pipeline, report, database) share these types,
// so they live in their own package to avoid import cycles.
package model
