// Package database provides storage for reviewscan runs and review tables.
//
// The CrawlDB is a single SQLite file (via modernc.org/sqlite) that stores:
//   - One record per crawl run, with its summary
//   - The locations and review rows each run produced
//   - A raw_reviews table loaded from a CSV artifact
//
// The raw_reviews table can also live in PostgreSQL. PostgresLoader uses
// github.com/lib/pq and streams rows with COPY. Both loaders replace the
// table content on every load and reset its identity column.
package database
