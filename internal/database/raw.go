package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/reviewscan/internal/model"
)

// ErrNoRows is returned when a load is asked to insert nothing.
var ErrNoRows = errors.New("no rows to load")

// RawColumns are the raw_reviews columns, in model.CSVHeader order.
var RawColumns = []string{
	"banque",
	"ville",
	"nom_agence",
	"localisation",
	"note",
	"avis",
	"date_avis",
}

// topN is the number of entries in each RawStats ranking.
const topN = 5

// RawLoader replaces the raw_reviews table with the rows of a CSV artifact.
type RawLoader interface {
	// LoadRawReviews empties raw_reviews, resets its identity and inserts rows.
	LoadRawReviews(ctx context.Context, rows []model.OutputRow) (int64, error)

	// RawStats summarizes the raw_reviews table.
	RawStats(ctx context.Context) (*RawStats, error)

	// Name identifies the destination in logs.
	Name() string

	// Close releases the connection.
	Close() error
}

// ColumnCount is one entry of a ranking.
type ColumnCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// RawStats describes the content of raw_reviews after a load.
type RawStats struct {
	Total int `json:"total"`

	// Nulls maps a column in RawColumns to its NULL count.
	Nulls map[string]int `json:"nulls"`

	TopOrganizations []ColumnCount `json:"top_organizations"`
	TopCities        []ColumnCount `json:"top_cities"`
}

// rawValues returns the values of row in RawColumns order. Empty strings
// are stored as NULL.
func rawValues(row model.OutputRow) []any {
	record := row.Record()
	values := make([]any, len(record))
	for i, v := range record {
		values[i] = nullable(v)
	}
	return values
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// statsDB is the part of *sql.DB and *sql.Tx used for statistics.
type statsDB interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// collectRawStats runs the stats queries against table. Identifiers come
// from RawColumns and the caller, never from user input.
func collectRawStats(ctx context.Context, db statsDB, table string) (*RawStats, error) {
	stats := &RawStats{Nulls: make(map[string]int, len(RawColumns))}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count raw reviews: %w", err)
	}

	for _, col := range RawColumns {
		var n int
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL", table, col)
		if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count nulls in %s: %w", col, err)
		}
		stats.Nulls[col] = n
	}

	var err error
	if stats.TopOrganizations, err = topValues(ctx, db, table, "banque"); err != nil {
		return nil, err
	}
	if stats.TopCities, err = topValues(ctx, db, table, "ville"); err != nil {
		return nil, err
	}
	return stats, nil
}

func topValues(ctx context.Context, db statsDB, table, col string) ([]ColumnCount, error) {
	query := fmt.Sprintf(
		"SELECT %[2]s, COUNT(*) AS n FROM %[1]s WHERE %[2]s IS NOT NULL GROUP BY %[2]s ORDER BY n DESC, %[2]s LIMIT %[3]d",
		table, col, topN,
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to rank %s: %w", col, err)
	}
	defer rows.Close()

	var out []ColumnCount
	for rows.Next() {
		var c ColumnCount
		if err := rows.Scan(&c.Value, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s ranking: %w", col, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Name implements RawLoader.
func (cdb *CrawlDB) Name() string {
	return "sqlite:" + cdb.dbPath
}

// LoadRawReviews implements RawLoader. The table is emptied and its
// AUTOINCREMENT sequence reset inside the same transaction as the inserts.
func (cdb *CrawlDB) LoadRawReviews(ctx context.Context, rows []model.OutputRow) (loaded int64, err error) {
	if len(rows) == 0 {
		return 0, ErrNoRows
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM raw_reviews"); err != nil {
		return 0, fmt.Errorf("failed to empty raw_reviews: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = 'raw_reviews'"); err != nil {
		return 0, fmt.Errorf("failed to reset raw_reviews identity: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO raw_reviews (banque, ville, nom_agence, localisation, note, avis, date_avis)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare raw insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, rawValues(row)...); err != nil {
			return 0, fmt.Errorf("failed to insert raw row %d: %w", i+1, err)
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit raw load: %w", err)
	}
	return loaded, nil
}

// RawStats implements RawLoader.
func (cdb *CrawlDB) RawStats(ctx context.Context) (*RawStats, error) {
	return collectRawStats(ctx, cdb.db, "raw_reviews")
}
