package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/database"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/report"
)

// writeReviewCSV writes a review artifact with three rows and returns its path.
func writeReviewCSV(t *testing.T) string {
	t.Helper()

	rows := []model.OutputRow{
		{Organization: "CIH Bank", City: "Rabat", LocationName: "Agence Agdal", LocationAddress: "Avenue de France", LocationRating: "4.1", ReviewText: "Accueil correct", ReviewDate: "il y a 2 mois"},
		{Organization: "CIH Bank", City: "Rabat", LocationName: "Agence Agdal", LocationAddress: "Avenue de France", LocationRating: "4.1", ReviewText: "", ReviewDate: "il y a un an"},
		{Organization: "BMCI", City: "Fès", LocationName: "Agence Saïss", LocationAddress: "", LocationRating: "3.5", ReviewText: "خدمة ممتازة", ReviewDate: "il y a 3 semaines"},
	}

	path := filepath.Join(t.TempDir(), "avis.csv")
	if err := report.NewCSVFile(path).Persist(t.Context(), rows); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return path
}

func TestNewLoadCmd(t *testing.T) {
	t.Parallel()

	cmd := NewLoadCmd()

	if cmd.Use != "load" {
		t.Errorf("expected Use 'load', got %q", cmd.Use)
	}

	input := cmd.Flags().Lookup("input")
	if input == nil {
		t.Fatal("expected input flag")
	}
	if input.Shorthand != "i" {
		t.Errorf("expected shorthand 'i', got %q", input.Shorthand)
	}
	if input.DefValue != config.DefaultOutputFile {
		t.Errorf("expected default %q, got %q", config.DefaultOutputFile, input.DefValue)
	}

	for _, name := range []string{"dsn", "db-dir", "json", "markdown"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

func TestBuildLoadOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewLoadCmd()
		if err := cmd.ParseFlags([]string{"--dsn", "postgres://app@localhost/reviews"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		opts, err := buildLoadOptions(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.input != config.DefaultOutputFile {
			t.Errorf("expected default input, got %q", opts.input)
		}
		if opts.dsn != "postgres://app@localhost/reviews" {
			t.Errorf("expected dsn from flag, got %q", opts.dsn)
		}
		if opts.dbDir != config.XDGDataDir() {
			t.Errorf("expected XDG data dir, got %q", opts.dbDir)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		cmd := NewLoadCmd()
		if err := cmd.ParseFlags([]string{"--json", "--markdown"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		_, err := buildLoadOptions(cmd)
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		cmd := NewLoadCmd()
		if err := cmd.ParseFlags([]string{"-i", ""}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		_, err := buildLoadOptions(cmd)
		if !errors.Is(err, config.ErrNoOutput) {
			t.Errorf("expected ErrNoOutput, got %v", err)
		}
	})
}

// TestBuildLoadOptionsEnv reads the connection string from the environment.
// It cannot run in parallel because it sets an environment variable.
func TestBuildLoadOptionsEnv(t *testing.T) {
	t.Setenv(dsnEnv, "postgres://env@localhost/reviews")

	cmd := NewLoadCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	opts, err := buildLoadOptions(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.dsn != "postgres://env@localhost/reviews" {
		t.Errorf("expected dsn from environment, got %q", opts.dsn)
	}

	cmd = NewLoadCmd()
	if err := cmd.ParseFlags([]string{"--dsn", "postgres://flag@localhost/reviews"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	opts, err = buildLoadOptions(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.dsn != "postgres://flag@localhost/reviews" {
		t.Errorf("expected the flag to win over the environment, got %q", opts.dsn)
	}
}

func TestRunLoad(t *testing.T) {
	t.Parallel()

	t.Run("text statistics", func(t *testing.T) {
		t.Parallel()

		opts := &loadOptions{input: writeReviewCSV(t), dbDir: t.TempDir()}

		var buf bytes.Buffer
		if err := runLoad(t.Context(), opts, &buf, discardLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"Loaded 3 rows into sqlite:",
			"raw_reviews now holds 3 rows",
			"Empty values per column:",
			"Top organizations:",
			"CIH Bank",
			"Top cities:",
			"Fès",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("reload replaces the table", func(t *testing.T) {
		t.Parallel()

		opts := &loadOptions{input: writeReviewCSV(t), dbDir: t.TempDir(), json: true}

		for range 2 {
			var buf bytes.Buffer
			if err := runLoad(t.Context(), opts, &buf, discardLogger()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var stats database.RawStats
			if err := json.Unmarshal(buf.Bytes(), &stats); err != nil {
				t.Fatalf("expected valid JSON, got %v", err)
			}
			if stats.Total != 3 {
				t.Errorf("expected 3 rows after each load, got %d", stats.Total)
			}
			if stats.Nulls["avis"] != 1 {
				t.Errorf("expected 1 empty review, got %d", stats.Nulls["avis"])
			}
			if stats.Nulls["localisation"] != 1 {
				t.Errorf("expected 1 empty address, got %d", stats.Nulls["localisation"])
			}
		}
	})

	t.Run("markdown statistics", func(t *testing.T) {
		t.Parallel()

		opts := &loadOptions{input: writeReviewCSV(t), dbDir: t.TempDir(), markdown: true}

		var buf bytes.Buffer
		if err := runLoad(t.Context(), opts, &buf, discardLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# raw_reviews load", "## Empty values", "## Top organizations", "## Top cities"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("missing columns", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.csv")
		if err := os.WriteFile(path, []byte("Banque;Ville\nBMCI;Rabat\n"), 0600); err != nil {
			t.Fatalf("failed to write csv: %v", err)
		}

		err := runLoad(t.Context(), &loadOptions{input: path, dbDir: t.TempDir()}, &bytes.Buffer{}, discardLogger())
		if !errors.Is(err, report.ErrMissingColumns) {
			t.Errorf("expected ErrMissingColumns, got %v", err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "empty.csv")
		if err := report.NewCSVFile(path).Persist(t.Context(), nil); err != nil {
			t.Fatalf("failed to write csv: %v", err)
		}

		err := runLoad(t.Context(), &loadOptions{input: path, dbDir: t.TempDir()}, &bytes.Buffer{}, discardLogger())
		if !errors.Is(err, database.ErrNoRows) {
			t.Errorf("expected ErrNoRows, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "zero.csv")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatalf("failed to write csv: %v", err)
		}

		err := runLoad(t.Context(), &loadOptions{input: path, dbDir: t.TempDir()}, &bytes.Buffer{}, discardLogger())
		if !errors.Is(err, report.ErrEmptyCSV) {
			t.Errorf("expected ErrEmptyCSV, got %v", err)
		}
	})
}

func TestRankingRows(t *testing.T) {
	t.Parallel()

	rows := rankingRows([]database.ColumnCount{{Value: "Rabat", Count: 12}, {Value: "Fès", Count: 3}})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "Fès" || rows[1][1] != "3" {
		t.Errorf("unexpected row %v", rows[1])
	}
}
