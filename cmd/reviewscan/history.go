package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/database"
	"github.com/nao1215/reviewscan/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded crawl runs",
		Long: `History lists the crawl runs recorded in the local crawl database, newest
first. A single run can be shown in detail or exported again as a CSV file.

Examples:
  # List the last 10 runs
  reviewscan history

  # Show run 3 as Markdown
  reviewscan history --show 3 --markdown

  # Write the rows of run 3 to a new CSV file
  reviewscan history --export 3 -o run3.csv`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 10,
		"Number of runs to list (0 for all)")
	cmd.Flags().Int64("show", 0,
		"Print the summary of the run with this id")
	cmd.Flags().Int64("export", 0,
		"Write the rows of the run with this id to a CSV file")
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"CSV file path for --export")
	cmd.Flags().String("db-dir", "",
		"Crawl database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Print JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print Markdown (mutually exclusive with --json)")

	return cmd
}

// historyOptions holds the flags of the history command.
type historyOptions struct {
	limit    int
	show     int64
	export   int64
	output   string
	dbDir    string
	json     bool
	markdown bool
	verbose  bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	opts, err := buildHistoryOptions(cmd)
	if err != nil {
		return err
	}

	setupLogger(cmd)

	db, err := database.Open(opts.dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), db, opts, cmd.OutOrStdout())
}

func buildHistoryOptions(cmd *cobra.Command) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{verbose: getVerboseFlag(cmd)}

	var err error
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.show, err = flags.GetInt64("show"); err != nil {
		return nil, err
	}
	if opts.export, err = flags.GetInt64("export"); err != nil {
		return nil, err
	}
	if opts.output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}
	if opts.limit < 0 {
		return nil, errors.New("invalid limit: must be non-negative")
	}
	if opts.show != 0 && opts.export != 0 {
		return nil, errors.New("--show and --export cannot be used together")
	}
	return opts, nil
}

// runHistory lists runs, or shows or exports the one selected by opts.
func runHistory(ctx context.Context, db *database.CrawlDB, opts *historyOptions, out io.Writer) error {
	switch {
	case opts.export != 0:
		if _, err := db.GetRun(ctx, opts.export); err != nil {
			return err
		}
		rows, err := db.RunRows(ctx, opts.export)
		if err != nil {
			return err
		}
		if err := report.NewCSVFile(opts.output).Persist(ctx, rows); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d rows of run #%d to %s\n", len(rows), opts.export, opts.output)
		return nil

	case opts.show != 0:
		summary, err := db.GetRun(ctx, opts.show)
		if err != nil {
			return err
		}
		_, err = summaryWriter(opts.json, opts.markdown, opts.verbose, out).Write(summary)
		return err
	}

	runs, err := db.ListRuns(ctx, opts.limit)
	if err != nil {
		return err
	}
	return writeRuns(out, runs, opts)
}

// writeRuns prints the run list in the format selected by opts.
func writeRuns(out io.Writer, runs []database.RunRecord, opts *historyOptions) error {
	if opts.json {
		return writeJSON(out, runs)
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "aborted"
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			runDuration(r).String(),
			strconv.Itoa(r.TotalLinks),
			strconv.Itoa(r.TotalLocations),
			strconv.Itoa(r.TotalFailures),
			strconv.Itoa(r.TotalRows),
			status,
		})
	}
	header := []string{"ID", "Started", "Duration", "Links", "Locations", "Failed", "Rows", "Status"}

	if opts.markdown {
		md := markdown.NewMarkdown(out)
		md.H1("Crawl runs")
		md.PlainText("")
		if len(rows) == 0 {
			md.PlainText("No run recorded.")
			return md.Build()
		}
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		return md.Build()
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No run recorded.")
		return nil
	}
	fmt.Fprintf(out, "%-5s %-17s %-10s %6s %10s %7s %7s  %s\n",
		header[0], header[1], header[2], header[3], header[4], header[5], header[6], header[7])
	for _, r := range rows {
		fmt.Fprintf(out, "%-5s %-17s %-10s %6s %10s %7s %7s  %s\n",
			r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7])
	}
	return nil
}

// runDuration returns the wall time of a run, zero while it is unfinished.
func runDuration(r database.RunRecord) time.Duration {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second)
}
