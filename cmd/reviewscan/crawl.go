package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/crawler"
	"github.com/nao1215/reviewscan/internal/database"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/pipeline"
	"github.com/nao1215/reviewscan/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl branch reviews for every (bank, city) pair",
		Long: `Crawl searches Google Maps for every configured bank in every configured
city, visits each branch found once per run, and collects its name, address,
rating and reviews.

The rows are written to a semicolon-separated CSV file (UTF-8 with BOM) with
the columns Banque;Ville;Nom Agence;Localisation;Note;Avis;Date Avis. Rows
collected before an interruption or a browser failure are still written.

Examples:
  # Crawl the lists of .reviewscan (see reviewscan init)
  reviewscan crawl

  # Crawl one bank in two cities
  reviewscan crawl --org "CIH Bank" --city Rabat --city Casablanca

  # Three browser tabs, visible browser, Markdown summary
  reviewscan crawl -w 3 --headless=false --markdown

  # Write the CSV file elsewhere and skip the crawl database
  reviewscan crawl -o out/avis.csv --no-db`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Search lists
	cmd.Flags().StringSlice("org", nil,
		"Organization to search (repeatable, replaces the config file list)")
	cmd.Flags().StringSlice("city", nil,
		"City to search in (repeatable, replaces the config file list)")

	// Output
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"CSV output file path")
	cmd.Flags().String("db-dir", "",
		"Crawl database directory (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not record the run in the crawl database")

	// Browser
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of browser tabs crawling concurrently (1-8)")
	cmd.Flags().Bool("headless", config.DefaultHeadless,
		"Run the browser without a window")
	cmd.Flags().String("chrome-path", "",
		"Chrome or Chromium binary (default: automatic lookup)")

	// Pacing
	cmd.Flags().Int("max-scrolls", crawler.DefaultMaxScrollIterations,
		"Maximum scrolls per result or review list (0 for unbounded)")
	cmd.Flags().Duration("throttle-min", pipeline.DefaultThrottleMin,
		"Minimum pause between two branch visits")
	cmd.Flags().Duration("throttle-max", pipeline.DefaultThrottleMax,
		"Maximum pause between two branch visits")
	cmd.Flags().Duration("page-timeout", crawler.DefaultPageTimeout,
		"Wait for a branch page to show its name")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .reviewscan in current, XDG config or home directory)")

	// Summary flags
	cmd.Flags().BoolP("json", "j", false,
		"Print the run summary as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the run summary as Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write the run summary to the specified file path")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from the defaults, the configuration file
// and the flags, in that order of precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(file)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if flags.Changed("org") {
		if cfg.Organizations, err = flags.GetStringSlice("org"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("city") {
		if cfg.Cities, err = flags.GetStringSlice("city"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputPath, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("headless") {
		if cfg.Headless, err = flags.GetBool("headless"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("chrome-path") {
		if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-scrolls") {
		if cfg.MaxScrollIterations, err = flags.GetInt("max-scrolls"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("throttle-min") {
		if cfg.ThrottleMin, err = flags.GetDuration("throttle-min"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("throttle-max") {
		if cfg.ThrottleMax, err = flags.GetDuration("throttle-max"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("page-timeout") {
		if cfg.PageTimeout, err = flags.GetDuration("page-timeout"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runCrawl opens the crawl database and the browser, then crawls.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	tasks := cfg.Tasks()

	logger.Info("starting crawl",
		"organizations", len(cfg.Organizations),
		"cities", len(cfg.Cities),
		"queries", len(tasks),
		"workers", cfg.Workers,
		"output", cfg.OutputPath,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	agents, closeBrowser, err := startBrowser(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBrowser()

	return crawl(ctx, cfg, agents, cfg.Settings(), db, out, logger)
}

// crawl runs every query of cfg on agents, then writes the collected rows
// to the CSV file and, when db is not nil, records the run.
func crawl(ctx context.Context, cfg *config.Config, agents []browser.Agent, settings pipeline.Settings, db *database.CrawlDB, out io.Writer, logger *slog.Logger) error {
	tasks := cfg.Tasks()

	fmt.Fprintf(out, "Crawling %d queries with %d browser tab(s)...\n\n", len(tasks), len(agents))
	startTime := time.Now()

	session := crawler.NewSession()
	driver := pipeline.NewDriver(agents, session,
		pipeline.WithSettings(settings),
		pipeline.WithDriverLogger(logger),
		pipeline.WithDriverTaskDone(newProgressPrinter(out, len(tasks))),
	)

	summary, runErr := driver.Run(ctx, tasks)
	if runErr != nil {
		logger.Error("crawl stopped early", "error", runErr, "rows", session.Sink.Len())
	}

	fmt.Fprintf(out, "\nCrawl finished in %s\n", time.Since(startTime).Round(time.Millisecond))

	persisters := []crawler.Persister{report.NewCSVFile(cfg.OutputPath)}
	var runPersister *database.RunPersister
	if db != nil {
		runPersister = db.RunPersister(summary)
		persisters = append(persisters, runPersister)
	}

	// The run context may already be cancelled; the rows are written anyway.
	persistErr := session.Sink.Persist(context.WithoutCancel(ctx), persisters...)
	if persistErr != nil {
		logger.Error("failed to persist rows", "error", persistErr)
	}
	fmt.Fprintf(out, "Wrote %d rows to %s\n", session.Sink.Len(), cfg.OutputPath)
	if runPersister != nil && runPersister.RunID > 0 {
		fmt.Fprintf(out, "Recorded run #%d in %s\n", runPersister.RunID, db.Path())
	}
	fmt.Fprintln(out)

	if err := outputSummary(cfg, summary, out); err != nil {
		logger.Error("summary failed", "error", err)
	}

	if runErr != nil {
		return errors.Join(fmt.Errorf("crawl stopped: %w", runErr), persistErr)
	}
	return persistErr
}

// startBrowser starts Chrome and opens one tab per worker.
// The returned function closes every tab, then the browser.
func startBrowser(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]browser.Agent, func(), error) {
	root, err := browser.NewChrome(ctx,
		browser.WithHeadless(cfg.Headless),
		browser.WithExecPath(cfg.ChromePath),
		browser.WithUserAgent(cfg.UserAgent),
		browser.WithLanguage(cfg.Language),
		browser.WithChromeLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}

	tabs := []*browser.Chrome{root}
	closeAll := func() {
		for i := len(tabs) - 1; i >= 0; i-- {
			tabs[i].Close()
		}
	}

	for i := 1; i < cfg.Workers; i++ {
		tab, err := root.NewTab()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open browser tab %d: %w", i+1, err)
		}
		tabs = append(tabs, tab)
	}

	agents := make([]browser.Agent, len(tabs))
	for i, tab := range tabs {
		agents[i] = tab
	}
	return agents, closeAll, nil
}

// newProgressPrinter returns a task callback printing one line per finished
// query. Workers call it concurrently.
func newProgressPrinter(out io.Writer, total int) func(*model.TaskReport, int) {
	var (
		mu   sync.Mutex
		done int
	)
	return func(r *model.TaskReport, _ int) {
		mu.Lock()
		defer mu.Unlock()

		done++
		status := fmt.Sprintf("%d links, %d new, %d rows", len(r.Links), r.Visited(), r.Rows)
		switch {
		case r.DiscoveryTimedOut:
			status = "no results"
		case r.Cancelled:
			status = "cancelled"
		case r.ErrorMessage != "":
			status = "error: " + r.ErrorMessage
		}
		fmt.Fprintf(out, "[%d/%d] %s: %s\n", done, total, r.Task.Query(), status)
	}
}

// outputSummary writes the run summary in the requested format.
func outputSummary(cfg *config.Config, summary *model.RunSummary, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := summaryWriter(cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose, output).Write(summary)
	return err
}

// summaryWriter selects the report writer for the output flags.
func summaryWriter(jsonReport, markdownReport, verbose bool, w io.Writer) report.Writer {
	switch {
	case jsonReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case markdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(verbose))
	}
}
