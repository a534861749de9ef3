package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/reviewscan/internal/model"
)

// SimpleWriter outputs a human-readable run summary.
type SimpleWriter struct {
	baseWriter

	// verbose adds per-location lines and failure reasons.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-location detail.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeTasks(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        REVIEWSCAN RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Started:    %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", s.Duration().Round(time.Second)))
	sb.WriteString(fmt.Sprintf("Queries:    %d\n", len(s.Tasks)))
	sb.WriteString(fmt.Sprintf("Links:      %d (%d already visited)\n", s.TotalLinks, s.TotalSkipped))
	sb.WriteString(fmt.Sprintf("Locations:  %d (%d failed)\n", s.TotalLocations, s.TotalFailures))
	sb.WriteString(fmt.Sprintf("Rows:       %d\n", s.TotalRows))

	if s.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:     ABORTED - %s\n", s.ErrorMessage))
	} else {
		sb.WriteString("Status:     Complete\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTasks(sb *strings.Builder, s *model.RunSummary) {
	if len(s.Tasks) == 0 {
		return
	}

	sb.WriteString("QUERIES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	for _, t := range s.Tasks {
		sb.WriteString(fmt.Sprintf("  %-40s links=%-4d locations=%-4d rows=%-5d %s\n",
			truncateString(t.Task.Query(), 40),
			len(t.Links),
			len(t.Locations),
			t.Rows,
			taskStatus(t),
		))

		if !w.verbose {
			continue
		}
		for _, l := range t.Locations {
			sb.WriteString(fmt.Sprintf("      + %s (%s) reviews=%d\n", l.Location.Name, ratingLabel(l.Location), l.ReviewCount))
		}
		for _, f := range t.Failures {
			sb.WriteString(fmt.Sprintf("      - %s: %s\n", f.Link, f.Reason))
		}
	}
	sb.WriteString("\n")
}

// ratingLabel tells a sentinel rating apart from a real one.
func ratingLabel(loc *model.Location) string {
	if loc.IsMissing(model.FieldRating) {
		return "no rating"
	}
	return loc.Rating
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
