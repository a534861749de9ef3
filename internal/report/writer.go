package report

import (
	"io"

	"github.com/nao1215/reviewscan/internal/model"
)

// Writer defines the interface for run summary output.
type Writer interface {
	// Write outputs the summary. It returns the number of bytes written.
	Write(summary *model.RunSummary) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to every Writer, stopping on the first error.
func (m *MultiWriter) Write(summary *model.RunSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for summary writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// taskStatus returns a short status for a task report.
func taskStatus(t *model.TaskReport) string {
	switch {
	case t.Cancelled:
		return "cancelled"
	case t.ErrorMessage != "":
		return "error"
	case t.DiscoveryTimedOut:
		return "no results"
	default:
		return "ok"
	}
}
