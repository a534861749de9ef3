package model

import (
	"errors"
	"testing"
)

func TestRunSummaryFinalize(t *testing.T) {
	t.Parallel()

	t.Run("computes totals and drops nil tasks", func(t *testing.T) {
		t.Parallel()

		first := NewTaskReport(SearchTask{Organization: "Bank A", City: "City X"})
		first.Links = []LocationLink{{URL: "L1"}, {URL: "L2"}}
		first.Locations = []LocationRecord{{Link: "L1", Location: NewLocation(), ReviewCount: 2}}
		first.Failures = []LinkFailure{{Link: "L2", Reason: "timeout"}}
		first.Rows = 2

		second := NewTaskReport(SearchTask{Organization: "Bank A", City: "City Y"})
		second.Links = []LocationLink{{URL: "L1"}}
		second.Skipped = 1

		summary := NewRunSummary()
		summary.Tasks = []*TaskReport{first, nil, second}
		summary.Finalize(nil)

		if len(summary.Tasks) != 2 {
			t.Fatalf("expected 2 tasks, got %d", len(summary.Tasks))
		}
		if summary.TotalLinks != 3 {
			t.Errorf("expected 3 links, got %d", summary.TotalLinks)
		}
		if summary.TotalLocations != 1 || summary.TotalFailures != 1 || summary.TotalSkipped != 1 {
			t.Errorf("unexpected totals: %+v", summary)
		}
		if summary.TotalRows != 2 {
			t.Errorf("expected 2 rows, got %d", summary.TotalRows)
		}
		if first.Visited() != 2 {
			t.Errorf("expected 2 visited, got %d", first.Visited())
		}
		if summary.ErrorMessage != "" {
			t.Errorf("expected no error message, got %q", summary.ErrorMessage)
		}
	})

	t.Run("records fatal error", func(t *testing.T) {
		t.Parallel()

		summary := NewRunSummary()
		summary.Finalize(errors.New("browser gone"))
		if summary.ErrorMessage != "browser gone" {
			t.Errorf("expected error message, got %q", summary.ErrorMessage)
		}
		if summary.Duration() < 0 {
			t.Errorf("expected non-negative duration, got %v", summary.Duration())
		}
	})
}
