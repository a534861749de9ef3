package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/reviewscan/internal/model"
)

// createTestSummary creates a summary with sample data for testing.
func createTestSummary() *model.RunSummary {
	ok := model.NewTaskReport(model.SearchTask{Organization: "Bank A", City: "City X"})
	ok.Links = []model.LocationLink{{URL: "L1"}, {URL: "L2"}}
	ok.Locations = []model.LocationRecord{{
		Link:        "L1",
		Location:    &model.Location{Name: "Agence Centre", Address: "Rue 1", Rating: "4,1"},
		ReviewCount: 2,
	}}
	ok.Failures = []model.LinkFailure{{Link: "L2", Reason: "page did not load"}}
	ok.Rows = 2

	empty := model.NewTaskReport(model.SearchTask{Organization: "Bank B", City: "City X"})
	empty.DiscoveryTimedOut = true

	s := model.NewRunSummary()
	s.Tasks = []*model.TaskReport{ok, empty}
	s.Finalize(nil)
	return s
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()

		for _, want := range []string{"REVIEWSCAN RUN SUMMARY", "Rows:       2", "Bank A City X", "no results", "Complete"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "page did not load") {
			t.Error("expected failure reasons only in verbose mode")
		}
	})

	t.Run("verbose lists locations and failures", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Agence Centre") {
			t.Error("expected location name in verbose output")
		}
		if !strings.Contains(output, "page did not load") {
			t.Error("expected failure reason in verbose output")
		}
	})

	t.Run("verbose marks sentinel ratings", func(t *testing.T) {
		t.Parallel()

		s := createTestSummary()
		loc := model.NewLocation()
		loc.Name = "Agence Gare"
		loc.MarkMissing(model.FieldRating)
		s.Tasks[0].Locations = append(s.Tasks[0].Locations, model.LocationRecord{Link: "L3", Location: loc})

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "+ Agence Gare (no rating) reviews=0") {
			t.Errorf("expected the sentinel rating to be labelled, got:\n%s", output)
		}
		if !strings.Contains(output, "+ Agence Centre (4,1) reviews=2") {
			t.Errorf("expected the real rating to be shown, got:\n%s", output)
		}
	})

	t.Run("aborted run", func(t *testing.T) {
		t.Parallel()

		s := model.NewRunSummary()
		s.Finalize(errors.New("browser transport failure"))

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "ABORTED - browser transport failure") {
			t.Errorf("expected aborted status, got %s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Version string `json:"version"`
			Summary struct {
				TotalRows int `json:"total_rows"`
				Tasks     []struct {
					Task struct {
						Organization string `json:"organization"`
					} `json:"task"`
				} `json:"tasks"`
			} `json:"summary"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("expected valid JSON, got error: %v", err)
		}
		if decoded.Version != "v1.2.3" {
			t.Errorf("expected version v1.2.3, got %q", decoded.Version)
		}
		if decoded.Summary.TotalRows != 2 {
			t.Errorf("expected 2 rows, got %d", decoded.Summary.TotalRows)
		}
		if len(decoded.Summary.Tasks) != 2 || decoded.Summary.Tasks[0].Task.Organization != "Bank A" {
			t.Errorf("unexpected tasks: %+v", decoded.Summary.Tasks)
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"summary\"") {
			t.Error("expected indented output")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()

		for _, want := range []string{"# Reviewscan Run Summary", "## Organizations", "## Queries", "## Failed locations", "mermaid"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty summary has no chart", func(t *testing.T) {
		t.Parallel()

		s := model.NewRunSummary()
		s.Finalize(nil)

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "## Organizations") {
			t.Error("expected no organization chart without rows")
		}
		if !strings.Contains(buf.String(), "No query was run.") {
			t.Error("expected empty query notice")
		}
	})
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
	if _, err := mw.Write(createTestSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(text.String(), "{") {
		t.Error("expected plain text in the first writer")
	}
	if !strings.Contains(js.String(), "{") {
		t.Error("expected JSON in the second writer")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	if got := truncateString("Attijariwafa Bank Casablanca", 10); got != "Attijar..." {
		t.Errorf("expected 'Attijar...', got %q", got)
	}
	if got := truncateString("خدمة ممتازة جدا", 5); got != "خد..." {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
}
