package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/crawler"
	"github.com/nao1215/reviewscan/internal/model"
)

const (
	place1 = "https://maps.example/place/1"
	place2 = "https://maps.example/place/2"
	place3 = "https://maps.example/place/3"
)

func countVisits(visits []string, url string) int {
	n := 0
	for _, v := range visits {
		if v == url {
			n++
		}
	}
	return n
}

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	if s.ThrottleMin != DefaultThrottleMin || s.ThrottleMax != DefaultThrottleMax {
		t.Errorf("unexpected throttle [%v, %v]", s.ThrottleMin, s.ThrottleMax)
	}
	if s.ReviewPause != DefaultReviewPause {
		t.Errorf("expected review pause %v, got %v", DefaultReviewPause, s.ReviewPause)
	}
	if s.BaseURL != crawler.DefaultBaseURL {
		t.Errorf("expected base URL %s, got %s", crawler.DefaultBaseURL, s.BaseURL)
	}
	if s.Selectors.SearchInput == "" {
		t.Error("expected default selectors")
	}
}

func TestDriverRun(t *testing.T) {
	t.Parallel()

	t.Run("end to end with a failing location", func(t *testing.T) {
		t.Parallel()

		cityX := model.NewSearchTask("Bank A", "City X")
		cityY := model.NewSearchTask("Bank A", "City Y")

		s := newSite()
		s.search(cityX, place1, place2)
		s.search(cityY, place2, place3)
		s.location(place1, "Branch 1",
			[2]string{"Accueil chaleureux", "il y a 3 semaines"},
			[2]string{"Attente trop longue", "il y a 2 mois"},
		)
		s.blank(place2)
		s.location(place3, "Branch 3", [2]string{"RAS", "il y a 1 an"})

		agent := s.agent()
		session := crawler.NewSession()
		var done atomic.Int32
		d := NewDriver([]browser.Agent{agent}, session,
			WithSettings(testSettings()),
			WithDriverTaskDone(func(_ *model.TaskReport, _ int) { done.Add(1) }),
		)

		summary, err := d.Run(context.Background(), model.CrossProduct([]string{"Bank A"}, []string{"City X", "City Y"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(summary.Tasks) != 2 {
			t.Fatalf("expected 2 task reports, got %d", len(summary.Tasks))
		}
		if summary.TotalRows != 3 || session.Sink.Len() != 3 {
			t.Errorf("expected 3 rows, got summary=%d sink=%d", summary.TotalRows, session.Sink.Len())
		}
		if summary.TotalFailures != 1 {
			t.Errorf("expected 1 failure, got %d", summary.TotalFailures)
		}
		if summary.TotalSkipped != 1 {
			t.Errorf("expected 1 skipped link, got %d", summary.TotalSkipped)
		}
		if done.Load() != 2 {
			t.Errorf("expected 2 task callbacks, got %d", done.Load())
		}

		if n := countVisits(agent.Visits(), place2); n != 1 {
			t.Errorf("expected the failed location to be visited once, got %d", n)
		}

		for _, row := range session.Sink.Rows() {
			if row.Link == place2 {
				t.Errorf("expected no row for the failed location, got %+v", row)
			}
		}
		first := session.Sink.Rows()[0]
		if first.LocationName != "Branch 1" || first.City != "City X" || first.ReviewText != "Accueil chaleureux" {
			t.Errorf("unexpected first row: %+v", first)
		}
		last := session.Sink.Rows()[2]
		if last.LocationName != "Branch 3" || last.City != "City Y" {
			t.Errorf("unexpected last row: %+v", last)
		}
	})

	t.Run("overlapping queries visit shared locations once across workers", func(t *testing.T) {
		t.Parallel()

		tasks := []model.SearchTask{
			model.NewSearchTask("Bank A", "City X"),
			model.NewSearchTask("Bank B", "City X"),
			model.NewSearchTask("Bank C", "City X"),
		}

		s := newSite()
		for _, task := range tasks {
			s.search(task, place1, place2)
		}
		s.location(place1, "Branch 1", [2]string{"ok", "hier"})
		s.location(place2, "Branch 2", [2]string{"bien", "hier"})

		first := s.agent()
		second := first.Clone()
		session := crawler.NewSession()
		d := NewDriver([]browser.Agent{first, second}, session, WithSettings(testSettings()))

		summary, err := d.Run(context.Background(), tasks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		visits := append(first.Visits(), second.Visits()...)
		for _, place := range []string{place1, place2} {
			if n := countVisits(visits, place); n != 1 {
				t.Errorf("expected %s to be visited once, got %d", place, n)
			}
		}
		if session.Sink.Len() != 2 {
			t.Errorf("expected 2 rows, got %d", session.Sink.Len())
		}
		if summary.TotalSkipped != 4 {
			t.Errorf("expected 4 skipped links, got %d", summary.TotalSkipped)
		}
	})

	t.Run("transport failure keeps collected rows", func(t *testing.T) {
		t.Parallel()

		cityX := model.NewSearchTask("Bank A", "City X")
		cityY := model.NewSearchTask("Bank A", "City Y")

		s := newSite()
		s.search(cityX, place1)
		s.search(cityY, place3)
		s.location(place1, "Branch 1", [2]string{"ok", "hier"}, [2]string{"bof", "hier"})
		s.location(place3, "Branch 3", [2]string{"ok", "hier"})

		agent := s.agent()
		// Landing page and place 1 load; the second landing page does not.
		agent.FailAfter = 2
		session := crawler.NewSession()
		d := NewDriver([]browser.Agent{agent}, session, WithSettings(testSettings()))

		summary, err := d.Run(context.Background(), []model.SearchTask{cityX, cityY})
		if !errors.Is(err, browser.ErrTransport) {
			t.Fatalf("expected ErrTransport, got %v", err)
		}
		if summary == nil {
			t.Fatal("expected a partial summary")
		}
		if summary.ErrorMessage == "" {
			t.Error("expected the summary to carry the error")
		}
		if session.Sink.Len() != 2 {
			t.Errorf("expected 2 rows collected before the failure, got %d", session.Sink.Len())
		}
		if summary.TotalRows != 2 {
			t.Errorf("expected 2 rows in summary, got %d", summary.TotalRows)
		}
	})

	t.Run("discovery timeout skips the task", func(t *testing.T) {
		t.Parallel()

		cityX := model.NewSearchTask("Bank A", "City X")
		cityY := model.NewSearchTask("Bank A", "City Y")

		s := newSite()
		s.search(cityY, place3)
		s.location(place3, "Branch 3", [2]string{"ok", "hier"})

		session := crawler.NewSession()
		d := NewDriver([]browser.Agent{s.agent()}, session, WithSettings(testSettings()))

		summary, err := d.Run(context.Background(), []model.SearchTask{cityX, cityY})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !summary.Tasks[0].DiscoveryTimedOut {
			t.Error("expected the first task to time out")
		}
		if summary.TotalRows != 1 {
			t.Errorf("expected 1 row, got %d", summary.TotalRows)
		}
	})
}
