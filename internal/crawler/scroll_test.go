package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/reviewscan/internal/browser"
	"github.com/nao1215/reviewscan/internal/browser/browsertest"
)

func TestStabilizer(t *testing.T) {
	t.Parallel()

	newAgent := func(extents []int) *browsertest.Agent {
		a := browsertest.NewAgent(map[string]*browsertest.Page{
			"page": {Extents: map[string][]int{".pane": extents}},
		})
		_ = a.Navigate(context.Background(), "page")
		return a
	}

	t.Run("stops after two equal readings", func(t *testing.T) {
		t.Parallel()

		a := newAgent([]int{800, 1200, 1200})
		res, err := NewStabilizer(a).Stabilize(context.Background(), ".pane")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Iterations != 2 {
			t.Errorf("expected 2 scrolls, got %d", res.Iterations)
		}
		if a.Scrolls(".pane") != 2 {
			t.Errorf("expected agent to see 2 scrolls, got %d", a.Scrolls(".pane"))
		}
		if res.FinalExtent != 1200 {
			t.Errorf("expected final extent 1200, got %d", res.FinalExtent)
		}
		if res.Truncated {
			t.Error("expected result not to be truncated")
		}
	})

	t.Run("static container scrolls once", func(t *testing.T) {
		t.Parallel()

		a := newAgent([]int{500})
		res, err := NewStabilizer(a).Stabilize(context.Background(), ".pane")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Iterations != 1 {
			t.Errorf("expected 1 scroll, got %d", res.Iterations)
		}
	})

	t.Run("iteration bound truncates", func(t *testing.T) {
		t.Parallel()

		a := newAgent([]int{100, 200, 300, 400, 500, 600, 700})
		res, err := NewStabilizer(a, WithMaxIterations(3)).Stabilize(context.Background(), ".pane")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Truncated {
			t.Error("expected result to be truncated")
		}
		if res.Iterations != 3 {
			t.Errorf("expected 3 scrolls, got %d", res.Iterations)
		}
		if res.FinalExtent != 400 {
			t.Errorf("expected final extent 400, got %d", res.FinalExtent)
		}
	})

	t.Run("duration bound truncates", func(t *testing.T) {
		t.Parallel()

		growing := make([]int, 10000)
		for i := range growing {
			growing[i] = (i + 1) * 100
		}
		a := newAgent(growing)
		s := NewStabilizer(a,
			WithMaxIterations(0),
			WithMaxDuration(50*time.Millisecond),
			WithPause(5*time.Millisecond, 5*time.Millisecond),
		)

		start := time.Now()
		res, err := s.Stabilize(context.Background(), ".pane")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !res.Truncated {
			t.Error("expected result to be truncated")
		}
		if res.Iterations == 0 || res.Iterations >= len(growing)-1 {
			t.Errorf("expected the duration bound to stop scrolling early, got %d scrolls", res.Iterations)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("expected to stop near 50ms, took %v", elapsed)
		}
	})

	t.Run("missing container ends quietly", func(t *testing.T) {
		t.Parallel()

		a := newAgent([]int{800})
		res, err := NewStabilizer(a).Stabilize(context.Background(), ".absent")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Iterations != 0 {
			t.Errorf("expected 0 scrolls, got %d", res.Iterations)
		}
	})

	t.Run("transport failure propagates", func(t *testing.T) {
		t.Parallel()

		a := newAgent([]int{800, 1200})
		a.Break()
		_, err := NewStabilizer(a).Stabilize(context.Background(), ".pane")
		if !browser.IsFatal(err) {
			t.Errorf("expected transport failure, got %v", err)
		}
	})
}
