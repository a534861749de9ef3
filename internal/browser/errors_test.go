package browser

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantFatal  bool
		wantAbsent bool
	}{
		{"transport", fmt.Errorf("run: %w", ErrTransport), true, false},
		{"missing", fmt.Errorf("find: %w", ErrElementMissing), false, true},
		{"timeout", fmt.Errorf("wait: %w", ErrWaitTimeout), false, true},
		{"navigation", fmt.Errorf("load: %w", ErrNavigation), false, false},
		{"other", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsFatal(tt.err); got != tt.wantFatal {
				t.Errorf("IsFatal: expected %v, got %v", tt.wantFatal, got)
			}
			if got := IsAbsent(tt.err); got != tt.wantAbsent {
				t.Errorf("IsAbsent: expected %v, got %v", tt.wantAbsent, got)
			}
		})
	}
}

func TestElement(t *testing.T) {
	t.Parallel()

	if !(Element{}).IsZero() {
		t.Error("expected zero Element to report IsZero")
	}
	el := NewElement("node-1")
	if el.IsZero() {
		t.Error("expected wrapped Element not to be zero")
	}
	if el.Ref() != "node-1" {
		t.Errorf("expected ref node-1, got %v", el.Ref())
	}
}

func TestScript(t *testing.T) {
	t.Parallel()

	got := script(extentScript, `div[role="feed"]`)
	want := `})("div[role=\"feed\"]")`
	if len(got) < len(want) || got[len(got)-len(want):] != want {
		t.Errorf("expected script to end with %s, got %s", want, got)
	}
}
