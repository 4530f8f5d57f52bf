package core

import "testing"

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusOK, StatusDown, StatusError} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []Status{"", "up", "OK", "unknown"} {
		if s.Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestStatusUnhealthy(t *testing.T) {
	if !StatusDown.Unhealthy() || !StatusError.Unhealthy() {
		t.Error("down and error must be unhealthy")
	}
	if StatusOK.Unhealthy() || StatusPending.Unhealthy() {
		t.Error("ok and pending must not be unhealthy")
	}
}

func TestNotableTransition(t *testing.T) {
	tests := []struct {
		name     string
		old, new Status
		want     bool
	}{
		{"ok to down", StatusOK, StatusDown, true},
		{"ok to error", StatusOK, StatusError, true},
		{"down to ok", StatusDown, StatusOK, true},
		{"error to ok", StatusError, StatusOK, true},
		{"down to error reclassification", StatusDown, StatusError, false},
		{"error to down reclassification", StatusError, StatusDown, false},
		{"no change", StatusDown, StatusDown, false},
		{"pending to ok", StatusPending, StatusOK, false},
		{"pending to down", StatusPending, StatusDown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NotableTransition(tt.old, tt.new); got != tt.want {
				t.Errorf("NotableTransition(%q, %q) = %v, want %v", tt.old, tt.new, got, tt.want)
			}
		})
	}
}
