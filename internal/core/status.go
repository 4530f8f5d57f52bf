package core

// Status is the closed set of domain monitoring states. Domains enter
// "pending" when queued for a check and settle into one of the terminal
// states when a result is applied.
type Status string

const (
	StatusPending Status = "pending"
	StatusOK      Status = "ok"
	StatusDown    Status = "down"
	StatusError   Status = "error"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOK, StatusDown, StatusError:
		return true
	}
	return false
}

// Unhealthy reports whether the status sits on the down side of the
// up/down boundary.
func (s Status) Unhealthy() bool {
	return s == StatusDown || s == StatusError
}

// NotableTransition reports whether moving from old to new crosses the
// up/down boundary. Only boundary crossings open or close incidents and
// produce notification events; down<->error reclassification does not.
func NotableTransition(old, new Status) bool {
	if old == new {
		return false
	}
	return (old == StatusOK && new.Unhealthy()) || (old.Unhealthy() && new == StatusOK)
}
