package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Domain is the unit of monitoring. Status mutations come from exactly
// two places: the scheduler (-> pending, "Queued for check") and the
// result applier (-> ok/down/error). StatusSince changes if and only if
// Status changes value between two consecutive writes.
type Domain struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AccountID uuid.UUID `json:"account_id" db:"account_id"`
	Name      string    `json:"name" db:"name"`
	Campaign  *string   `json:"campaign,omitempty" db:"campaign"`

	Status         Status     `json:"status" db:"status"`
	StatusSince    time.Time  `json:"status_since" db:"status_since"`
	LastCheckedAt  *time.Time `json:"last_checked_at,omitempty" db:"last_checked_at"`
	LastUpAt       *time.Time `json:"last_up_at,omitempty" db:"last_up_at"`
	LastDownAt     *time.Time `json:"last_down_at,omitempty" db:"last_down_at"`
	SSLValid       *bool      `json:"ssl_valid,omitempty" db:"ssl_valid"`
	LastCheckError *string    `json:"last_check_error,omitempty" db:"last_check_error"`

	// Enrichment refreshed during the full sweep.
	ResolvedIPs     StringSlice `json:"resolved_ips,omitempty" db:"resolved_ips"`
	DomainExpiresAt *time.Time  `json:"domain_expires_at,omitempty" db:"domain_expires_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type BatchStatus string

const (
	BatchScheduled BatchStatus = "scheduled"
	BatchCompleted BatchStatus = "completed"
	BatchAbandoned BatchStatus = "abandoned"
)

// CheckBatch tracks the progress of one scheduling round for one
// account. ProcessedDomains never exceeds TotalDomains; CompletedAt is
// set exactly when the two become equal.
type CheckBatch struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	AccountID        uuid.UUID   `json:"account_id" db:"account_id"`
	Status           BatchStatus `json:"status" db:"status"`
	TotalDomains     int         `json:"total_domains" db:"total_domains"`
	ProcessedDomains int         `json:"processed_domains" db:"processed_domains"`
	ScheduledFor     time.Time   `json:"scheduled_for" db:"scheduled_for"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}

// DomainIncident bounds the interval during which a domain was not ok.
// At most one incident per domain has ClosedAt == nil.
type DomainIncident struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	AccountID    uuid.UUID  `json:"account_id" db:"account_id"`
	DomainID     uuid.UUID  `json:"domain_id" db:"domain_id"`
	StatusBefore Status     `json:"status_before" db:"status_before"`
	StatusAfter  Status     `json:"status_after" db:"status_after"`
	OpenedAt     time.Time  `json:"opened_at" db:"opened_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	Message      string     `json:"message" db:"message"`
}

func (i *DomainIncident) Open() bool { return i.ClosedAt == nil }

// StringSlice stores a []string as JSONB.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
	return json.Unmarshal(b, s)
}
