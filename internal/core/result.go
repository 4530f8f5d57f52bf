package core

import (
	"time"

	"github.com/google/uuid"
)

// CheckResult is the outcome of a single probe. The same shape is
// produced by the local executor and by the offload worker fleet, and
// both feed the result applier.
type CheckResult struct {
	DomainID       uuid.UUID `json:"id"`
	Status         Status    `json:"status"`
	SSLValid       *bool     `json:"ssl_valid,omitempty"`
	Error          *string   `json:"error,omitempty"`
	ResponseTimeMs *int64    `json:"response_time_ms,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

// DueDomain is the read-only projection handed to the worker fleet.
type DueDomain struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"domain" db:"name"`
	Campaign  *string   `json:"campaign,omitempty" db:"campaign"`
	AccountID uuid.UUID `json:"account_id" db:"account_id"`
}
