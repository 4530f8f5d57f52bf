package core

import (
	"time"

	"github.com/google/uuid"
)

// CheckMode selects how an account's due domains are dispatched.
type CheckMode string

const (
	CheckModeLocal   CheckMode = "local"
	CheckModeOffload CheckMode = "offload"
)

type Account struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CheckMode CheckMode `json:"check_mode" db:"check_mode"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Plan is a catalog entry. Plans are never deleted, only deactivated.
type Plan struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	Slug                 string    `json:"slug" db:"slug"`
	Name                 string    `json:"name" db:"name"`
	MaxDomains           int       `json:"max_domains" db:"max_domains"`
	CheckIntervalMinutes int       `json:"check_interval_minutes" db:"check_interval_minutes"`
	PriceCents           int       `json:"price_cents" db:"price_cents"`
	IsActive             bool      `json:"is_active" db:"is_active"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Subscription links an account to a plan. At most one active
// subscription exists per account.
type Subscription struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	AccountID uuid.UUID          `json:"account_id" db:"account_id"`
	PlanID    uuid.UUID          `json:"plan_id" db:"plan_id"`
	Status    SubscriptionStatus `json:"status" db:"status"`
	StartedAt time.Time          `json:"started_at" db:"started_at"`
	EndsAt    *time.Time         `json:"ends_at,omitempty" db:"ends_at"`
}
