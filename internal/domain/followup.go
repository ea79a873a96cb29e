package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	FollowUpStatusPending = "PENDING"
	FollowUpStatusSent    = "SENT"
	FollowUpStatusSkipped = "SKIPPED"
	FollowUpStatusFailed  = "FAILED"
)

// FollowUp is one dated reminder instance for one invoice. It leaves PENDING
// exactly once and never returns to it.
type FollowUp struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	InvoiceID      uuid.UUID  `json:"invoice_id" db:"invoice_id"`
	ScheduleStepID *uuid.UUID `json:"schedule_step_id,omitempty" db:"schedule_step_id"`
	ScheduledDate  time.Time  `json:"scheduled_date" db:"scheduled_date"`
	Status         string     `json:"status" db:"status"`
	Subject        string     `json:"subject" db:"subject"`
	Body           string     `json:"body" db:"body"`
	SentAt         *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	ErrorMessage   *string    `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// EmailLog is the immutable audit record of one delivery attempt
type EmailLog struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FollowUpID   uuid.UUID `json:"follow_up_id" db:"follow_up_id"`
	InvoiceID    uuid.UUID `json:"invoice_id" db:"invoice_id"`
	Recipient    string    `json:"recipient" db:"recipient"`
	Subject      string    `json:"subject" db:"subject"`
	Success      bool      `json:"success" db:"success"`
	SentAt       time.Time `json:"sent_at" db:"sent_at"`
	ErrorMessage *string   `json:"error_message,omitempty" db:"error_message"`
}

// SweepCandidate is a due PENDING follow-up joined with what the sweep needs from its invoice
type SweepCandidate struct {
	FollowUpID    uuid.UUID       `db:"follow_up_id"`
	InvoiceID     uuid.UUID       `db:"invoice_id"`
	AccountID     uuid.UUID       `db:"account_id"`
	ScheduledDate time.Time       `db:"scheduled_date"`
	Subject       string          `db:"subject"`
	Body          string          `db:"body"`
	ClientName    string          `db:"client_name"`
	ClientEmail   string          `db:"client_email"`
	InvoiceNumber string          `db:"invoice_number"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
}

// FollowUpCounts summarises an invoice's follow-ups for completion detection
type FollowUpCounts struct {
	InvoiceID uuid.UUID `db:"invoice_id"`
	Total     int       `db:"total"`
	Sent      int       `db:"sent"`
}

// SweepResult is the aggregate report of one sweep run.
// Sent + Skipped + Failed never exceeds Eligible.
type SweepResult struct {
	RunID              string    `json:"run_id"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	TotalCandidates    int       `json:"total_candidates"`
	Eligible           int       `json:"eligible"`
	ExcludedUnentitled int       `json:"excluded_unentitled"`
	Sent               int       `json:"sent"`
	Skipped            int       `json:"skipped"`
	RateLimited        int       `json:"rate_limited"`
	AlreadyProcessed   int       `json:"already_processed"`
	Failed             int       `json:"failed"`
}

// RegenerateResult reports what one invoice regeneration replaced
type RegenerateResult struct {
	InvoiceID uuid.UUID   `json:"invoice_id"`
	Deleted   int         `json:"deleted"`
	Created   int         `json:"created"`
	FollowUps []*FollowUp `json:"follow_ups"`
}
