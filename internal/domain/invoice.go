package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusPending   = "PENDING"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusOverdue   = "OVERDUE"
	InvoiceStatusCancelled = "CANCELLED"
)

// PausedReasonDateChangedNoRestart is recorded when a due date moves without restarting reminders
const PausedReasonDateChangedNoRestart = "user_updated_date_no_restart"

// Invoice represents a billable record tracked for follow-ups.
// RemindersCompleted and Status are independent: an invoice can be
// completed while still PENDING.
type Invoice struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AccountID     uuid.UUID       `json:"account_id" db:"account_id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	ClientName    string          `json:"client_name" db:"client_name"`
	ClientEmail   string          `json:"client_email" db:"client_email"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	Status        string          `json:"status" db:"status"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	ScheduleID    *uuid.UUID      `json:"schedule_id,omitempty" db:"schedule_id"`

	RemindersEnabled        bool       `json:"reminders_enabled" db:"reminders_enabled"`
	RemindersBaseDueDate    *time.Time `json:"reminders_base_due_date,omitempty" db:"reminders_base_due_date"`
	RemindersCompleted      bool       `json:"reminders_completed" db:"reminders_completed"`
	RemindersPausedReason   *string    `json:"reminders_paused_reason,omitempty" db:"reminders_paused_reason"`
	LastReminderSentAt      *time.Time `json:"last_reminder_sent_at,omitempty" db:"last_reminder_sent_at"`
	TotalScheduledReminders *int       `json:"total_scheduled_reminders,omitempty" db:"total_scheduled_reminders"`
	RemindersResetAt        *time.Time `json:"reminders_reset_at,omitempty" db:"reminders_reset_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateInvoiceRequest struct {
	InvoiceNumber string          `json:"invoice_number" validate:"required,max=64"`
	ClientName    string          `json:"client_name" validate:"required,max=255"`
	ClientEmail   string          `json:"client_email" validate:"required,email"`
	Amount        decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency      string          `json:"currency" validate:"required,len=3"`
	DueDate       time.Time       `json:"due_date" validate:"required"`
	Notes         *string         `json:"notes"`
	ScheduleID    *uuid.UUID      `json:"schedule_id"`
}

// UpdateInvoiceRequest is a partial update; nil fields are left untouched.
type UpdateInvoiceRequest struct {
	InvoiceNumber    *string          `json:"invoice_number" validate:"omitempty,max=64"`
	ClientName       *string          `json:"client_name" validate:"omitempty,max=255"`
	ClientEmail      *string          `json:"client_email" validate:"omitempty,email"`
	Amount           *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	Currency         *string          `json:"currency" validate:"omitempty,len=3"`
	DueDate          *time.Time       `json:"due_date"`
	Status           *string          `json:"status" validate:"omitempty,oneof=PENDING PAID OVERDUE CANCELLED"`
	Notes            *string          `json:"notes"`
	ScheduleID       *uuid.UUID       `json:"schedule_id"`
	RestartReminders *bool            `json:"restart_reminders"`
}

type InvoiceResponse struct {
	Invoice       *Invoice      `json:"invoice"`
	ReminderState ReminderState `json:"reminder_state"`
	FollowUps     []*FollowUp   `json:"follow_ups"`
}

type ReminderStatusResponse struct {
	InvoiceID  uuid.UUID     `json:"invoice_id"`
	State      ReminderState `json:"state"`
	SentCount  int           `json:"sent_count"`
	TotalCount int           `json:"total_count"`
	FollowUps  []*FollowUp   `json:"follow_ups"`
}
