package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"
)

// Lookups that find nothing return sql.ErrNoRows.

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// Create creates a new invoice
	Create(ctx context.Context, invoice *domain.Invoice) error

	// GetByID retrieves an invoice owned by the account
	GetByID(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.Invoice, error)

	// Update persists every mutable invoice column
	Update(ctx context.Context, invoice *domain.Invoice) error

	// Delete removes an invoice; follow-ups and logs cascade
	Delete(ctx context.Context, accountID, invoiceID uuid.UUID) error

	// ListRegenerableBySchedule lists PENDING invoices on the schedule whose reminders are neither paused nor completed
	ListRegenerableBySchedule(ctx context.Context, accountID, scheduleID uuid.UUID) ([]*domain.Invoice, error)

	// CountBySchedule counts invoices referencing the schedule
	CountBySchedule(ctx context.Context, accountID, scheduleID uuid.UUID) (int, error)

	// UpdateLastReminderSentAt stamps the last successful reminder time
	UpdateLastReminderSentAt(ctx context.Context, invoiceID uuid.UUID, sentAt time.Time) error

	// MarkRemindersCompleted sets reminders_completed and snapshots the total
	MarkRemindersCompleted(ctx context.Context, invoiceID uuid.UUID, total int) error
}

// ScheduleRepository defines the interface for schedule data operations
type ScheduleRepository interface {
	// Create stores the schedule with its steps; a default schedule clears other defaults in the same transaction
	Create(ctx context.Context, schedule *domain.Schedule) error

	// GetByID retrieves a schedule and its steps ordered by step order
	GetByID(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error)

	// GetDefault retrieves the account's default schedule
	GetDefault(ctx context.Context, accountID uuid.UUID) (*domain.Schedule, error)

	// ListByAccount lists the account's schedules with steps
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Schedule, error)

	// ReplaceSteps swaps the full step list atomically
	ReplaceSteps(ctx context.Context, scheduleID uuid.UUID, steps []*domain.ScheduleStep) error

	// SetActive toggles is_active
	SetActive(ctx context.Context, accountID, scheduleID uuid.UUID, active bool) error

	// SetDefault clears every other default of the account and sets this one, in one transaction
	SetDefault(ctx context.Context, accountID, scheduleID uuid.UUID) error

	// Delete removes a schedule and its steps
	Delete(ctx context.Context, accountID, scheduleID uuid.UUID) error
}

// TemplateRepository defines the interface for template lookups
type TemplateRepository interface {
	// Create creates a new template
	Create(ctx context.Context, template *domain.Template) error

	// GetByIDs loads the account's templates keyed by id; missing ids are absent from the map
	GetByIDs(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Template, error)
}

// FollowUpRepository defines the interface for follow-up data operations
type FollowUpRepository interface {
	// CreateBatch inserts all follow-ups or none
	CreateBatch(ctx context.Context, followUps []*domain.FollowUp) error

	// ReplacePending deletes the invoice's PENDING follow-ups and inserts the given ones in one transaction.
	// SENT, SKIPPED and FAILED rows are never touched.
	ReplacePending(ctx context.Context, invoiceID uuid.UUID, followUps []*domain.FollowUp) (int, error)

	// ListByInvoice lists an invoice's follow-ups by scheduled date
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*domain.FollowUp, error)

	// CountSent counts the invoice's SENT follow-ups
	CountSent(ctx context.Context, invoiceID uuid.UUID) (int, error)

	// ListDueCandidates selects entitled PENDING follow-ups scheduled in [from, to), oldest first, capped at limit
	ListDueCandidates(ctx context.Context, from, to time.Time, limit int) ([]*domain.SweepCandidate, error)

	// CountUnentitledDue counts follow-ups that match the selection except for account entitlement
	CountUnentitledDue(ctx context.Context, from, to time.Time) (int, error)

	// CountsByInvoices returns total and sent counts per invoice in one query
	CountsByInvoices(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]*domain.FollowUpCounts, error)

	// MarkSent, MarkSkipped and MarkFailed transition a PENDING follow-up.
	// They report false when the row is no longer PENDING (or gone).
	MarkSent(ctx context.Context, followUpID uuid.UUID, sentAt time.Time) (bool, error)
	MarkSkipped(ctx context.Context, followUpID uuid.UUID, reason string) (bool, error)
	MarkFailed(ctx context.Context, followUpID uuid.UUID, reason string) (bool, error)
}

// EmailLogRepository defines the interface for the delivery audit trail
type EmailLogRepository interface {
	// Create appends a log row
	Create(ctx context.Context, log *domain.EmailLog) error

	// ExistsForFollowUp reports whether any attempt was logged for the follow-up in [from, to)
	ExistsForFollowUp(ctx context.Context, followUpID uuid.UUID, from, to time.Time) (bool, error)

	// CountSuccessfulByInvoices counts successful sends per invoice in [from, to)
	CountSuccessfulByInvoices(ctx context.Context, invoiceIDs []uuid.UUID, from, to time.Time) (map[uuid.UUID]int, error)
}
