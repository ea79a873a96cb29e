package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"

	"github.com/jmoiron/sqlx"
)

const invoiceColumns = `id, account_id, invoice_number, client_name, client_email, amount, currency, due_date, status, notes,
	schedule_id, reminders_enabled, reminders_base_due_date, reminders_completed, reminders_paused_reason,
	last_reminder_sent_at, total_scheduled_reminders, reminders_reset_at, created_at, updated_at`

type invoiceRepository struct {
	db *sqlx.DB
}

func NewInvoiceRepository(db *sqlx.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.ExecContext(ctx, query,
		invoice.ID,
		invoice.AccountID,
		invoice.InvoiceNumber,
		invoice.ClientName,
		invoice.ClientEmail,
		invoice.Amount,
		invoice.Currency,
		invoice.DueDate,
		invoice.Status,
		invoice.Notes,
		invoice.ScheduleID,
		invoice.RemindersEnabled,
		invoice.RemindersBaseDueDate,
		invoice.RemindersCompleted,
		invoice.RemindersPausedReason,
		invoice.LastReminderSentAt,
		invoice.TotalScheduledReminders,
		invoice.RemindersResetAt,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)

	return err
}

func (r *invoiceRepository) GetByID(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND account_id = $2
	`

	var invoice domain.Invoice
	err := r.db.GetContext(ctx, &invoice, query, invoiceID, accountID)
	if err != nil {
		return nil, err
	}

	return &invoice, nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		UPDATE invoices
		SET invoice_number = $3, client_name = $4, client_email = $5, amount = $6, currency = $7,
			due_date = $8, status = $9, notes = $10, schedule_id = $11, reminders_enabled = $12,
			reminders_base_due_date = $13, reminders_completed = $14, reminders_paused_reason = $15,
			last_reminder_sent_at = $16, total_scheduled_reminders = $17, reminders_reset_at = $18, updated_at = $19
		WHERE id = $1 AND account_id = $2
	`

	_, err := r.db.ExecContext(ctx, query,
		invoice.ID,
		invoice.AccountID,
		invoice.InvoiceNumber,
		invoice.ClientName,
		invoice.ClientEmail,
		invoice.Amount,
		invoice.Currency,
		invoice.DueDate,
		invoice.Status,
		invoice.Notes,
		invoice.ScheduleID,
		invoice.RemindersEnabled,
		invoice.RemindersBaseDueDate,
		invoice.RemindersCompleted,
		invoice.RemindersPausedReason,
		invoice.LastReminderSentAt,
		invoice.TotalScheduledReminders,
		invoice.RemindersResetAt,
		time.Now(),
	)

	return err
}

func (r *invoiceRepository) Delete(ctx context.Context, accountID, invoiceID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1 AND account_id = $2`, invoiceID, accountID)
	return err
}

func (r *invoiceRepository) ListRegenerableBySchedule(ctx context.Context, accountID, scheduleID uuid.UUID) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE account_id = $1 AND schedule_id = $2
			AND status = 'PENDING'
			AND reminders_enabled
			AND NOT reminders_completed
			AND reminders_paused_reason IS NULL
		ORDER BY due_date, id
	`

	var invoices []*domain.Invoice
	err := r.db.SelectContext(ctx, &invoices, query, accountID, scheduleID)
	if err != nil {
		return nil, err
	}

	return invoices, nil
}

func (r *invoiceRepository) CountBySchedule(ctx context.Context, accountID, scheduleID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM invoices WHERE account_id = $1 AND schedule_id = $2`, accountID, scheduleID)
	return count, err
}

func (r *invoiceRepository) UpdateLastReminderSentAt(ctx context.Context, invoiceID uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE invoices
		SET last_reminder_sent_at = $2, updated_at = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, invoiceID, sentAt)
	return err
}

func (r *invoiceRepository) MarkRemindersCompleted(ctx context.Context, invoiceID uuid.UUID, total int) error {
	query := `
		UPDATE invoices
		SET reminders_completed = TRUE, total_scheduled_reminders = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, invoiceID, total, time.Now())
	return err
}
