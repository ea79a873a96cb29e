package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"

	"github.com/jmoiron/sqlx"
)

// entitledAccountPredicate decides whether account "a" may receive automated reminders.
// It is part of the selection query so unentitled rows never reach the batch.
const entitledAccountPredicate = `(COALESCE(a.subscription_status, '') IN ('active', 'trialing') OR a.plan = 'lifetime')`

const dueFollowUpsFrom = `
	FROM follow_ups f
	JOIN invoices i ON i.id = f.invoice_id
	JOIN accounts a ON a.id = i.account_id
	WHERE f.status = 'PENDING'
		AND f.scheduled_date >= $1 AND f.scheduled_date < $2
		AND i.status = 'PENDING'
		AND i.reminders_enabled
`

const insertFollowUpQuery = `
	INSERT INTO follow_ups (id, invoice_id, schedule_step_id, scheduled_date, status, subject, body, sent_at, error_message, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type followUpRepository struct {
	db *sqlx.DB
}

func NewFollowUpRepository(db *sqlx.DB) FollowUpRepository {
	return &followUpRepository{db: db}
}

func (r *followUpRepository) CreateBatch(ctx context.Context, followUps []*domain.FollowUp) error {
	if len(followUps) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertFollowUps(ctx, tx, followUps); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *followUpRepository) ReplacePending(ctx context.Context, invoiceID uuid.UUID, followUps []*domain.FollowUp) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM follow_ups WHERE invoice_id = $1 AND status = 'PENDING'`, invoiceID)
	if err != nil {
		return 0, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := insertFollowUps(ctx, tx, followUps); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return int(deleted), nil
}

func (r *followUpRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*domain.FollowUp, error) {
	query := `
		SELECT id, invoice_id, schedule_step_id, scheduled_date, status, subject, body, sent_at, error_message, created_at
		FROM follow_ups
		WHERE invoice_id = $1
		ORDER BY scheduled_date, created_at
	`

	var followUps []*domain.FollowUp
	if err := r.db.SelectContext(ctx, &followUps, query, invoiceID); err != nil {
		return nil, err
	}

	return followUps, nil
}

func (r *followUpRepository) CountSent(ctx context.Context, invoiceID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM follow_ups WHERE invoice_id = $1 AND status = 'SENT'`, invoiceID)
	return count, err
}

func (r *followUpRepository) ListDueCandidates(ctx context.Context, from, to time.Time, limit int) ([]*domain.SweepCandidate, error) {
	query := `
		SELECT f.id AS follow_up_id, f.invoice_id, i.account_id, f.scheduled_date, f.subject, f.body,
			i.client_name, i.client_email, i.invoice_number, i.amount, i.currency
	` + dueFollowUpsFrom + `
		AND ` + entitledAccountPredicate + `
		ORDER BY f.scheduled_date ASC, f.created_at ASC
		LIMIT $3
	`

	var candidates []*domain.SweepCandidate
	if err := r.db.SelectContext(ctx, &candidates, query, from, to, limit); err != nil {
		return nil, err
	}

	return candidates, nil
}

func (r *followUpRepository) CountUnentitledDue(ctx context.Context, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*)` + dueFollowUpsFrom + `AND NOT ` + entitledAccountPredicate

	var count int
	err := r.db.GetContext(ctx, &count, query, from, to)
	return count, err
}

func (r *followUpRepository) CountsByInvoices(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]*domain.FollowUpCounts, error) {
	counts := make(map[uuid.UUID]*domain.FollowUpCounts, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT invoice_id, COUNT(*) AS total, COUNT(*) FILTER (WHERE status = 'SENT') AS sent
		FROM follow_ups
		WHERE invoice_id = ANY($1::uuid[])
		GROUP BY invoice_id
	`

	var rows []*domain.FollowUpCounts
	if err := r.db.SelectContext(ctx, &rows, query, uuidArray(invoiceIDs)); err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.InvoiceID] = row
	}

	return counts, nil
}

func (r *followUpRepository) MarkSent(ctx context.Context, followUpID uuid.UUID, sentAt time.Time) (bool, error) {
	query := `
		UPDATE follow_ups
		SET status = 'SENT', sent_at = $2, error_message = NULL
		WHERE id = $1 AND status = 'PENDING'
	`

	return r.transition(ctx, query, followUpID, sentAt)
}

func (r *followUpRepository) MarkSkipped(ctx context.Context, followUpID uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE follow_ups
		SET status = 'SKIPPED', error_message = $2
		WHERE id = $1 AND status = 'PENDING'
	`

	return r.transition(ctx, query, followUpID, reason)
}

func (r *followUpRepository) MarkFailed(ctx context.Context, followUpID uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE follow_ups
		SET status = 'FAILED', error_message = $2
		WHERE id = $1 AND status = 'PENDING'
	`

	return r.transition(ctx, query, followUpID, reason)
}

func (r *followUpRepository) transition(ctx context.Context, query string, followUpID uuid.UUID, arg interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, followUpID, arg)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func insertFollowUps(ctx context.Context, tx *sqlx.Tx, followUps []*domain.FollowUp) error {
	for _, f := range followUps {
		_, err := tx.ExecContext(ctx, insertFollowUpQuery,
			f.ID,
			f.InvoiceID,
			f.ScheduleStepID,
			f.ScheduledDate,
			f.Status,
			f.Subject,
			f.Body,
			f.SentAt,
			f.ErrorMessage,
			f.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
