package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"

	"github.com/jmoiron/sqlx"
)

type emailLogRepository struct {
	db *sqlx.DB
}

func NewEmailLogRepository(db *sqlx.DB) EmailLogRepository {
	return &emailLogRepository{db: db}
}

func (r *emailLogRepository) Create(ctx context.Context, log *domain.EmailLog) error {
	query := `
		INSERT INTO email_logs (id, follow_up_id, invoice_id, recipient, subject, success, sent_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.FollowUpID,
		log.InvoiceID,
		log.Recipient,
		log.Subject,
		log.Success,
		log.SentAt,
		log.ErrorMessage,
	)

	return err
}

func (r *emailLogRepository) ExistsForFollowUp(ctx context.Context, followUpID uuid.UUID, from, to time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM email_logs
			WHERE follow_up_id = $1 AND sent_at >= $2 AND sent_at < $3
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followUpID, from, to)
	return exists, err
}

func (r *emailLogRepository) CountSuccessfulByInvoices(ctx context.Context, invoiceIDs []uuid.UUID, from, to time.Time) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT invoice_id, COUNT(*) AS sent
		FROM email_logs
		WHERE invoice_id = ANY($1::uuid[]) AND success AND sent_at >= $2 AND sent_at < $3
		GROUP BY invoice_id
	`

	var rows []struct {
		InvoiceID uuid.UUID `db:"invoice_id"`
		Sent      int       `db:"sent"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, uuidArray(invoiceIDs), from, to); err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.InvoiceID] = row.Sent
	}

	return counts, nil
}
