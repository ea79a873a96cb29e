package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"

	"github.com/jmoiron/sqlx"
)

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, template *domain.Template) error {
	query := `
		INSERT INTO templates (id, account_id, name, subject, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		template.ID,
		template.AccountID,
		template.Name,
		template.Subject,
		template.Body,
		template.CreatedAt,
		template.UpdatedAt,
	)

	return err
}

func (r *templateRepository) GetByIDs(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Template, error) {
	templates := make(map[uuid.UUID]*domain.Template, len(ids))
	if len(ids) == 0 {
		return templates, nil
	}

	query := `
		SELECT id, account_id, name, subject, body, created_at, updated_at
		FROM templates
		WHERE account_id = $1 AND id = ANY($2::uuid[])
	`

	var rows []*domain.Template
	if err := r.db.SelectContext(ctx, &rows, query, accountID, uuidArray(ids)); err != nil {
		return nil, err
	}

	for _, t := range rows {
		templates[t.ID] = t
	}

	return templates, nil
}
