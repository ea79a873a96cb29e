package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"

	"github.com/jmoiron/sqlx"
)

type scheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

const insertStepQuery = `
	INSERT INTO schedule_steps (id, schedule_id, template_id, day_offset, step_order)
	VALUES ($1, $2, $3, $4, $5)
`

func (r *scheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if schedule.IsDefault {
		if err := clearDefaults(ctx, tx, schedule.AccountID); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO schedules (id, account_id, name, is_active, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, query,
		schedule.ID,
		schedule.AccountID,
		schedule.Name,
		schedule.IsActive,
		schedule.IsDefault,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertSteps(ctx, tx, schedule.Steps); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *scheduleRepository) GetByID(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error) {
	query := `
		SELECT id, account_id, name, is_active, is_default, created_at, updated_at
		FROM schedules
		WHERE id = $1 AND account_id = $2
	`

	var schedule domain.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, scheduleID, accountID); err != nil {
		return nil, err
	}

	steps, err := r.stepsFor(ctx, []uuid.UUID{schedule.ID})
	if err != nil {
		return nil, err
	}
	schedule.Steps = steps[schedule.ID]

	return &schedule, nil
}

func (r *scheduleRepository) GetDefault(ctx context.Context, accountID uuid.UUID) (*domain.Schedule, error) {
	var scheduleID uuid.UUID
	err := r.db.GetContext(ctx, &scheduleID,
		`SELECT id FROM schedules WHERE account_id = $1 AND is_default LIMIT 1`, accountID)
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, accountID, scheduleID)
}

func (r *scheduleRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Schedule, error) {
	query := `
		SELECT id, account_id, name, is_active, is_default, created_at, updated_at
		FROM schedules
		WHERE account_id = $1
		ORDER BY is_default DESC, name
	`

	var schedules []*domain.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, accountID); err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return schedules, nil
	}

	ids := make([]uuid.UUID, len(schedules))
	for i, s := range schedules {
		ids[i] = s.ID
	}

	steps, err := r.stepsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range schedules {
		s.Steps = steps[s.ID]
	}

	return schedules, nil
}

func (r *scheduleRepository) ReplaceSteps(ctx context.Context, scheduleID uuid.UUID, steps []*domain.ScheduleStep) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_steps WHERE schedule_id = $1`, scheduleID); err != nil {
		return err
	}

	if err := insertSteps(ctx, tx, steps); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE schedules SET updated_at = $2 WHERE id = $1`, scheduleID, time.Now()); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *scheduleRepository) SetActive(ctx context.Context, accountID, scheduleID uuid.UUID, active bool) error {
	query := `
		UPDATE schedules
		SET is_active = $3, updated_at = $4
		WHERE id = $1 AND account_id = $2
	`

	_, err := r.db.ExecContext(ctx, query, scheduleID, accountID, active, time.Now())
	return err
}

func (r *scheduleRepository) SetDefault(ctx context.Context, accountID, scheduleID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearDefaults(ctx, tx, accountID); err != nil {
		return err
	}

	query := `
		UPDATE schedules
		SET is_default = TRUE, updated_at = $3
		WHERE id = $1 AND account_id = $2
	`
	if _, err := tx.ExecContext(ctx, query, scheduleID, accountID, time.Now()); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *scheduleRepository) Delete(ctx context.Context, accountID, scheduleID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1 AND account_id = $2`, scheduleID, accountID)
	return err
}

func (r *scheduleRepository) stepsFor(ctx context.Context, scheduleIDs []uuid.UUID) (map[uuid.UUID][]*domain.ScheduleStep, error) {
	query := `
		SELECT id, schedule_id, template_id, day_offset, step_order
		FROM schedule_steps
		WHERE schedule_id = ANY($1::uuid[])
		ORDER BY schedule_id, step_order, day_offset
	`

	var steps []*domain.ScheduleStep
	if err := r.db.SelectContext(ctx, &steps, query, uuidArray(scheduleIDs)); err != nil {
		return nil, err
	}

	bySchedule := make(map[uuid.UUID][]*domain.ScheduleStep, len(scheduleIDs))
	for _, step := range steps {
		bySchedule[step.ScheduleID] = append(bySchedule[step.ScheduleID], step)
	}

	return bySchedule, nil
}

func clearDefaults(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE schedules SET is_default = FALSE WHERE account_id = $1 AND is_default`, accountID)
	return err
}

func insertSteps(ctx context.Context, tx *sqlx.Tx, steps []*domain.ScheduleStep) error {
	for _, step := range steps {
		_, err := tx.ExecContext(ctx, insertStepQuery,
			step.ID,
			step.ScheduleID,
			step.TemplateID,
			step.DayOffset,
			step.Order,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
