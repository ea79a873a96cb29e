package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/internal/repository"
	customError "github.com/segyhp/invoice-followups/pkg/errors"

	"github.com/sirupsen/logrus"
)

type ScheduleService struct {
	scheduleRepo repository.ScheduleRepository
	templateRepo repository.TemplateRepository
	invoiceRepo  repository.InvoiceRepository
	generator    *FollowUpGenerator
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	templateRepo repository.TemplateRepository,
	invoiceRepo repository.InvoiceRepository,
	generator *FollowUpGenerator,
	logger logrus.FieldLogger,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		templateRepo: templateRepo,
		invoiceRepo:  invoiceRepo,
		generator:    generator,
		logger:       logger,
		now:          time.Now,
	}
}

// Create stores a schedule with its steps. The account's first schedule always becomes its default.
func (s *ScheduleService) Create(ctx context.Context, accountID uuid.UUID, req *domain.CreateScheduleRequest) (*domain.Schedule, error) {
	if err := s.checkTemplates(ctx, accountID, req.Steps); err != nil {
		return nil, err
	}

	existing, err := s.scheduleRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	schedule := &domain.Schedule{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      req.Name,
		IsActive:  req.IsActive == nil || *req.IsActive,
		IsDefault: req.IsDefault || len(existing) == 0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	schedule.Steps = buildSteps(schedule.ID, req.Steps)

	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"account_id":  accountID,
		"steps":       len(schedule.Steps),
		"default":     schedule.IsDefault,
	}).Info("schedule created")

	return schedule, nil
}

func (s *ScheduleService) Get(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, accountID, scheduleID)
	if err != nil {
		return nil, lookupError(err, func() *customError.BusinessError {
			return customError.WrapScheduleNotFound(scheduleID.String())
		})
	}
	return schedule, nil
}

func (s *ScheduleService) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Schedule, error) {
	schedules, err := s.scheduleRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return schedules, nil
}

// UpdateSteps replaces the step list and regenerates follow-ups of every invoice on the schedule
func (s *ScheduleService) UpdateSteps(ctx context.Context, accountID, scheduleID uuid.UUID, req *domain.UpdateScheduleStepsRequest) (*domain.ScheduleChangeResponse, error) {
	if _, err := s.Get(ctx, accountID, scheduleID); err != nil {
		return nil, err
	}

	if err := s.checkTemplates(ctx, accountID, req.Steps); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.ReplaceSteps(ctx, scheduleID, buildSteps(scheduleID, req.Steps)); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return s.afterChange(ctx, accountID, scheduleID)
}

// SetActive toggles the schedule; deactivating prunes pending follow-ups, reactivating recreates them
func (s *ScheduleService) SetActive(ctx context.Context, accountID, scheduleID uuid.UUID, active bool) (*domain.ScheduleChangeResponse, error) {
	if _, err := s.Get(ctx, accountID, scheduleID); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.SetActive(ctx, accountID, scheduleID, active); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return s.afterChange(ctx, accountID, scheduleID)
}

// SetDefault makes the schedule the account's only default
func (s *ScheduleService) SetDefault(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error) {
	if _, err := s.Get(ctx, accountID, scheduleID); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.SetDefault(ctx, accountID, scheduleID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.WithField("schedule_id", scheduleID).Info("default schedule changed")

	return s.Get(ctx, accountID, scheduleID)
}

// Delete removes a schedule that is neither the default nor referenced by any invoice
func (s *ScheduleService) Delete(ctx context.Context, accountID, scheduleID uuid.UUID) error {
	schedule, err := s.Get(ctx, accountID, scheduleID)
	if err != nil {
		return err
	}

	if schedule.IsDefault {
		return customError.WrapScheduleDefaultLocked(scheduleID.String())
	}

	count, err := s.invoiceRepo.CountBySchedule(ctx, accountID, scheduleID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if count > 0 {
		return customError.WrapScheduleInUse(scheduleID.String(), count)
	}

	if err := s.scheduleRepo.Delete(ctx, accountID, scheduleID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.logger.WithField("schedule_id", scheduleID).Info("schedule deleted")
	return nil
}

func (s *ScheduleService) afterChange(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.ScheduleChangeResponse, error) {
	regenerated, err := s.generator.RegenerateAllFollowUps(ctx, accountID, scheduleID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.Get(ctx, accountID, scheduleID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(regenerated))
	for i, id := range regenerated {
		ids[i] = id.String()
	}

	return &domain.ScheduleChangeResponse{
		Schedule:              schedule,
		RegeneratedInvoiceIDs: ids,
	}, nil
}

// checkTemplates fails on the first step whose template the account does not own
func (s *ScheduleService) checkTemplates(ctx context.Context, accountID uuid.UUID, steps []*domain.ScheduleStepRequest) error {
	ids := make([]uuid.UUID, 0, len(steps))
	for _, step := range steps {
		ids = append(ids, step.TemplateID)
	}

	templates, err := s.templateRepo.GetByIDs(ctx, accountID, ids)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	for _, id := range ids {
		if _, ok := templates[id]; !ok {
			return customError.WrapTemplateNotFound(id.String())
		}
	}

	return nil
}

func buildSteps(scheduleID uuid.UUID, requests []*domain.ScheduleStepRequest) []*domain.ScheduleStep {
	steps := make([]*domain.ScheduleStep, len(requests))
	for i, req := range requests {
		steps[i] = &domain.ScheduleStep{
			ID:         uuid.New(),
			ScheduleID: scheduleID,
			TemplateID: req.TemplateID,
			DayOffset:  req.DayOffset,
			Order:      req.Order,
		}
	}
	return steps
}
