package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/internal/repository"
	customError "github.com/segyhp/invoice-followups/pkg/errors"
	"github.com/segyhp/invoice-followups/pkg/utils"

	"github.com/sirupsen/logrus"
)

type InvoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	scheduleRepo repository.ScheduleRepository
	followUpRepo repository.FollowUpRepository
	generator    *FollowUpGenerator
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	scheduleRepo repository.ScheduleRepository,
	followUpRepo repository.FollowUpRepository,
	generator *FollowUpGenerator,
	logger logrus.FieldLogger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		scheduleRepo: scheduleRepo,
		followUpRepo: followUpRepo,
		generator:    generator,
		logger:       logger,
		now:          time.Now,
	}
}

// Create stores a PENDING invoice and generates its follow-ups from the requested
// schedule, or the account default when none is given
func (s *InvoiceService) Create(ctx context.Context, accountID uuid.UUID, req *domain.CreateInvoiceRequest) (*domain.InvoiceResponse, error) {
	schedule, err := s.resolveSchedule(ctx, accountID, req.ScheduleID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dueDate := utils.CalendarDate(req.DueDate)
	invoice := &domain.Invoice{
		ID:                   uuid.New(),
		AccountID:            accountID,
		InvoiceNumber:        req.InvoiceNumber,
		ClientName:           req.ClientName,
		ClientEmail:          req.ClientEmail,
		Amount:               req.Amount,
		Currency:             req.Currency,
		DueDate:              dueDate,
		Status:               domain.InvoiceStatusPending,
		Notes:                req.Notes,
		RemindersEnabled:     true,
		RemindersBaseDueDate: &dueDate,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if schedule != nil {
		scheduleID := schedule.ID
		invoice.ScheduleID = &scheduleID
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	followUps := []*domain.FollowUp{}
	if schedule != nil {
		followUps, err = s.generator.Generate(ctx, accountID, invoice.ID, schedule.ID)
		if err != nil {
			// Remove the invoice so a failed generation leaves nothing behind
			if delErr := s.invoiceRepo.Delete(ctx, accountID, invoice.ID); delErr != nil {
				s.logger.WithError(delErr).WithField("invoice_id", invoice.ID).Error("failed to remove invoice after generation error")
			}
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": invoice.ID,
		"account_id": accountID,
		"follow_ups": len(followUps),
	}).Info("invoice created")

	return &domain.InvoiceResponse{
		Invoice:       invoice,
		ReminderState: domain.ClassifyReminderState(invoice, followUps),
		FollowUps:     followUps,
	}, nil
}

// Get returns the invoice with its follow-ups and reminder state
func (s *InvoiceService) Get(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.InvoiceResponse, error) {
	invoice, followUps, err := s.load(ctx, accountID, invoiceID)
	if err != nil {
		return nil, err
	}

	return &domain.InvoiceResponse{
		Invoice:       invoice,
		ReminderState: domain.ClassifyReminderState(invoice, followUps),
		FollowUps:     followUps,
	}, nil
}

// Update applies a partial update through the edit policy and regenerates follow-ups when it asks for it
func (s *InvoiceService) Update(ctx context.Context, accountID, invoiceID uuid.UUID, req *domain.UpdateInvoiceRequest) (*domain.InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, accountID, invoiceID)
	if err != nil {
		return nil, lookupError(err, func() *customError.BusinessError {
			return customError.WrapInvoiceNotFound(invoiceID.String())
		})
	}

	sentCount := 0
	if invoice.Status != domain.InvoiceStatusPaid {
		sentCount, err = s.followUpRepo.CountSent(ctx, invoice.ID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
	}

	now := s.now()
	decision, err := EvaluateEdit(invoice, req, sentCount, now)
	if err != nil {
		return nil, err
	}

	if decision.Changed(fieldScheduleID) {
		if _, err := s.scheduleRepo.GetByID(ctx, accountID, *req.ScheduleID); err != nil {
			return nil, lookupError(err, func() *customError.BusinessError {
				return customError.WrapScheduleNotFound(req.ScheduleID.String())
			})
		}
	}

	previous := *invoice
	decision.Apply(invoice, req, now)

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if decision.Regenerate {
		if _, err := s.generator.Regenerate(ctx, accountID, invoice.ID); err != nil {
			// Put the old row back so the same request can be retried
			if restoreErr := s.invoiceRepo.Update(ctx, &previous); restoreErr != nil {
				s.logger.WithError(restoreErr).WithField("invoice_id", invoice.ID).Error("failed to restore invoice after regeneration error")
			}
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": invoice.ID,
		"mode":       decision.Mode,
		"changed":    decision.ChangedFields,
		"restart":    decision.Restart,
		"paused":     decision.Pause,
	}).Info("invoice updated")

	return s.Get(ctx, accountID, invoiceID)
}

// ReminderStatus summarises the invoice's reminder lifecycle
func (s *InvoiceService) ReminderStatus(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.ReminderStatusResponse, error) {
	invoice, followUps, err := s.load(ctx, accountID, invoiceID)
	if err != nil {
		return nil, err
	}

	return &domain.ReminderStatusResponse{
		InvoiceID:  invoice.ID,
		State:      domain.ClassifyReminderState(invoice, followUps),
		SentCount:  domain.CountFollowUps(followUps, domain.FollowUpStatusSent),
		TotalCount: len(followUps),
		FollowUps:  followUps,
	}, nil
}

// Regenerate rebuilds the invoice's pending follow-ups on demand
func (s *InvoiceService) Regenerate(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.RegenerateResult, error) {
	return s.generator.Regenerate(ctx, accountID, invoiceID)
}

func (s *InvoiceService) load(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.Invoice, []*domain.FollowUp, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, accountID, invoiceID)
	if err != nil {
		return nil, nil, lookupError(err, func() *customError.BusinessError {
			return customError.WrapInvoiceNotFound(invoiceID.String())
		})
	}

	followUps, err := s.followUpRepo.ListByInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	return invoice, followUps, nil
}

// resolveSchedule returns nil when the account has no schedule to fall back on
func (s *InvoiceService) resolveSchedule(ctx context.Context, accountID uuid.UUID, scheduleID *uuid.UUID) (*domain.Schedule, error) {
	if scheduleID != nil {
		schedule, err := s.scheduleRepo.GetByID(ctx, accountID, *scheduleID)
		if err != nil {
			return nil, lookupError(err, func() *customError.BusinessError {
				return customError.WrapScheduleNotFound(scheduleID.String())
			})
		}
		return schedule, nil
	}

	schedule, err := s.scheduleRepo.GetDefault(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return schedule, nil
}
