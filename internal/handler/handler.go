package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segyhp/invoice-followups/internal/domain"
	customError "github.com/segyhp/invoice-followups/pkg/errors"
	"github.com/segyhp/invoice-followups/pkg/response"

	"github.com/sirupsen/logrus"
)

type InvoiceService interface {
	Create(ctx context.Context, accountID uuid.UUID, req *domain.CreateInvoiceRequest) (*domain.InvoiceResponse, error)
	Get(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.InvoiceResponse, error)
	Update(ctx context.Context, accountID, invoiceID uuid.UUID, req *domain.UpdateInvoiceRequest) (*domain.InvoiceResponse, error)
	ReminderStatus(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.ReminderStatusResponse, error)
	Regenerate(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.RegenerateResult, error)
}

type ScheduleService interface {
	Create(ctx context.Context, accountID uuid.UUID, req *domain.CreateScheduleRequest) (*domain.Schedule, error)
	Get(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error)
	List(ctx context.Context, accountID uuid.UUID) ([]*domain.Schedule, error)
	UpdateSteps(ctx context.Context, accountID, scheduleID uuid.UUID, req *domain.UpdateScheduleStepsRequest) (*domain.ScheduleChangeResponse, error)
	SetActive(ctx context.Context, accountID, scheduleID uuid.UUID, active bool) (*domain.ScheduleChangeResponse, error)
	SetDefault(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error)
	Delete(ctx context.Context, accountID, scheduleID uuid.UUID) error
}

type TemplateService interface {
	Create(ctx context.Context, accountID uuid.UUID, req *domain.CreateTemplateRequest) (*domain.TemplateResponse, error)
}

// Sweeper runs one delivery sweep
type Sweeper interface {
	Run(ctx context.Context) (*domain.SweepResult, error)
}

var statusByCode = map[string]int{
	customError.ErrCodeUnauthorized:            http.StatusUnauthorized,
	customError.ErrCodeForbidden:               http.StatusForbidden,
	customError.ErrCodeValidation:              http.StatusBadRequest,
	customError.ErrCodeInvoiceNotFound:         http.StatusNotFound,
	customError.ErrCodeScheduleNotFound:        http.StatusNotFound,
	customError.ErrCodeTemplateNotFound:        http.StatusNotFound,
	customError.ErrCodeInvoicePaidLocked:       http.StatusConflict,
	customError.ErrCodeRestrictedFields:        http.StatusConflict,
	customError.ErrCodeScheduleLocked:          http.StatusConflict,
	customError.ErrCodeScheduleInUse:           http.StatusConflict,
	customError.ErrCodeScheduleDefaultLocked:   http.StatusConflict,
	customError.ErrCodeSweepInProgress:         http.StatusConflict,
	customError.ErrCodeRestartDecisionRequired: http.StatusUnprocessableEntity,
}

// writeError maps business errors to their HTTP status. Anything else is a 500 with no internals exposed.
func writeError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		logger.WithError(err).Error("unhandled error")
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	status, ok := statusByCode[be.Code]
	if !ok {
		logger.WithError(err).Error("request failed")
		response.Error(w, http.StatusInternalServerError, be.Code, be.Message, nil)
		return
	}

	response.Error(w, status, be.Code, be.Message, be.Details)
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, customError.WrapValidation("invalid " + name)
	}
	return id, nil
}

func accountAndID(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	accountID, err := accountFrom(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := pathID(r, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return accountID, id, nil
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return customError.WrapValidation("invalid request body: " + err.Error())
	}
	return nil
}
