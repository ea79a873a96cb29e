package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/pkg/response"

	"github.com/sirupsen/logrus"
)

type ScheduleHandler struct {
	service   ScheduleService
	validator *validator.Validate
	logger    logrus.FieldLogger
}

func NewScheduleHandler(service ScheduleService, logger logrus.FieldLogger) *ScheduleHandler {
	return &ScheduleHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger,
	}
}

func (h *ScheduleHandler) Register(r *mux.Router) {
	r.HandleFunc("/schedules", h.List).Methods(http.MethodGet)
	r.HandleFunc("/schedules", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/schedules/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/schedules/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/schedules/{id}/steps", h.UpdateSteps).Methods(http.MethodPut)
	r.HandleFunc("/schedules/{id}/active", h.SetActive).Methods(http.MethodPut)
	r.HandleFunc("/schedules/{id}/default", h.SetDefault).Methods(http.MethodPost)
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req domain.CreateScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, h.logger, validationError(err))
		return
	}

	schedule, err := h.service.Create(r.Context(), accountID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, schedule)
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	schedules, err := h.service.List(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, schedules)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, scheduleID, err := accountAndID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	schedule, err := h.service.Get(r.Context(), accountID, scheduleID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, schedule)
}

// UpdateSteps replaces the step list and regenerates follow-ups of invoices still in their first cycle
func (h *ScheduleHandler) UpdateSteps(w http.ResponseWriter, r *http.Request) {
	accountID, scheduleID, err := accountAndID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req domain.UpdateScheduleStepsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, h.logger, validationError(err))
		return
	}

	result, err := h.service.UpdateSteps(r.Context(), accountID, scheduleID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, result)
}

func (h *ScheduleHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	accountID, scheduleID, err := accountAndID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req domain.SetScheduleActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, h.logger, validationError(err))
		return
	}

	result, err := h.service.SetActive(r.Context(), accountID, scheduleID, *req.IsActive)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, result)
}

func (h *ScheduleHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	accountID, scheduleID, err := accountAndID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	schedule, err := h.service.SetDefault(r.Context(), accountID, scheduleID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, schedule)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, scheduleID, err := accountAndID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), accountID, scheduleID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}
