package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/pkg/response"

	"github.com/sirupsen/logrus"
)

type InvoiceHandler struct {
	service   InvoiceService
	validator *validator.Validate
	logger    logrus.FieldLogger
}

func NewInvoiceHandler(service InvoiceService, logger logrus.FieldLogger) *InvoiceHandler {
	return &InvoiceHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger,
	}
}

func (h *InvoiceHandler) Register(r *mux.Router) {
	r.HandleFunc("/invoices", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/invoices/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/invoices/{id}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/invoices/{id}/reminders", h.ReminderStatus).Methods(http.MethodGet)
	r.HandleFunc("/invoices/{id}/reminders/regenerate", h.Regenerate).Methods(http.MethodPost)
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req domain.CreateInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, h.logger, validationError(err))
		return
	}

	invoice, err := h.service.Create(r.Context(), accountID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, invoice)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, invoiceID, err := accountAndID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	invoice, err := h.service.Get(r.Context(), accountID, invoiceID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, invoice)
}

// Update handles PATCH /invoices/{id}. Only fields present in the body are applied.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, invoiceID, err := accountAndID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req domain.UpdateInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, h.logger, validationError(err))
		return
	}

	invoice, err := h.service.Update(r.Context(), accountID, invoiceID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, invoice)
}

func (h *InvoiceHandler) ReminderStatus(w http.ResponseWriter, r *http.Request) {
	accountID, invoiceID, err := accountAndID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status, err := h.service.ReminderStatus(r.Context(), accountID, invoiceID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, status)
}

func (h *InvoiceHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	accountID, invoiceID, err := accountAndID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.service.Regenerate(r.Context(), accountID, invoiceID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, result)
}
