package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/pkg/response"

	"github.com/sirupsen/logrus"
)

type TemplateHandler struct {
	service   TemplateService
	validator *validator.Validate
	logger    logrus.FieldLogger
}

func NewTemplateHandler(service TemplateService, logger logrus.FieldLogger) *TemplateHandler {
	return &TemplateHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger,
	}
}

func (h *TemplateHandler) Register(r *mux.Router) {
	r.HandleFunc("/templates", h.Create).Methods(http.MethodPost)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req domain.CreateTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, h.logger, validationError(err))
		return
	}

	template, err := h.service.Create(r.Context(), accountID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, template)
}
