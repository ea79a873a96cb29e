package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	customError "github.com/segyhp/invoice-followups/pkg/errors"
	"github.com/segyhp/invoice-followups/pkg/response"

	"github.com/sirupsen/logrus"
)

// CronHandler lets an external scheduler trigger the delivery sweep
type CronHandler struct {
	sweep  Sweeper
	secret string
	logger logrus.FieldLogger
}

func NewCronHandler(sweep Sweeper, secret string, logger logrus.FieldLogger) *CronHandler {
	return &CronHandler{
		sweep:  sweep,
		secret: secret,
		logger: logger,
	}
}

func (h *CronHandler) Register(r *mux.Router) {
	r.HandleFunc("/cron/follow-ups", h.RunSweep).Methods(http.MethodPost)
}

// RunSweep handles POST /cron/follow-ups
func (h *CronHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, h.logger, customError.WrapUnauthorized("missing cron secret"))
		return
	}
	if token != h.secret {
		h.logger.WithField("remote_addr", r.RemoteAddr).Warn("cron trigger with wrong secret")
		writeError(w, h.logger, customError.WrapForbidden("invalid cron secret"))
		return
	}

	result, err := h.sweep.Run(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, result)
}
