package enclavehandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-workorder-service/api"
	"github.com/ruteri/tee-workorder-service/interfaces"
	"go.uber.org/atomic"
)

// Handler serves the enclave's public keys and attestation. Quotes are
// produced once, when the info is installed.
type Handler struct {
	info atomic.Pointer[api.EnclaveInfoResponse]
	log  *slog.Logger
}

func NewHandler(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// SetInfo attests the enclave keys through kms and starts serving them.
func (h *Handler) SetInfo(kms interfaces.EnclaveKMS) error {
	info, err := kms.Info()
	if err != nil {
		return err
	}
	resp := api.NewEnclaveInfoResponse(info)
	h.info.Store(&resp)
	return nil
}

// RegisterRoutes registers GET /api/enclave/info.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/enclave/info", h.HandleInfo)
}

// HandleInfo returns api.EnclaveInfoResponse, or 503 while the enclave seed
// is still being recovered.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	info := h.info.Load()
	if info == nil {
		api.WriteError(w, h.log, api.NewRequestError(http.StatusServiceUnavailable, errors.New("enclave keys not available yet")))
		return
	}
	api.WriteJSON(w, h.log, info)
}
