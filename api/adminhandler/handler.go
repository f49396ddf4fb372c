package adminhandler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-workorder-service/api"
	"github.com/ruteri/tee-workorder-service/kms"
)

const maxShareBodySize = 64 << 10

// Handler lets admins submit their shares of the enclave seed.
type Handler struct {
	recovery *kms.SeedRecovery
	log      *slog.Logger
}

func NewHandler(recovery *kms.SeedRecovery, log *slog.Logger) *Handler {
	return &Handler{
		recovery: recovery,
		log:      log,
	}
}

// RegisterRoutes registers:
//   - GET /api/admin/status - recovery progress
//   - POST /api/admin/share - submit a signed share
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/admin/status", h.HandleStatus)
	r.Post("/api/admin/share", h.HandleSubmitShare)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := h.recovery.Status()
	api.WriteJSON(w, h.log, api.RecoveryStatusResponse{
		Threshold: status.Threshold,
		Received:  status.Received,
		Unlocked:  status.Unlocked,
	})
}

// HandleSubmitShare accepts an api.ShareSubmission and answers with the
// recovery status after it was applied.
//
// Status codes:
//   - 200 OK: share accepted
//   - 400 Bad Request: malformed submission
//   - 403 Forbidden: unknown admin or bad signature
//   - 409 Conflict: duplicate share or seed already recovered
func (h *Handler) HandleSubmitShare(w http.ResponseWriter, r *http.Request) {
	submission, err := decodeSubmission(http.MaxBytesReader(w, r.Body, maxShareBodySize))
	if err != nil {
		api.WriteError(w, h.log, api.NewRequestError(http.StatusBadRequest, err))
		return
	}

	share, _ := base64.StdEncoding.DecodeString(submission.Share)
	signature, _ := base64.StdEncoding.DecodeString(submission.Signature)

	err = h.recovery.SubmitShare(share, signature, []byte(submission.AdminPubkey))
	switch {
	case err == nil:
	case errors.Is(err, kms.ErrUnknownAdmin), errors.Is(err, kms.ErrInvalidSignature):
		h.log.Warn("Rejected seed share", "err", err, "admin", kms.Fingerprint([]byte(submission.AdminPubkey)))
		api.WriteError(w, h.log, api.NewRequestError(http.StatusForbidden, err))
		return
	case errors.Is(err, kms.ErrDuplicateShare), errors.Is(err, kms.ErrAlreadyUnlocked):
		api.WriteError(w, h.log, api.NewRequestError(http.StatusConflict, err))
		return
	default:
		api.WriteError(w, h.log, err)
		return
	}

	status := h.recovery.Status()
	h.log.Info("Accepted seed share",
		"admin", kms.Fingerprint([]byte(submission.AdminPubkey)),
		"received", status.Received,
		"threshold", status.Threshold,
		"unlocked", status.Unlocked)

	api.WriteJSON(w, h.log, api.RecoveryStatusResponse{
		Threshold: status.Threshold,
		Received:  status.Received,
		Unlocked:  status.Unlocked,
	})
}

func decodeSubmission(body io.Reader) (*api.ShareSubmission, error) {
	var submission api.ShareSubmission
	if err := json.NewDecoder(body).Decode(&submission); err != nil {
		return nil, fmt.Errorf("invalid share submission: %w", err)
	}
	if submission.AdminPubkey == "" {
		return nil, errors.New("missing admin_pubkey")
	}
	for name, value := range map[string]string{"share": submission.Share, "signature": submission.Signature} {
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil || len(decoded) == 0 {
			return nil, fmt.Errorf("invalid %s encoding", name)
		}
	}
	return &submission, nil
}
