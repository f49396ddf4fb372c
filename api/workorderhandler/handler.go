package workorderhandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-workorder-service/api"
	"github.com/ruteri/tee-workorder-service/storage"
	"github.com/ruteri/tee-workorder-service/workorder"
	"go.uber.org/atomic"
)

const (
	// MaxBodySize bounds a single work-order request.
	MaxBodySize = 16 << 20

	archiveTimeout = 30 * time.Second
)

// Handler serves the work-order endpoint. It answers 503 until a processor
// has been installed with SetProcessor.
type Handler struct {
	processor atomic.Pointer[workorder.Processor]
	archiver  *storage.Archiver
	log       *slog.Logger
}

// NewHandler creates a handler. processor and archiver may be nil.
func NewHandler(processor *workorder.Processor, archiver *storage.Archiver, log *slog.Logger) *Handler {
	h := &Handler{
		archiver: archiver,
		log:      log,
	}
	if processor != nil {
		h.processor.Store(processor)
	}
	return h
}

// SetProcessor installs the processor, making the endpoint ready.
func (h *Handler) SetProcessor(p *workorder.Processor) {
	h.processor.Store(p)
}

// Ready reports whether a processor is installed.
func (h *Handler) Ready() bool {
	return h.processor.Load() != nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/workorder", h.HandleWorkOrder)
}

// HandleWorkOrder processes one JSON-RPC work-order request.
//
// Status codes:
//   - 200 OK: JSON-RPC response, including JSON-RPC errors
//   - 400 Bad Request: the body could not be read
//   - 413 Request Entity Too Large: the body exceeds MaxBodySize
//   - 503 Service Unavailable: the enclave keys are not available yet
func (h *Handler) HandleWorkOrder(w http.ResponseWriter, r *http.Request) {
	processor := h.processor.Load()
	if processor == nil {
		api.WriteError(w, h.log, api.NewRequestError(http.StatusServiceUnavailable, errors.New("enclave keys not available yet")))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.WriteError(w, h.log, api.NewRequestError(http.StatusRequestEntityTooLarge, err))
			return
		}
		h.log.Debug("Failed to read request body", "err", err)
		api.WriteError(w, h.log, api.NewRequestError(http.StatusBadRequest, errors.New("failed to read request body")))
		return
	}

	outcome := processor.ProcessRequest(body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(outcome.Response); err != nil {
		h.log.Debug("Failed to write response", "err", err)
	}

	if h.archiver != nil && outcome.Result != nil {
		h.archive(r.Context(), outcome)
	}
}

func (h *Handler) archive(ctx context.Context, outcome workorder.Outcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	outputs := make([]storage.Output, 0, len(outcome.Result.Data))
	for _, item := range outcome.Result.Data {
		outputs = append(outputs, storage.Output{
			Type: item.Type,
			Link: item.OutputLink,
			Blob: item.BLOB,
		})
	}

	archived := h.archiver.Archive(ctx, outputs, outcome.Response)
	if len(archived) > 0 {
		h.log.Debug("work order archived",
			slog.String("workOrderId", outcome.Result.WorkOrderID),
			slog.Int("objects", len(archived)))
	}
}
