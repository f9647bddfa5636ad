package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/bulk-relay/internal/dispatch"
	"github.com/example/bulk-relay/internal/models"
)

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	engine   *dispatch.Engine
	defaults dispatch.Defaults
	maxBody  int64
	logger   zerolog.Logger
}

// Dependencies lists what a Handler needs. Logger is optional and falls
// back to a no-op logger; MaxBodyBytes falls back to 1 MiB.
type Dependencies struct {
	Engine       *dispatch.Engine
	Defaults     dispatch.Defaults
	MaxBodyBytes int64
	Logger       zerolog.Logger
}

// NewHandler validates dependencies and returns a ready Handler.
func NewHandler(deps Dependencies) (*Handler, error) {
	if deps.Engine == nil {
		return nil, errors.New("server: engine dependency is required")
	}
	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &Handler{
		engine:   deps.Engine,
		defaults: deps.Defaults,
		maxBody:  maxBody,
		logger:   logger.With().Str("component", "http_handler").Logger(),
	}, nil
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, map[string]bool{"ok": true})
}

// SendBulk handles POST /send-bulk. The whole batch is dispatched before
// the response is written, so response time grows with the recipient
// count and the configured pause.
func (h *Handler) SendBulk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req models.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	batch, err := dispatch.PrepareBatch(&req, r.Header.Get("Authorization"), h.defaults)
	if err != nil {
		if dispatch.IsClientError(err) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Msg("bulk request rejected")
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Detached from the request context: a caller disconnect must not
	// abort a half-finished batch.
	ctx := context.WithoutCancel(r.Context())

	w.Header().Set("X-Dispatch-ID", batch.ID)
	jsonOK(w, http.StatusOK, h.engine.Run(ctx, batch))
}

func jsonOK(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
