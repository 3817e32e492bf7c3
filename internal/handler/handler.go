// Package handler provides HTTP handlers for the sticker backend API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"sticker-backend/internal/catalog"
	"sticker-backend/internal/cleanup"
	"sticker-backend/internal/model"
	"sticker-backend/internal/sticker"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	factory       *sticker.Factory
	sweeper       *cleanup.Sweeper
	api           catalog.API
	hostProductID int64
	defaultTTL    int
	webhookSecret string
	logger        *slog.Logger
}

// Options configures a Handler.
type Options struct {
	Factory       *sticker.Factory
	Sweeper       *cleanup.Sweeper
	API           catalog.API
	HostProductID int64
	DefaultTTL    int
	WebhookSecret string // empty disables webhook signature verification
	Logger        *slog.Logger
}

// New creates a new Handler.
func New(opts Options) *Handler {
	return &Handler{
		factory:       opts.Factory,
		sweeper:       opts.Sweeper,
		api:           opts.API,
		hostProductID: opts.HostProductID,
		defaultTTL:    opts.DefaultTTL,
		webhookSecret: opts.WebhookSecret,
		logger:        opts.Logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Storefront API
	mux.HandleFunc("POST /api/custom-sticker", h.handleCustomSticker)
	mux.HandleFunc("POST /api/create-checkout", h.handleCreateCheckout)

	// Operations
	mux.HandleFunc("GET /ops/cleanup", h.handleCleanup)

	// Platform webhooks
	mux.HandleFunc("POST /webhooks/orders-create", h.handleOrdersCreate)

	// MCP transport - sticker tools over JSON-RPC using the official SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Liveness
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /{$}", h.handleRoot)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response as {"error": ..., "details": ...}.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, callerStatus(apiErr), errorResponse{
		Error:   apiErr.Message,
		Details: apiErr.Details,
	})
}

// callerStatus maps an error class to the status the storefront sees.
// Caller mistakes are 400; everything else is 500, since the storefront
// cannot fix the platform. The internal StatusCode stays out of the
// response: 502/429/404 upstream details would only confuse the caller.
func callerStatus(apiErr *model.APIError) int {
	if errors.Is(apiErr, model.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// healthResponse is the liveness payload.
type healthResponse struct {
	OK bool `json:"ok"`
}

// handleHealth reports liveness.
// GET /health
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{OK: true})
}

// handleRoot answers the bare domain, mostly for uptime checks.
// GET /
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Sticker Calculator Backend is running."))
}
