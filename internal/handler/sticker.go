package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"sticker-backend/internal/cleanup"
	"sticker-backend/internal/model"
	"sticker-backend/internal/order"
	"sticker-backend/internal/sticker"
)

// handleCustomSticker creates an ephemeral variant for one custom
// sticker configuration.
// POST /api/custom-sticker
func (h *Handler) handleCustomSticker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cfg sticker.Configuration
	if err := decodeJSON(r, &cfg); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "creating custom sticker variant",
		slog.String("vinyl", cfg.VinylType),
		slog.Int("qty", cfg.Quantity),
	)

	created, err := h.factory.CreateEphemeralVariant(ctx, h.hostProductID, &cfg)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, created)
}

// checkoutRequest is the cart submission body.
type checkoutRequest struct {
	Items []order.CartLineItem `json:"items"`
}

// checkoutResponse carries the secure checkout link.
type checkoutResponse struct {
	InvoiceURL string `json:"invoice_url"`
}

// handleCreateCheckout turns cart contents into a draft order and
// returns its invoice URL.
// POST /api/create-checkout
func (h *Handler) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	lineItems, err := order.ToDraftOrderLineItems(req.Items)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "creating draft order",
		slog.Int("line_items", len(lineItems)),
	)

	draft, err := h.api.CreateDraftOrder(ctx, lineItems)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, checkoutResponse{InvoiceURL: draft.InvoiceURL})
}

// handleCleanup runs the expiration sweep.
// GET /ops/cleanup?dry_run=1|0&ttl_hours=N
//
// dry_run defaults to 1: the destructive mode must be asked for
// explicitly.
func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dryRun := r.URL.Query().Get("dry_run") != "0"

	ttlHours := h.defaultTTL
	if raw := r.URL.Query().Get("ttl_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, model.NewValidationError("ttl_hours", "must be a positive integer"))
			return
		}
		ttlHours = parsed
	}

	h.logger.InfoContext(ctx, "running cleanup sweep",
		slog.Bool("dry_run", dryRun),
		slog.Int("ttl_hours", ttlHours),
	)

	report, err := h.sweeper.Sweep(ctx, h.hostProductID, ttlHours, dryRun)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// handleOrdersCreate deletes the ephemeral variants an order purchased.
// POST /webhooks/orders-create
//
// Always answers 200 once the signature checks out; the platform retries
// non-2xx deliveries and the cleanup here is best-effort anyway (the
// sweep catches anything missed).
func (h *Handler) handleOrdersCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, MaxRequestBodySize))
	if err != nil {
		h.writeError(w, model.NewValidationError("body", "unreadable"))
		return
	}

	if h.webhookSecret != "" {
		signature := r.Header.Get("X-Shopify-Hmac-Sha256")
		if !validSignature(body, signature, h.webhookSecret) {
			h.logger.Warn("webhook signature rejected",
				slog.String("remote", r.RemoteAddr),
			)
			h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid webhook signature"})
			return
		}
	}

	var o cleanup.Order
	if err := json.Unmarshal(body, &o); err != nil {
		// Malformed payloads are acknowledged, not retried forever.
		h.logger.Warn("orders-create payload unparseable", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
		return
	}

	deleted := h.sweeper.CleanupOrder(ctx, &o)

	h.logger.InfoContext(ctx, "order cleanup finished",
		slog.Int64("order_id", o.ID),
		slog.Int("deleted", deleted),
	)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// validSignature verifies the platform's webhook HMAC: base64 of
// HMAC-SHA256 over the raw body, keyed with the shared secret.
func validSignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
