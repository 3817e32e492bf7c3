package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sticker-backend/internal/catalog"
	"sticker-backend/internal/cleanup"
	"sticker-backend/internal/model"
	"sticker-backend/internal/sticker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestMux wires a full handler around the given mock catalog.
func newTestMux(t *testing.T, mock *catalog.Mock, webhookSecret string) *http.ServeMux {
	t.Helper()
	logger := testLogger()

	h := New(Options{
		Factory:       sticker.NewFactory(mock, 168, logger),
		Sweeper:       cleanup.NewSweeper(mock, "CUST", logger),
		API:           mock,
		HostProductID: 42,
		DefaultTTL:    168,
		WebhookSecret: webhookSecret,
		Logger:        logger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func TestHandleHealth(t *testing.T) {
	mux := newTestMux(t, &catalog.Mock{}, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !resp.OK {
		t.Error("ok = false")
	}
}

func TestHandleCustomSticker(t *testing.T) {
	mock := &catalog.Mock{
		CreateVariantFunc: func(ctx context.Context, productID int64, v *catalog.NewVariant) (*catalog.Variant, error) {
			if productID != 42 {
				t.Errorf("productID = %d, want 42", productID)
			}
			return &catalog.Variant{ID: 777, SKU: v.SKU}, nil
		},
	}
	mux := newTestMux(t, mock, "")

	body := `{"price":"24.00","width":3,"height":3,"qty":50,"vinyl":"white","finish":"matte"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/custom-sticker", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}
	var created sticker.Created
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if created.VariantID != 777 {
		t.Errorf("variant_id = %d, want 777", created.VariantID)
	}
	if !strings.HasPrefix(created.SKU, "CUST-") {
		t.Errorf("sku = %q, want CUST- prefix", created.SKU)
	}
}

func TestHandleCustomStickerErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
	}{
		{"invalid json", `{not json`, nil, 400},
		{"missing vinyl", `{"price":"24.00","width":3,"height":3,"qty":50}`, nil, 400},
		{"zero quantity", `{"price":"24.00","width":3,"height":3,"qty":0,"vinyl":"white"}`, nil, 400},
		{
			"remote validation surfaces as server error",
			`{"price":"24.00","width":3,"height":3,"qty":50,"vinyl":"white"}`,
			model.NewRemoteValidationError("price invalid", nil),
			500,
		},
		{
			"transport failure surfaces as server error",
			`{"price":"24.00","width":3,"height":3,"qty":50,"vinyl":"white"}`,
			model.NewTransportError(io.ErrUnexpectedEOF),
			500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &catalog.Mock{
				CreateVariantFunc: func(ctx context.Context, productID int64, v *catalog.NewVariant) (*catalog.Variant, error) {
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					return &catalog.Variant{ID: 1, SKU: v.SKU}, nil
				},
			}
			mux := newTestMux(t, mock, "")

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/custom-sticker", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error body not JSON: %v", err)
			}
			if resp.Error == "" {
				t.Error("error message empty")
			}
		})
	}
}

func TestHandleCreateCheckout(t *testing.T) {
	var gotItems []catalog.DraftOrderLineItem
	mock := &catalog.Mock{
		CreateDraftOrderFunc: func(ctx context.Context, lineItems []catalog.DraftOrderLineItem) (*catalog.DraftOrder, error) {
			gotItems = lineItems
			return &catalog.DraftOrder{ID: 555, InvoiceURL: "https://x.myshopify.com/invoices/abc"}, nil
		},
	}
	mux := newTestMux(t, mock, "")

	body := `{"items":[{"product_title":"Custom Sticker","variant_title":"3x3 in x 350","quantity":350,"price":100,"properties":{"_RealPrice":"168.00"}}]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-checkout", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}
	var resp checkoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.InvoiceURL != "https://x.myshopify.com/invoices/abc" {
		t.Errorf("invoice_url = %q", resp.InvoiceURL)
	}
	if len(gotItems) != 1 || gotItems[0].Price != "0.4800" {
		t.Errorf("draft order items = %+v, want one item at 0.4800", gotItems)
	}
}

func TestHandleCreateCheckoutEmptyCart(t *testing.T) {
	mux := newTestMux(t, &catalog.Mock{}, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-checkout", strings.NewReader(`{"items":[]}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCleanup(t *testing.T) {
	old := time.Now().Add(-200 * time.Hour)

	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantDryRun  bool
		wantDeletes int
	}{
		{"default is dry run", "", 200, true, 0},
		{"explicit dry run", "?dry_run=1", 200, true, 0},
		{"destructive", "?dry_run=0", 200, false, 1},
		{"garbage dry_run is still dry", "?dry_run=yes", 200, true, 0},
		{"bad ttl", "?ttl_hours=abc", 400, false, 0},
		{"zero ttl", "?ttl_hours=0", 400, false, 0},
		{"negative ttl", "?ttl_hours=-5", 400, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var deletes int
			mock := &catalog.Mock{
				ListVariantsFunc: func(ctx context.Context, productID int64) ([]catalog.Variant, error) {
					return []catalog.Variant{{ID: 1, SKU: "CUST-aaaaaaaaaa", CreatedAt: old}}, nil
				},
				DeleteVariantFunc: func(ctx context.Context, variantID int64) error {
					deletes++
					return nil
				},
			}
			mux := newTestMux(t, mock, "")

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/cleanup"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var report cleanup.Report
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("decoding report: %v", err)
			}
			if report.DryRun != tt.wantDryRun {
				t.Errorf("dry_run = %v, want %v", report.DryRun, tt.wantDryRun)
			}
			if deletes != tt.wantDeletes {
				t.Errorf("delete calls = %d, want %d", deletes, tt.wantDeletes)
			}
		})
	}
}

func signBody(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestHandleOrdersCreate(t *testing.T) {
	const secret = "shhh"
	orderBody := `{"id":9001,"line_items":[{"sku":"CUST-aaaaaaaaaa","variant_id":100},{"sku":"BASE","variant_id":200}]}`

	tests := []struct {
		name        string
		secret      string
		signature   string
		body        string
		wantStatus  int
		wantDeletes int
	}{
		{"valid signature", secret, signBody(orderBody, secret), orderBody, 200, 1},
		{"bad signature", secret, "bm9wZQ==", orderBody, 401, 0},
		{"missing signature", secret, "", orderBody, 401, 0},
		{"verification disabled", "", "", orderBody, 200, 1},
		{"unparseable payload acknowledged", "", "", `not json`, 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var deletes int
			mock := &catalog.Mock{
				DeleteVariantFunc: func(ctx context.Context, variantID int64) error {
					deletes++
					return nil
				},
			}
			mux := newTestMux(t, mock, tt.secret)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/orders-create", strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("X-Shopify-Hmac-Sha256", tt.signature)
			}

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if deletes != tt.wantDeletes {
				t.Errorf("delete calls = %d, want %d", deletes, tt.wantDeletes)
			}
		})
	}
}

func TestMethodRouting(t *testing.T) {
	mux := newTestMux(t, &catalog.Mock{}, "")

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/custom-sticker"},
		{http.MethodGet, "/api/create-checkout"},
		{http.MethodPost, "/ops/cleanup"},
		{http.MethodGet, "/webhooks/orders-create"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rec.Code)
			}
		})
	}
}

func TestCallerStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *model.APIError
		want int
	}{
		{"caller validation", model.NewValidationError("qty", "required"), 400},
		{"remote validation hidden as 500", model.NewRemoteValidationError("x", nil), 500},
		{"duplicate hidden as 500", model.NewDuplicateError("x", nil), 500},
		{"not found hidden as 500", model.NewNotFoundError("variant not found", nil), 500},
		{"unauthorized hidden as 500", model.NewUnauthorizedError("x"), 500},
		{"rate limited hidden as 500", model.NewRateLimitError(), 500},
		{"transport hidden as 500", model.NewTransportError(io.ErrUnexpectedEOF), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := callerStatus(tt.err); got != tt.want {
				t.Errorf("callerStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
