// Package shopify implements the catalog API against the Shopify Admin
// REST API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sticker-backend/internal/catalog"
	"sticker-backend/internal/model"
	"sticker-backend/internal/transport"
)

// defaultAPIVersion pins the Admin API version for all endpoints.
const defaultAPIVersion = "2025-01"

// maxPageSize is the Admin API's largest page for list endpoints.
// Listing beyond one page is a known limitation, not handled.
const maxPageSize = 250

// userAgent identifies this client to the platform.
const userAgent = "sticker-backend/1.0"

// Config holds Shopify-specific client configuration.
type Config struct {
	StoreDomain string // e.g. "example.myshopify.com"
	AccessToken string // Admin API access token
	APIVersion  string // Defaults to defaultAPIVersion
}

// Client talks to the Shopify Admin REST API. It owns all transport
// concerns: URL construction, auth header injection, response parsing,
// and error normalization into the model taxonomy. Callers never see raw
// platform responses.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// New creates a Shopify Admin API client with the given configuration.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.StoreDomain == "" {
		return nil, fmt.Errorf("store domain is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}

	domain := strings.TrimSuffix(cfg.StoreDomain, "/")

	// Chrome TLS fingerprint transport: the store sits behind a CDN that
	// rate-limits Go's default TLS fingerprint. See internal/transport.
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewChromeTransport(30 * time.Second),
		},
		baseURL: fmt.Sprintf("https://%s/admin/api/%s", domain, version),
		token:   cfg.AccessToken,
		logger:  logger,
	}, nil
}

// CreateVariant creates a variant on the host product.
//
// The resource-scoped endpoint (POST /products/{id}/variants.json) is
// tried first. If the platform answers with a not-found-class error, the
// global endpoint (POST /variants.json) is tried exactly once with the
// parent product id inline. Any other error class surfaces unmodified.
func (c *Client) CreateVariant(ctx context.Context, productID int64, variant *catalog.NewVariant) (*catalog.Variant, error) {
	body := newVariantEnvelope{Variant: variant}

	var resp variantEnvelope
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/products/%d/variants.json", productID), body, &resp)
	if err == nil {
		if resp.Variant == nil {
			return nil, model.NewTransportError(fmt.Errorf("variant create returned no variant"))
		}
		return resp.Variant, nil
	}

	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	// Some stores reject the nested route; the global route with the
	// product id in the body is the documented alternative.
	c.logger.Warn("scoped variant create returned not found, retrying global endpoint",
		slog.Int64("product_id", productID),
	)

	inline := *variant
	inline.ProductID = productID

	resp = variantEnvelope{}
	if err := c.do(ctx, http.MethodPost, "/variants.json", newVariantEnvelope{Variant: &inline}, &resp); err != nil {
		return nil, err
	}
	if resp.Variant == nil {
		return nil, model.NewTransportError(fmt.Errorf("variant create returned no variant"))
	}
	return resp.Variant, nil
}

// ListVariants returns the product's variants, one page up to the
// platform maximum page size.
func (c *Client) ListVariants(ctx context.Context, productID int64) ([]catalog.Variant, error) {
	path := fmt.Sprintf("/products/%d/variants.json?limit=%d", productID, maxPageSize)

	var resp variantsEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Variants, nil
}

// DeleteVariant removes a variant. The platform returns an empty body on
// success; 200 and 204 both count, anything else is an error.
func (c *Client) DeleteVariant(ctx context.Context, variantID int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/variants/%d.json", variantID), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		// Drain body to allow connection reuse
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	return c.parseError(resp.StatusCode, body)
}

// SetMetafields attaches metadata entries to a variant, one call per
// entry. Attachment is best-effort: a failed entry is logged and recorded
// in the results, and never rolls back the variant it describes.
func (c *Client) SetMetafields(ctx context.Context, variantID int64, entries []catalog.Metafield) []catalog.MetafieldResult {
	results := make([]catalog.MetafieldResult, 0, len(entries))
	path := fmt.Sprintf("/variants/%d/metafields.json", variantID)

	for _, entry := range entries {
		var resp metafieldEnvelope
		err := c.do(ctx, http.MethodPost, path, metafieldEnvelope{Metafield: entry}, &resp)
		if err != nil {
			c.logger.Warn("metafield attach failed",
				slog.Int64("variant_id", variantID),
				slog.String("key", entry.Key),
				slog.String("error", err.Error()),
			)
		}
		results = append(results, catalog.MetafieldResult{Key: entry.Key, Err: err})
	}
	return results
}

// CreateDraftOrder creates a draft order from the given line items and
// returns the secure invoice (checkout) URL.
func (c *Client) CreateDraftOrder(ctx context.Context, lineItems []catalog.DraftOrderLineItem) (*catalog.DraftOrder, error) {
	body := draftOrderRequest{
		DraftOrder: draftOrderBody{
			LineItems:                 lineItems,
			UseCustomerDefaultAddress: true,
		},
	}

	var resp draftOrderEnvelope
	if err := c.do(ctx, http.MethodPost, "/draft_orders.json", body, &resp); err != nil {
		return nil, err
	}
	if resp.DraftOrder == nil {
		return nil, model.NewTransportError(fmt.Errorf("draft order create returned no draft order"))
	}
	return resp.DraftOrder, nil
}

// === Request plumbing ===

// newRequest builds an Admin API request with auth and content headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Shopify-Access-Token", c.token)

	return req, nil
}

// do executes a request and decodes the JSON response into out.
//
// This is the normalization point for the whole service: network
// failures, empty bodies (the platform sometimes answers 2xx with no
// body, which is never a success), and malformed JSON all become
// transport-class errors; non-2xx statuses are classified by parseError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewTransportError(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return c.parseError(resp.StatusCode, respBody)
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return model.NewTransportError(fmt.Errorf("%s %s: empty response body (status %d)", method, path, resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return model.NewTransportError(fmt.Errorf("parsing response: %w", err))
	}

	return nil
}

// parseError converts a platform error response into a classified
// APIError. This is the single place error-class detection happens;
// downstream code checks classes with errors.Is and never matches
// message substrings itself.
func (c *Client) parseError(statusCode int, body []byte) error {
	var platformErr errorResponse
	json.Unmarshal(body, &platformErr) // Best effort parse

	msg := platformErr.message()
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.NewUnauthorizedError("platform authentication failed: " + msg)
	case http.StatusNotFound:
		return model.NewNotFoundError(msg, platformErr.details())
	case http.StatusTooManyRequests:
		return model.NewRateLimitError()
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if isDuplicateMessage(msg) {
			return model.NewDuplicateError(msg, platformErr.details())
		}
		return model.NewRemoteValidationError(msg, platformErr.details())
	default:
		return model.NewTransportError(fmt.Errorf("status %d: %s", statusCode, msg))
	}
}

// isDuplicateMessage recognizes the platform's duplicate-record wording.
// The Admin API has no structured code for this, so the substring match
// lives here and nowhere else.
func isDuplicateMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "already exists") ||
		strings.Contains(lower, "has already been taken")
}

// Verify Client implements the catalog API at compile time.
var _ catalog.API = (*Client)(nil)
