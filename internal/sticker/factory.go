// Package sticker manages the lifecycle of ephemeral product variants
// that represent one custom sticker configuration each.
package sticker

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"sticker-backend/internal/catalog"
	"sticker-backend/internal/model"
)

// DefaultSKUPrefix marks every variant this system creates. The sweeper
// and order-cleanup paths refuse to delete anything without it.
const DefaultSKUPrefix = "CUST"

// MetafieldNamespace groups the metadata attached to ephemeral variants.
const MetafieldNamespace = "custom_sticker"

// fingerprintLen is the hex length of the SKU fingerprint token.
const fingerprintLen = 10

// Configuration is a user-submitted sticker configuration. Supplied
// entirely by the caller, immutable once submitted, never persisted
// locally.
type Configuration struct {
	Title         string  `json:"title"`
	DeclaredPrice string  `json:"price"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Quantity      int     `json:"qty"`
	Finish        string  `json:"finish"`
	VinylType     string  `json:"vinyl"`
	SKUPrefix     string  `json:"skuPrefix,omitempty"`
}

// Created identifies the variant produced for a configuration.
type Created struct {
	VariantID int64  `json:"variant_id"`
	SKU       string `json:"sku"`
}

// Factory creates ephemeral variants on the host product, including the
// duplicate-recovery path and best-effort metadata attachment.
type Factory struct {
	api    catalog.API
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time // injectable clock for deterministic tests
}

// NewFactory creates a Factory. ttlHours is the lifetime recorded in the
// variant's expiry metadata; the sweeper enforces it later.
func NewFactory(api catalog.API, ttlHours int, logger *slog.Logger) *Factory {
	return &Factory{
		api:    api,
		ttl:    time.Duration(ttlHours) * time.Hour,
		logger: logger,
		now:    time.Now,
	}
}

// CreateEphemeralVariant validates the configuration, derives its SKU,
// and creates the variant on the host product.
//
// If the platform reports a duplicate, the factory recovers by listing
// the host product's variants and adopting the one whose option label
// matches; only if no match exists does the original error propagate.
// Metadata attachment afterwards is best-effort and never fails the
// operation.
func (f *Factory) CreateEphemeralVariant(ctx context.Context, hostProductID int64, cfg *Configuration) (*Created, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	price, _ := strconv.ParseFloat(cfg.DeclaredPrice, 64) // validated above

	now := f.now()
	fp := fingerprint(cfg, now)

	prefix := cfg.SKUPrefix
	if prefix == "" {
		prefix = DefaultSKUPrefix
	}
	sku := prefix + "-" + fp
	label := optionLabel(cfg)

	variant := &catalog.NewVariant{
		Option1:          label,
		Price:            model.FormatPrice(price),
		SKU:              sku,
		Taxable:          true,
		RequiresShipping: true,
		InventoryPolicy:  "continue", // no inventory tracking for one-off variants
	}

	created, err := f.api.CreateVariant(ctx, hostProductID, variant)
	if err != nil {
		if !errors.Is(err, model.ErrDuplicate) {
			return nil, err
		}
		created, err = f.recoverExisting(ctx, hostProductID, label, err)
		if err != nil {
			return nil, err
		}
	}

	f.attachMetadata(ctx, created.ID, fp, now, cfg)

	f.logger.Info("ephemeral variant ready",
		slog.Int64("variant_id", created.ID),
		slog.String("sku", created.SKU),
		slog.String("label", label),
	)

	return &Created{VariantID: created.ID, SKU: created.SKU}, nil
}

// validate checks the required fields. Missing any means no remote call
// is made at all.
func validate(cfg *Configuration) error {
	if cfg.DeclaredPrice == "" {
		return model.NewValidationError("price", "required")
	}
	if _, err := strconv.ParseFloat(cfg.DeclaredPrice, 64); err != nil {
		return model.NewValidationError("price", "must be a decimal number")
	}
	// Zero or negative quantity also guards the line-total division in
	// the order translator.
	if cfg.Quantity <= 0 {
		return model.NewValidationError("qty", "must be a positive integer")
	}
	if cfg.Width <= 0 {
		return model.NewValidationError("width", "required")
	}
	if cfg.Height <= 0 {
		return model.NewValidationError("height", "required")
	}
	if cfg.VinylType == "" {
		return model.NewValidationError("vinyl", "required")
	}
	return nil
}

// fingerprint computes the short deterministic digest embedded in the
// SKU. The timestamp component makes repeats practically unique per
// request; collisions are acceptable because the prefix and timestamp
// disambiguate.
func fingerprint(cfg *Configuration, now time.Time) string {
	seed := fmt.Sprintf("%s|%s|%v|%v|%d|%s|%d",
		cfg.VinylType, cfg.Finish, cfg.Width, cfg.Height,
		cfg.Quantity, cfg.DeclaredPrice, now.UnixNano())
	sum := sha1.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// optionLabel builds the human-readable size/qty label used as option1.
// Also the lookup key for duplicate recovery, so it must be derived only
// from the configuration.
func optionLabel(cfg *Configuration) string {
	return fmt.Sprintf("%sx%s in x %d", formatDim(cfg.Width), formatDim(cfg.Height), cfg.Quantity)
}

func formatDim(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// recoverExisting handles the platform's duplicate rejection by finding
// the already-created variant with the same option label.
//
// The label is a heuristic key, not a guaranteed unique one: two
// concurrent configurations with identical size and quantity share it.
// Acceptable for this storefront; the alternative (round-tripping the
// fingerprint) would never match because each fingerprint embeds the
// request timestamp.
func (f *Factory) recoverExisting(ctx context.Context, hostProductID int64, label string, cause error) (*catalog.Variant, error) {
	variants, err := f.api.ListVariants(ctx, hostProductID)
	if err != nil {
		f.logger.Warn("duplicate recovery listing failed",
			slog.Int64("product_id", hostProductID),
			slog.String("error", err.Error()),
		)
		return nil, cause
	}

	for i := range variants {
		if variants[i].Option1 == label {
			f.logger.Info("recovered existing variant after duplicate rejection",
				slog.Int64("variant_id", variants[i].ID),
				slog.String("label", label),
			)
			return &variants[i], nil
		}
	}

	return nil, cause
}

// attachMetadata records ephemerality, the fingerprint, the expiry
// timestamp, and the original configuration for audit. Failures are
// already logged per entry by the client; they never fail the operation.
func (f *Factory) attachMetadata(ctx context.Context, variantID int64, fp string, now time.Time, cfg *Configuration) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		configJSON = []byte("{}")
	}

	entries := []catalog.Metafield{
		{Namespace: MetafieldNamespace, Key: "ephemeral", Value: "true", Type: "boolean"},
		{Namespace: MetafieldNamespace, Key: "hash", Value: fp, Type: "single_line_text_field"},
		{Namespace: MetafieldNamespace, Key: "expires_at", Value: now.Add(f.ttl).UTC().Format(time.RFC3339), Type: "date_time"},
		{Namespace: MetafieldNamespace, Key: "config", Value: string(configJSON), Type: "json"},
	}

	results := f.api.SetMetafields(ctx, variantID, entries)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		f.logger.Warn("metadata attachment incomplete",
			slog.Int64("variant_id", variantID),
			slog.Int("failed", failed),
			slog.Int("total", len(entries)),
		)
	}
}
