package catalog

import (
	"context"

	"sticker-backend/internal/model"
)

// Mock implements API for testing.
// Each method can be configured via function fields.
type Mock struct {
	CreateVariantFunc    func(ctx context.Context, productID int64, variant *NewVariant) (*Variant, error)
	ListVariantsFunc     func(ctx context.Context, productID int64) ([]Variant, error)
	DeleteVariantFunc    func(ctx context.Context, variantID int64) error
	SetMetafieldsFunc    func(ctx context.Context, variantID int64, entries []Metafield) []MetafieldResult
	CreateDraftOrderFunc func(ctx context.Context, lineItems []DraftOrderLineItem) (*DraftOrder, error)
}

// CreateVariant calls the configured CreateVariantFunc or returns an error.
func (m *Mock) CreateVariant(ctx context.Context, productID int64, variant *NewVariant) (*Variant, error) {
	if m.CreateVariantFunc != nil {
		return m.CreateVariantFunc(ctx, productID, variant)
	}
	return nil, model.NewInternalError(nil)
}

// ListVariants calls the configured ListVariantsFunc or returns an empty list.
func (m *Mock) ListVariants(ctx context.Context, productID int64) ([]Variant, error) {
	if m.ListVariantsFunc != nil {
		return m.ListVariantsFunc(ctx, productID)
	}
	return nil, nil
}

// DeleteVariant calls the configured DeleteVariantFunc or succeeds.
func (m *Mock) DeleteVariant(ctx context.Context, variantID int64) error {
	if m.DeleteVariantFunc != nil {
		return m.DeleteVariantFunc(ctx, variantID)
	}
	return nil
}

// SetMetafields calls the configured SetMetafieldsFunc or reports success per entry.
func (m *Mock) SetMetafields(ctx context.Context, variantID int64, entries []Metafield) []MetafieldResult {
	if m.SetMetafieldsFunc != nil {
		return m.SetMetafieldsFunc(ctx, variantID, entries)
	}
	results := make([]MetafieldResult, len(entries))
	for i, e := range entries {
		results[i] = MetafieldResult{Key: e.Key}
	}
	return results
}

// CreateDraftOrder calls the configured CreateDraftOrderFunc or returns an error.
func (m *Mock) CreateDraftOrder(ctx context.Context, lineItems []DraftOrderLineItem) (*DraftOrder, error) {
	if m.CreateDraftOrderFunc != nil {
		return m.CreateDraftOrderFunc(ctx, lineItems)
	}
	return nil, model.NewInternalError(nil)
}

// Verify Mock implements API at compile time.
var _ API = (*Mock)(nil)
