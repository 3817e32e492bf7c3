// Package catalog defines the interface for the remote commerce platform's
// product catalog and order operations. The shopify package provides the
// real implementation; tests use the function-field Mock.
package catalog

import (
	"context"
	"time"
)

// API abstracts the platform's variant and draft-order operations.
//
// All methods normalize transport responses into the model error taxonomy.
// Callers never parse raw platform responses.
type API interface {
	// CreateVariant creates a variant on the given product.
	// Implementations must try the platform's resource-scoped creation
	// endpoint first and fall back to the global endpoint on a
	// not-found-class error. Other error classes surface unmodified.
	CreateVariant(ctx context.Context, productID int64, variant *NewVariant) (*Variant, error)

	// ListVariants returns the product's variants, one page up to the
	// platform maximum (250). Products beyond that size are a known
	// limitation, not handled.
	ListVariants(ctx context.Context, productID int64) ([]Variant, error)

	// DeleteVariant removes a variant. "No content" and "ok" platform
	// responses are both success.
	DeleteVariant(ctx context.Context, variantID int64) error

	// SetMetafields attaches metadata entries to a variant. Each entry is
	// independent and best-effort: a failure is recorded in the returned
	// results and never rolls back the variant.
	SetMetafields(ctx context.Context, variantID int64, entries []Metafield) []MetafieldResult

	// CreateDraftOrder creates a draft order and returns its invoice URL.
	CreateDraftOrder(ctx context.Context, lineItems []DraftOrderLineItem) (*DraftOrder, error)
}

// Variant is the remote variant entity. The platform-assigned ID is
// authoritative; this system keeps no durable local copy.
type Variant struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	SKU       string    `json:"sku"`
	Price     string    `json:"price"`
	Title     string    `json:"title"`
	Option1   string    `json:"option1"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVariant holds the fields submitted when creating a variant.
type NewVariant struct {
	Option1             string `json:"option1"`
	Price               string `json:"price"`
	SKU                 string `json:"sku"`
	Taxable             bool   `json:"taxable"`
	RequiresShipping    bool   `json:"requires_shipping"`
	InventoryPolicy     string `json:"inventory_policy,omitempty"`
	InventoryManagement string `json:"inventory_management,omitempty"`

	// ProductID is set only for the global creation endpoint fallback.
	ProductID int64 `json:"product_id,omitempty"`
}

// Metafield is a metadata entry attached to a variant.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// MetafieldResult records the per-entry outcome of a SetMetafields call.
type MetafieldResult struct {
	Key string
	Err error // nil on success
}

// DraftOrderLineItem is one line of a draft order submission.
type DraftOrderLineItem struct {
	Title      string     `json:"title"`
	Quantity   int        `json:"quantity"`
	Price      string     `json:"price"`
	Properties []Property `json:"properties,omitempty"`
}

// Property is a name/value pair carried through from the storefront cart.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DraftOrder is the platform's draft order, reduced to what this service uses.
type DraftOrder struct {
	ID         int64  `json:"id"`
	InvoiceURL string `json:"invoice_url"`
}
