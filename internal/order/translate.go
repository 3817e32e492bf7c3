// Package order maps storefront cart contents into platform draft-order
// line items, resolving the declared real price for custom stickers.
package order

import (
	"sort"

	"sticker-backend/internal/catalog"
	"sticker-backend/internal/model"
)

// RealPriceProperty is the cart property carrying the storefront's
// declared price for a custom line item. Its value is the LINE TOTAL for
// the whole line, not a per-unit price; the translator divides by
// quantity. A storefront sending per-unit prices must multiply out first.
const RealPriceProperty = "_RealPrice"

// CartLineItem is one storefront cart line as posted to the checkout
// endpoint. Price is the platform's nominal per-unit price in minor
// currency units (cents).
type CartLineItem struct {
	ProductTitle string            `json:"product_title"`
	VariantTitle string            `json:"variant_title,omitempty"`
	Quantity     int               `json:"quantity"`
	Price        int64             `json:"price"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// ToDraftOrderLineItems translates cart items 1:1 into draft-order line
// items.
//
// Price resolution per item: a declared real price (line total) divided
// by quantity at 4-decimal precision wins; otherwise the nominal price
// in cents is converted to a 2-decimal string. All custom properties are
// carried through unmodified as name/value pairs.
func ToDraftOrderLineItems(items []CartLineItem) ([]catalog.DraftOrderLineItem, error) {
	if len(items) == 0 {
		return nil, model.NewValidationError("items", "no items in cart")
	}

	lineItems := make([]catalog.DraftOrderLineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, model.NewValidationError("items", "quantity must be a positive integer")
		}

		price, err := resolveUnitPrice(item)
		if err != nil {
			return nil, err
		}

		title := item.ProductTitle
		if item.VariantTitle != "" {
			title += " - " + item.VariantTitle
		}

		lineItems = append(lineItems, catalog.DraftOrderLineItem{
			Title:      title,
			Quantity:   item.Quantity,
			Price:      price,
			Properties: propertyPairs(item.Properties),
		})
	}
	return lineItems, nil
}

// resolveUnitPrice applies the declared-price rule for one item.
func resolveUnitPrice(item CartLineItem) (string, error) {
	if declared, ok := item.Properties[RealPriceProperty]; ok && declared != "" {
		unit, err := model.UnitPrice(declared, item.Quantity)
		if err != nil {
			return "", model.NewValidationError(RealPriceProperty, err.Error())
		}
		return unit, nil
	}
	return model.CentsToPrice(item.Price), nil
}

// propertyPairs converts the properties map to name/value pairs in a
// stable order.
func propertyPairs(props map[string]string) []catalog.Property {
	if len(props) == 0 {
		return nil
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]catalog.Property, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, catalog.Property{Name: name, Value: props[name]})
	}
	return pairs
}
