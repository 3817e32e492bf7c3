package shopify

import (
	"encoding/json"
	"fmt"
	"strings"

	"sticker-backend/internal/catalog"
)

// Wire envelopes for the Admin REST API. Every resource is wrapped in a
// singular or plural root key.

type variantEnvelope struct {
	Variant *catalog.Variant `json:"variant"`
}

type newVariantEnvelope struct {
	Variant *catalog.NewVariant `json:"variant"`
}

type variantsEnvelope struct {
	Variants []catalog.Variant `json:"variants"`
}

type metafieldEnvelope struct {
	Metafield catalog.Metafield `json:"metafield"`
}

type draftOrderRequest struct {
	DraftOrder draftOrderBody `json:"draft_order"`
}

type draftOrderBody struct {
	LineItems                 []catalog.DraftOrderLineItem `json:"line_items"`
	UseCustomerDefaultAddress bool                         `json:"use_customer_default_address"`
}

type draftOrderEnvelope struct {
	DraftOrder *catalog.DraftOrder `json:"draft_order"`
}

// errorResponse is the Admin API error envelope. The `errors` field is
// polymorphic: a string, an array of strings, or an object mapping field
// names to arrays of messages.
type errorResponse struct {
	Errors json.RawMessage `json:"errors"`
	Error  string          `json:"error"`
}

// message flattens the polymorphic errors payload into one string for
// logging and error classification.
func (e *errorResponse) message() string {
	if len(e.Errors) == 0 {
		return e.Error
	}

	var s string
	if err := json.Unmarshal(e.Errors, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(e.Errors, &list); err == nil {
		return strings.Join(list, ", ")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.Errors, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for field, raw := range fields {
			var msgs []string
			if err := json.Unmarshal(raw, &msgs); err == nil {
				parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, ", ")))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", field, string(raw)))
		}
		return strings.Join(parts, "; ")
	}

	return string(e.Errors)
}

// details returns the raw errors payload for the response `details` field.
func (e *errorResponse) details() any {
	if len(e.Errors) == 0 {
		if e.Error != "" {
			return e.Error
		}
		return nil
	}
	var v any
	if err := json.Unmarshal(e.Errors, &v); err != nil {
		return string(e.Errors)
	}
	return v
}
