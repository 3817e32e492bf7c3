// MCP transport handler using the official MCP Go SDK.
// Exposes the sticker operations as tools so shopping agents can quote
// and order custom stickers without the web storefront.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"sticker-backend/internal/cleanup"
	"sticker-backend/internal/model"
	"sticker-backend/internal/order"
	"sticker-backend/internal/sticker"
)

// CreateStickerInput is the input schema for the create_custom_sticker tool.
type CreateStickerInput struct {
	Title  string  `json:"title,omitempty" jsonschema:"display title for the sticker"`
	Price  string  `json:"price" jsonschema:"declared price as a decimal string,required"`
	Width  float64 `json:"width" jsonschema:"width in inches,required"`
	Height float64 `json:"height" jsonschema:"height in inches,required"`
	Qty    int     `json:"qty" jsonschema:"quantity,required"`
	Finish string  `json:"finish,omitempty" jsonschema:"finish, e.g. matte or gloss"`
	Vinyl  string  `json:"vinyl" jsonschema:"vinyl type,required"`
}

// CreateCheckoutInput is the input schema for the create_checkout tool.
type CreateCheckoutInput struct {
	Items []order.CartLineItem `json:"items" jsonschema:"cart line items,required"`
}

// CheckoutOutput carries the secure checkout link.
type CheckoutOutput struct {
	InvoiceURL string `json:"invoice_url"`
}

// PreviewCleanupInput is the input schema for the preview_cleanup tool.
type PreviewCleanupInput struct {
	TTLHours int `json:"ttl_hours,omitempty" jsonschema:"expiry threshold in hours; deployment default when omitted"`
}

// NewMCPServer creates an MCP server with the sticker tools registered.
// The server exposes the same operations as the REST API but via MCP.
// Cleanup is preview-only here: destructive sweeps stay on the ops route.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "sticker-backend",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Custom sticker storefront backend. " +
				"Create a custom-priced sticker variant, then check out a cart referencing it.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_custom_sticker",
		Description: "Create a temporary product variant for one custom sticker configuration with a caller-specified price.",
	}, h.mcpCreateSticker)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_checkout",
		Description: "Create a draft order from cart items and return the secure checkout link.",
	}, h.mcpCreateCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_cleanup",
		Description: "Preview which expired temporary variants a cleanup sweep would delete. Never deletes anything.",
	}, h.mcpPreviewCleanup)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpCreateSticker(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreateStickerInput,
) (*mcp.CallToolResult, *sticker.Created, error) {
	cfg := &sticker.Configuration{
		Title:         input.Title,
		DeclaredPrice: input.Price,
		Width:         input.Width,
		Height:        input.Height,
		Quantity:      input.Qty,
		Finish:        input.Finish,
		VinylType:     input.Vinyl,
	}

	created, err := h.factory.CreateEphemeralVariant(ctx, h.hostProductID, cfg)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, created, nil
}

func (h *Handler) mcpCreateCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreateCheckoutInput,
) (*mcp.CallToolResult, *CheckoutOutput, error) {
	lineItems, err := order.ToDraftOrderLineItems(input.Items)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	draft, err := h.api.CreateDraftOrder(ctx, lineItems)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &CheckoutOutput{InvoiceURL: draft.InvoiceURL}, nil
}

func (h *Handler) mcpPreviewCleanup(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input PreviewCleanupInput,
) (*mcp.CallToolResult, *cleanup.Report, error) {
	ttlHours := input.TTLHours
	if ttlHours <= 0 {
		ttlHours = h.defaultTTL
	}

	report, err := h.sweeper.Sweep(ctx, h.hostProductID, ttlHours, true)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, report, nil
}

// mcpError converts service errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
