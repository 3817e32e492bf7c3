// Package cleanup reclaims ephemeral variants: a TTL sweep over the host
// product, and immediate deletion of variants purchased through an order.
package cleanup

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sticker-backend/internal/catalog"
)

// Sweeper identifies and deletes expired ephemeral variants.
//
// The SKU prefix check is the sole safeguard against deleting permanent
// catalog variants: a variant without the prefix is never a candidate,
// regardless of age.
type Sweeper struct {
	api       catalog.API
	skuPrefix string // marker without the trailing dash, e.g. "CUST"
	logger    *slog.Logger
	now       func() time.Time // injectable clock for deterministic tests
}

// NewSweeper creates a Sweeper that treats variants whose SKU starts
// with "{skuPrefix}-" as ephemeral.
func NewSweeper(api catalog.API, skuPrefix string, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		api:       api,
		skuPrefix: skuPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

// Candidate is one expired ephemeral variant selected for deletion.
type Candidate struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	AgeHours  int       `json:"age_hours"` // floor-truncated for reporting
}

// Result is the per-item outcome of a destructive sweep.
type Result struct {
	Candidate
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// Report summarizes one sweep invocation.
type Report struct {
	OK            bool        `json:"ok"`
	DryRun        bool        `json:"dry_run"`
	HostProductID int64       `json:"host_product_id"`
	TTLHours      int         `json:"ttl_hours"`
	TotalVariants int         `json:"total_variants"`
	Candidates    int         `json:"candidates"`
	DeletedCount  int         `json:"deleted_count"`
	Preview       []Candidate `json:"preview,omitempty"` // dry-run only
	Results       []Result    `json:"results,omitempty"` // destructive only
}

// Sweep lists the host product's variants, selects expired ephemeral
// ones, and either previews (dryRun) or deletes them.
//
// Dry-run mode is side-effect-free: zero delete calls regardless of
// candidate count. In destructive mode deletions are independent; one
// failure never blocks the others, and each outcome is recorded.
func (s *Sweeper) Sweep(ctx context.Context, hostProductID int64, ttlHours int, dryRun bool) (*Report, error) {
	variants, err := s.api.ListVariants(ctx, hostProductID)
	if err != nil {
		return nil, err
	}

	candidates := s.pickCandidates(variants, ttlHours)

	report := &Report{
		OK:            true,
		DryRun:        dryRun,
		HostProductID: hostProductID,
		TTLHours:      ttlHours,
		TotalVariants: len(variants),
		Candidates:    len(candidates),
	}

	if dryRun {
		report.Preview = candidates
		return report, nil
	}

	report.Results = make([]Result, 0, len(candidates))
	for _, c := range candidates {
		result := Result{Candidate: c}
		if err := s.api.DeleteVariant(ctx, c.ID); err != nil {
			result.Error = err.Error()
			s.logger.Warn("sweep delete failed",
				slog.Int64("variant_id", c.ID),
				slog.String("sku", c.SKU),
				slog.String("error", err.Error()),
			)
		} else {
			result.Deleted = true
			report.DeletedCount++
		}
		report.Results = append(report.Results, result)
	}

	s.logger.Info("sweep finished",
		slog.Int64("product_id", hostProductID),
		slog.Int("candidates", len(candidates)),
		slog.Int("deleted", report.DeletedCount),
	)

	return report, nil
}

// pickCandidates classifies variants. The prefix check runs before the
// age check and uses exact-prefix matching; the TTL boundary is
// inclusive (age >= ttl).
func (s *Sweeper) pickCandidates(variants []catalog.Variant, ttlHours int) []Candidate {
	now := s.now()
	ttl := time.Duration(ttlHours) * time.Hour

	candidates := make([]Candidate, 0)
	for _, v := range variants {
		if !s.isEphemeral(v.SKU) {
			continue
		}
		age := now.Sub(v.CreatedAt)
		if age < ttl {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:        v.ID,
			SKU:       v.SKU,
			Title:     v.Title,
			CreatedAt: v.CreatedAt,
			AgeHours:  int(age.Hours()),
		})
	}
	return candidates
}

// isEphemeral reports whether a SKU carries the ephemeral marker.
func (s *Sweeper) isEphemeral(sku string) bool {
	return strings.HasPrefix(sku, s.skuPrefix+"-")
}

// OrderLineItem is the slice of a platform order this package inspects.
type OrderLineItem struct {
	SKU       string `json:"sku"`
	VariantID int64  `json:"variant_id"`
}

// Order is an orders-create webhook payload, reduced to line items.
type Order struct {
	ID        int64           `json:"id"`
	LineItems []OrderLineItem `json:"line_items"`
}

// CleanupOrder deletes the ephemeral variants referenced by a placed
// order. The order already captured its line-item data at purchase time,
// so removing the variant definitions cannot retract it.
//
// Best-effort per item: failures are logged only. Returns the number of
// variants deleted.
func (s *Sweeper) CleanupOrder(ctx context.Context, order *Order) int {
	deleted := 0
	for _, li := range order.LineItems {
		if !s.isEphemeral(li.SKU) || li.VariantID == 0 {
			continue
		}
		if err := s.api.DeleteVariant(ctx, li.VariantID); err != nil {
			s.logger.Warn("post-order variant delete failed",
				slog.Int64("order_id", order.ID),
				slog.Int64("variant_id", li.VariantID),
				slog.String("error", err.Error()),
			)
			continue
		}
		deleted++
	}
	return deleted
}
