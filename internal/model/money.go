package model

import (
	"fmt"
	"strconv"
)

// FormatPrice renders a float amount as the fixed 2-decimal string the
// platform Admin API expects for all price fields.
// Examples: 12.5 → "12.50", 0.479 → "0.48"
func FormatPrice(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// CentsToPrice converts an amount in minor currency units to a 2-decimal
// string. Storefront cart payloads report nominal prices in cents.
// Examples: 1250 → "12.50", 99 → "0.99"
func CentsToPrice(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

// UnitPrice back-calculates a per-unit price from a declared line total.
// Uses 4 decimal places of intermediate precision to limit cumulative
// rounding error before the platform-facing price is re-rounded to 2.
// Examples: ("168.00", 350) → "0.4800"
func UnitPrice(lineTotal string, quantity int) (string, error) {
	if quantity <= 0 {
		return "", fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	total, err := strconv.ParseFloat(lineTotal, 64)
	if err != nil {
		return "", fmt.Errorf("parsing line total %q: %w", lineTotal, err)
	}
	return strconv.FormatFloat(total/float64(quantity), 'f', 4, 64), nil
}
