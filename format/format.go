// Package format turns normalized values into the strings shown on cards and
// detail panels. Every function is total: bad input degrades to a placeholder.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"midloop/sanitize"
)

// NotAvailable is shown wherever a value is missing.
const NotAvailable = "N/A"

// RatingDisplay renders a rating as "7.5/10". Nil or NaN ratings render as N/A.
func RatingDisplay(rating *float64, max int) string {
	if rating == nil || math.IsNaN(*rating) {
		return NotAvailable
	}
	if max == 0 {
		max = 10
	}
	return fmt.Sprintf("%.1f/%d", *rating, max)
}

// RatingNormalized maps a rating onto a 0-10 scale.
func RatingNormalized(rating *float64, max int) float64 {
	if rating == nil || math.IsNaN(*rating) {
		return 0
	}
	if max == 100 {
		return *rating / 10
	}
	return *rating
}

// RuntimeDisplay renders minutes as "1h 31m" or "45m".
func RuntimeDisplay(minutes *int) string {
	if minutes == nil || *minutes == 0 {
		return NotAvailable
	}

	h := *minutes / 60
	m := *minutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// CurrencyDisplay renders a dollar amount compactly: $1.4M, $50K, $500.
func CurrencyDisplay(amount *int64) string {
	if amount == nil || *amount == 0 {
		return NotAvailable
	}

	v := float64(*amount)
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.0fK", v/1_000)
	default:
		return "$" + strconv.FormatInt(*amount, 10)
	}
}

// ArrayDisplay escapes and joins the non-empty entries of items.
// An empty separator means ", ".
func ArrayDisplay(items []string, sep string) string {
	if len(items) == 0 {
		return NotAvailable
	}
	if sep == "" {
		sep = ", "
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		out = append(out, sanitize.HTML(item))
	}
	return strings.Join(out, sep)
}
