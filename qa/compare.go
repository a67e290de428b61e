// Package qa re-checks figures reported to a user against a fresh catalog lookup.
package qa

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical availability literals.
const (
	InStock    = "In Stock"
	OutOfStock = "Out of Stock"
)

var stockKeywords = []string{"available", "in stock", "stock"}

// negatedStock phrases mention stock but mean the opposite of "In Stock".
var negatedStock = []string{"out of stock", "not in stock", "no stock", "unavailable", "not available", "sold out"}

// Stringify renders a reported or actual value the way comparisons see it.
// Floats never use exponent notation so 45000 stays "45000".
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// CompareValues reports whether a and b represent the same logical value.
//
// The rules run in order, each on the output of the previous one: exact match
// after trimming; keep the part before the first "/" (ratings like "4.8/5");
// drop thousands separators; collapse any stock/availability phrasing to
// "In Stock"; exact match. Negated phrasing ("Out of Stock", "unavailable")
// collapses to "Out of Stock" instead, so it never equals "In Stock".
func CompareValues(a, b any) bool {
	strA := strings.TrimSpace(Stringify(a))
	strB := strings.TrimSpace(Stringify(b))

	if strA == strB {
		return true
	}

	strA, _, _ = strings.Cut(strA, "/")
	strB, _, _ = strings.Cut(strB, "/")

	strA = strings.ReplaceAll(strA, ",", "")
	strB = strings.ReplaceAll(strB, ",", "")

	strA = canonicalStock(strA)
	strB = canonicalStock(strB)

	return strA == strB
}

func canonicalStock(s string) string {
	lower := strings.ToLower(s)
	if containsAny(lower, negatedStock) {
		return OutOfStock
	}
	if containsAny(lower, stockKeywords) {
		return InStock
	}
	return s
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

// NormalizeAvailability maps stock/availability phrasing to "In Stock",
// negated phrasing to "Out of Stock", and lowercases everything else.
func NormalizeAvailability(status string) string {
	if status == "" {
		return ""
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if containsAny(status, negatedStock) {
		return OutOfStock
	}
	if strings.Contains(status, "stock") || strings.Contains(status, "available") {
		return InStock
	}
	return status
}
