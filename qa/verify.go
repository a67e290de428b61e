package qa

import (
	"encoding/json"
	"fmt"

	"github.com/scttfrdmn/marketcrew/catalog"
)

// Fields compared for each kind of data block.
var (
	ProductFields = []string{"price", "availability", "rating"}
	MarketFields  = []string{"trend", "popularity_score", "monthly_searches"}
)

// DefaultProduct is verified when a payload does not name its product.
const DefaultProduct = "iPhone"

// PassedMessage is the verdict message when every field matched.
const PassedMessage = "QA verification passed"

// Comparison records one reported-versus-actual field check.
type Comparison struct {
	Field    string `json:"field"`
	Reported any    `json:"reported"`
	Actual   any    `json:"actual"`
	Matches  bool   `json:"matches"`
}

// Result is the verdict attached to a chat response.
//
// Message names the first failing field only. FailedFields lists all of them.
type Result struct {
	Passed            bool         `json:"passed"`
	Message           string       `json:"message"`
	Comparison        []Comparison `json:"comparison,omitempty"`
	ProductComparison []Comparison `json:"product_comparison,omitempty"`
	MarketComparison  []Comparison `json:"market_comparison,omitempty"`
	FailedFields      []string     `json:"failed_fields,omitempty"`

	// combined marks a ProductData and MarketData verdict.
	combined bool
}

// MarshalJSON always writes the comparison lists of the verdict's shape, as
// [] when nothing was compared: "comparison" for a single block,
// "product_comparison" and "market_comparison" for a combined one.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		Comparison        *[]Comparison `json:"comparison,omitempty"`
		ProductComparison *[]Comparison `json:"product_comparison,omitempty"`
		MarketComparison  *[]Comparison `json:"market_comparison,omitempty"`
	}{plain: plain(r)}

	if r.combined {
		product, market := nonNil(r.ProductComparison), nonNil(r.MarketComparison)
		out.ProductComparison, out.MarketComparison = &product, &market
	} else {
		single := nonNil(r.Comparison)
		out.Comparison = &single
	}
	return json.Marshal(out)
}

func nonNil(c []Comparison) []Comparison {
	if c == nil {
		return []Comparison{}
	}
	return c
}

// Payload carries the figures that were reported to the user: either a single
// Data block, or a ProductData and MarketData pair.
type Payload struct {
	Data        map[string]any
	ProductData map[string]any
	MarketData  map[string]any
}

// Verify re-fetches the product named in the payload and compares it field by
// field. It returns nil when the payload holds nothing verifiable.
func Verify(p Payload) *Result {
	switch {
	case p.Data != nil:
		return verifySingle(p.Data)
	case p.ProductData != nil && p.MarketData != nil:
		return verifyCombined(p.ProductData, p.MarketData)
	default:
		return nil
	}
}

func verifySingle(reported map[string]any) *Result {
	name := productName(reported)
	result := &Result{Passed: true, Message: PassedMessage}

	var actual map[string]any
	var fields []string
	switch {
	case has(reported, "popularity_score"):
		actual, fields = catalog.MarketTrends(name).Fields(), MarketFields
	case has(reported, "price"):
		actual, fields = catalog.Product(name).Fields(), ProductFields
	default:
		return result
	}

	result.Comparison = compareFields(result, reported, actual, fields, "")
	return result
}

func verifyCombined(product, market map[string]any) *Result {
	name := productName(product)
	result := &Result{Passed: true, Message: PassedMessage, combined: true}

	result.ProductComparison = compareFields(result, product, catalog.Product(name).Fields(), ProductFields, "product ")
	result.MarketComparison = compareFields(result, market, catalog.MarketTrends(name).Fields(), MarketFields, "market ")
	return result
}

// compareFields appends a comparison for every field present on both sides and
// records failures on result. The first failure sets the message.
func compareFields(result *Result, reported, actual map[string]any, fields []string, label string) []Comparison {
	comparisons := make([]Comparison, 0, len(fields))
	for _, field := range fields {
		r, ok := reported[field]
		if !ok {
			continue
		}
		a, ok := actual[field]
		if !ok {
			continue
		}

		matches := CompareValues(r, a)
		comparisons = append(comparisons, Comparison{Field: field, Reported: r, Actual: a, Matches: matches})
		if matches {
			continue
		}

		if result.Passed {
			result.Message = fmt.Sprintf("QA failed: Discrepancy found in %s%s", label, field)
		}
		result.Passed = false
		result.FailedFields = append(result.FailedFields, label+field)
	}
	return comparisons
}

func productName(reported map[string]any) string {
	if name, ok := reported["product"].(string); ok && name != "" {
		return name
	}
	return DefaultProduct
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}
