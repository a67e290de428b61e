// Package chat answers free-text smartphone questions from the catalog,
// narrates how the answer was reached and attaches a QA verdict.
package chat

import (
	"strings"

	"github.com/scttfrdmn/marketcrew/catalog"
)

// Category is the kind of question a query asks.
type Category string

const (
	CategoryPrice         Category = "price"
	CategoryAvailability  Category = "availability"
	CategoryRating        Category = "rating"
	CategoryMarket        Category = "market"
	CategoryComprehensive Category = "comprehensive"
)

// IsProduct reports whether the category is answered from product data alone.
func (c Category) IsProduct() bool {
	return c == CategoryPrice || c == CategoryAvailability || c == CategoryRating
}

var rules = []struct {
	category Category
	keywords []string
}{
	{CategoryPrice, []string{"price", "cost"}},
	{CategoryAvailability, []string{"availability", "stock", "available"}},
	{CategoryRating, []string{"rating", "reviews"}},
	{CategoryMarket, []string{"trend", "market", "popularity"}},
}

// Classify picks the first category whose keywords occur in the lowercased
// query. Queries matching nothing are comprehensive.
func Classify(query string) Category {
	lower := strings.ToLower(query)
	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.category
			}
		}
	}
	return CategoryComprehensive
}

// ExtractProduct returns the catalog product named in the query, or
// catalog.UnknownProduct.
func ExtractProduct(query string) string {
	if name, ok := catalog.Find(query); ok {
		return name
	}
	return catalog.UnknownProduct
}
