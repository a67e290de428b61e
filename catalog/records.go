// Package catalog holds the mock smartphone data served to agents and the chat demo.
//
// The tables are fixed at build time. Every lookup is a total function: a known
// product (matched case-insensitively) returns its record, anything else returns
// a low-confidence default record carrying the caller's product name.
package catalog

// TrendLabel classifies the direction of a product's market interest.
type TrendLabel string

const (
	TrendRising  TrendLabel = "Rising"
	TrendStable  TrendLabel = "Stable"
	TrendFalling TrendLabel = "Falling"
)

// ProductRecord is the pricing, availability and rating of a product.
type ProductRecord struct {
	Product      string  `json:"product"`
	Price        string  `json:"price"`
	Availability string  `json:"availability"`
	Rating       float64 `json:"rating"`
}

// Fields returns the record keyed by its JSON field names.
func (r ProductRecord) Fields() map[string]any {
	return map[string]any{
		"product":      r.Product,
		"price":        r.Price,
		"availability": r.Availability,
		"rating":       r.Rating,
	}
}

// MarketTrendRecord describes market interest in a product.
type MarketTrendRecord struct {
	Product         string     `json:"product"`
	Trend           TrendLabel `json:"trend"`
	PopularityScore int        `json:"popularity_score"`
	MonthlySearches int        `json:"monthly_searches"`
}

// Fields returns the record keyed by its JSON field names.
func (r MarketTrendRecord) Fields() map[string]any {
	return map[string]any{
		"product":          r.Product,
		"trend":            string(r.Trend),
		"popularity_score": r.PopularityScore,
		"monthly_searches": r.MonthlySearches,
	}
}

// CompetitorRecord is a one-line competitive position summary.
type CompetitorRecord struct {
	Product              string   `json:"product"`
	MainCompetitors      []string `json:"main_competitors"`
	MarketShare          string   `json:"market_share"`
	CompetitiveAdvantage string   `json:"competitive_advantage"`
}

// FeedbackRecord summarises customer sentiment.
type FeedbackRecord struct {
	Product           string   `json:"product"`
	PositivePoints    []string `json:"positive_points"`
	NegativePoints    []string `json:"negative_points"`
	CommonIssues      []string `json:"common_issues"`
	SatisfactionScore int      `json:"satisfaction_score"`
}
