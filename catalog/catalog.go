package catalog

import (
	"slices"
	"strings"
)

// UnknownProduct is the name used when a query mentions no known product.
const UnknownProduct = "unknown product"

// keys lists the known products in their canonical order.
var keys = []string{"iphone", "samsung galaxy", "google pixel"}

var products = map[string]ProductRecord{
	"iphone":         {Product: "iPhone", Price: "$999", Availability: "In Stock", Rating: 4.8},
	"samsung galaxy": {Product: "Samsung Galaxy", Price: "$899", Availability: "In Stock", Rating: 4.6},
	"google pixel":   {Product: "Google Pixel", Price: "$799", Availability: "Limited Stock", Rating: 4.5},
}

var trends = map[string]MarketTrendRecord{
	"iphone":         {Product: "iPhone", Trend: TrendRising, PopularityScore: 92, MonthlySearches: 45000},
	"samsung galaxy": {Product: "Samsung Galaxy", Trend: TrendStable, PopularityScore: 85, MonthlySearches: 38000},
	"google pixel":   {Product: "Google Pixel", Trend: TrendRising, PopularityScore: 78, MonthlySearches: 25000},
}

var competitors = map[string]CompetitorRecord{
	"iphone": {
		Product:              "iPhone",
		MainCompetitors:      []string{"Samsung Galaxy", "Google Pixel", "Xiaomi"},
		MarketShare:          "23%",
		CompetitiveAdvantage: "Brand loyalty and ecosystem integration",
	},
	"samsung galaxy": {
		Product:              "Samsung Galaxy",
		MainCompetitors:      []string{"iPhone", "Google Pixel", "OnePlus"},
		MarketShare:          "19%",
		CompetitiveAdvantage: "Hardware innovation and display technology",
	},
	"google pixel": {
		Product:              "Google Pixel",
		MainCompetitors:      []string{"iPhone", "Samsung Galaxy", "OnePlus"},
		MarketShare:          "8%",
		CompetitiveAdvantage: "Camera technology and software experience",
	},
}

var feedback = map[string]FeedbackRecord{
	"iphone": {
		Product:           "iPhone",
		PositivePoints:    []string{"Camera quality", "Performance", "Ecosystem"},
		NegativePoints:    []string{"Battery life", "Price", "Charging speed"},
		CommonIssues:      []string{"Screen durability", "Storage limitations"},
		SatisfactionScore: 87,
	},
	"samsung galaxy": {
		Product:           "Samsung Galaxy",
		PositivePoints:    []string{"Display quality", "Customization", "Camera versatility"},
		NegativePoints:    []string{"Software updates", "Bloatware"},
		CommonIssues:      []string{"Battery degradation", "Overheating during gaming"},
		SatisfactionScore: 83,
	},
	"google pixel": {
		Product:           "Google Pixel",
		PositivePoints:    []string{"Camera quality", "Clean software", "Updates"},
		NegativePoints:    []string{"Battery life", "Limited availability"},
		CommonIssues:      []string{"Screen brightness", "Overheating"},
		SatisfactionScore: 81,
	},
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Known reports whether name matches a product in the tables.
func Known(name string) bool {
	_, ok := products[key(name)]
	return ok
}

// Names returns the display names of the known products in canonical order.
func Names() []string {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, products[k].Product)
	}
	return names
}

// Find returns the display name of the first known product mentioned in text.
func Find(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, k := range keys {
		if strings.Contains(lower, k) {
			return products[k].Product, true
		}
	}
	return "", false
}

// Product returns pricing data for name.
func Product(name string) ProductRecord {
	if r, ok := products[key(name)]; ok {
		return r
	}
	return ProductRecord{Product: name, Price: "$199", Availability: "Out of Stock", Rating: 3.5}
}

// MarketTrends returns market trend data for name.
func MarketTrends(name string) MarketTrendRecord {
	if r, ok := trends[key(name)]; ok {
		return r
	}
	return MarketTrendRecord{Product: name, Trend: TrendStable, PopularityScore: 70, MonthlySearches: 12000}
}

// Competitors returns competitive analysis for name.
func Competitors(name string) CompetitorRecord {
	if r, ok := competitors[key(name)]; ok {
		r.MainCompetitors = slices.Clone(r.MainCompetitors)
		return r
	}
	return CompetitorRecord{
		Product:              name,
		MainCompetitors:      []string{"Various brands"},
		MarketShare:          "5%",
		CompetitiveAdvantage: "Price point",
	}
}

// Feedback returns summarised customer feedback for name.
func Feedback(name string) FeedbackRecord {
	if r, ok := feedback[key(name)]; ok {
		r.PositivePoints = slices.Clone(r.PositivePoints)
		r.NegativePoints = slices.Clone(r.NegativePoints)
		r.CommonIssues = slices.Clone(r.CommonIssues)
		return r
	}
	return FeedbackRecord{
		Product:           name,
		PositivePoints:    []string{"Affordable", "Basic functionality"},
		NegativePoints:    []string{"Performance", "Build quality"},
		CommonIssues:      []string{"Short lifespan", "Limited support"},
		SatisfactionScore: 65,
	}
}
