package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scttfrdmn/marketcrew/agenkit"
	"github.com/scttfrdmn/marketcrew/catalog"
)

// Tool names as they appear in agent prompts.
const (
	FetchProductData      = "Fetch Product Data"
	FetchMarketTrends     = "Fetch Market Trends"
	GetCompetitorAnalysis = "Get Competitor Analysis"
	GetCustomerFeedback   = "Get Customer Feedback"
)

// LookupFunc fetches one record for a product name.
type LookupFunc func(product string) any

// LookupTool exposes a catalog lookup through the tool contract. The record is
// returned as JSON text; failures become an "Error fetching ..." payload.
type LookupTool struct {
	name        string
	description string
	subject     string
	lookup      LookupFunc
}

var _ agenkit.Tool = (*LookupTool)(nil)

// NewLookupTool creates a tool around lookup. subject names the data in error
// payloads, e.g. "product data".
func NewLookupTool(name, description, subject string, lookup LookupFunc) *LookupTool {
	return &LookupTool{
		name:        name,
		description: description,
		subject:     subject,
		lookup:      lookup,
	}
}

// Name returns the tool name.
func (t *LookupTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *LookupTool) Description() string {
	return t.description
}

// Invoke resolves the product named by input and returns its record as JSON.
func (t *LookupTool) Invoke(ctx context.Context, input string) (result *agenkit.ToolResult) {
	product := ParseProductInput(input)

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "tool lookup panicked", "tool", t.name, "product", product, "panic", r)
			result = agenkit.NewToolError(fmt.Sprintf("Error fetching %s: %v", t.subject, r))
		}
	}()

	slog.DebugContext(ctx, "fetching "+t.subject, "tool", t.name, "product", product)

	data, err := json.Marshal(t.lookup(product))
	if err != nil {
		return agenkit.NewToolError(fmt.Sprintf("Error fetching %s: %v", t.subject, err))
	}
	return agenkit.NewToolResult(string(data)).WithMetadata("product", product)
}

// ParseProductInput extracts a product name from the loose inputs models send:
// a bare name, a JSON string, or a JSON object carrying "description" or
// "product".
func ParseProductInput(input string) string {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, `"`) {
		return trimmed
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return trimmed
	}

	switch v := parsed.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["description"].(string); ok {
			return s
		}
		if s, ok := v["product"].(string); ok {
			return s
		}
	}
	return trimmed
}

// ProductDataTool fetches pricing, availability and rating.
func ProductDataTool() *LookupTool {
	return NewLookupTool(
		FetchProductData,
		"Fetch product pricing, availability, and rating for a given product name.",
		"product data",
		func(p string) any { return catalog.Product(p) },
	)
}

// MarketTrendsTool fetches trend status and popularity metrics.
func MarketTrendsTool() *LookupTool {
	return NewLookupTool(
		FetchMarketTrends,
		"Fetch trend status and popularity metrics for the given product name.",
		"market trends",
		func(p string) any { return catalog.MarketTrends(p) },
	)
}

// CompetitorAnalysisTool fetches competitive analysis data.
func CompetitorAnalysisTool() *LookupTool {
	return NewLookupTool(
		GetCompetitorAnalysis,
		"Get competitive analysis data for a specific product.",
		"competitor analysis",
		func(p string) any { return catalog.Competitors(p) },
	)
}

// CustomerFeedbackTool fetches summarised customer feedback.
func CustomerFeedbackTool() *LookupTool {
	return NewLookupTool(
		GetCustomerFeedback,
		"Get summarized customer feedback for a specific product.",
		"customer feedback",
		func(p string) any { return catalog.Feedback(p) },
	)
}

// CatalogRegistry returns a registry holding the four catalog tools.
func CatalogRegistry() *ToolRegistry {
	return NewToolRegistry().MustRegister(
		ProductDataTool(),
		MarketTrendsTool(),
		CompetitorAnalysisTool(),
		CustomerFeedbackTool(),
	)
}
