package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scttfrdmn/marketcrew/crew"
	"github.com/scttfrdmn/marketcrew/qa"
	"github.com/scttfrdmn/marketcrew/scenario"
	"github.com/scttfrdmn/marketcrew/tools"
)

// Response is the JSON body returned for a chat message.
type Response struct {
	Response      string         `json:"response"`
	Data          map[string]any `json:"data,omitempty"`
	ProductData   map[string]any `json:"product_data,omitempty"`
	MarketData    map[string]any `json:"market_data,omitempty"`
	ThinkingSteps []ThinkingStep `json:"thinking_steps"`
	QAResult      *qa.Result     `json:"qa_result,omitempty"`
	Category      Category       `json:"category"`
	Product       string         `json:"product"`
	SessionID     string         `json:"session_id,omitempty"`

	// Fallback is set when the agent pipeline failed and the answer was
	// built from the lookups alone.
	Fallback bool `json:"fallback,omitempty"`
}

// Responder answers chat messages. Without an executor every answer comes
// straight from the catalog tools; with one, an agent crew writes the answer
// and the lookups back it up for QA.
type Responder struct {
	registry *tools.ToolRegistry
	executor crew.Executor
	strategy ThinkingStrategy
}

// Option configures a Responder.
type Option func(*Responder)

// WithExecutor runs answers through an agent crew.
func WithExecutor(exec crew.Executor) Option {
	return func(r *Responder) {
		r.executor = exec
	}
}

// WithStrategy sets how thinking steps are produced.
func WithStrategy(strategy ThinkingStrategy) Option {
	return func(r *Responder) {
		r.strategy = strategy
	}
}

// WithRegistry replaces the catalog tool registry.
func WithRegistry(registry *tools.ToolRegistry) Option {
	return func(r *Responder) {
		r.registry = registry
	}
}

// NewResponder creates a responder over the catalog tools.
func NewResponder(opts ...Option) *Responder {
	r := &Responder{
		registry: tools.CatalogRegistry(),
		strategy: Synthesized,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strategy returns the configured thinking strategy.
func (r *Responder) Strategy() ThinkingStrategy {
	return r.strategy
}

// Respond classifies the query, fetches the data, narrates and verifies.
func (r *Responder) Respond(ctx context.Context, query string) (*Response, error) {
	category := Classify(query)
	product := ExtractProduct(query)
	slog.DebugContext(ctx, "chat query classified", "category", category, "product", product)

	resp := &Response{Category: category, Product: product}
	if err := r.lookup(ctx, resp); err != nil {
		return nil, err
	}

	var agentText string
	if r.executor != nil {
		out, err := scenario.Chat(r.executor, query, product, string(category)).Kickoff(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "agent pipeline failed, answering from lookups", "product", product, "error", err)
			resp.Fallback = true
			resp.ThinkingSteps = []ThinkingStep{{
				Step:    "Error Recovery",
				Content: fmt.Sprintf("The agent pipeline failed (%v), so this answer was built directly from the %s lookup data.", err, product),
			}}
		} else {
			if answer := strings.TrimSpace(out.Raw()); answer != "" {
				resp.Response = answer
			}
			agentText = out.Transcript()
		}
	}

	if !resp.Fallback {
		resp.ThinkingSteps = Narrate(r.strategy, product, category, agentText)
	}

	resp.QAResult = qa.Verify(qa.Payload{Data: resp.Data, ProductData: resp.ProductData, MarketData: resp.MarketData})
	if resp.QAResult != nil && !resp.QAResult.Passed {
		slog.WarnContext(ctx, "qa verification failed", "product", product, "message", resp.QAResult.Message)
	}
	return resp, nil
}

// lookup fills the data blocks and the templated answer for the category.
func (r *Responder) lookup(ctx context.Context, resp *Response) error {
	product := resp.Product

	if resp.Category == CategoryComprehensive {
		productData, err := r.fetch(ctx, tools.FetchProductData, product)
		if err != nil {
			return err
		}
		marketData, err := r.fetch(ctx, tools.FetchMarketTrends, product)
		if err != nil {
			return err
		}
		resp.ProductData = productData
		resp.MarketData = marketData
		resp.Response = fmt.Sprintf("Here's what I found about the %s:\n\n"+
			"Price: %s\nAvailability: %s\nRating: %s out of 5\n\n"+
			"Market Trends:\nTrend: %s\nPopularity Score: %s\nMonthly Searches: %s",
			product,
			field(productData, "price"), field(productData, "availability"), field(productData, "rating"),
			field(marketData, "trend"), field(marketData, "popularity_score"), field(marketData, "monthly_searches"))
		return nil
	}

	toolName := tools.FetchProductData
	if resp.Category == CategoryMarket {
		toolName = tools.FetchMarketTrends
	}
	data, err := r.fetch(ctx, toolName, product)
	if err != nil {
		return err
	}
	resp.Data = data

	switch resp.Category {
	case CategoryPrice:
		resp.Response = fmt.Sprintf("The %s is priced at %s.", product, field(data, "price"))
	case CategoryAvailability:
		resp.Response = fmt.Sprintf("The %s is currently %s.", product, field(data, "availability"))
	case CategoryRating:
		resp.Response = fmt.Sprintf("The %s has a rating of %s out of 5.", product, field(data, "rating"))
	case CategoryMarket:
		resp.Response = fmt.Sprintf("The %s is currently showing a %s trend with a popularity score of %s and %s monthly searches.",
			product, field(data, "trend"), field(data, "popularity_score"), field(data, "monthly_searches"))
	}
	return nil
}

// fetch invokes a registered tool and decodes its JSON payload. A failed tool
// yields a degraded record carrying the error text.
func (r *Responder) fetch(ctx context.Context, name, product string) (map[string]any, error) {
	tool, ok := r.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool '%s' is not registered", name)
	}

	result := tool.Invoke(ctx, product)
	if !result.Success {
		slog.WarnContext(ctx, "lookup failed", "tool", name, "product", product, "error", result.Error)
		return map[string]any{"product": product, "error": result.String()}, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(result.String()), &data); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", name, err)
	}
	return data, nil
}

func field(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok {
		return "unknown"
	}
	return qa.Stringify(v)
}
