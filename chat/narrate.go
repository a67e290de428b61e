package chat

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/scttfrdmn/marketcrew/catalog"
	"github.com/scttfrdmn/marketcrew/qa"
	"github.com/scttfrdmn/marketcrew/tools"
)

// ThinkingStep is one entry of the reasoning trace shown to the user.
type ThinkingStep struct {
	Step    string `json:"step"`
	Content string `json:"content"`
}

// ThinkingStrategy selects how the trace is produced.
type ThinkingStrategy string

const (
	// Synthesized builds the trace from templates for the query category.
	Synthesized ThinkingStrategy = "synthesized"

	// ParsedFromText recovers the trace from an agent's free-text output.
	ParsedFromText ThinkingStrategy = "parsed"
)

// ParseThinkingStrategy accepts "synthesized" or "parsed".
func ParseThinkingStrategy(s string) (ThinkingStrategy, error) {
	switch ThinkingStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case Synthesized, "":
		return Synthesized, nil
	case ParsedFromText, "parsed_from_text":
		return ParsedFromText, nil
	default:
		return "", fmt.Errorf("unknown thinking strategy %q", s)
	}
}

// Industry averages quoted in the market trace.
const (
	averagePopularity = 75
	averageSearches   = 25000
)

// Narrate produces the thinking steps for an answer. ParsedFromText falls back
// to the synthesized trace when there is no agent text.
func Narrate(strategy ThinkingStrategy, product string, category Category, agentText string) []ThinkingStep {
	if strategy == ParsedFromText && strings.TrimSpace(agentText) != "" {
		return ParseThinking(agentText)
	}
	return Synthesize(product, category)
}

// Synthesize builds the templated trace for a product and category.
func Synthesize(product string, category Category) []ThinkingStep {
	steps := []ThinkingStep{{
		Step: "Initial Analysis",
		Content: fmt.Sprintf("I need to analyze the user's query about %s. Based on the query, I should focus on %s information.",
			product, category),
	}}

	switch {
	case category.IsProduct():
		data := catalog.Product(product)
		steps = append(steps,
			ThinkingStep{
				Step:    "Data Retrieval Plan",
				Content: fmt.Sprintf("I'll need to fetch product data for %s to get accurate %s information.", product, category),
			},
			executing("Executing Tool", tools.FetchProductData, product),
			ThinkingStep{
				Step: "Data Analysis",
				Content: fmt.Sprintf("Received product data: %s\n\nThe %s information is: %s",
					indent(data), category, qa.Stringify(data.Fields()[string(category)])),
			},
		)

	case category == CategoryMarket:
		data := catalog.MarketTrends(product)
		steps = append(steps,
			ThinkingStep{
				Step:    "Data Retrieval Plan",
				Content: fmt.Sprintf("I'll need to fetch market trend data for %s to understand its market position and popularity.", product),
			},
			executing("Executing Tool", tools.FetchMarketTrends, product),
			ThinkingStep{
				Step: "Data Analysis",
				Content: fmt.Sprintf("Received market data: %s\n\nAnalyzing key points:\n- Trend status: %s\n- Popularity score: %d/100\n- Monthly searches: %d",
					indent(data), data.Trend, data.PopularityScore, data.MonthlySearches),
			},
			ThinkingStep{
				Step: "Industry Comparison",
				Content: fmt.Sprintf("Comparing with industry averages:\n- Average smartphone popularity score: %d/100\n- Average monthly searches: 25,000\n\nThis indicates that the %s is performing %s in the market.",
					averagePopularity, product, standing(data)),
			},
		)

	default:
		productData := catalog.Product(product)
		marketData := catalog.MarketTrends(product)
		steps = append(steps,
			ThinkingStep{
				Step:    "Comprehensive Analysis Plan",
				Content: fmt.Sprintf("I need to retrieve both product specifications and market trend data for %s to provide a complete overview.", product),
			},
			executing("Executing Product Data Tool", tools.FetchProductData, product),
			ThinkingStep{Step: "Product Data Analysis", Content: "Received product data: " + indent(productData)},
			executing("Executing Market Trends Tool", tools.FetchMarketTrends, product),
			ThinkingStep{Step: "Market Data Analysis", Content: "Received market data: " + indent(marketData)},
			ThinkingStep{
				Step: "Synthesizing Information",
				Content: fmt.Sprintf("Combining product and market data to generate a comprehensive overview of %s.\n\n"+
					"Key points:\n"+
					"- Premium price point of %s\n"+
					"- Customer satisfaction rating of %s/5\n"+
					"- %s market trend with popularity score of %d/100\n"+
					"- High monthly search volume of %d\n\n"+
					"These factors together indicate that %s is a popular, premium product with strong market presence.",
					product, productData.Price, qa.Stringify(productData.Rating),
					marketData.Trend, marketData.PopularityScore, marketData.MonthlySearches, product),
			},
		)
	}

	return append(steps, ThinkingStep{
		Step:    "Response Formulation",
		Content: "Formulating a clear and concise response based on the analyzed data.",
	})
}

func executing(step, tool, product string) ThinkingStep {
	return ThinkingStep{Step: step, Content: fmt.Sprintf("Calling '%s' tool with product = '%s'", tool, product)}
}

func standing(data catalog.MarketTrendRecord) string {
	switch {
	case data.PopularityScore > averagePopularity && data.MonthlySearches > averageSearches:
		return "above average"
	case data.PopularityScore < averagePopularity && data.MonthlySearches < averageSearches:
		return "below average"
	default:
		return "close to average"
	}
}

func indent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

var stepPatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"Thought", regexp.MustCompile(`(?m)^[ \t]*Thought:[ \t]*(.+)$`)},
	{"Action", regexp.MustCompile(`(?m)^[ \t]*Action:[ \t]*(.+)$`)},
	{"Action Input", regexp.MustCompile(`(?m)^[ \t]*Action Input:[ \t]*(.+)$`)},
	{"Observation", regexp.MustCompile(`(?m)^[ \t]*Observation:[ \t]*(.+)$`)},
	{"Final Answer", regexp.MustCompile(`(?ms)^[ \t]*Final Answer:[ \t]*(.+?)\s*(?:\z|^[ \t]*Thought:)`)},
}

var numberedLine = regexp.MustCompile(`(?m)^[ \t]*\d+[\.)][ \t]*(.+)$`)

// ParseThinking recovers steps from agent text. Marker lines are returned in
// the order they appear; without markers each numbered line becomes a step;
// failing that the whole text is one "Agent Output" step.
func ParseThinking(text string) []ThinkingStep {
	type match struct {
		pos  int
		step ThinkingStep
	}
	var matches []match
	for _, p := range stepPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			content := strings.TrimSpace(text[m[2]:m[3]])
			if content == "" {
				continue
			}
			matches = append(matches, match{pos: m[0], step: ThinkingStep{Step: p.label, Content: content}})
		}
	}
	if len(matches) > 0 {
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
		steps := make([]ThinkingStep, len(matches))
		for i, m := range matches {
			steps[i] = m.step
		}
		return steps
	}

	if lines := numberedLine.FindAllStringSubmatch(text, -1); len(lines) > 0 {
		steps := make([]ThinkingStep, 0, len(lines))
		for i, line := range lines {
			steps = append(steps, ThinkingStep{Step: fmt.Sprintf("Step %d", i+1), Content: strings.TrimSpace(line[1])})
		}
		return steps
	}

	return []ThinkingStep{{Step: "Agent Output", Content: strings.TrimSpace(text)}}
}
