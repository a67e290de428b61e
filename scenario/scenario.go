// Package scenario assembles the fixed smartphone-market crews.
package scenario

import (
	"fmt"
	"sort"

	"github.com/scttfrdmn/marketcrew/agenkit"
	"github.com/scttfrdmn/marketcrew/crew"
	"github.com/scttfrdmn/marketcrew/tools"
)

// Scenario names accepted by Build.
const (
	NameBasic    = "basic"
	NameStrategy = "strategy"
	NameVerified = "verified"
)

// Builder assembles a crew around an executor.
type Builder func(exec crew.Executor) *crew.Crew

var builders = map[string]Builder{
	NameBasic:    Basic,
	NameStrategy: Strategy,
	NameVerified: Verified,
}

// Names returns the known scenario names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build returns the named crew.
func Build(name string, exec crew.Executor) (*crew.Crew, error) {
	builder, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (available: %v)", name, Names())
	}
	return builder(exec), nil
}

const (
	analystBackstory = `You are an experienced market analyst with expertise in 
consumer electronics. You provide detailed analysis of product performance 
and market trends to help guide business decisions.`

	specialistBackstory = `You are a product specialist with deep knowledge of consumer 
electronics. Your expertise helps companies understand product details
and market positioning.`
)

func marketAnalyst(goal string, toolset ...agenkit.Tool) *crew.Agent {
	return &crew.Agent{
		Role:      "Market Research Analyst",
		Goal:      goal,
		Backstory: analystBackstory,
		Tools:     toolset,
	}
}

func productSpecialist(goal, extra string, toolset ...agenkit.Tool) *crew.Agent {
	backstory := specialistBackstory
	if extra != "" {
		backstory += " " + extra
	}
	return &crew.Agent{
		Role:      "Product Specialist",
		Goal:      goal,
		Backstory: backstory,
		Tools:     toolset,
	}
}

// Basic is the two-agent crew comparing iPhone, Samsung Galaxy and Google
// Pixel with all four catalog tools.
func Basic(exec crew.Executor) *crew.Crew {
	analyst := marketAnalyst("Analyze market trends and provide strategic insights",
		tools.MarketTrendsTool(), tools.CompetitorAnalysisTool())
	specialist := productSpecialist("Analyze product specifications and consumer demand", "",
		tools.ProductDataTool(), tools.CustomerFeedbackTool())

	marketAnalysis := &crew.Task{
		Name: "market_analysis",
		Description: `Analyze the smartphone market trends with a focus on iPhone, Samsung Galaxy, and Google Pixel.
Be sure to include:
1. Current trend status for all three products
2. Popularity score interpretation
3. Monthly search volume comparison
4. Competitive landscape analysis
Your analysis should be comprehensive and backed by data.`,
		ExpectedOutput: "A data-backed market trend analysis of iPhone, Samsung Galaxy and Google Pixel.",
		Agent:          analyst,
	}
	productAnalysis := &crew.Task{
		Name: "product_analysis",
		Description: `Analyze the iPhone, Samsung Galaxy, and Google Pixel product details and customer feedback.
Focus on:
1. Price point comparison
2. Availability status
3. Customer rating and satisfaction scores
4. Key positive and negative feedback points
Compare these products and identify their strengths and weaknesses.`,
		ExpectedOutput: "A comparison of the three products with their strengths and weaknesses.",
		Agent:          specialist,
	}

	return &crew.Crew{
		Agents:   []*crew.Agent{analyst, specialist},
		Tasks:    []*crew.Task{marketAnalysis, productAnalysis},
		Process:  crew.ProcessSequential,
		Executor: exec,
	}
}

// Strategy is the four-agent crew ending in business recommendations. The
// advisor has no tools and works only from the earlier outputs.
func Strategy(exec crew.Executor) *crew.Crew {
	analyst := marketAnalyst("Analyze market trends and provide strategic insights",
		tools.MarketTrendsTool(), tools.CompetitorAnalysisTool())
	specialist := productSpecialist("Analyze product specifications and consumer demand", "",
		tools.ProductDataTool(), tools.CustomerFeedbackTool())
	strategist := &crew.Agent{
		Role: "Marketing Strategist",
		Goal: "Develop effective marketing strategies based on market and product data",
		Backstory: `You are a marketing expert who specializes in creating 
data-driven marketing strategies. You understand how to position products 
in competitive markets and highlight key selling points.`,
		Tools: []agenkit.Tool{tools.CompetitorAnalysisTool(), tools.CustomerFeedbackTool()},
	}
	advisor := &crew.Agent{
		Role: "Business Strategy Advisor",
		Goal: "Synthesize insights and provide actionable business recommendations",
		Backstory: `You are a seasoned business consultant who helps companies make 
strategic decisions. You excel at integrating various data points and analyses 
to form coherent business strategies.`,
	}

	marketAnalysis := &crew.Task{
		Name: "market_analysis",
		Description: `Analyze the smartphone market trends with a focus on iPhone and Samsung Galaxy.
Be sure to include:
1. Current trend status for both products
2. Popularity score interpretation
3. Monthly search volume comparison
4. Competitive landscape analysis
Your output will be used by the business advisor to form recommendations.`,
		ExpectedOutput: "A market trend analysis of iPhone and Samsung Galaxy.",
		Agent:          analyst,
	}
	productAnalysis := &crew.Task{
		Name: "product_analysis",
		Description: `Analyze the iPhone and Samsung Galaxy product details and customer feedback.
Focus on:
1. Price point comparison
2. Availability status
3. Customer rating and satisfaction scores
4. Key positive and negative feedback points
Compare these products and identify their strengths and weaknesses.`,
		ExpectedOutput: "A product comparison of iPhone and Samsung Galaxy.",
		Agent:          specialist,
	}
	marketingStrategy := &crew.Task{
		Name: "marketing_strategy",
		Description: `Develop marketing strategy recommendations for a smartphone manufacturer
looking to compete with iPhone and Samsung Galaxy. Use competitor analysis and customer 
feedback to identify:
1. Key differentiators to emphasize
2. Target audience segments
3. Positioning strategy
4. Marketing message priorities
Your strategies should be data-driven and actionable.`,
		ExpectedOutput: "Data-driven marketing strategy recommendations.",
		Agent:          strategist,
		Context:        []*crew.Task{marketAnalysis, productAnalysis},
	}
	recommendations := &crew.Task{
		Name: "business_recommendations",
		Description: `Based on the market analysis, product analysis, and marketing strategy,
develop comprehensive business recommendations for a smartphone manufacturer. Include:
1. Product development priorities
2. Market positioning strategy
3. Competitive strategy
4. Key investment areas
5. Risk assessment and mitigation strategies
Your recommendations should be specific, actionable, and backed by the data provided.`,
		ExpectedOutput: "Specific, actionable business recommendations.",
		Agent:          advisor,
		Context:        []*crew.Task{marketAnalysis, productAnalysis, marketingStrategy},
	}

	return &crew.Crew{
		Agents:   []*crew.Agent{analyst, specialist, strategist, advisor},
		Tasks:    []*crew.Task{marketAnalysis, productAnalysis, marketingStrategy, recommendations},
		Process:  crew.ProcessSequential,
		Executor: exec,
	}
}
