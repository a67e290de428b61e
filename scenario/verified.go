package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scttfrdmn/marketcrew/agenkit"
	"github.com/scttfrdmn/marketcrew/catalog"
	"github.com/scttfrdmn/marketcrew/crew"
	"github.com/scttfrdmn/marketcrew/tools"
)

// Task names of the verified crew.
const (
	TaskResearch        = "research"
	TaskProductAnalysis = "product_analysis"
	TaskQA              = "qa"
	TaskSummary         = "summary"
)

// VerifiedProduct is the product the verified crew analyses.
const VerifiedProduct = "iPhone"

// Verified is the crew whose analyses are cross-checked by a data quality
// checker before a summary is written.
func Verified(exec crew.Executor) *crew.Crew {
	analyst := marketAnalyst("Analyze market trends and product performance", tools.MarketTrendsTool())
	specialist := productSpecialist("Analyze product specifications and availability",
		`When describing product availability, always use the
exact phrase 'In Stock' when available.`,
		tools.ProductDataTool())
	checker := &crew.Agent{
		Role: "Data Quality Checker",
		Goal: "Create detailed side-by-side comparisons of data and verify accuracy",
		Backstory: `You are a data quality checker responsible for verifying 
that analysts are using correct data in their reports. Your primary task
is to compare the data from the analyses with the source data and present
a detailed side-by-side comparison table showing both sets of values.
You understand that minor format differences (like 'Available' vs 'In Stock') 
are acceptable as long as the meaning is the same, and you normalize these differences 
in your reporting to ensure consistency.`,
		Tools: []agenkit.Tool{tools.ProductDataTool(), tools.MarketTrendsTool()},
	}

	research := &crew.Task{
		Name: TaskResearch,
		Description: `Analyze the iPhone market trends and provide insights.
Be sure to include popularity metrics and comparison with industry averages.
Your final report should include:
1. Current trend status
2. Popularity score interpretation
3. Monthly search volume significance
To get market trends data, use the 'Fetch Market Trends' tool with 'iPhone' as the product.
IMPORTANT: When using the tool, simply pass the string "iPhone" directly.`,
		ExpectedOutput: `A comprehensive market trend analysis for iPhone including trend status, 
popularity score interpretation, and monthly search volume significance compared with industry averages.`,
		Agent: analyst,
	}
	productAnalysis := &crew.Task{
		Name: TaskProductAnalysis,
		Description: `Analyze the iPhone product details and provide a comprehensive report.
Focus on:
1. Price point analysis
2. Availability status
3. Customer rating significance
Compare with industry standards and provide recommendations.
To get product data, use the 'Fetch Product Data' tool with 'iPhone' as the product.
IMPORTANT: When using the tool, simply pass the string "iPhone" directly.
Be sure to use the exact availability description from the data ("In Stock" or "Out of Stock").`,
		ExpectedOutput: `A detailed product analysis for iPhone covering price point analysis, 
availability status, and customer rating significance, with comparisons to industry standards 
and actionable recommendations.`,
		Agent: specialist,
	}
	qaTask := &crew.Task{
		Name:           TaskQA,
		Description:    qaInstructions,
		ExpectedOutput: "A detailed data comparison in table format followed by a verification result (PASS/FAIL).",
		Agent:          checker,
		Context:        []*crew.Task{research, productAnalysis},
	}
	summary := &crew.Task{
		Name: TaskSummary,
		Description: `Create a final summary of the iPhone market and product analysis ONLY IF
the QA verification has passed.
If QA has passed, synthesize the key points from both the market and product analyses into
a concise executive summary highlighting the most important findings and recommendations.
If QA has failed, simply state that the summary cannot be provided until data issues are resolved.`,
		ExpectedOutput: `Either a concise executive summary of market and product analyses, 
or a statement that the summary is pending due to data verification issues.`,
		Agent:   analyst,
		Context: []*crew.Task{research, productAnalysis, qaTask},
	}

	return &crew.Crew{
		Agents:   []*crew.Agent{analyst, specialist, checker},
		Tasks:    []*crew.Task{research, productAnalysis, qaTask, summary},
		Process:  crew.ProcessSequential,
		Executor: exec,
	}
}

const qaInstructions = `Your job is to verify data accuracy by comparing the data points in the analyses with the source data.
1. First, you need to extract the key data points from both analyses:
   - From market analysis: trend status, popularity score, monthly searches
   - From product analysis: price, availability, rating
2. Then, use your tools to independently fetch the same data for iPhone:
   - First, use 'Fetch Market Trends' tool with "iPhone" as input
   - Then, use 'Fetch Product Data' tool with "iPhone" as input
3. Create a detailed side-by-side comparison:
   You MUST format your response as follows:

   ## DATA COMPARISON
   ### Market Analysis Data
   | Data Point | Value in Analysis | Value from Direct Fetch |
   |------------|-------------------|-------------------------|
   | Trend Status | (value) | (value) |
   | Popularity Score | (value) | (value) |
   | Monthly Searches | (value) | (value) |

   ### Product Analysis Data
   | Data Point | Value in Analysis | Value from Direct Fetch |
   |------------|-------------------|-------------------------|
   | Price | (value) | (value) |
   | Availability | (value) | (value) |
   | Rating | (value) | (value) |

   ## VERIFICATION RESULT
   (Write "QA PASSED" or "QA FAILED" here, followed by any discrepancies you found)

4. IMPORTANT: When comparing availability status, normalize the values:
   - "Available", "In Stock", "Available now", etc. are all considered equivalent
   - Similarly, normalize rating formats (e.g., "4.8/5" and "4.8" are equivalent)
   - For monthly searches, "45,000" and "45000" are equivalent
5. Only report QA FAILED if there's a genuine data discrepancy, not just format differences.
This exact format is required for the data tracking system - do not deviate from it.`

// Verdict is the crew-level reading of the quality checker's report.
type Verdict struct {
	Passed bool

	// Normalized is set when the checker failed the data only over
	// "Available" vs "In Stock" wording.
	Normalized bool

	Report string
}

// ReadVerdict interprets the checker's free text. An explicit "QA PASSED"
// passes. A "QA FAILED" whose only complaint is availability wording passes
// with Normalized set. Everything else fails.
func ReadVerdict(report string) Verdict {
	v := Verdict{Report: report}
	switch {
	case strings.Contains(report, "QA PASSED"):
		v.Passed = true
	case strings.Contains(report, "QA FAILED") &&
		strings.Contains(strings.ToLower(report), "availability") &&
		strings.Contains(report, "Available") &&
		strings.Contains(report, "In Stock"):
		v.Passed = true
		v.Normalized = true
	}
	return v
}

// Sections splits the report at its level-two "## " headings. Deeper
// headings stay inside their section.
func (v Verdict) Sections() []string {
	var sections []string
	var current []string
	flush := func() {
		if text := strings.TrimSpace(strings.Join(current, "\n")); text != "" {
			sections = append(sections, text)
		}
		current = nil
	}
	for _, line := range strings.Split(v.Report, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "## ") {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return sections
}

// VerifiedReport is the outcome of a verified run.
type VerifiedReport struct {
	Output  *crew.CrewOutput
	Verdict Verdict

	// Summary is empty when the verdict failed.
	Summary string
}

// RunVerified runs the verified crew and reads the checker's verdict.
func RunVerified(ctx context.Context, exec crew.Executor) (*VerifiedReport, error) {
	out, err := Verified(exec).Kickoff(ctx)
	if err != nil {
		return nil, fmt.Errorf("verified crew failed: %w", err)
	}

	qaOut, ok := out.Output(TaskQA)
	if !ok {
		return nil, fmt.Errorf("verified crew produced no %s output", TaskQA)
	}

	report := &VerifiedReport{Output: out, Verdict: ReadVerdict(qaOut.Raw)}
	if report.Verdict.Passed {
		if summary, ok := out.Output(TaskSummary); ok {
			report.Summary = summary.Raw
		}
	}
	return report, nil
}

// Reference holds the values a verified run is expected to report.
type Reference struct {
	Product catalog.ProductRecord     `json:"product_data"`
	Market  catalog.MarketTrendRecord `json:"market_trends"`
}

// ReferenceData fetches the expected values for product.
func ReferenceData(product string) Reference {
	return Reference{
		Product: catalog.Product(product),
		Market:  catalog.MarketTrends(product),
	}
}

// String renders the reference block printed before a verified run.
func (r Reference) String() string {
	product, _ := json.MarshalIndent(r.Product, "", "  ")
	market, _ := json.MarshalIndent(r.Market, "", "  ")

	var b strings.Builder
	b.WriteString("=== REFERENCE DATA (EXPECTED VALUES) ===\n")
	fmt.Fprintf(&b, "Product Data: %s\n", product)
	fmt.Fprintf(&b, "Market Trends: %s\n", market)
	b.WriteString(strings.Repeat("=", 50))
	return b.String()
}
