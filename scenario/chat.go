package scenario

import (
	"fmt"

	"github.com/scttfrdmn/marketcrew/agenkit"
	"github.com/scttfrdmn/marketcrew/crew"
	"github.com/scttfrdmn/marketcrew/tools"
)

// Chat is the one-task crew behind a chat answer: an analyst with product and
// market tools answers the user's question about product, focusing on focus.
func Chat(exec crew.Executor, question, product, focus string) *crew.Crew {
	analyst := &crew.Agent{
		Role: "Smartphone Market Assistant",
		Goal: "Answer customer questions about smartphones accurately using the product and market data tools",
		Backstory: `You are a market analyst who answers customer questions in a few clear sentences.
You always look the figures up with your tools and quote them exactly as returned.
When describing product availability, always use the exact phrase 'In Stock' when available.`,
		Tools: []agenkit.Tool{tools.ProductDataTool(), tools.MarketTrendsTool()},
	}

	answer := &crew.Task{
		Name: "answer",
		Description: fmt.Sprintf(`A customer asked: %q
The question is about %s and is focused on %s information.
Use the tools with %q as the product and answer the question.`, question, product, focus, product),
		ExpectedOutput: "A short, direct answer quoting the exact figures returned by the tools.",
		Agent:          analyst,
	}

	return &crew.Crew{
		Agents:   []*crew.Agent{analyst},
		Tasks:    []*crew.Task{answer},
		Process:  crew.ProcessSequential,
		Executor: exec,
	}
}
