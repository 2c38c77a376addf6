// Package bridge connects model tool calls to the research agent: it
// executes requested research functions, narrates progress on the
// roundtable, and resubmits results so the model can finish its turn.
package bridge

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/run-bigpig/consilium/internal/backend"
)

// Research function names exposed to tool-capable models.
const (
	FnSearchWeb            = "search_web"
	FnSearchWikipedia      = "search_wikipedia"
	FnSearchAcademic       = "search_academic"
	FnSearchTechTrends     = "search_technology_trends"
	FnSearchFinancialData  = "search_financial_data"
	FnMultiSourceResearch  = "multi_source_research"
	FnHistoricalMarketData = "get_historical_market_data"
	FnMarketComparison     = "get_market_comparison"
	FnMarketOverview       = "get_market_overview_data"
)

// Catalog returns the tool definitions advertised to every tool-capable
// model.
func Catalog() []backend.ToolDefinition {
	return []backend.ToolDefinition{
		{
			Name:        FnSearchWeb,
			Description: "Search the web for current information on any topic. Use search_depth \"deep\" for comprehensive multi-source research.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query"},
					"search_depth": {"type": "string", "enum": ["standard", "deep"], "description": "Research depth"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        FnSearchWikipedia,
			Description: "Look up encyclopedic background, definitions and history for a topic.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"topic": {"type": "string", "description": "The topic to look up"}
				},
				"required": ["topic"]
			}`),
		},
		{
			Name:        FnSearchAcademic,
			Description: "Search academic papers and scientific research on a topic.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The research topic"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        FnSearchTechTrends,
			Description: "Analyze adoption and development activity for a technology or framework.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"technology": {"type": "string", "description": "The technology to analyze"}
				},
				"required": ["technology"]
			}`),
		},
		{
			Name:        FnSearchFinancialData,
			Description: "Retrieve official financial filings and company data.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"company": {"type": "string", "description": "The company name or ticker"}
				},
				"required": ["company"]
			}`),
		},
		{
			Name:        FnMultiSourceResearch,
			Description: "Run comprehensive research across multiple sources with quality assessment. Use for complex questions that deserve thorough evidence.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The research question"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        FnHistoricalMarketData,
			Description: "Retrieve historical market data and analysis for a tracked instrument (raw materials or technology stocks).",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"instrument": {"type": "string", "description": "Instrument name, e.g. gold, copper, AAPL"},
					"date_range": {"type": "string", "description": "Period such as 6m, 1y, 5y"},
					"analysis_type": {"type": "string", "enum": ["trend", "volatility", "performance"], "description": "Analysis focus"}
				},
				"required": ["instrument"]
			}`),
		},
		{
			Name:        FnMarketComparison,
			Description: "Compare several tracked instruments side by side.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"instruments": {"type": "array", "items": {"type": "string"}, "description": "Instruments to compare"},
					"timeframe": {"type": "string", "description": "Comparison window, e.g. 1y"},
					"metric": {"type": "string", "description": "Comparison metric, e.g. price_change"}
				},
				"required": ["instruments"]
			}`),
		},
		{
			Name:        FnMarketOverview,
			Description: "Get an overview of all tracked market instruments.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"include_analysis": {"type": "boolean", "description": "Include a category analysis"}
				}
			}`),
		},
	}
}

// timeEstimates feed the research-request narration so the roundtable shows
// how long a lookup usually takes.
var timeEstimates = map[string]string{
	FnSearchWeb:            "10-20 seconds",
	FnSearchWikipedia:      "5-10 seconds",
	FnSearchAcademic:       "10-20 seconds",
	FnSearchTechTrends:     "10-15 seconds",
	FnSearchFinancialData:  "10-15 seconds",
	FnMultiSourceResearch:  "30-60 seconds",
	FnHistoricalMarketData: "5-10 seconds",
	FnMarketComparison:     "5-10 seconds",
	FnMarketOverview:       "5-10 seconds",
}

var titleCaser = cases.Title(language.English)

// humanizeFunction turns a function name into the display form used in
// narration, e.g. "search_web" becomes "Search Web".
func humanizeFunction(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

func estimateFor(name string) string {
	if est, ok := timeEstimates[name]; ok {
		return est
	}
	return "10-30 seconds"
}
