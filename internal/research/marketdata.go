package research

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// instrumentInfo describes one entry of the embedded market catalog.
type instrumentInfo struct {
	Name       string
	Category   string // "raw_material" or "tech_stock"
	Unit       string
	BasePrice  float64
	Volatility float64 // relative monthly swing
}

// marketCatalog is the embedded reference dataset used when no external
// market feed is configured. Prices are indicative period baselines.
var marketCatalog = map[string]instrumentInfo{
	"gold":        {"Gold", "raw_material", "USD/oz", 2350, 0.04},
	"silver":      {"Silver", "raw_material", "USD/oz", 29, 0.07},
	"copper":      {"Copper", "raw_material", "USD/lb", 4.4, 0.06},
	"lithium":     {"Lithium Carbonate", "raw_material", "USD/t", 13500, 0.12},
	"cobalt":      {"Cobalt", "raw_material", "USD/t", 26000, 0.10},
	"nickel":      {"Nickel", "raw_material", "USD/t", 16800, 0.08},
	"aluminum":    {"Aluminum", "raw_material", "USD/t", 2550, 0.05},
	"crude_oil":   {"Crude Oil WTI", "raw_material", "USD/bbl", 78, 0.09},
	"natural_gas": {"Natural Gas", "raw_material", "USD/MMBtu", 2.6, 0.14},
	"uranium":     {"Uranium", "raw_material", "USD/lb", 85, 0.08},
	"platinum":    {"Platinum", "raw_material", "USD/oz", 980, 0.06},
	"palladium":   {"Palladium", "raw_material", "USD/oz", 1020, 0.10},
	"aapl":        {"Apple Inc.", "tech_stock", "USD", 225, 0.06},
	"msft":        {"Microsoft Corp.", "tech_stock", "USD", 430, 0.05},
	"googl":       {"Alphabet Inc.", "tech_stock", "USD", 175, 0.06},
	"amzn":        {"Amazon.com Inc.", "tech_stock", "USD", 190, 0.07},
	"nvda":        {"NVIDIA Corp.", "tech_stock", "USD", 125, 0.12},
	"tsla":        {"Tesla Inc.", "tech_stock", "USD", 240, 0.14},
	"meta":        {"Meta Platforms Inc.", "tech_stock", "USD", 520, 0.08},
}

// MarketDataCollaborator serves historical market analysis from an embedded
// deterministic dataset. Series are reproducible per instrument so repeated
// queries within a discussion stay consistent.
type MarketDataCollaborator struct {
	name string
}

func NewMarketDataCollaborator() *MarketDataCollaborator {
	return &MarketDataCollaborator{name: "Market Data"}
}

func (m *MarketDataCollaborator) Name() string   { return m.name }
func (m *MarketDataCollaborator) Source() string { return SourceMarketData }

func (m *MarketDataCollaborator) ShouldUseForQuery(query string) bool {
	lower := strings.ToLower(query)
	if !containsAny(lower, []string{"historical", "price history", "market data", "performance", "trend", "volatility"}) {
		return false
	}
	for key, info := range marketCatalog {
		if strings.Contains(lower, key) || strings.Contains(lower, strings.ToLower(info.Name)) {
			return true
		}
	}
	return false
}

func (m *MarketDataCollaborator) Search(ctx context.Context, query string, opts Options) (string, error) {
	instrument := matchInstrument(query)
	if instrument == "" {
		return fmt.Sprintf("**Market Data Research for: %s**\n\nNo tracked instrument matched this query. Tracked instruments: %s.\n",
			query, strings.Join(catalogKeys(), ", ")), nil
	}
	analysis := opts.AnalysisType
	if analysis == "" {
		analysis = "trend"
	}
	return m.Analyze(instrument, opts.DateRange, analysis), nil
}

// Analyze produces a single-instrument report over the requested date range.
func (m *MarketDataCollaborator) Analyze(instrument, dateRange, analysisType string) string {
	key := strings.ToLower(strings.TrimSpace(instrument))
	info, ok := marketCatalog[key]
	if !ok {
		key = matchInstrument(instrument)
		if key == "" {
			return fmt.Sprintf("**Market Data Research for: %s**\n\nInstrument not tracked. Tracked instruments: %s.\n",
				instrument, strings.Join(catalogKeys(), ", "))
		}
		info = marketCatalog[key]
	}
	months := rangeMonths(dateRange)
	series := syntheticSeries(key, info, months)

	first, last := series[0], series[len(series)-1]
	change := (last - first) / first * 100
	high, low := series[0], series[0]
	for _, v := range series {
		high = math.Max(high, v)
		low = math.Min(low, v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Historical Market Data: %s**\n\n", info.Name)
	fmt.Fprintf(&b, "Analysis type: %s\n", analysisType)
	fmt.Fprintf(&b, "Period: last %d months\n", months)
	fmt.Fprintf(&b, "Category: %s\n\n", info.Category)
	fmt.Fprintf(&b, "- Period start: %.2f %s\n", first, info.Unit)
	fmt.Fprintf(&b, "- Period end: %.2f %s\n", last, info.Unit)
	fmt.Fprintf(&b, "- Change: %+.1f%%\n", change)
	fmt.Fprintf(&b, "- Period high: %.2f %s\n", high, info.Unit)
	fmt.Fprintf(&b, "- Period low: %.2f %s\n", low, info.Unit)
	fmt.Fprintf(&b, "- Realized volatility: %.1f%% monthly\n\n", realizedVolatility(series)*100)

	switch analysisType {
	case "volatility":
		fmt.Fprintf(&b, "Volatility assessment: swings of %.1f%% per month place %s in the %s band for its category.\n",
			realizedVolatility(series)*100, info.Name, volatilityBand(realizedVolatility(series)))
	case "performance":
		fmt.Fprintf(&b, "Performance assessment: a %+.1f%% move over %d months annualizes to roughly %+.1f%%.\n",
			change, months, change/float64(months)*12)
	default:
		fmt.Fprintf(&b, "Trend assessment: %s over the period, measured across %d monthly data points.\n",
			trendLabel(change), len(series))
	}
	return b.String()
}

// Compare builds a side-by-side report for several instruments.
func (m *MarketDataCollaborator) Compare(instruments []string, timeframe, metric string) string {
	if metric == "" {
		metric = "price_change"
	}
	months := rangeMonths(timeframe)

	type row struct {
		info   instrumentInfo
		change float64
		vol    float64
	}
	var rows []row
	var unmatched []string
	for _, raw := range instruments {
		key := matchInstrument(raw)
		if key == "" {
			unmatched = append(unmatched, raw)
			continue
		}
		info := marketCatalog[key]
		series := syntheticSeries(key, info, months)
		rows = append(rows, row{
			info:   info,
			change: (series[len(series)-1] - series[0]) / series[0] * 100,
			vol:    realizedVolatility(series),
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Market Comparison (%s, last %d months)**\n\n", metric, months)
	if len(rows) == 0 {
		fmt.Fprintf(&b, "None of the requested instruments are tracked: %s.\n", strings.Join(instruments, ", "))
		return b.String()
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].change > rows[j].change })
	for i, r := range rows {
		fmt.Fprintf(&b, "%d. **%s**: %+.1f%% change, %.1f%% monthly volatility\n",
			i+1, r.info.Name, r.change, r.vol*100)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Best performer: %s (%+.1f%%). Weakest: %s (%+.1f%%).\n",
		rows[0].info.Name, rows[0].change, rows[len(rows)-1].info.Name, rows[len(rows)-1].change)
	if len(unmatched) > 0 {
		fmt.Fprintf(&b, "Not tracked: %s.\n", strings.Join(unmatched, ", "))
	}
	return b.String()
}

// Overview reports the whole catalog, optionally with a category analysis.
func (m *MarketDataCollaborator) Overview(includeAnalysis bool) string {
	var b strings.Builder
	b.WriteString("**Market Overview**\n\n")

	byCategory := map[string][]string{}
	for _, key := range catalogKeys() {
		info := marketCatalog[key]
		series := syntheticSeries(key, info, 12)
		change := (series[len(series)-1] - series[0]) / series[0] * 100
		line := fmt.Sprintf("- %s: %.2f %s (%+.1f%% over 12 months)", info.Name, series[len(series)-1], info.Unit, change)
		byCategory[info.Category] = append(byCategory[info.Category], line)
	}
	for _, cat := range []string{"raw_material", "tech_stock"} {
		fmt.Fprintf(&b, "**%s**\n", categoryLabel(cat))
		for _, line := range byCategory[cat] {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	if includeAnalysis {
		b.WriteString("**Analysis**\n")
		b.WriteString("Raw materials track industrial demand and supply constraints; technology equities track earnings momentum and rate expectations. Divergence between the two groups usually signals a rotation rather than a broad-market move.\n")
	}
	return b.String()
}

// series returns the monthly values for one instrument, for use by the
// correlation collaborator.
func (m *MarketDataCollaborator) series(key string, months int) ([]float64, instrumentInfo, bool) {
	info, ok := marketCatalog[key]
	if !ok {
		return nil, instrumentInfo{}, false
	}
	return syntheticSeries(key, info, months), info, true
}

// syntheticSeries generates a reproducible monthly random walk seeded by the
// instrument key.
func syntheticSeries(key string, info instrumentInfo, months int) []float64 {
	if months < 2 {
		months = 2
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	series := make([]float64, months)
	price := info.BasePrice
	for i := range series {
		price *= 1 + (rng.Float64()*2-1)*info.Volatility
		series[i] = price
	}
	return series
}

func realizedVolatility(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	var sum, sumSq float64
	n := 0
	for i := 1; i < len(series); i++ {
		r := series[i]/series[i-1] - 1
		sum += r
		sumSq += r * r
		n++
	}
	mean := sum / float64(n)
	return math.Sqrt(sumSq/float64(n) - mean*mean)
}

func matchInstrument(query string) string {
	lower := strings.ToLower(query)
	for key, info := range marketCatalog {
		if strings.Contains(lower, key) || strings.Contains(lower, strings.ToLower(info.Name)) {
			return key
		}
	}
	return ""
}

func catalogKeys() []string {
	keys := make([]string, 0, len(marketCatalog))
	for k := range marketCatalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func rangeMonths(dateRange string) int {
	switch strings.ToLower(strings.TrimSpace(dateRange)) {
	case "1m", "1 month":
		return 2
	case "3m", "3 months", "quarter":
		return 3
	case "6m", "6 months":
		return 6
	case "2y", "2 years":
		return 24
	case "5y", "5 years":
		return 60
	default:
		return 12
	}
}

func trendLabel(changePct float64) string {
	switch {
	case changePct > 15:
		return "strong uptrend"
	case changePct > 3:
		return "moderate uptrend"
	case changePct < -15:
		return "strong downtrend"
	case changePct < -3:
		return "moderate downtrend"
	default:
		return "sideways movement"
	}
}

func volatilityBand(vol float64) string {
	switch {
	case vol > 0.10:
		return "high"
	case vol > 0.05:
		return "medium"
	default:
		return "low"
	}
}

func categoryLabel(cat string) string {
	if cat == "raw_material" {
		return "Raw Materials"
	}
	return "Technology Stocks"
}
