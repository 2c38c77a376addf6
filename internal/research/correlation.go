package research

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	rawMaterialKeywords = []string{
		"gold", "silver", "copper", "lithium", "cobalt", "nickel", "aluminum",
		"crude oil", "oil", "natural gas", "uranium", "platinum", "palladium",
		"commodity", "commodities", "raw material", "metal",
	}
	techKeywords = []string{
		"tech", "technology", "apple", "aapl", "microsoft", "msft", "google",
		"googl", "alphabet", "amazon", "amzn", "nvidia", "nvda", "tesla",
		"tsla", "meta", "semiconductor", "stock", "stocks", "nasdaq",
	}
)

// CorrelationCollaborator studies how raw-material prices move against
// technology equities, using the embedded market dataset.
type CorrelationCollaborator struct {
	market *MarketDataCollaborator
}

func NewCorrelationCollaborator(market *MarketDataCollaborator) *CorrelationCollaborator {
	return &CorrelationCollaborator{market: market}
}

func (c *CorrelationCollaborator) Name() string   { return "Raw Material Correlation" }
func (c *CorrelationCollaborator) Source() string { return SourceCorrelation }

// ShouldUseForQuery requires both a raw-material and a technology signal so
// generic commodity or generic stock questions route elsewhere.
func (c *CorrelationCollaborator) ShouldUseForQuery(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, rawMaterialKeywords) && containsAny(lower, techKeywords)
}

func (c *CorrelationCollaborator) Search(ctx context.Context, query string, opts Options) (string, error) {
	lower := strings.ToLower(query)
	materials := matchCatalogCategory(lower, "raw_material")
	stocks := matchCatalogCategory(lower, "tech_stock")
	if len(materials) == 0 {
		materials = []string{"copper", "lithium"}
	}
	if len(stocks) == 0 {
		stocks = []string{"aapl", "nvda", "tsla"}
	}
	months := rangeMonths(opts.DateRange)
	if months < 12 {
		months = 12
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Raw Material / Tech Stock Correlation Analysis for: %s**\n\n", query)
	fmt.Fprintf(&b, "Window: last %d months of monthly data.\n\n", months)

	type pair struct {
		material, stock string
		coef            float64
	}
	var pairs []pair
	for _, mk := range materials {
		ms, _, ok := c.market.series(mk, months)
		if !ok {
			continue
		}
		for _, sk := range stocks {
			ss, _, ok := c.market.series(sk, months)
			if !ok {
				continue
			}
			pairs = append(pairs, pair{mk, sk, pearson(ms, ss)})
		}
	}
	if len(pairs) == 0 {
		b.WriteString("No tracked instrument pairs matched this query.\n")
		return b.String(), nil
	}
	sort.Slice(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].coef) > math.Abs(pairs[j].coef)
	})
	for _, p := range pairs {
		fmt.Fprintf(&b, "- %s vs %s: r = %+.2f (%s)\n",
			marketCatalog[p.material].Name, marketCatalog[p.stock].Name,
			p.coef, correlationLabel(p.coef))
	}
	b.WriteString("\n**Interpretation**\n")
	strongest := pairs[0]
	fmt.Fprintf(&b, "The strongest relationship in the window is %s against %s (r = %+.2f). ",
		marketCatalog[strongest.material].Name, marketCatalog[strongest.stock].Name, strongest.coef)
	b.WriteString("Input-cost exposure usually explains positive co-movement: hardware-heavy technology names are sensitive to the metals in their supply chain, while software-weighted names decouple from commodity cycles.\n")
	return b.String(), nil
}

func matchCatalogCategory(lower, category string) []string {
	var keys []string
	for key, info := range marketCatalog {
		if info.Category != category {
			continue
		}
		if strings.Contains(lower, key) || strings.Contains(lower, strings.ToLower(info.Name)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/float64(n), sumB/float64(n)
	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

func correlationLabel(r float64) string {
	abs := math.Abs(r)
	direction := "positive"
	if r < 0 {
		direction = "negative"
	}
	switch {
	case abs >= 0.7:
		return "strong " + direction
	case abs >= 0.4:
		return "moderate " + direction
	case abs >= 0.2:
		return "weak " + direction
	default:
		return "negligible"
	}
}
