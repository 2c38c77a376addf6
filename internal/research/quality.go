package research

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// QualityScore breaks a research result down along four dimensions plus
// their weighted combination. All values fall in [0, 1].
type QualityScore struct {
	Recency     float64 `json:"recency"`
	Authority   float64 `json:"authority"`
	Specificity float64 `json:"specificity"`
	Relevance   float64 `json:"relevance"`
	Overall     float64 `json:"overall"`
}

// Dimension weights for the overall score.
const (
	weightRecency     = 0.2
	weightAuthority   = 0.3
	weightSpecificity = 0.3
	weightRelevance   = 0.2
)

// Per-source authority base scores. Unknown sources get the general-web base.
var authorityBase = map[string]float64{
	SourceSEC:         0.95,
	SourceArxiv:       0.9,
	SourceMarketData:  0.85,
	SourceCorrelation: 0.8,
	SourceWikipedia:   0.8,
	SourceGitHub:      0.7,
	SourceWeb:         0.5,
}

var (
	yearPattern      = regexp.MustCompile(`\b(20\d{2})\b`)
	numberPattern    = regexp.MustCompile(`\b\d+(?:\.\d+)?%?\b`)
	precisionPattern = regexp.MustCompile(`(?i)\b(?:exactly|precisely|specifically|measured|calculated|approximately)\b`)
)

var credibilityMarkers = []string{
	"study", "research", "university", "published", "peer-reviewed", "official",
}

// ScoreQuality rates result text coming from the named source.
func ScoreQuality(text, source string) QualityScore {
	s := QualityScore{
		Recency:     scoreRecency(text),
		Authority:   scoreAuthority(text, source),
		Specificity: scoreSpecificity(text),
		Relevance:   0.7,
	}
	s.Overall = clamp01(weightRecency*s.Recency +
		weightAuthority*s.Authority +
		weightSpecificity*s.Specificity +
		weightRelevance*s.Relevance)
	return s
}

// scoreRecency finds the most recent four-digit year in the text and decays
// linearly over ten years. Text with no year gets a flat 0.3.
func scoreRecency(text string) float64 {
	matches := yearPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0.3
	}
	latest := 0
	for _, m := range matches {
		if y, err := strconv.Atoi(m); err == nil && y > latest {
			latest = y
		}
	}
	age := time.Now().Year() - latest
	if age < 0 {
		age = 0
	}
	return clamp01(1 - float64(age)/10)
}

// scoreAuthority starts from the per-source base and adds a capped boost for
// credibility markers appearing in the text.
func scoreAuthority(text, source string) float64 {
	base, ok := authorityBase[source]
	if !ok {
		base = 0.5
	}
	lower := strings.ToLower(text)
	boost := 0.0
	for _, marker := range credibilityMarkers {
		if strings.Contains(lower, marker) {
			boost += 0.05
		}
	}
	if boost > 0.3 {
		boost = 0.3
	}
	return clamp01(base + boost)
}

// scoreSpecificity rewards numbers and precision vocabulary, with a floor so
// even vague prose scores above zero.
func scoreSpecificity(text string) float64 {
	numbers := len(numberPattern.FindAllString(text, -1))
	terms := len(precisionPattern.FindAllString(text, -1))
	score := float64(numbers)*0.02 + float64(terms)*0.1
	if score < 0.1 {
		score = 0.1
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// qualityBand maps an overall score onto the label used in synthesized
// reports.
func qualityBand(overall float64) string {
	switch {
	case overall >= 0.8:
		return "Excellent"
	case overall >= 0.6:
		return "Good"
	case overall >= 0.4:
		return "Moderate"
	default:
		return "Limited"
	}
}
