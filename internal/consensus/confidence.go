package consensus

import (
	"regexp"
	"strconv"
	"strings"
)

const defaultConfidence = 5.0

var confidencePattern = regexp.MustCompile(`Confidence:\s*(\d+(?:\.\d+)?)`)

// ExtractConfidence reads the self-reported confidence from a response.
// Experts are prompted to end with "Confidence: X/10"; responses without a
// parseable score get the neutral default of 5.
func ExtractConfidence(response string) float64 {
	if strings.TrimSpace(response) == "" {
		return defaultConfidence
	}
	m := confidencePattern.FindStringSubmatch(response)
	if m == nil {
		return defaultConfidence
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return defaultConfidence
	}
	return v
}

// meanConfidence averages every recorded score. Each message counts once, so
// an expert that spoke in several rounds weighs in once per round.
func meanConfidence(scores []float64) float64 {
	if len(scores) == 0 {
		return defaultConfidence
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
