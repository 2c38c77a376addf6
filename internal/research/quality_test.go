package research

import (
	"fmt"
	"testing"
	"time"
)

func TestScoreQualityBounds(t *testing.T) {
	samples := []struct {
		name   string
		text   string
		source string
	}{
		{"empty", "", SourceWeb},
		{"plain prose", "Some vague statement about the future of things.", SourceWikipedia},
		{"dense numbers", "Revenue grew 45.2% to $96.8 billion in 2024, measured precisely across 12 segments with 3.4% margin expansion and 18 acquisitions.", SourceSEC},
		{"unknown source", "A peer-reviewed study published by a university.", "mystery"},
	}
	for _, tc := range samples {
		t.Run(tc.name, func(t *testing.T) {
			s := ScoreQuality(tc.text, tc.source)
			for dim, v := range map[string]float64{
				"recency":     s.Recency,
				"authority":   s.Authority,
				"specificity": s.Specificity,
				"relevance":   s.Relevance,
				"overall":     s.Overall,
			} {
				if v < 0 || v > 1 {
					t.Errorf("%s = %v, want within [0,1]", dim, v)
				}
			}
		})
	}
}

func TestScoreQualityWeightedCombination(t *testing.T) {
	s := ScoreQuality("Measured growth of 12.5% in 2024 according to official research.", SourceArxiv)
	want := 0.2*s.Recency + 0.3*s.Authority + 0.3*s.Specificity + 0.2*s.Relevance
	if diff := s.Overall - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Overall = %v, want weighted combination %v", s.Overall, want)
	}
}

func TestScoreRecency(t *testing.T) {
	if got := scoreRecency("no dates here at all"); got != 0.3 {
		t.Errorf("default recency = %v, want 0.3", got)
	}
	thisYear := fmt.Sprintf("data from %d shows growth", time.Now().Year())
	if got := scoreRecency(thisYear); got != 1.0 {
		t.Errorf("current-year recency = %v, want 1.0", got)
	}
	old := fmt.Sprintf("a report from %d", time.Now().Year()-20)
	if got := scoreRecency(old); got != 0 {
		t.Errorf("twenty-year-old recency = %v, want 0", got)
	}
}

func TestScoreAuthorityPerSource(t *testing.T) {
	plain := "nothing notable"
	sec := scoreAuthority(plain, SourceSEC)
	web := scoreAuthority(plain, SourceWeb)
	if sec <= web {
		t.Errorf("sec authority %v should exceed web authority %v", sec, web)
	}
	boosted := scoreAuthority("a peer-reviewed study published by a university, official research", SourceWeb)
	if boosted <= web {
		t.Errorf("credibility markers should boost authority: %v <= %v", boosted, web)
	}
	if boosted > web+0.3 {
		t.Errorf("credibility boost exceeds cap: %v", boosted-web)
	}
}

func TestScoreSpecificityFloor(t *testing.T) {
	if got := scoreSpecificity("vague words only"); got != 0.1 {
		t.Errorf("specificity floor = %v, want 0.1", got)
	}
}

func TestQualityBand(t *testing.T) {
	cases := map[float64]string{
		0.85: "Excellent",
		0.65: "Good",
		0.45: "Moderate",
		0.10: "Limited",
	}
	for score, want := range cases {
		if got := qualityBand(score); got != want {
			t.Errorf("qualityBand(%v) = %q, want %q", score, got, want)
		}
	}
}
