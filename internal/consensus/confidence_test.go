package consensus

import "testing"

func TestExtractConfidence(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     float64
	}{
		{"integer score", "Strong case for A.\nPosition: A\nConfidence: 8/10", 8},
		{"decimal score", "Analysis.\nConfidence: 7.5", 7.5},
		{"missing score", "No closing marker here.", 5},
		{"empty response", "", 5},
		{"mid-text score", "Confidence: 9 was my prior, revised below.", 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractConfidence(tc.response); got != tc.want {
				t.Errorf("ExtractConfidence(%q) = %v, want %v", tc.response, got, tc.want)
			}
		})
	}
}

func TestMeanConfidence(t *testing.T) {
	if got := meanConfidence(nil); got != 5 {
		t.Errorf("empty mean = %v, want 5", got)
	}
	// Each round counts separately, so a talkative expert weighs more.
	if got := meanConfidence([]float64{8, 8, 2}); got != 6 {
		t.Errorf("mean = %v, want 6", got)
	}
}
