package engine

import "testing"

func TestScoreEnvironmentSubScores(t *testing.T) {
	tests := []struct {
		name         string
		lux, noise   float64
		hum          float64
		wantLighting float64
		wantNoise    float64
		wantHumidity float64
	}{
		{"all on target", 400, 40, 50, 100, 100, 100},
		{"lux off by 75", 325, 40, 50, 80, 100, 100},
		{"lux off by 150", 250, 40, 50, 60, 100, 100},
		{"lux off by 300", 100, 40, 50, 40, 100, 100},
		{"noise over by 3", 400, 48, 50, 100, 80, 100},
		{"noise over by 8", 400, 53, 50, 100, 60, 100},
		{"noise over by 12", 400, 57, 50, 100, 40, 100},
		{"hum low by 4", 400, 40, 41, 100, 100, 90},
		{"hum low by 8", 400, 40, 37, 100, 100, 70},
		{"hum high by 12", 400, 40, 67, 100, 100, 50},
		{"hum high by 25", 400, 40, 80, 100, 100, 25},
	}
	// band for 1..10 occupants: lux 400, noise max 45, humidity 45..55
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bd, _ := ScoreEnvironment(tt.lux, 400, tt.noise, 45, tt.hum, 45, 55)
			if bd.Lighting != tt.wantLighting {
				t.Errorf("lighting: got %v want %v", bd.Lighting, tt.wantLighting)
			}
			if bd.Noise != tt.wantNoise {
				t.Errorf("noise: got %v want %v", bd.Noise, tt.wantNoise)
			}
			if bd.Humidity != tt.wantHumidity {
				t.Errorf("humidity: got %v want %v", bd.Humidity, tt.wantHumidity)
			}
		})
	}
}

func TestScoreEnvironmentComposite(t *testing.T) {
	// lighting 80, noise 60, humidity 90 -> 0.35*80 + 0.35*60 + 0.30*90 = 76.0
	total, _, _ := ScoreEnvironment(325, 400, 53, 45, 59, 45, 55)
	if total != 76.0 {
		t.Fatalf("composite: got %v want 76.0", total)
	}
}

func TestIssueThresholdsCoarserThanScoring(t *testing.T) {
	// 75 lux below target degrades the score but fires no issue: the alert
	// threshold is deliberately coarser than the scoring curve
	_, bd, issues := ScoreEnvironment(325, 400, 40, 45, 50, 45, 55)
	if bd.Lighting != 80 {
		t.Fatalf("lighting score: got %v want 80", bd.Lighting)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues at deviation 75, got %+v", issues)
	}
}

func TestEnvIssueDetection(t *testing.T) {
	tests := []struct {
		name         string
		lux, noise   float64
		hum          float64
		wantFactors  []IssueFactor
		wantSeverity []IssueSeverity
	}{
		{"no issues", 400, 45, 50, nil, nil},
		{"dim moderate", 250, 45, 50, []IssueFactor{FactorLighting}, []IssueSeverity{IssueModerate}},
		{"dim severe", 150, 45, 50, []IssueFactor{FactorLighting}, []IssueSeverity{IssueSevere}},
		{"glare moderate", 650, 45, 50, []IssueFactor{FactorLighting}, []IssueSeverity{IssueModerate}},
		{"glare severe", 850, 45, 50, []IssueFactor{FactorLighting}, []IssueSeverity{IssueSevere}},
		{"noisy moderate", 400, 52, 50, []IssueFactor{FactorNoise}, []IssueSeverity{IssueModerate}},
		{"noisy severe", 400, 61, 50, []IssueFactor{FactorNoise}, []IssueSeverity{IssueSevere}},
		{"dry", 400, 45, 30, []IssueFactor{FactorHumidity}, []IssueSeverity{IssueModerate}},
		{"humid moderate", 400, 45, 66, []IssueFactor{FactorHumidity}, []IssueSeverity{IssueModerate}},
		{"humid severe", 400, 45, 80, []IssueFactor{FactorHumidity}, []IssueSeverity{IssueSevere}},
		{
			"all three in order", 120, 65, 80,
			[]IssueFactor{FactorLighting, FactorNoise, FactorHumidity},
			[]IssueSeverity{IssueSevere, IssueSevere, IssueSevere},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, issues := ScoreEnvironment(tt.lux, 400, tt.noise, 45, tt.hum, 45, 55)
			if len(issues) != len(tt.wantFactors) {
				t.Fatalf("issues: got %d want %d (%+v)", len(issues), len(tt.wantFactors), issues)
			}
			for i, iss := range issues {
				if iss.Factor != tt.wantFactors[i] {
					t.Errorf("issue %d factor: got %s want %s", i, iss.Factor, tt.wantFactors[i])
				}
				if iss.Severity != tt.wantSeverity[i] {
					t.Errorf("issue %d severity: got %s want %s", i, iss.Severity, tt.wantSeverity[i])
				}
				if iss.Description == "" || iss.Recommendation == "" {
					t.Errorf("issue %d missing description or recommendation", i)
				}
			}
		})
	}
}

func TestNoiseUnderLimitScoresFull(t *testing.T) {
	// negative excess is fine, not extra credit
	_, bd, issues := ScoreEnvironment(400, 400, 20, 45, 50, 45, 55)
	if bd.Noise != 100 {
		t.Fatalf("noise score: got %v want 100", bd.Noise)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}
