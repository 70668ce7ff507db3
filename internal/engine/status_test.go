package engine

import "testing"

func TestClassifyStatusBuckets(t *testing.T) {
	tests := []struct {
		name      string
		ppd       float64
		occupancy int
		want      Status
	}{
		{"floor", 5.0, 3, StatusIdeal},
		{"upper ideal inclusive", 10.0, 3, StatusIdeal},
		{"just past ideal", 10.01, 3, StatusOptimalisasi},
		{"upper optimalisasi inclusive", 25.0, 3, StatusOptimalisasi},
		{"peringatan", 25.1, 3, StatusPeringatan},
		{"upper peringatan inclusive", 50.0, 3, StatusPeringatan},
		{"kritis", 50.1, 3, StatusKritis},
		{"ceiling", 100.0, 3, StatusKritis},
		{"empty room overrides ideal ppd", 5.0, 0, StatusBorosEnergi},
		{"empty room overrides critical ppd", 99.0, 0, StatusBorosEnergi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStatus(tt.ppd, tt.occupancy); got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestBorosEnergiIffEmptyRoom(t *testing.T) {
	for occ := 0; occ <= 40; occ++ {
		for _, ppd := range []float64{5, 10, 26, 55, 100} {
			got := ClassifyStatus(ppd, occ)
			if (got == StatusBorosEnergi) != (occ == 0) {
				t.Fatalf("occ=%d ppd=%v: got %q", occ, ppd, got)
			}
		}
	}
}

func TestThermalSeverity(t *testing.T) {
	tests := []struct {
		pmv  float64
		want Severity
	}{
		{0, SeverityNone},
		{0.5, SeverityNone},
		{-0.5, SeverityNone},
		{0.51, SeverityMild},
		{1.0, SeverityMild},
		{-0.9, SeverityMild},
		{1.01, SeverityModerate},
		{1.5, SeverityModerate},
		{-1.3, SeverityModerate},
		{1.51, SeveritySevere},
		{3.0, SeveritySevere},
		{-2.4, SeveritySevere},
	}
	for _, tt := range tests {
		if got := ThermalSeverity(tt.pmv); got != tt.want {
			t.Errorf("ThermalSeverity(%v): got %q want %q", tt.pmv, got, tt.want)
		}
	}
}

func TestClassifyConcern(t *testing.T) {
	modIssue := []EnvIssue{{Factor: FactorNoise, Severity: IssueModerate}}
	tests := []struct {
		name     string
		severity Severity
		issues   []EnvIssue
		want     Concern
	}{
		{"neither", SeverityNone, nil, ConcernNone},
		{"thermal only", SeverityMild, nil, ConcernThermal},
		{"environmental only", SeverityNone, modIssue, ConcernEnvironmental},
		{"both", SeveritySevere, modIssue, ConcernBoth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyConcern(tt.severity, tt.issues); got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}
