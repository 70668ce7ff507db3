// Package engine implements the deterministic room-comfort rule engine:
// ISO 7730 Fanger PMV/PPD thermal analysis, a separate non-thermal
// environmental quality score, and a status-bounded AC control policy.
//
// Status (from PPD) expresses physiological comfort; Score (from the
// environment) expresses non-thermal quality. The two axes never influence
// each other.
//
// The engine is a pure mapping from one sensor snapshot to one result: no
// validation, no persistence, no retries, no cross-call state. Evaluate may
// be called concurrently from any number of goroutines.
package engine

import "math"

// Engine evaluates sensor readings against a reference band table.
type Engine struct {
	bands *BandTable
}

// New returns an engine using the given band table.
func New(bands *BandTable) *Engine {
	return &Engine{bands: bands}
}

// NewDefault returns an engine on the built-in reference table.
func NewDefault() *Engine {
	t, err := NewBandTable(DefaultBands())
	if err != nil {
		panic(err) // built-in table is known valid
	}
	return New(t)
}

// Evaluate runs the full pipeline for one reading: resolve targets, solve
// PMV/PPD, classify status, score the environment, label the concern and
// decide the AC control. Identical input yields identical output.
func (e *Engine) Evaluate(r SensorReading) EvaluationResult {
	band := e.bands.Resolve(r.Occupancy)

	ta := r.Temperature
	inputs := PMVInputs{
		Ta:  ta,
		Tr:  ta + DefaultRadiantTempOffset,
		Vel: DefaultAirVelocity,
		RH:  r.Humidity,
		Met: DefaultMetabolicRate,
		Clo: DefaultClothingInsulation,
	}

	pmv := SolvePMV(inputs.Ta, inputs.Tr, inputs.Vel, inputs.RH, inputs.Met, inputs.Clo)
	ppd := PPDFrom(pmv)
	status := ClassifyStatus(ppd, r.Occupancy)

	envScore, breakdown, issues := ScoreEnvironment(
		r.LightLevel, float64(band.TargetLux),
		r.Noise, float64(band.NoiseMax),
		r.Humidity, float64(band.HumMin), float64(band.HumMax),
	)

	severity := ThermalSeverity(pmv)
	concern := ClassifyConcern(severity, issues)
	control := ControlFor(pmv, r.Temperature, band.TargetTemp, r.Occupancy, status)

	humDeviation := 0.0
	switch {
	case r.Humidity < float64(band.HumMin):
		humDeviation = round1(r.Humidity - float64(band.HumMin))
	case r.Humidity > float64(band.HumMax):
		humDeviation = round1(r.Humidity - float64(band.HumMax))
	}

	return EvaluationResult{
		Comfort: Comfort{
			PMV:   pmv,
			PPD:   ppd,
			Score: envScore, // environmental score, never a status input
			State: status,   // from PPD, never a score input
		},
		ACControl:       control,
		Band:            band,
		EnvScore:        envScore,
		EnvBreakdown:    breakdown,
		Issues:          issues,
		Concern:         concern,
		ThermalSeverity: severity,
		PMVInputs:       inputs,
		TempDeviation:   math.Round((r.Temperature-band.TargetTemp)*10) / 10,
		HumDeviation:    humDeviation,
	}
}
