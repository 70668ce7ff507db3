package engine

import "math"

// Operational envelope of the central AC units.
const (
	SetpointMin = 16
	SetpointMax = 30
)

// statusMaxCorrection caps the setpoint correction per status, in Celsius
// from the target. The safety invariant of the whole policy: a lower-severity
// status never authorizes a large correction, whatever the raw PMV-driven
// adjustment computes.
var statusMaxCorrection = map[Status]float64{
	StatusIdeal:        0.0,
	StatusOptimalisasi: 1.5,
	StatusPeringatan:   2.5,
	StatusKritis:       3.0,
	StatusBorosEnergi:  0.0,
}

const fallbackMaxCorrection = 1.5

// ControlFor decides the AC setting for one evaluation. The correction is
// trajectory-centric: computed as an offset from the occupancy target, not
// from the measured temperature, so the room is steered gradually instead of
// jumping to an end temperature. PMV moves roughly 0.3-0.5 per degree, so
// aggressive corrections overshoot into overcooling or overheating.
func ControlFor(pmv, currentTemp, targetTemp float64, occupancy int, status Status) ACControl {
	_ = currentTemp // measured temperature deliberately unused: corrections start from the target

	// Empty room: switch off, park the setpoint at a neutral 24.
	if occupancy == 0 {
		return ACControl{Temp: 24, Mode: ModeOff, Fan: FanAuto}
	}

	severity := ThermalSeverity(pmv)
	if severity == SeverityNone {
		return ACControl{Temp: roundSetpoint(targetTemp), Mode: ModeAuto, Fan: FanAuto}
	}

	absPMV := abs(pmv)
	rawAdjustment := rampAdjustment(severity, absPMV)

	maxCorrection, ok := statusMaxCorrection[status]
	if !ok {
		maxCorrection = fallbackMaxCorrection
	}
	adjustment := math.Min(rawAdjustment, maxCorrection)

	fan := fanFor(severity, absPMV)

	var setpoint int
	var mode ACMode
	if pmv > 0 {
		// warm side: cool down from the target
		setpoint = roundSetpoint(targetTemp - adjustment)
		mode = ModeCool
	} else {
		// cold side: raise the setpoint; the colder it is, the less the
		// compressor should run
		setpoint = roundSetpoint(targetTemp + adjustment)
		switch severity {
		case SeveritySevere:
			mode = ModeFan
		case SeverityModerate:
			mode = ModeDry
		default:
			mode = ModeAuto
		}
	}

	if setpoint < SetpointMin {
		setpoint = SetpointMin
	}
	if setpoint > SetpointMax {
		setpoint = SetpointMax
	}
	return ACControl{Temp: setpoint, Mode: mode, Fan: fan}
}

// rampAdjustment maps |pmv| to a raw correction through three
// boundary-matched linear ramps. The severe ramp is unbounded above; the
// status cap and the final envelope clamp bound it afterwards.
func rampAdjustment(severity Severity, absPMV float64) float64 {
	switch severity {
	case SeverityMild:
		return 0.5 + (absPMV-0.5)*1.5 // 0.5..1.25
	case SeverityModerate:
		return 1.25 + (absPMV-1.0)*1.5 // 1.25..2.0
	default:
		return 2.0 + (absPMV-1.5)*0.67
	}
}

func fanFor(severity Severity, absPMV float64) FanSpeed {
	switch severity {
	case SeverityMild:
		if absPMV <= 0.8 {
			return FanAuto
		}
		return FanLow
	case SeverityModerate:
		return FanMedium
	default:
		return FanHigh
	}
}

// roundSetpoint rounds half to even. Targets and caps land on .5 boundaries
// (26.5 target, 24.0 - 1.5 capped correction), so tie handling is observable
// on every neutral evaluation in those bands.
func roundSetpoint(v float64) int { return int(math.RoundToEven(v)) }
