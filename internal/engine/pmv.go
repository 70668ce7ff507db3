package engine

import "math"

// Fixed model assumptions for this deployment (ISO 7730 reference conditions):
// seated office activity, standard indoor clothing, normal ventilation, mean
// radiant temperature equal to air temperature. PMV/PPD values are valid for
// these conditions only.
const (
	DefaultMetabolicRate      = 1.2 // met, office work seated
	DefaultClothingInsulation = 0.5 // clo, shirt and trousers
	DefaultAirVelocity        = 0.1 // m/s, normal indoor ventilation
	DefaultRadiantTempOffset  = 0.0 // tr = ta + offset
)

const (
	pmvIterMax = 100
	pmvIterTol = 0.001
)

// SolvePMV computes Fanger's Predicted Mean Vote from air temperature (C),
// mean radiant temperature (C), air velocity (m/s), relative humidity (%),
// metabolic rate (met) and clothing insulation (clo).
//
// The clothing surface temperature is found by bounded fixed-point iteration;
// non-convergence after the cap is accepted silently. The result is rounded
// to 2 decimals and clamped to [-3, 3].
func SolvePMV(ta, tr, vel, rh, met, clo float64) float64 {
	m := met * 58.15 // W/m2
	w := 0.0         // external work, zero for office activity
	mw := m - w

	var fcl float64
	if clo <= 0.078 {
		fcl = 1.0 + 1.290*clo
	} else {
		fcl = 1.05 + 0.645*clo
	}
	icl := clo * 0.155

	// water vapor pressure, Pa
	pa := rh * 10 * math.Exp(16.6536-4030.183/(ta+235))

	hcNatural := 2.38 * math.Pow(math.Abs(35.7-0.028*mw-ta), 0.25)
	hcForced := 12.1 * math.Sqrt(vel)
	hc := math.Max(hcNatural, hcForced)

	tcl := clothingSurfaceTemp(ta, tr, mw, fcl, icl, hc)

	hl1 := 3.05e-3 * (5733 - 6.99*mw - pa) // skin diffusion
	hl2 := 0.0                             // sweating, only above the metabolic surplus threshold
	if mw > 58.15 {
		hl2 = 0.42 * (mw - 58.15)
	}
	hl3 := 1.7e-5 * m * (5867 - pa) // latent respiration
	hl4 := 0.0014 * m * (34 - ta)   // dry respiration
	hl5 := 3.96e-8 * fcl * (math.Pow(tcl+273, 4) - math.Pow(tr+273, 4))
	hl6 := fcl * hc * (tcl - ta)

	load := mw - hl1 - hl2 - hl3 - hl4 - hl5 - hl6
	pmv := (0.303*math.Exp(-0.036*m) + 0.028) * load
	return clamp(round2(pmv), -3.0, 3.0)
}

// clothingSurfaceTemp iterates the clothing surface heat balance to a fixed
// point. The loop terminates unconditionally after pmvIterMax steps even
// without convergence.
func clothingSurfaceTemp(ta, tr, mw, fcl, icl, hc float64) float64 {
	tcl := 35.7 - 0.028*mw
	for i := 0; i < pmvIterMax; i++ {
		prev := tcl
		tcl = 35.7 - 0.028*mw - icl*(3.96e-8*fcl*(math.Pow(tcl+273, 4)-math.Pow(tr+273, 4))+fcl*hc*(tcl-ta))
		if math.Abs(tcl-prev) < pmvIterTol {
			break
		}
	}
	return tcl
}

// PPDFrom maps PMV to the Predicted Percentage Dissatisfied:
//
//	ppd = 100 - 95*exp(-0.03353*pmv^4 - 0.2179*pmv^2)
//
// An even function of PMV, flat near zero, steep beyond |pmv|~1. Clamped to
// [5, 100] and rounded to 1 decimal; PPDFrom(0) == 5 exactly.
func PPDFrom(pmv float64) float64 {
	ppd := 100 - 95*math.Exp(-0.03353*math.Pow(pmv, 4)-0.2179*pmv*pmv)
	return round1(clamp(ppd, 5.0, 100.0))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
