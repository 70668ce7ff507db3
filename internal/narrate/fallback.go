package narrate

import (
	"fmt"
	"math"

	"github.com/afifnasrullahs/roomcomfort/internal/engine"
)

// FallbackReason builds a deterministic narration when the language model is
// unavailable. Selection order matters: the empty-room status wins outright,
// then environmental and mixed concerns, then the per-status templates.
func FallbackReason(res engine.EvaluationResult) string {
	pmv := res.Comfort.PMV
	ppd := res.Comfort.PPD
	status := res.Comfort.State
	desc := pmvDescription(pmv)
	ac := res.ACControl
	target := res.Band.TargetTemp

	scoreExplanation := ""
	if res.EnvScore >= 80 && (status == engine.StatusOptimalisasi || status == engine.StatusPeringatan) {
		scoreExplanation = fmt.Sprintf(
			" Meskipun kualitas lingkungan non-termal sangat baik (skor %g%%), "+
				"status ditentukan oleh kenyamanan fisiologis tubuh (PPD), bukan oleh skor lingkungan.",
			res.EnvScore)
	}

	if status == engine.StatusBorosEnergi {
		return "Ruangan kosong (occupancy: 0) sehingga tidak ada kebutuhan kenyamanan termal. " +
			"AC dimatikan (mode: off) untuk efisiensi energi. " +
			"Sistem akan aktif kembali saat terdeteksi penghuni."
	}

	if res.Concern == engine.ConcernEnvironmental && len(res.Issues) > 0 {
		main := res.Issues[0]
		return fmt.Sprintf(
			"Kondisi termal dalam zona %s (PMV = %g, PPD = %g%%). "+
				"Namun, masalah utama adalah %s: %s. Saran: %s. "+
				"AC tetap pada %d°C mode %s untuk mempertahankan kenyamanan termal.",
			desc, pmv, ppd, main.Factor, main.Description, main.Recommendation, ac.Temp, ac.Mode)
	}

	if res.Concern == engine.ConcernBoth && len(res.Issues) > 0 {
		main := res.Issues[0]
		return fmt.Sprintf(
			"Terdeteksi masalah ganda: (1) Sensasi %s (PMV = %g) dengan %g%% penghuni tidak nyaman, "+
				"dan (2) %s. Untuk aspek termal, AC disetel ke %d°C mode %s. "+
				"Untuk %s, disarankan: %s.",
			desc, pmv, ppd, main.Description, ac.Temp, ac.Mode, main.Factor, main.Recommendation)
	}

	switch status {
	case engine.StatusIdeal:
		return fmt.Sprintf(
			"Kondisi ruangan optimal dengan PMV = %g (sensasi %s). "+
				"Hanya %g%% penghuni diperkirakan tidak nyaman berdasarkan standar ISO 7730. "+
				"AC dipertahankan pada %d°C mode %s untuk menjaga keseimbangan termal.",
			pmv, desc, ppd, ac.Temp, ac.Mode)
	case engine.StatusOptimalisasi:
		direction := "menaikkan"
		if pmv > 0 {
			direction = "menurunkan"
		}
		delta := math.Abs(float64(ac.Temp) - target)
		return fmt.Sprintf(
			"Kondisi termal menunjukkan sensasi %s (PMV = %g, tingkat: %s). "+
				"Sebagai langkah preventif, dilakukan penyesuaian ringan setpoint AC "+
				"dari target %g°C ke %d°C (Δ%g°C). "+
				"Koreksi ini bersifat bertahap untuk %s PMV secara halus mendekati 0.%s",
			desc, pmv, res.ThermalSeverity, target, ac.Temp, delta, direction, scoreExplanation)
	case engine.StatusPeringatan:
		return fmt.Sprintf(
			"Kondisi termal menunjukkan sensasi %s dengan PMV = %g (tingkat: %s). "+
				"Berdasarkan ISO 7730, %g%% penghuni diperkirakan tidak nyaman. "+
				"Status '%s' memerlukan koreksi aktif. "+
				"AC disetel ke %d°C mode %s fan %s untuk mengembalikan PMV ke zona netral.%s",
			desc, pmv, res.ThermalSeverity, ppd, status, ac.Temp, ac.Mode, ac.Fan, scoreExplanation)
	case engine.StatusKritis:
		return fmt.Sprintf(
			"PERHATIAN: Kondisi termal kritis dengan PMV = %g (sensasi %s). "+
				"Sebanyak %g%% penghuni diperkirakan tidak nyaman, melampaui ambang toleransi. "+
				"Tindakan segera diperlukan. AC disetel ke %d°C mode %s fan %s untuk koreksi maksimum.",
			pmv, desc, ppd, ac.Temp, ac.Mode, ac.Fan)
	}

	if pmv > 0 {
		style := "aktif"
		if res.ThermalSeverity == engine.SeverityMild {
			style = "ringan dan bertahap"
		}
		return fmt.Sprintf(
			"Kondisi termal menunjukkan sensasi %s dengan PMV = %g. "+
				"Berdasarkan perhitungan ISO 7730, %g%% penghuni diperkirakan tidak nyaman. "+
				"AC disetel secara %s ke %d°C mode %s fan %s.%s",
			desc, pmv, ppd, style, ac.Temp, ac.Mode, ac.Fan, scoreExplanation)
	}
	if pmv < 0 {
		style := "signifikan"
		if res.ThermalSeverity == engine.SeverityMild {
			style = "ringan"
		}
		return fmt.Sprintf(
			"Kondisi termal menunjukkan sensasi %s dengan PMV = %g. "+
				"Berdasarkan ISO 7730, %g%% penghuni diperkirakan tidak nyaman. "+
				"AC disetel ke %d°C mode %s fan %s untuk mengurangi pendinginan secara %s.%s",
			desc, pmv, ppd, ac.Temp, ac.Mode, ac.Fan, style, scoreExplanation)
	}

	return fmt.Sprintf(
		"Kondisi termal netral (PMV = %g) dengan %g%% penghuni tidak nyaman. "+
			"Skor kualitas lingkungan %g/100. "+
			"AC disetel ke %d°C mode %s untuk mempertahankan kenyamanan termal.",
		pmv, ppd, res.EnvScore, ac.Temp, ac.Mode)
}
