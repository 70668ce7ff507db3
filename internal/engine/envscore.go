package engine

import "fmt"

// Environmental quality weights. Lighting and noise matter most for
// productivity; humidity covers air quality (stuffiness, respiratory
// comfort). Humidity also feeds the PMV solver, but there it models sweat
// evaporation; the two roles are distinct, not double counting.
const (
	weightLighting = 0.35
	weightNoise    = 0.35
	weightHumidity = 0.30
)

// ScoreEnvironment rates the non-thermal environment on three independent
// piecewise scales and detects actionable issues. Issue thresholds are
// deliberately coarser than the scoring curves: the score is a continuous
// quality signal, an issue is an alert worth acting on. Issues are emitted in
// lighting, noise, humidity order.
func ScoreEnvironment(lux, targetLux, noise, noiseMax, hum, humMin, humMax float64) (float64, EnvBreakdown, []EnvIssue) {
	var issues []EnvIssue

	luxScore := scoreLighting(lux, targetLux)
	if iss, ok := lightingIssue(lux, targetLux); ok {
		issues = append(issues, iss)
	}

	noiseScore := scoreNoise(noise, noiseMax)
	if iss, ok := noiseIssue(noise, noiseMax); ok {
		issues = append(issues, iss)
	}

	humScore := scoreHumidity(hum, humMin, humMax)
	if iss, ok := humidityIssue(hum, humMin, humMax); ok {
		issues = append(issues, iss)
	}

	breakdown := EnvBreakdown{
		Lighting: round1(luxScore),
		Noise:    round1(noiseScore),
		Humidity: round1(humScore),
	}
	total := round1(luxScore*weightLighting + noiseScore*weightNoise + humScore*weightHumidity)
	return total, breakdown, issues
}

func scoreLighting(lux, target float64) float64 {
	dev := abs(lux - target)
	switch {
	case dev <= 50:
		return 100
	case dev <= 100:
		return 80
	case dev <= 200:
		return 60
	default:
		return maxf(0, 100-dev/5)
	}
}

func lightingIssue(lux, target float64) (EnvIssue, bool) {
	switch {
	case lux < target-100:
		sev := IssueModerate
		if lux < target-200 {
			sev = IssueSevere
		}
		return EnvIssue{
			Factor:         FactorLighting,
			Severity:       sev,
			Description:    fmt.Sprintf("Pencahayaan terlalu redup (%g lux, target %g lux)", lux, target),
			Recommendation: "Tambah sumber cahaya atau buka tirai",
		}, true
	case lux > target+200:
		sev := IssueModerate
		if lux > target+400 {
			sev = IssueSevere
		}
		return EnvIssue{
			Factor:         FactorLighting,
			Severity:       sev,
			Description:    fmt.Sprintf("Pencahayaan berlebihan/silau (%g lux, target %g lux)", lux, target),
			Recommendation: "Kurangi pencahayaan atau gunakan tirai anti-silau",
		}, true
	}
	return EnvIssue{}, false
}

func scoreNoise(noise, max float64) float64 {
	excess := noise - max
	switch {
	case excess <= 0:
		return 100
	case excess <= 5:
		return 80
	case excess <= 10:
		return 60
	default:
		return maxf(0, 100-excess*5)
	}
}

func noiseIssue(noise, max float64) (EnvIssue, bool) {
	excess := noise - max
	switch {
	case excess > 15:
		return EnvIssue{
			Factor:         FactorNoise,
			Severity:       IssueSevere,
			Description:    fmt.Sprintf("Kebisingan sangat tinggi (%g dB, batas %g dB)", noise, max),
			Recommendation: "Identifikasi dan eliminasi sumber bising, pertimbangkan peredam suara",
		}, true
	case excess > 5:
		return EnvIssue{
			Factor:         FactorNoise,
			Severity:       IssueModerate,
			Description:    fmt.Sprintf("Kebisingan di atas batas nyaman (%g dB, batas %g dB)", noise, max),
			Recommendation: "Kurangi aktivitas bising atau gunakan white noise",
		}, true
	}
	return EnvIssue{}, false
}

func scoreHumidity(hum, min, max float64) float64 {
	if hum >= min && hum <= max {
		return 100
	}
	dev := min - hum
	if hum > max {
		dev = hum - max
	}
	switch {
	case dev <= 5:
		return 90
	case dev <= 10:
		return 70
	case dev <= 15:
		return 50
	default:
		return maxf(0, 100-dev*3)
	}
}

func humidityIssue(hum, min, max float64) (EnvIssue, bool) {
	switch {
	case hum < min-10:
		return EnvIssue{
			Factor:         FactorHumidity,
			Severity:       IssueModerate,
			Description:    fmt.Sprintf("Udara terlalu kering (%g%%, target %g-%g%%)", hum, min, max),
			Recommendation: "Gunakan humidifier atau kurangi intensitas AC",
		}, true
	case hum > max+10:
		sev := IssueModerate
		if hum > max+20 {
			sev = IssueSevere
		}
		return EnvIssue{
			Factor:         FactorHumidity,
			Severity:       sev,
			Description:    fmt.Sprintf("Udara terlalu lembap/pengap (%g%%, target %g-%g%%)", hum, min, max),
			Recommendation: "Tingkatkan ventilasi atau gunakan dehumidifier",
		}, true
	}
	return EnvIssue{}, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
