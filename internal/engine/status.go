package engine

// ppdBucket maps a half-open PPD interval to a status. Lower bound exclusive,
// upper bound inclusive; the first bucket also accepts ppd <= min.
type ppdBucket struct {
	min, max float64
	status   Status
}

var ppdStatusMap = []ppdBucket{
	{0, 10, StatusIdeal},
	{10, 25, StatusOptimalisasi},
	{25, 50, StatusPeringatan},
	{50, 100, StatusKritis},
}

// ClassifyStatus buckets PPD into the four-level comfort status. An empty
// room short-circuits to Boros Energi regardless of PPD: with nobody inside
// there is no comfort requirement, only wasted energy.
func ClassifyStatus(ppd float64, occupancy int) Status {
	if occupancy == 0 {
		return StatusBorosEnergi
	}
	for _, b := range ppdStatusMap {
		if (b.min < ppd && ppd <= b.max) || (b.min == 0 && ppd <= b.max) {
			return b.status
		}
	}
	return StatusKritis
}

// ThermalSeverity grades the deviation of PMV from the neutral zone.
func ThermalSeverity(pmv float64) Severity {
	a := abs(pmv)
	switch {
	case a <= 0.5:
		return SeverityNone
	case a <= 1.0:
		return SeverityMild
	case a <= 1.5:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// ClassifyConcern combines thermal severity and environmental issues into the
// focus label consumed by the narrator. It has no effect on control.
func ClassifyConcern(severity Severity, issues []EnvIssue) Concern {
	thermal := severity != SeverityNone
	env := false
	for _, iss := range issues {
		if iss.Severity == IssueModerate || iss.Severity == IssueSevere {
			env = true
			break
		}
	}
	switch {
	case thermal && env:
		return ConcernBoth
	case thermal:
		return ConcernThermal
	case env:
		return ConcernEnvironmental
	default:
		return ConcernNone
	}
}
