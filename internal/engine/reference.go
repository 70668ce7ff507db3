package engine

import "fmt"

// defaultBands is the deployed occupancy→target table. More occupants mean a
// warmer target (shared thermal load) and a wider tolerated humidity band.
var defaultBands = []ReferenceBand{
	{OccMin: 0, OccMax: 0, TargetTemp: 24.0, HumMin: 50, HumMax: 50, TargetLux: 450, NoiseMax: 45},
	{OccMin: 1, OccMax: 10, TargetTemp: 23.5, HumMin: 45, HumMax: 55, TargetLux: 400, NoiseMax: 45},
	{OccMin: 11, OccMax: 18, TargetTemp: 25.0, HumMin: 45, HumMax: 55, TargetLux: 420, NoiseMax: 45},
	{OccMin: 19, OccMax: 25, TargetTemp: 26.5, HumMin: 56, HumMax: 65, TargetLux: 380, NoiseMax: 55},
	{OccMin: 26, OccMax: 30, TargetTemp: 27.1, HumMin: 66, HumMax: 70, TargetLux: 550, NoiseMax: 55},
	{OccMin: 31, OccMax: 999, TargetTemp: 28.5, HumMin: 71, HumMax: 75, TargetLux: 600, NoiseMax: 60},
}

// DefaultBands returns a copy of the built-in reference table.
func DefaultBands() []ReferenceBand {
	out := make([]ReferenceBand, len(defaultBands))
	copy(out, defaultBands)
	return out
}

// BandTable resolves occupancy counts to reference bands. The table is
// validated once at construction and immutable afterwards, so Resolve is safe
// for concurrent use.
type BandTable struct {
	bands []ReferenceBand
}

// NewBandTable validates the provided bands and builds a table. Bands must be
// non-empty, start at occupancy 0, and form ascending contiguous inclusive
// ranges. Malformed tables are a configuration fault and rejected here so the
// resolver never has to error at evaluation time.
func NewBandTable(bands []ReferenceBand) (*BandTable, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("reference: empty band table")
	}
	if bands[0].OccMin != 0 {
		return nil, fmt.Errorf("reference: first band must start at occupancy 0, got %d", bands[0].OccMin)
	}
	for i, b := range bands {
		if b.OccMin > b.OccMax {
			return nil, fmt.Errorf("reference: band %d range inverted (%d..%d)", i, b.OccMin, b.OccMax)
		}
		if b.HumMin > b.HumMax {
			return nil, fmt.Errorf("reference: band %d humidity range inverted (%d..%d)", i, b.HumMin, b.HumMax)
		}
		if i > 0 && b.OccMin != bands[i-1].OccMax+1 {
			return nil, fmt.Errorf("reference: band %d not contiguous (starts at %d, previous ends at %d)", i, b.OccMin, bands[i-1].OccMax)
		}
	}
	t := &BandTable{bands: make([]ReferenceBand, len(bands))}
	copy(t.bands, bands)
	return t, nil
}

// Resolve returns the band whose inclusive occupancy range contains the
// count. Counts beyond the last band fall back to the highest-occupancy band;
// there is no error path.
func (t *BandTable) Resolve(occupancy int) ReferenceBand {
	for _, b := range t.bands {
		if occupancy >= b.OccMin && occupancy <= b.OccMax {
			return b
		}
	}
	return t.bands[len(t.bands)-1]
}

// Bands returns a copy of the table contents for the config API.
func (t *BandTable) Bands() []ReferenceBand {
	out := make([]ReferenceBand, len(t.bands))
	copy(out, t.bands)
	return out
}
