package engine

// SensorReading is one snapshot from the room sensors. Field names follow the
// sensor gateway payload.
type SensorReading struct {
	Temperature float64 `json:"temp"`        // air temperature, Celsius
	Humidity    float64 `json:"hum"`         // relative humidity, percent
	Noise       float64 `json:"noise"`       // dB
	LightLevel  float64 `json:"light_level"` // lux
	Occupancy   int     `json:"occupancy"`   // number of occupants
}

// Status is the physiological comfort classification derived from PPD.
// Labels are the Indonesian operator-facing strings consumed downstream.
type Status string

const (
	StatusIdeal        Status = "Ideal"
	StatusOptimalisasi Status = "Optimalisasi"
	StatusPeringatan   Status = "Peringatan"
	StatusKritis       Status = "Kritis"
	StatusBorosEnergi  Status = "Boros Energi" // empty room, AC off
)

// Severity grades the thermal deviation from the neutral PMV zone.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Concern labels which problem class dominates the evaluation.
type Concern string

const (
	ConcernNone          Concern = "none"
	ConcernThermal       Concern = "thermal"
	ConcernEnvironmental Concern = "environmental"
	ConcernBoth          Concern = "both"
)

// ACMode is the operating mode sent to the air conditioner.
type ACMode string

const (
	ModeCool ACMode = "cool"
	ModeFan  ACMode = "fan"
	ModeDry  ACMode = "dry"
	ModeAuto ACMode = "auto"
	ModeOff  ACMode = "off"
)

// FanSpeed is the fan setting sent to the air conditioner.
type FanSpeed string

const (
	FanAuto   FanSpeed = "auto"
	FanLow    FanSpeed = "low"
	FanMedium FanSpeed = "medium"
	FanHigh   FanSpeed = "high"
)

// ReferenceBand holds the comfort targets for an inclusive occupancy range.
type ReferenceBand struct {
	OccMin     int     `json:"occMin"`
	OccMax     int     `json:"occMax"`
	TargetTemp float64 `json:"targetTemp"`
	HumMin     int     `json:"humMin"`
	HumMax     int     `json:"humMax"`
	TargetLux  int     `json:"targetLux"`
	NoiseMax   int     `json:"noiseMax"`
}

// Comfort carries the thermal indices plus the independent environmental
// score. Score never influences State and vice versa: State comes from PPD,
// Score from the non-thermal environment.
type Comfort struct {
	PMV   float64 `json:"pmv"`
	PPD   float64 `json:"ppd"`
	Score float64 `json:"score"`
	State Status  `json:"state"`
}

// ACControl is the recommended air-conditioner setting.
type ACControl struct {
	Temp int      `json:"temp"` // setpoint, 16..30 Celsius
	Mode ACMode   `json:"mode"`
	Fan  FanSpeed `json:"fan"`
}

// IssueFactor identifies the non-thermal aspect an EnvIssue refers to.
type IssueFactor string

const (
	FactorLighting IssueFactor = "lighting"
	FactorNoise    IssueFactor = "noise"
	FactorHumidity IssueFactor = "humidity"
)

// IssueSeverity grades a detected environmental issue.
type IssueSeverity string

const (
	IssueModerate IssueSeverity = "moderate"
	IssueSevere   IssueSeverity = "severe"
)

// EnvIssue is an actionable non-thermal alert with a remediation that does
// not involve the AC.
type EnvIssue struct {
	Factor         IssueFactor   `json:"factor"`
	Severity       IssueSeverity `json:"severity"`
	Description    string        `json:"description"`
	Recommendation string        `json:"recommendation"`
}

// EnvBreakdown lists the three environmental sub-scores, each 0..100.
type EnvBreakdown struct {
	Lighting float64 `json:"lighting"`
	Noise    float64 `json:"noise"`
	Humidity float64 `json:"humidity"`
}

// PMVInputs documents the values fed to the Fanger solver, including the
// fixed deployment assumptions (seated office activity, standard indoor
// clothing, still air).
type PMVInputs struct {
	Ta  float64 `json:"ta"`
	Tr  float64 `json:"tr"`
	Vel float64 `json:"vel"`
	RH  float64 `json:"rh"`
	Met float64 `json:"met"`
	Clo float64 `json:"clo"`
}

// EvaluationResult aggregates everything one evaluation produces. It is built
// once per reading and never mutated afterwards.
type EvaluationResult struct {
	Comfort         Comfort       `json:"comfort"`
	ACControl       ACControl     `json:"acControl"`
	Band            ReferenceBand `json:"band"`
	EnvScore        float64       `json:"envScore"`
	EnvBreakdown    EnvBreakdown  `json:"envScoreBreakdown"`
	Issues          []EnvIssue    `json:"envIssues,omitempty"`
	Concern         Concern       `json:"primaryConcern"`
	ThermalSeverity Severity      `json:"thermalSeverity"`
	PMVInputs       PMVInputs     `json:"pmvInputs"`
	TempDeviation   float64       `json:"tempDeviation"`
	HumDeviation    float64       `json:"humDeviation"`
}
