package engine

import (
	"reflect"
	"testing"
)

func TestEvaluateNeutralScenario(t *testing.T) {
	e := NewDefault()
	res := e.Evaluate(SensorReading{
		Temperature: 26, Humidity: 50, Noise: 40, LightLevel: 400, Occupancy: 5,
	})
	if res.ThermalSeverity != SeverityNone {
		t.Errorf("severity: got %s want none (pmv=%v)", res.ThermalSeverity, res.Comfort.PMV)
	}
	if res.Comfort.PPD > 10 {
		t.Errorf("ppd: got %v want <= 10", res.Comfort.PPD)
	}
	if res.Comfort.State != StatusIdeal {
		t.Errorf("state: got %s want Ideal", res.Comfort.State)
	}
	if res.ACControl.Mode != ModeAuto {
		t.Errorf("mode: got %s want auto", res.ACControl.Mode)
	}
	if res.Band.TargetTemp != 23.5 {
		t.Errorf("band target: got %v want 23.5", res.Band.TargetTemp)
	}
	if res.Concern != ConcernNone {
		t.Errorf("concern: got %s want none", res.Concern)
	}
}

func TestEvaluateEmptyRoom(t *testing.T) {
	e := NewDefault()
	for _, r := range []SensorReading{
		{Temperature: 18, Humidity: 20, Noise: 80, LightLevel: 50, Occupancy: 0},
		{Temperature: 35, Humidity: 95, Noise: 30, LightLevel: 900, Occupancy: 0},
	} {
		res := e.Evaluate(r)
		if res.Comfort.State != StatusBorosEnergi {
			t.Errorf("state: got %s want Boros Energi", res.Comfort.State)
		}
		want := ACControl{Temp: 24, Mode: ModeOff, Fan: FanAuto}
		if res.ACControl != want {
			t.Errorf("control: got %+v want %+v", res.ACControl, want)
		}
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	e := NewDefault()
	r := SensorReading{Temperature: 28.3, Humidity: 63, Noise: 52, LightLevel: 610, Occupancy: 14}
	a := e.Evaluate(r)
	b := e.Evaluate(r)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ:\n%+v\n%+v", a, b)
	}
}

func TestEvaluateTemperatureDoesNotTouchEnvScore(t *testing.T) {
	e := NewDefault()
	base := SensorReading{Temperature: 22, Humidity: 50, Noise: 48, LightLevel: 300, Occupancy: 12}
	ref := e.Evaluate(base)
	for _, temp := range []float64{16, 20, 26, 31, 38} {
		r := base
		r.Temperature = temp
		res := e.Evaluate(r)
		if res.EnvScore != ref.EnvScore || res.EnvBreakdown != ref.EnvBreakdown {
			t.Errorf("temp=%v changed env score: %v/%+v vs %v/%+v",
				temp, res.EnvScore, res.EnvBreakdown, ref.EnvScore, ref.EnvBreakdown)
		}
	}
}

func TestEvaluateScoreAndStateIndependent(t *testing.T) {
	e := NewDefault()
	// hot room, perfect environment: state degrades, score stays high
	hot := e.Evaluate(SensorReading{Temperature: 31, Humidity: 50, Noise: 40, LightLevel: 400, Occupancy: 5})
	if hot.Comfort.State == StatusIdeal {
		t.Errorf("expected degraded state in a hot room, got %s", hot.Comfort.State)
	}
	if hot.EnvScore != 100 {
		t.Errorf("env score: got %v want 100", hot.EnvScore)
	}
	// neutral room, terrible environment: state stays, score drops
	loud := e.Evaluate(SensorReading{Temperature: 26, Humidity: 50, Noise: 70, LightLevel: 90, Occupancy: 5})
	if loud.Comfort.State != StatusIdeal {
		t.Errorf("state: got %s want Ideal", loud.Comfort.State)
	}
	if loud.EnvScore > 60 {
		t.Errorf("env score: got %v want degraded", loud.EnvScore)
	}
	if loud.Concern != ConcernEnvironmental {
		t.Errorf("concern: got %s want environmental", loud.Concern)
	}
}

func TestEvaluateDeviations(t *testing.T) {
	e := NewDefault()
	res := e.Evaluate(SensorReading{Temperature: 27.2, Humidity: 38.5, Noise: 44, LightLevel: 400, Occupancy: 5})
	if res.TempDeviation != 3.7 { // 27.2 - 23.5
		t.Errorf("temp deviation: got %v want 3.7", res.TempDeviation)
	}
	if res.HumDeviation != -6.5 { // 38.5 below the 45 floor
		t.Errorf("hum deviation: got %v want -6.5", res.HumDeviation)
	}
	inside := e.Evaluate(SensorReading{Temperature: 23.5, Humidity: 50, Noise: 44, LightLevel: 400, Occupancy: 5})
	if inside.HumDeviation != 0 {
		t.Errorf("hum deviation inside band: got %v want 0", inside.HumDeviation)
	}
}

func TestEvaluatePMVInputsDocumentAssumptions(t *testing.T) {
	e := NewDefault()
	res := e.Evaluate(SensorReading{Temperature: 24, Humidity: 55, Noise: 40, LightLevel: 400, Occupancy: 2})
	want := PMVInputs{Ta: 24, Tr: 24, Vel: 0.1, RH: 55, Met: 1.2, Clo: 0.5}
	if res.PMVInputs != want {
		t.Fatalf("pmv inputs: got %+v want %+v", res.PMVInputs, want)
	}
}
