package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/afifnasrullahs/roomcomfort/internal/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "comfort.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndRecent(t *testing.T) {
	s := openTestStore(t)

	reading := engine.SensorReading{Temperature: 28, Humidity: 60, Noise: 42, LightLevel: 400, Occupancy: 4}
	result := engine.EvaluationResult{
		Comfort:   engine.Comfort{PMV: 0.86, PPD: 20.6, Score: 95, State: engine.StatusOptimalisasi},
		ACControl: engine.ACControl{Temp: 23, Mode: engine.ModeCool, Fan: engine.FanAuto},
		EnvScore:  95,
	}

	id, err := s.Insert("room-A", reading, result, "penyesuaian ringan")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}

	recs, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records: got %d want 1", len(recs))
	}
	got := recs[0]
	if got.ID != id || got.RoomID != "room-A" || got.Reason != "penyesuaian ringan" {
		t.Fatalf("record: %+v", got)
	}
	if got.Result.Comfort.State != engine.StatusOptimalisasi || got.Result.ACControl.Temp != 23 {
		t.Fatalf("result roundtrip: %+v", got.Result)
	}
	if got.Reading.Temperature != 28 || got.Reading.Occupancy != 4 {
		t.Fatalf("reading roundtrip: %+v", got.Reading)
	}
	if time.Since(got.CreatedAt) > time.Minute {
		t.Fatalf("createdAt: %v", got.CreatedAt)
	}
}

func TestRecentOrdersNewestFirstAndHonorsLimit(t *testing.T) {
	s := openTestStore(t)

	reading := engine.SensorReading{Temperature: 26, Humidity: 50, Occupancy: 2}
	for i := 0; i < 5; i++ {
		result := engine.EvaluationResult{
			Comfort:   engine.Comfort{PMV: 0.08, PPD: 5.1, State: engine.StatusIdeal},
			ACControl: engine.ACControl{Temp: 16 + i, Mode: engine.ModeAuto, Fan: engine.FanAuto},
		}
		if _, err := s.Insert("room-B", reading, result, ""); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	recs, err := s.Recent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("limit not applied: got %d", len(recs))
	}
	if recs[0].Result.ACControl.Temp != 20 {
		t.Fatalf("newest first expected setpoint 20, got %d", recs[0].Result.ACControl.Temp)
	}
}

func TestOpenErrorsOnUnusablePath(t *testing.T) {
	// a directory is not a database file; the first pragma fails and Open
	// must release the handle and report the error
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatalf("expected error opening a directory as database")
	}
}

func TestRecentDefaultsBadLimit(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Recent(-1); err != nil {
		t.Fatalf("recent with bad limit: %v", err)
	}
	if _, err := s.Recent(10000); err != nil {
		t.Fatalf("recent with huge limit: %v", err)
	}
}
