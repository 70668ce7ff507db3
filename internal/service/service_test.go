package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/afifnasrullahs/roomcomfort/internal/config"
	"github.com/afifnasrullahs/roomcomfort/internal/engine"
	"github.com/afifnasrullahs/roomcomfort/internal/kafkabus"
)

type fakeBus struct {
	readings  map[string]kafkabus.ReadingMessage
	published []kafkabus.CommandMessage
	results   []kafkabus.ResultMessage
	pubErr    error
}

func (f *fakeBus) DrainRoomLatest(_ context.Context, room string) (kafkabus.ReadingMessage, bool, error) {
	rm, ok := f.readings[room]
	return rm, ok, nil
}

func (f *fakeBus) Publish(_ context.Context, _ string, res kafkabus.ResultMessage, cmd kafkabus.CommandMessage) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.results = append(f.results, res)
	f.published = append(f.published, cmd)
	return nil
}

type fakeRecorder struct {
	inserted []string
	err      error
}

func (f *fakeRecorder) Insert(roomID string, _ engine.SensorReading, _ engine.EvaluationResult, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.inserted = append(f.inserted, roomID)
	return "eval-1", nil
}

type fakeNarrator struct {
	reason  string
	fromLLM bool
}

func (f *fakeNarrator) Reason(_ context.Context, _ engine.SensorReading, _ engine.EvaluationResult) (string, bool) {
	return f.reason, f.fromLLM
}

func newTestService(t *testing.T, bus Transport, hist Recorder, narr Narrator) *Service {
	t.Helper()
	bands, err := NewBandStore(engine.DefaultBands())
	if err != nil {
		t.Fatalf("band store: %v", err)
	}
	cfg := &config.AppConfig{Rooms: []string{"room-A"}, PollIntervalMs: 1}
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, lg, bands, bus, hist, narr)
}

func TestProcessPublishesAndPersists(t *testing.T) {
	bus := &fakeBus{}
	rec := &fakeRecorder{}
	narr := &fakeNarrator{reason: "kondisi nyaman", fromLLM: true}
	s := newTestService(t, bus, rec, narr)

	reading := engine.SensorReading{Temperature: 26, Humidity: 50, Noise: 42, LightLevel: 400, Occupancy: 5}
	result, reason := s.Process(context.Background(), "room-A", reading)

	if result.Comfort.State != engine.StatusIdeal {
		t.Fatalf("state: %s", result.Comfort.State)
	}
	if reason != "kondisi nyaman" {
		t.Fatalf("reason: %q", reason)
	}
	if len(bus.published) != 1 || len(bus.results) != 1 {
		t.Fatalf("publish counts: cmds=%d results=%d", len(bus.published), len(bus.results))
	}
	if bus.results[0].EvaluationID != "eval-1" {
		t.Fatalf("result should carry the history id, got %q", bus.results[0].EvaluationID)
	}
	if bus.published[0].Temp != result.ACControl.Temp {
		t.Fatalf("command setpoint %d != result %d", bus.published[0].Temp, result.ACControl.Temp)
	}
	if len(rec.inserted) != 1 || rec.inserted[0] != "room-A" {
		t.Fatalf("history inserts: %v", rec.inserted)
	}

	st := s.Stats()
	if st.ReadingsIn != 1 || st.CommandsOut != 1 || st.HistoryWrites != 1 {
		t.Fatalf("stats: %+v", st)
	}
	if st.LastStatus["room-A"] != "Ideal" {
		t.Fatalf("last status: %v", st.LastStatus)
	}
	if st.NarrationFallbacks != 0 {
		t.Fatalf("fallback counted for model-backed reason: %+v", st)
	}
}

func TestProcessCountsNarrationFallback(t *testing.T) {
	s := newTestService(t, nil, nil, &fakeNarrator{reason: "template", fromLLM: false})
	s.Process(context.Background(), "room-A", engine.SensorReading{Temperature: 26, Humidity: 50, Occupancy: 2})
	if got := s.Stats().NarrationFallbacks; got != 1 {
		t.Fatalf("fallbacks: %d", got)
	}
}

func TestProcessSurvivesFailures(t *testing.T) {
	bus := &fakeBus{pubErr: errors.New("broker down")}
	rec := &fakeRecorder{err: errors.New("disk full")}
	s := newTestService(t, bus, rec, nil)

	result, reason := s.Process(context.Background(), "room-A", engine.SensorReading{Temperature: 30, Humidity: 70, Occupancy: 8})
	if result.Comfort.State == "" {
		t.Fatalf("expected evaluation despite downstream failures")
	}
	if reason != "" {
		t.Fatalf("nil narrator should yield empty reason, got %q", reason)
	}
	st := s.Stats()
	if st.CommandsOut != 0 || st.HistoryWrites != 0 {
		t.Fatalf("failed downstreams must not count: %+v", st)
	}
	if st.ReadingsIn != 1 {
		t.Fatalf("reading should still count: %+v", st)
	}
}

func TestRunDrainsConfiguredRooms(t *testing.T) {
	bus := &fakeBus{readings: map[string]kafkabus.ReadingMessage{
		"room-A": {RoomID: "room-A", SensorReading: engine.SensorReading{Temperature: 26, Humidity: 50, Occupancy: 3}},
	}}
	s := newTestService(t, bus, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	deadline := time.Now().Add(5 * time.Second)
	for s.Stats().Loops < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if s.Stats().ReadingsIn < 2 {
		t.Fatalf("expected repeated processing, stats: %+v", s.Stats())
	}
	if len(bus.published) < 2 {
		t.Fatalf("expected published commands, got %d", len(bus.published))
	}
}

func TestRunStopsPromptlyOnCancel(t *testing.T) {
	bands, err := NewBandStore(engine.DefaultBands())
	if err != nil {
		t.Fatalf("band store: %v", err)
	}
	// interval far longer than the test; cancellation must interrupt the wait
	cfg := &config.AppConfig{Rooms: []string{"room-A"}, PollIntervalMs: 60000}
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(cfg, lg, bands, &fakeBus{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	deadline := time.Now().Add(5 * time.Second)
	for s.Stats().Loops < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancellation")
	}
}

func TestBandStoreReload(t *testing.T) {
	bands, err := NewBandStore(engine.DefaultBands())
	if err != nil {
		t.Fatalf("band store: %v", err)
	}

	custom := []engine.ReferenceBand{
		{OccMin: 0, OccMax: 0, TargetTemp: 25, HumMin: 50, HumMax: 50, TargetLux: 500, NoiseMax: 40},
		{OccMin: 1, OccMax: 999, TargetTemp: 22, HumMin: 40, HumMax: 60, TargetLux: 400, NoiseMax: 50},
	}
	if err := bands.Reload(custom); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := bands.Bands(); len(got) != 2 || got[1].TargetTemp != 22 {
		t.Fatalf("bands after reload: %+v", got)
	}

	bad := []engine.ReferenceBand{{OccMin: 5, OccMax: 3}}
	if err := bands.Reload(bad); err == nil {
		t.Fatalf("expected reload rejection")
	}
	if got := bands.Bands(); len(got) != 2 {
		t.Fatalf("failed reload must keep previous table, got %d bands", len(got))
	}
}
