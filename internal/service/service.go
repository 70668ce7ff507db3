package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/afifnasrullahs/roomcomfort/internal/config"
	"github.com/afifnasrullahs/roomcomfort/internal/engine"
	"github.com/afifnasrullahs/roomcomfort/internal/kafkabus"
	"github.com/afifnasrullahs/roomcomfort/internal/metrics"
)

// Transport abstracts the Kafka bus so the loop can run in tests (and in
// HTTP-only deployments) without a broker.
type Transport interface {
	DrainRoomLatest(ctx context.Context, room string) (kafkabus.ReadingMessage, bool, error)
	Publish(ctx context.Context, room string, res kafkabus.ResultMessage, cmd kafkabus.CommandMessage) error
}

// Narrator produces the human explanation for one evaluation. The boolean
// reports whether a language model wrote it.
type Narrator interface {
	Reason(ctx context.Context, reading engine.SensorReading, res engine.EvaluationResult) (string, bool)
}

// Recorder persists evaluations for the audit log.
type Recorder interface {
	Insert(roomID string, reading engine.SensorReading, result engine.EvaluationResult, reason string) (string, error)
}

// Stats is a snapshot of the loop counters for the /status endpoint.
type Stats struct {
	Loops              int64             `json:"loops"`
	ReadingsIn         int64             `json:"readingsIn"`
	CommandsOut        int64             `json:"commandsOut"`
	HistoryWrites      int64             `json:"historyWrites"`
	NarrationFallbacks int64             `json:"narrationFallbacks"`
	LastStatus         map[string]string `json:"lastStatus"`
}

// Service wires the engine to its transports.
type Service struct {
	cfg   *config.AppConfig
	lg    *slog.Logger
	bands *BandStore
	bus   Transport
	hist  Recorder
	narr  Narrator

	mu    sync.Mutex
	stats Stats
}

// New builds a service. bus, hist and narr may each be nil: a nil bus skips
// publishing, a nil hist skips the audit log and a nil narr yields an empty
// reason.
func New(cfg *config.AppConfig, lg *slog.Logger, bands *BandStore, bus Transport, hist Recorder, narr Narrator) *Service {
	return &Service{
		cfg:   cfg,
		lg:    lg,
		bands: bands,
		bus:   bus,
		hist:  hist,
		narr:  narr,
		stats: Stats{LastStatus: map[string]string{}},
	}
}

// Run polls every configured room until the context is cancelled. Each pass
// drains the room's partition down to the newest reading and evaluates it.
func (s *Service) Run(ctx context.Context) {
	if s.bus == nil {
		s.lg.Info("no kafka transport, poll loop idle")
		<-ctx.Done()
		return
	}
	interval := time.Duration(s.cfg.PollIntervalMs) * time.Millisecond
	s.lg.Info("service start", "interval_ms", s.cfg.PollIntervalMs, "rooms", s.cfg.Rooms)
	for {
		select {
		case <-ctx.Done():
			s.lg.Info("service stop")
			return
		default:
		}
		for _, room := range s.cfg.Rooms {
			rm, ok, err := s.bus.DrainRoomLatest(ctx, room)
			if err != nil {
				s.lg.Error("drain error", "room", room, "error", err)
				continue
			}
			if !ok {
				continue
			}
			s.Process(ctx, room, rm.SensorReading)
		}
		s.mu.Lock()
		s.stats.Loops++
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			s.lg.Info("service stop")
			return
		case <-time.After(interval):
		}
	}
}

// Process runs one reading through the full pipeline: evaluate, narrate,
// publish, persist. Publish and persist failures are logged and do not stop
// the loop.
func (s *Service) Process(ctx context.Context, room string, reading engine.SensorReading) (engine.EvaluationResult, string) {
	result, reason, fromLLM := s.evaluate(ctx, reading)

	s.mu.Lock()
	s.stats.ReadingsIn++
	s.stats.LastStatus[room] = string(result.Comfort.State)
	if s.narr != nil && !fromLLM {
		s.stats.NarrationFallbacks++
	}
	s.mu.Unlock()

	evalID := ""
	if s.hist != nil {
		id, err := s.hist.Insert(room, reading, result, reason)
		if err != nil {
			s.lg.Error("history insert", "room", room, "error", err)
		} else {
			evalID = id
			metrics.IncHistoryWrite()
			s.mu.Lock()
			s.stats.HistoryWrites++
			s.mu.Unlock()
		}
	}

	if s.bus != nil {
		now := time.Now().UTC()
		res := kafkabus.ResultMessage{
			EvaluationID: evalID,
			RoomID:       room,
			ProducedAt:   now,
			Result:       result,
			Reason:       reason,
		}
		cmd := kafkabus.CommandMessage{
			RoomID:    room,
			IssuedAt:  now,
			Reason:    reason,
			ACControl: result.ACControl,
		}
		if err := s.bus.Publish(ctx, room, res, cmd); err != nil {
			s.lg.Error("publish error", "room", room, "error", err)
		} else {
			s.mu.Lock()
			s.stats.CommandsOut++
			s.mu.Unlock()
		}
	}

	s.lg.Info("evaluated",
		"room", room,
		"pmv", result.Comfort.PMV,
		"ppd", result.Comfort.PPD,
		"state", result.Comfort.State,
		"envScore", result.EnvScore,
		"setpoint", result.ACControl.Temp,
		"mode", result.ACControl.Mode)
	return result, reason
}

// Analyze evaluates and narrates a reading without publishing commands or
// touching the audit log. Serves the synchronous HTTP path.
func (s *Service) Analyze(ctx context.Context, reading engine.SensorReading) (engine.EvaluationResult, string) {
	result, reason, _ := s.evaluate(ctx, reading)
	return result, reason
}

func (s *Service) evaluate(ctx context.Context, reading engine.SensorReading) (engine.EvaluationResult, string, bool) {
	start := time.Now()
	result := s.bands.Engine().Evaluate(reading)
	metrics.ObserveEvaluation(time.Since(start))
	metrics.IncEvaluation(string(result.Comfort.State))

	reason := ""
	fromLLM := false
	if s.narr != nil {
		reason, fromLLM = s.narr.Reason(ctx, reading, result)
	}
	return result, reason, fromLLM
}

// HandleReading is the MQTT ingest callback.
func (s *Service) HandleReading(rm kafkabus.ReadingMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()
	s.Process(ctx, rm.RoomID, rm.SensorReading)
}

// Stats returns a copy of the loop counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.LastStatus = make(map[string]string, len(s.stats.LastStatus))
	for k, v := range s.stats.LastStatus {
		out.LastStatus[k] = v
	}
	return out
}

// Bands exposes the band store for the HTTP layer.
func (s *Service) Bands() *BandStore { return s.bands }

// Config exposes the loaded configuration for reload handlers.
func (s *Service) Config() *config.AppConfig { return s.cfg }
