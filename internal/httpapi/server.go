// Package httpapi exposes the synchronous analysis endpoint plus the
// operational surface: health, loop status, band inspection, properties
// reload, the evaluation audit log and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/afifnasrullahs/roomcomfort/internal/engine"
	"github.com/afifnasrullahs/roomcomfort/internal/history"
	"github.com/afifnasrullahs/roomcomfort/internal/metrics"
	"github.com/afifnasrullahs/roomcomfort/internal/service"
)

// HistoryReader lists persisted evaluations, newest first.
type HistoryReader interface {
	Recent(limit int) ([]history.Record, error)
}

type Server struct {
	lg   *slog.Logger
	svc  *service.Service
	hist HistoryReader
	http *http.Server
}

// New builds the server. hist may be nil; /evaluations then answers 404.
func New(bind string, lg *slog.Logger, svc *service.Service, hist HistoryReader) *Server {
	s := &Server{lg: lg, svc: svc, hist: hist}

	r := mux.NewRouter()
	r.HandleFunc("/analyze", s.postAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/health", s.getHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/config/bands", s.getBands).Methods(http.MethodGet)
	r.HandleFunc("/config/reload", s.postReload).Methods(http.MethodPost)
	if hist != nil {
		r.HandleFunc("/evaluations", s.getEvaluations).Methods(http.MethodGet)
	}
	r.HandleFunc("/metrics", s.getMetrics).Methods(http.MethodGet)

	root := handlers.RecoveryHandler(handlers.RecoveryLogger(&recoveryLogger{lg}))(
		handlers.LoggingHandler(os.Stdout, r))
	s.http = &http.Server{Addr: bind, Handler: root}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) Start() error {
	s.lg.Info("http start", "bind", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.lg.Info("http stop")
	return s.http.Shutdown(ctx)
}

type recoveryLogger struct{ lg *slog.Logger }

func (r *recoveryLogger) Println(v ...interface{}) {
	r.lg.Error("handler panic", "detail", v)
}

// analyzeRecommendation mirrors the wire contract consumed by the dashboard.
type analyzeRecommendation struct {
	ACControl engine.ACControl `json:"ac_control"`
	Reason    string           `json:"reason"`
}

type analyzeResponse struct {
	Comfort        engine.Comfort        `json:"Comfort"`
	Recommendation analyzeRecommendation `json:"Recommendation"`
}

func (s *Server) postAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var reading engine.SensorReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeError(w, http.StatusBadRequest, "invalid sensor payload: "+err.Error())
		metrics.ObserveAnalyzeRequest(http.StatusBadRequest, time.Since(start))
		return
	}
	if reading.Occupancy < 0 {
		writeError(w, http.StatusBadRequest, "occupancy must not be negative")
		metrics.ObserveAnalyzeRequest(http.StatusBadRequest, time.Since(start))
		return
	}

	result, reason := s.svc.Analyze(r.Context(), reading)
	writeJSON(w, http.StatusOK, analyzeResponse{
		Comfort: result.Comfort,
		Recommendation: analyzeRecommendation{
			ACControl: result.ACControl,
			Reason:    reason,
		},
	})
	metrics.ObserveAnalyzeRequest(http.StatusOK, time.Since(start))
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

func (s *Server) getBands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"bands": s.svc.Bands().Bands()})
}

func (s *Server) postReload(w http.ResponseWriter, r *http.Request) {
	cfg := s.svc.Config()
	if err := cfg.ReloadProperties(); err != nil {
		s.lg.Error("reload", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.svc.Bands().Reload(cfg.Bands); err != nil {
		s.lg.Error("band reload", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.lg.Info("properties reloaded", "rooms", cfg.Rooms, "bands", len(cfg.Bands))
	writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "bands": len(cfg.Bands)})
}

func (s *Server) getEvaluations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	recs, err := s.hist.Recent(limit)
	if err != nil {
		s.lg.Error("history query", "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluations": recs})
}

func (s *Server) getMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(metrics.Render()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
