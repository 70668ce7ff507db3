// Package history persists evaluation results to a local SQLite database so
// operators can audit what the engine decided and why.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/afifnasrullahs/roomcomfort/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id           TEXT PRIMARY KEY,
	room_id      TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	status       TEXT NOT NULL,
	pmv          REAL NOT NULL,
	ppd          REAL NOT NULL,
	env_score    REAL NOT NULL,
	setpoint     INTEGER NOT NULL,
	mode         TEXT NOT NULL,
	fan          TEXT NOT NULL,
	reading_json TEXT NOT NULL,
	result_json  TEXT NOT NULL,
	reason       TEXT
);

CREATE INDEX IF NOT EXISTS idx_evaluations_created_at
	ON evaluations (created_at DESC);
`

// Record is one persisted evaluation.
type Record struct {
	ID        string                  `json:"id"`
	RoomID    string                  `json:"roomId"`
	CreatedAt time.Time               `json:"createdAt"`
	Reading   engine.SensorReading    `json:"reading"`
	Result    engine.EvaluationResult `json:"result"`
	Reason    string                  `json:"reason,omitempty"`
}

// Store wraps the SQLite evaluation log.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory if needed, opens the database and runs
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Insert stores one evaluation and returns its generated ID.
func (s *Store) Insert(roomID string, reading engine.SensorReading, result engine.EvaluationResult, reason string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	readingJSON, err := json.Marshal(reading)
	if err != nil {
		return "", fmt.Errorf("marshal reading: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO evaluations
			(id, room_id, created_at, status, pmv, ppd, env_score, setpoint, mode, fan, reading_json, result_json, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, roomID, now.Format(time.RFC3339Nano),
		string(result.Comfort.State), result.Comfort.PMV, result.Comfort.PPD, result.EnvScore,
		result.ACControl.Temp, string(result.ACControl.Mode), string(result.ACControl.Fan),
		string(readingJSON), string(resultJSON), reason,
	)
	if err != nil {
		return "", fmt.Errorf("insert evaluation: %w", err)
	}
	return id, nil
}

// Recent returns up to limit evaluations, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, room_id, created_at, reading_json, result_json, reason
		 FROM evaluations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec         Record
			createdAt   string
			readingJSON string
			resultJSON  string
			reason      sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.RoomID, &createdAt, &readingJSON, &resultJSON, &reason); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = t
		}
		if err := json.Unmarshal([]byte(readingJSON), &rec.Reading); err != nil {
			return nil, fmt.Errorf("decode reading %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", rec.ID, err)
		}
		rec.Reason = reason.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
