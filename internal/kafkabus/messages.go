// Package kafkabus carries sensor readings in and comfort results out over
// Kafka. Each configured room maps to one partition of the readings topic;
// commands go to a per-room topic so wall units can subscribe narrowly.
package kafkabus

import (
	"time"

	"github.com/afifnasrullahs/roomcomfort/internal/engine"
)

// ReadingMessage is the payload published by sensor gateways.
type ReadingMessage struct {
	RoomID    string    `json:"roomId"`
	Timestamp time.Time `json:"timestamp"`
	engine.SensorReading
}

// ResultMessage is the full evaluation outcome published for dashboards and
// downstream consumers.
type ResultMessage struct {
	EvaluationID string                  `json:"evaluationId"`
	RoomID       string                  `json:"roomId"`
	ProducedAt   time.Time               `json:"producedAt"`
	Result       engine.EvaluationResult `json:"result"`
	Reason       string                  `json:"reason,omitempty"`
}

// CommandMessage is the AC instruction published to the room's command topic.
type CommandMessage struct {
	RoomID   string    `json:"roomId"`
	IssuedAt time.Time `json:"issuedAt"`
	Reason   string    `json:"reason,omitempty"`
	engine.ACControl
}
