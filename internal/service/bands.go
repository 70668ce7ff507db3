// Package service drives the evaluation pipeline: it pulls the latest reading
// per room, runs the comfort engine, narrates the outcome and fans the result
// out to Kafka and the history store.
package service

import (
	"sync"

	"github.com/afifnasrullahs/roomcomfort/internal/engine"
)

// BandStore holds the active rule engine behind a RWMutex so the poll loop
// and HTTP handlers keep evaluating while a properties reload swaps the band
// table. A reload that fails validation leaves the previous engine in place.
type BandStore struct {
	mu    sync.RWMutex
	table *engine.BandTable
	eng   *engine.Engine
}

func NewBandStore(bands []engine.ReferenceBand) (*BandStore, error) {
	table, err := engine.NewBandTable(bands)
	if err != nil {
		return nil, err
	}
	return &BandStore{table: table, eng: engine.New(table)}, nil
}

// Engine returns the currently active engine. Fetch it per evaluation rather
// than holding the pointer across reloads.
func (s *BandStore) Engine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eng
}

// Reload validates the new band table and atomically swaps the engine.
func (s *BandStore) Reload(bands []engine.ReferenceBand) error {
	table, err := engine.NewBandTable(bands)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.table = table
	s.eng = engine.New(table)
	s.mu.Unlock()
	return nil
}

// Bands returns a copy of the active reference table.
func (s *BandStore) Bands() []engine.ReferenceBand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Bands()
}
