// Package lookup provides the owned, explicitly-passed replacement for a
// package-level mutable cache (§9 Design Note): a Service holds one
// cycle's reconciled records in memory, keyed by RRN. The reconciler
// constructs one per cycle, fills it, and persists it as
// recon_output.json; no other package uses it.
package lookup

import (
	"os"
	"sync"

	"upi-recon-engine/internal/atomicfile"
	"upi-recon-engine/internal/models"
)

// Service is a concurrency-safe, in-memory index over one run's
// reconciliation records. It is not a singleton: callers construct one per
// run and share it as a *Service (it holds a mutex and is not copied).
type Service struct {
	mu      sync.RWMutex
	records map[string]*models.Record
}

// NewService builds an empty Service, for callers assembling records as a
// cycle runs rather than loading a prior run's persisted state.
func NewService() *Service {
	return &Service{records: make(map[string]*models.Record)}
}

// LoadService reads recon_output.json from runDir into a Service. A
// missing file yields an empty Service rather than an error, matching the
// carry-over store's "missing is empty" read discipline (§4.4).
func LoadService(runDir string) (*Service, error) {
	path := recordsPath(runDir)
	records := map[string]*models.Record{}
	if err := atomicfile.ReadJSON(path, &records); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return &Service{records: records}, nil
}

// Persist writes the Service's current records back to recon_output.json.
func (s *Service) Persist(runDir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return atomicfile.WriteJSON(recordsPath(runDir), s.records)
}

// Get returns the record for key (RRN, or UPI_Tran_ID when RRN is absent).
func (s *Service) Get(key string) (*models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// Set inserts or replaces the record stored under key.
func (s *Service) Set(key string, rec *models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
}

// All returns every record currently held, in no particular order.
func (s *Service) All() []*models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}

// Len reports how many records the Service currently holds.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
