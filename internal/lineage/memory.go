package lineage

import (
	"context"
	"fmt"
	"sync"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// MemoryStore is an in-memory Store for tests and dry runs
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.LineageRecord // by extraction id
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.LineageRecord)}
}

// Insert writes one record
func (s *MemoryStore) Insert(ctx context.Context, record model.LineageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ExtractionID]; exists {
		return fmt.Errorf("duplicate lineage record for extraction %s", record.ExtractionID)
	}
	record.UsedByArtifacts = append([]string(nil), record.UsedByArtifacts...)
	s.records[record.ExtractionID] = record
	return nil
}

// QueryByHash returns all records for an exact source hash
func (s *MemoryStore) QueryByHash(ctx context.Context, sourceHash string) ([]model.LineageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.LineageRecord
	for _, r := range s.records {
		if r.SourceDocumentHash == sourceHash {
			out = append(out, r)
		}
	}
	return out, nil
}

// UpdateUsage appends an artifact id to a record's usage set
func (s *MemoryStore) UpdateUsage(ctx context.Context, extractionID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[extractionID]
	if !ok {
		return fmt.Errorf("no lineage record for extraction %s", extractionID)
	}
	for _, existing := range r.UsedByArtifacts {
		if existing == artifactID {
			return nil
		}
	}
	r.UsedByArtifacts = append(r.UsedByArtifacts, artifactID)
	s.records[extractionID] = r
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
