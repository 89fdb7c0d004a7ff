package lineage

import (
	"context"
	"fmt"
	"time"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// Store is the persistence collaborator for lineage records. Implementations
// must be durable and queryable by exact source hash.
type Store interface {
	Insert(ctx context.Context, record model.LineageRecord) error
	QueryByHash(ctx context.Context, sourceHash string) ([]model.LineageRecord, error)
	UpdateUsage(ctx context.Context, extractionID, artifactID string) error
	Close() error
}

// Tracker records an immutable audit record per extraction and links
// extractions to the downstream artifacts that consume them.
type Tracker struct {
	store Store
}

// NewTracker creates a tracker over the given store
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// RecordExtraction writes the audit record for one verified extraction.
// The source document is hashed here so callers never construct hashes
// by hand.
func (t *Tracker) RecordExtraction(ctx context.Context, extraction model.Extraction, sourceText, agentName, modelID string, retryCount int, initialConfidence float64, status model.VerificationStatus) (model.LineageRecord, error) {
	record := model.LineageRecord{
		ExtractionID:       extraction.ID,
		SourceDocumentHash: model.HashDocument(sourceText),
		AgentName:          agentName,
		ModelID:            modelID,
		Status:             status,
		RetryCount:         retryCount,
		InitialConfidence:  initialConfidence,
		FinalConfidence:    extraction.Confidence,
		CreatedAt:          time.Now().UTC(),
	}
	if err := t.Record(ctx, record); err != nil {
		return model.LineageRecord{}, err
	}
	return record, nil
}

// Record validates and persists a lineage record
func (t *Tracker) Record(ctx context.Context, record model.LineageRecord) error {
	if record.ExtractionID == "" {
		return fmt.Errorf("lineage record missing extraction id")
	}
	if !model.IsValidDocumentHash(record.SourceDocumentHash) {
		return fmt.Errorf("invalid source document hash %q: want 64 lowercase hex chars", record.SourceDocumentHash)
	}
	if err := t.store.Insert(ctx, record); err != nil {
		return fmt.Errorf("insert lineage record: %w", err)
	}
	return nil
}

// LinkArtifact appends a downstream artifact id to an extraction's usage set.
// Usage updates are append-only; records are never physically deleted.
func (t *Tracker) LinkArtifact(ctx context.Context, extractionID, artifactID string) error {
	if extractionID == "" || artifactID == "" {
		return fmt.Errorf("extraction id and artifact id are required")
	}
	if err := t.store.UpdateUsage(ctx, extractionID, artifactID); err != nil {
		return fmt.Errorf("link artifact: %w", err)
	}
	return nil
}

// FindBySourceHash returns every lineage record produced from the document
// with the given sha256 hash.
func (t *Tracker) FindBySourceHash(ctx context.Context, sourceHash string) ([]model.LineageRecord, error) {
	if !model.IsValidDocumentHash(sourceHash) {
		return nil, fmt.Errorf("invalid source document hash %q", sourceHash)
	}
	records, err := t.store.QueryByHash(ctx, sourceHash)
	if err != nil {
		return nil, fmt.Errorf("query lineage: %w", err)
	}
	return records, nil
}

// Close releases the underlying store
func (t *Tracker) Close() error {
	return t.store.Close()
}
