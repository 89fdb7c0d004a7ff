package lineage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/halcyonhealth/dashforge/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists lineage records in an embedded sqlite database, so the
// audit trail survives without an external service.
type SQLiteStore struct {
	db *sql.DB
}

const lineageSchema = `
CREATE TABLE IF NOT EXISTS lineage_records (
	extraction_id       TEXT PRIMARY KEY,
	source_document_hash TEXT NOT NULL,
	agent_name          TEXT NOT NULL,
	model_id            TEXT NOT NULL,
	status              TEXT NOT NULL,
	retry_count         INTEGER NOT NULL,
	initial_confidence  REAL NOT NULL,
	final_confidence    REAL NOT NULL,
	used_by_artifacts   TEXT NOT NULL DEFAULT '[]',
	created_at          TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lineage_source_hash ON lineage_records(source_document_hash);
`

// NewSQLiteStore opens (and if needed initializes) a lineage database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open lineage db: %w", err)
	}
	if _, err := db.Exec(lineageSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init lineage schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Insert writes one record. Records are immutable; a duplicate extraction id
// is an error, not an upsert.
func (s *SQLiteStore) Insert(ctx context.Context, record model.LineageRecord) error {
	usage, err := json.Marshal(record.UsedByArtifacts)
	if err != nil {
		return fmt.Errorf("marshal usage set: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lineage_records
			(extraction_id, source_document_hash, agent_name, model_id, status,
			 retry_count, initial_confidence, final_confidence, used_by_artifacts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ExtractionID, record.SourceDocumentHash, record.AgentName, record.ModelID,
		string(record.Status), record.RetryCount, record.InitialConfidence,
		record.FinalConfidence, string(usage), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// QueryByHash returns all records for an exact source hash
func (s *SQLiteStore) QueryByHash(ctx context.Context, sourceHash string) ([]model.LineageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT extraction_id, source_document_hash, agent_name, model_id, status,
		       retry_count, initial_confidence, final_confidence, used_by_artifacts, created_at
		FROM lineage_records
		WHERE source_document_hash = ?
		ORDER BY created_at`, sourceHash)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.LineageRecord
	for rows.Next() {
		var r model.LineageRecord
		var status, usage string
		if err := rows.Scan(&r.ExtractionID, &r.SourceDocumentHash, &r.AgentName, &r.ModelID,
			&status, &r.RetryCount, &r.InitialConfidence, &r.FinalConfidence, &usage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Status = model.VerificationStatus(status)
		if err := json.Unmarshal([]byte(usage), &r.UsedByArtifacts); err != nil {
			return nil, fmt.Errorf("parse usage set: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// UpdateUsage appends an artifact id to a record's usage set
func (s *SQLiteStore) UpdateUsage(ctx context.Context, extractionID, artifactID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var usage string
	err = tx.QueryRowContext(ctx,
		`SELECT used_by_artifacts FROM lineage_records WHERE extraction_id = ?`, extractionID).Scan(&usage)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no lineage record for extraction %s", extractionID)
	}
	if err != nil {
		return fmt.Errorf("read usage set: %w", err)
	}

	var artifacts []string
	if err := json.Unmarshal([]byte(usage), &artifacts); err != nil {
		return fmt.Errorf("parse usage set: %w", err)
	}
	for _, existing := range artifacts {
		if existing == artifactID {
			return tx.Commit() // Already linked; append-only, no duplicates
		}
	}
	artifacts = append(artifacts, artifactID)

	updated, err := json.Marshal(artifacts)
	if err != nil {
		return fmt.Errorf("marshal usage set: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE lineage_records SET used_by_artifacts = ? WHERE extraction_id = ?`,
		string(updated), extractionID); err != nil {
		return fmt.Errorf("update usage set: %w", err)
	}
	return tx.Commit()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
