package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Extraction represents a single claim pulled from a source document:
// a value proposition, clinical outcome, or financial metric.
type Extraction struct {
	ID         string  `json:"id"`                    // UUID, assigned at parse time
	Value      string  `json:"value"`                 // The extracted claim text
	SourceText string  `json:"source_text,omitempty"` // Verbatim quote supplied by the agent
	DocumentID string  `json:"document_id,omitempty"` // Source document identifier or URL
	Confidence float64 `json:"confidence"`            // 0.0 to 1.0
	Numeric    bool    `json:"numeric,omitempty"`     // Claim is primarily a numeric figure
	Important  bool    `json:"important,omitempty"`   // Flagged as load-bearing for the dashboard
	Issues     []string `json:"issues,omitempty"`     // Non-empty whenever the extraction is unverifiable
}

// VerificationStatus classifies the outcome of grounding a single extraction
type VerificationStatus string

const (
	StatusVerified   VerificationStatus = "verified"
	StatusUnverified VerificationStatus = "unverified"
	StatusFlagged    VerificationStatus = "flagged"
)

// VerificationResult is the outcome of checking one extraction against one
// source document's full text. Computed per attempt, never persisted directly.
type VerificationResult struct {
	Verified    bool               `json:"verified"`
	Confidence  float64            `json:"confidence"`             // 0.0 to 1.0
	Status      VerificationStatus `json:"status"`
	Issues      []string           `json:"issues,omitempty"`
	MatchedText string             `json:"matched_text,omitempty"` // Best matching source span
	MatchScore  float64            `json:"match_score,omitempty"`  // Similarity ratio of the best window
}

// LineageRecord is the permanent audit trail entry linking an extraction back
// to its source document and forward to the artifacts that consumed it.
type LineageRecord struct {
	ExtractionID       string             `json:"extraction_id"`
	SourceDocumentHash string             `json:"source_document_hash"` // sha256 hex, 64 lowercase chars
	AgentName          string             `json:"agent_name"`
	ModelID            string             `json:"model_id"`
	Status             VerificationStatus `json:"status"`
	RetryCount         int                `json:"retry_count"`
	InitialConfidence  float64            `json:"initial_confidence"`
	FinalConfidence    float64            `json:"final_confidence"`
	UsedByArtifacts    []string           `json:"used_by_artifacts,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// HashDocument returns the lowercase hex sha256 of a source document's text.
func HashDocument(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// IsValidDocumentHash reports whether s is exactly 64 lowercase hex characters.
func IsValidDocumentHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
