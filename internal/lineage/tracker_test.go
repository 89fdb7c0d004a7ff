package lineage

import (
	"context"
	"testing"

	"github.com/halcyonhealth/dashforge/internal/model"
)

const trackerTestDoc = "Our program delivers 250% ROI within 24 months."

func testExtraction(id string) model.Extraction {
	return model.Extraction{
		ID:         id,
		Value:      "250% ROI within 24 months",
		SourceText: trackerTestDoc,
		Confidence: 1.0,
	}
}

func TestRecordExtraction(t *testing.T) {
	tracker := NewTracker(NewMemoryStore())
	ctx := context.Background()

	record, err := tracker.RecordExtraction(ctx, testExtraction("ext-1"), trackerTestDoc,
		"roi-extraction", "gpt-4o-mini", 2, 0.9, model.StatusVerified)
	if err != nil {
		t.Fatalf("expected record, got %v", err)
	}

	if !model.IsValidDocumentHash(record.SourceDocumentHash) {
		t.Errorf("expected a valid sha256 hash, got %q", record.SourceDocumentHash)
	}
	if record.SourceDocumentHash != model.HashDocument(trackerTestDoc) {
		t.Error("hash must be computed from the source text")
	}
	if record.RetryCount != 2 || record.InitialConfidence != 0.9 || record.FinalConfidence != 1.0 {
		t.Errorf("unexpected audit fields: %+v", record)
	}
	if record.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}
}

func TestRecord_RejectsInvalidHash(t *testing.T) {
	tracker := NewTracker(NewMemoryStore())

	err := tracker.Record(context.Background(), model.LineageRecord{
		ExtractionID:       "ext-1",
		SourceDocumentHash: "not-a-hash",
	})
	if err == nil {
		t.Fatal("expected invalid hash to be rejected")
	}
}

func TestRecord_RejectsMissingExtractionID(t *testing.T) {
	tracker := NewTracker(NewMemoryStore())

	err := tracker.Record(context.Background(), model.LineageRecord{
		SourceDocumentHash: model.HashDocument("x"),
	})
	if err == nil {
		t.Fatal("expected missing extraction id to be rejected")
	}
}

func TestFindBySourceHash(t *testing.T) {
	tracker := NewTracker(NewMemoryStore())
	ctx := context.Background()

	for _, id := range []string{"ext-1", "ext-2"} {
		if _, err := tracker.RecordExtraction(ctx, testExtraction(id), trackerTestDoc,
			"agent", "model", 0, 0.9, model.StatusVerified); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}
	if _, err := tracker.RecordExtraction(ctx, testExtraction("ext-other"), "a different document",
		"agent", "model", 0, 0.9, model.StatusVerified); err != nil {
		t.Fatalf("record ext-other: %v", err)
	}

	records, err := tracker.FindBySourceHash(ctx, model.HashDocument(trackerTestDoc))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records for the shared document, got %d", len(records))
	}

	if _, err := tracker.FindBySourceHash(ctx, "bogus"); err == nil {
		t.Error("expected invalid query hash to be rejected")
	}
}

func TestLinkArtifact(t *testing.T) {
	store := NewMemoryStore()
	tracker := NewTracker(store)
	ctx := context.Background()

	if _, err := tracker.RecordExtraction(ctx, testExtraction("ext-1"), trackerTestDoc,
		"agent", "model", 0, 0.9, model.StatusVerified); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := tracker.LinkArtifact(ctx, "ext-1", "dashboard-42"); err != nil {
		t.Fatalf("link: %v", err)
	}
	// Re-linking the same artifact is idempotent.
	if err := tracker.LinkArtifact(ctx, "ext-1", "dashboard-42"); err != nil {
		t.Fatalf("relink: %v", err)
	}
	if err := tracker.LinkArtifact(ctx, "ext-1", "report-7"); err != nil {
		t.Fatalf("second artifact: %v", err)
	}

	records, err := store.QueryByHash(ctx, model.HashDocument(trackerTestDoc))
	if err != nil || len(records) != 1 {
		t.Fatalf("query: %v (%d records)", err, len(records))
	}
	if got := records[0].UsedByArtifacts; len(got) != 2 {
		t.Errorf("expected 2 distinct artifacts, got %v", got)
	}

	if err := tracker.LinkArtifact(ctx, "", "a"); err == nil {
		t.Error("expected empty extraction id to be rejected")
	}
	if err := tracker.LinkArtifact(ctx, "ext-unknown", "a"); err == nil {
		t.Error("expected unknown extraction id to fail")
	}
}

func TestMemoryStore_DuplicateInsert(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := model.LineageRecord{
		ExtractionID:       "ext-1",
		SourceDocumentHash: model.HashDocument("doc"),
	}
	if err := store.Insert(ctx, record); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := store.Insert(ctx, record); err == nil {
		t.Fatal("lineage records are immutable; duplicate insert must fail")
	}
}
