package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/halcyonhealth/dashforge/internal/lineage"
	"github.com/halcyonhealth/dashforge/internal/model"
	"github.com/spf13/cobra"
)

var lineageJSON bool

// lineageCmd represents the lineage command
var lineageCmd = &cobra.Command{
	Use:   "lineage <document|hash>",
	Short: "Audit which extractions came from a source document",
	Long: `Lineage queries the audit store for every extraction produced from a
source document. The argument is either a document (URL or local file, hashed
the same way the pipeline hashes it) or a raw 64-character sha256 hash.

Example:
  dashforge lineage vendor-deck.html
  dashforge lineage 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08`,
	Args: cobra.ExactArgs(1),
	RunE: runLineage,
}

func init() {
	rootCmd.AddCommand(lineageCmd)

	lineageCmd.Flags().StringVar(&lineagePath, "lineage-db", "", "lineage sqlite path (default from config)")
	lineageCmd.Flags().BoolVar(&lineageJSON, "json", false, "print records as JSON")
}

func runLineage(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := buildConfig()
	cfg.Lineage.Enabled = true

	hash := args[0]
	if !model.IsValidDocumentHash(hash) {
		documents, err := loadDocuments(ctx, cfg, args)
		if err != nil {
			return err
		}
		hash = model.HashDocument(documents[args[0]])
	}

	store, err := lineage.NewSQLiteStore(cfg.Lineage.Path)
	if err != nil {
		return fmt.Errorf("open lineage store: %w", err)
	}
	tracker := lineage.NewTracker(store)
	defer func() { _ = tracker.Close() }()

	records, err := tracker.FindBySourceHash(ctx, hash)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("no lineage records for %s\n", hash)
		return nil
	}

	if lineageJSON {
		return json.NewEncoder(os.Stdout).Encode(records)
	}

	fmt.Printf("source %s: %d extraction(s)\n", hash, len(records))
	for _, r := range records {
		fmt.Printf("  %s  %-10s  retries=%d  confidence=%.2f->%.2f  %s/%s  %s\n",
			r.ExtractionID, string(r.Status), r.RetryCount,
			r.InitialConfidence, r.FinalConfidence,
			r.AgentName, r.ModelID, r.CreatedAt.Format(time.RFC3339))
		for _, artifact := range r.UsedByArtifacts {
			fmt.Printf("    used by %s\n", artifact)
		}
	}
	return nil
}
