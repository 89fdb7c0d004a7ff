package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/halcyonhealth/dashforge/internal/lineage"
	"github.com/halcyonhealth/dashforge/internal/llm"
	"github.com/halcyonhealth/dashforge/internal/metrics"
	"github.com/halcyonhealth/dashforge/internal/pipeline"
	"github.com/halcyonhealth/dashforge/internal/verify"
	"github.com/halcyonhealth/dashforge/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchOutDir  string
	batchWorkers int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Run extraction over a manifest of documents concurrently",
	Long: `Batch reads a manifest file with one document source (URL or file path)
per line and runs an independent extraction pipeline for each, bounded by a
worker pool. Lines starting with # are ignored.

Each source produces its own spec JSON in the output directory. A failed
source is reported and skipped; it never aborts the rest of the batch.

Example:
  dashforge batch vendors.txt --out-dir specs/ --workers 4`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "specs", "directory for per-source spec JSON files")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 4, "concurrent extraction workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "overall batch timeout")
	batchCmd.Flags().IntVar(&extractRetries, "retries", 3, "max extraction attempts per source")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default if empty)")
	batchCmd.Flags().BoolVar(&noLineage, "no-lineage", false, "disable lineage recording")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	sources, err := readManifest(args[0])
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("%s: manifest has no sources", args[0])
	}

	cfg := buildConfig()
	cfg.Concurrency.ExtractionWorkers = batchWorkers

	if err := os.MkdirAll(batchOutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	completer, err := llm.NewCompleter(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return err
	}
	if completer == nil {
		return fmt.Errorf("an LLM provider is required for extraction (--llm-provider)")
	}

	var tracker *lineage.Tracker
	if cfg.Lineage.Enabled {
		store, err := lineage.NewSQLiteStore(cfg.Lineage.Path)
		if err != nil {
			return fmt.Errorf("open lineage store: %w", err)
		}
		tracker = lineage.NewTracker(store)
		defer func() { _ = tracker.Close() }()
	}

	p, err := pipeline.NewPipeline(pipeline.Options{
		Complete:       rateLimited(completer, cfg.LLM),
		Verifier:       verify.NewVerifier(cfg.Verify),
		Resolver:       metrics.NewResolver(metrics.DefaultCatalog()),
		Tracker:        tracker,
		MaxRetries:     cfg.Pipeline.MaxRetries,
		MinExtractions: cfg.Pipeline.MinExtractions,
		AgentName:      cfg.Pipeline.AgentName,
		ModelID:        completer.ModelID(),
		Verbose:        verbose,
	})
	if err != nil {
		return err
	}

	var failed int
	requests := make(map[string]pipeline.Request, len(sources))
	for _, source := range sources {
		documents, err := loadDocuments(ctx, cfg, []string{source})
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", source, err)
			continue
		}
		requests[source] = pipeline.Request{
			Prompt:    pipeline.BuildExtractionPrompt(documents, cfg.Pipeline.MinExtractions),
			Documents: documents,
		}
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.ExtractionWorkers)
	results := processor.Process(ctx, requests)

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Source, r.Err)
			continue
		}
		out := filepath.Join(batchOutDir, specFileName(r.Source))
		if err := writeResult(out, r.Result); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Source, err)
			continue
		}
		fmt.Printf("✓ %s: %d extraction(s), %d attempt(s) -> %s\n",
			r.Source, len(r.Result.Extractions), r.Result.Attempts, out)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d source(s) failed", failed, len(sources))
	}
	return nil
}

// readManifest reads one source per line, skipping blanks and # comments
func readManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var sources []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return sources, nil
}

// specFileName derives a filesystem-safe output name from a source identifier
func specFileName(source string) string {
	name := strings.TrimPrefix(strings.TrimPrefix(source, "https://"), "http://")
	replacer := strings.NewReplacer("/", "_", ":", "_", "?", "_", "&", "_", "=", "_", " ", "_")
	name = replacer.Replace(name)
	name = strings.Trim(name, "._")
	if name == "" {
		name = "source"
	}
	if len(name) > 120 {
		name = name[:120]
	}
	return name + ".spec.json"
}
