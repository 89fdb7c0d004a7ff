package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/halcyonhealth/dashforge/internal/cache"
	"github.com/halcyonhealth/dashforge/internal/docsource"
	"github.com/halcyonhealth/dashforge/internal/lineage"
	"github.com/halcyonhealth/dashforge/internal/llm"
	"github.com/halcyonhealth/dashforge/internal/metrics"
	"github.com/halcyonhealth/dashforge/internal/model"
	"github.com/halcyonhealth/dashforge/internal/pipeline"
	"github.com/halcyonhealth/dashforge/internal/verify"
	"github.com/halcyonhealth/dashforge/internal/worker"
	"github.com/spf13/cobra"
)

var (
	extractOut      string
	extractTimeout  time.Duration
	extractRetries  int
	extractMinCount int
	llmProvider     string
	llmModel        string
	noCache         bool
	noLineage       bool
	lineagePath     string
	catalogPath     string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <document>...",
	Short: "Extract a verified dashboard specification from vendor materials",
	Long: `Extract runs the LLM extraction pipeline over one or more documents
(URLs or local files), verifies every extracted claim against the source
text, and writes the resulting dashboard specification.

Claims that cannot be grounded are re-prompted with corrective feedback up to
the retry budget. Verified extractions are recorded in the lineage store.

Example:
  dashforge extract vendor-deck.html --llm-provider openai --out spec.json
  dashforge extract https://vendor.example.com/roi-whitepaper --retries 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractOut, "out", "dashboard-spec.json", "output JSON path")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 5*time.Minute, "overall extraction timeout")
	extractCmd.Flags().IntVar(&extractRetries, "retries", 3, "max extraction attempts")
	extractCmd.Flags().IntVar(&extractMinCount, "min-extractions", 3, "minimum extracted claims required")
	extractCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	extractCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default if empty)")
	extractCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable document cache (force fresh fetch)")
	extractCmd.Flags().BoolVar(&noLineage, "no-lineage", false, "disable lineage recording")
	extractCmd.Flags().StringVar(&lineagePath, "lineage-db", "", "lineage sqlite path (default from config)")
	extractCmd.Flags().StringVar(&catalogPath, "catalog", "", "metrics catalog YAML (embedded default if empty)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), extractTimeout)
	defer cancel()

	cfg := buildConfig()

	documents, err := loadDocuments(ctx, cfg, args)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	resolver := metrics.NewResolver(catalog)

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
		Resolver:       resolver,
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

	if verbose {
		fmt.Fprintf(os.Stderr, "Extracting from %d document(s) via %s (%s)\n", len(documents), completer.Name(), completer.ModelID())
	}

	result, err := p.Run(ctx, pipeline.Request{
		Prompt:    pipeline.BuildExtractionPrompt(documents, cfg.Pipeline.MinExtractions),
		Documents: documents,
	})
	if err != nil {
		return fmt.Errorf("extraction: %w", err)
	}

	if err := writeResult(extractOut, result); err != nil {
		return err
	}

	fmt.Printf("✓ %d verified extraction(s), %d widget(s), %d attempt(s): %s\n",
		len(result.Extractions), len(result.Output.Widgets), result.Attempts, extractOut)
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return nil
}

// buildConfig merges defaults with CLI flags
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Output.Verbose = verbose
	cfg.Cache.Enabled = !noCache
	cfg.Pipeline.MaxRetries = extractRetries
	cfg.Pipeline.MinExtractions = extractMinCount
	cfg.Lineage.Enabled = !noLineage
	if lineagePath != "" {
		cfg.Lineage.Path = lineagePath
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}

	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg
}

// rateLimited wraps a completer so every attempt, including retries, draws
// from the shared per-backend call budget.
func rateLimited(completer llm.Completer, lc model.LLMConfig) pipeline.CompletionFunc {
	limiter := worker.NewLimiter(lc.RateLimit, lc.RateBurst)
	key := completer.Name() + "/" + completer.ModelID()
	return func(ctx context.Context, prompt string) (string, error) {
		if err := limiter.Wait(ctx, key); err != nil {
			return "", err
		}
		return completer.Complete(ctx, prompt)
	}
}

func loadDocuments(ctx context.Context, cfg *model.Config, sources []string) (docsource.DocumentSet, error) {
	var c cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err == nil {
				dir = home + "/.dashforge/cache"
			} else {
				dir = ".dashforge-cache"
			}
		}
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
	}

	loader := docsource.NewLoader(docsource.NewFetcher(cfg.HTTP, c))
	return loader.Load(ctx, sources)
}

func loadCatalog(cfg *model.Config) (*metrics.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return metrics.DefaultCatalog(), nil
	}
	return metrics.LoadCatalog(cfg.Catalog.Path)
}

func writeResult(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
