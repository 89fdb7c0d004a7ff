package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/halcyonhealth/dashforge/internal/metrics"
	"github.com/halcyonhealth/dashforge/internal/model"
	"github.com/halcyonhealth/dashforge/internal/pipeline"
	"github.com/halcyonhealth/dashforge/internal/query"
	"github.com/halcyonhealth/dashforge/internal/synth"
	"github.com/spf13/cobra"
)

var (
	generateOut     string
	generateCatalog string
	includeSQL      bool
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <spec.json>",
	Short: "Generate synthetic preview data for a dashboard specification",
	Long: `Generate reads a dashboard specification (as produced by extract) and
produces synthetic data for every widget. Each widget's data requirement is
compiled into a query plan first, so the synthetic data structurally matches
what a real query against the warehouse would return.

Generation never fails a well-formed widget: unknown widget types fall back to
generic points and compile failures yield a single error-flagged point.

Example:
  dashforge generate dashboard-spec.json --out preview.json --sql`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateOut, "out", "dashboard-preview.json", "output JSON path")
	generateCmd.Flags().StringVar(&generateCatalog, "catalog", "", "metrics catalog YAML (embedded default if empty)")
	generateCmd.Flags().BoolVar(&includeSQL, "sql", false, "include rendered SQL per widget")
}

// WidgetPreview pairs a widget with its synthetic data
type WidgetPreview struct {
	WidgetID string              `json:"widget_id"`
	Type     string              `json:"type"`
	Title    string              `json:"title,omitempty"`
	Data     model.GeneratedData `json:"data"`
	SQL      string              `json:"sql,omitempty"`
}

// DashboardPreview is the generate command's output document
type DashboardPreview struct {
	DashboardTitle string          `json:"dashboard_title,omitempty"`
	Widgets        []WidgetPreview `json:"widgets"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	output, err := readSpec(args[0])
	if err != nil {
		return err
	}
	if len(output.Widgets) == 0 {
		return fmt.Errorf("%s: specification has no widgets", args[0])
	}

	catalog := metrics.DefaultCatalog()
	if generateCatalog != "" {
		catalog, err = metrics.LoadCatalog(generateCatalog)
		if err != nil {
			return err
		}
	}
	compiler := query.NewCompiler(metrics.NewResolver(catalog))
	generator := synth.NewGenerator(compiler)

	preview := DashboardPreview{
		DashboardTitle: output.DashboardTitle,
		Widgets:        make([]WidgetPreview, 0, len(output.Widgets)),
	}
	for _, w := range output.Widgets {
		wp := WidgetPreview{
			WidgetID: w.ID,
			Type:     w.Type,
			Title:    w.Title,
			Data:     generator.Generate(w),
		}
		if includeSQL && w.DataRequirement != nil {
			if plan, err := compiler.Compile(*w.DataRequirement); err == nil {
				wp.SQL = plan.SQL()
			}
		}
		preview.Widgets = append(preview.Widgets, wp)
		if verbose {
			fmt.Fprintf(os.Stderr, "widget %s (%s): %d point(s) via %s\n",
				w.ID, w.Type, len(wp.Data.DataPoints), wp.Data.QueryMetadata.Source)
		}
	}

	if err := writeResult(generateOut, preview); err != nil {
		return err
	}

	fmt.Printf("✓ generated preview data for %d widget(s): %s\n", len(preview.Widgets), generateOut)
	return nil
}

// readSpec accepts either a full extraction result or a bare agent output
func readSpec(path string) (*pipeline.AgentOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}

	var result pipeline.Result
	if err := json.Unmarshal(data, &result); err == nil && result.Output != nil && len(result.Output.Widgets) > 0 {
		return result.Output, nil
	}

	var output pipeline.AgentOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse spec %s: %w", path, err)
	}
	return &output, nil
}
