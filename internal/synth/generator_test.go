package synth

import (
	"strings"
	"testing"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// newTestGenerator returns a generator with a fixed random source so shapes
// are deterministic.
func newTestGenerator() *Generator {
	g := NewGenerator(nil)
	g.randFloat = func() float64 { return 0.5 }
	return g
}

func widget(widgetType string) model.WidgetSpec {
	return model.WidgetSpec{ID: "w1", Type: widgetType, Title: "Test Widget"}
}

func TestGenerate_NeverEmpty(t *testing.T) {
	g := newTestGenerator()

	types := []string{
		"radar", "heatmap", "waterfall", "data-table", "table", "ranked-list",
		"timeline", "quality-progression", "kpi-grid", "metric-comparison", "scorecard",
		"line", "sparkline", "area", "bar", "stacked-bar", "column", "pie", "donut",
		"scatter", "bubble", "gauge", "progress", "funnel", "treemap", "histogram",
		"candlestick", "boxplot", "number", "stat", "kpi", "bullet",
		"some-unknown-chart", "",
	}

	for _, widgetType := range types {
		data := g.Generate(widget(widgetType))
		if len(data.DataPoints) == 0 {
			t.Errorf("type %q produced no data points", widgetType)
		}
		for i, p := range data.DataPoints {
			if p.Display == "" {
				t.Errorf("type %q point %d has empty display", widgetType, i)
			}
		}
	}
}

func TestGenerate_TypeNormalization(t *testing.T) {
	g := newTestGenerator()

	a := g.Generate(widget("KPI_Grid"))
	b := g.Generate(widget("kpi-grid"))

	if a.QueryMetadata.Source != "widget_type" || b.QueryMetadata.Source != "widget_type" {
		t.Errorf("expected both spellings to hit the kpi-grid strategy, got %q and %q",
			a.QueryMetadata.Source, b.QueryMetadata.Source)
	}
	if len(a.DataPoints) != len(b.DataPoints) {
		t.Errorf("expected same shape for both spellings, got %d and %d points",
			len(a.DataPoints), len(b.DataPoints))
	}
}

func TestGenerateRadar(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("radar"))
	if len(data.DataPoints) != 5 {
		t.Fatalf("radar needs exactly 5 axes, got %d", len(data.DataPoints))
	}
	for i, p := range data.DataPoints {
		if p.Label != radarAxes[i] {
			t.Errorf("axis %d: expected %q, got %q", i, radarAxes[i], p.Label)
		}
		if p.Value < 0 || p.Value > 100 {
			t.Errorf("axis %d: value %g outside [0,100]", i, p.Value)
		}
	}
}

func TestGenerateHeatmap(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("heatmap"))
	if len(data.DataPoints) != 20 {
		t.Fatalf("heatmap needs a 5x4 grid, got %d points", len(data.DataPoints))
	}

	first := data.DataPoints[0]
	if first.Metadata["row"] == nil || first.Metadata["col"] == nil {
		t.Error("heatmap points must carry row/col metadata")
	}
}

func TestGenerateWaterfall(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("waterfall"))
	points := data.DataPoints
	if len(points) != 6 {
		t.Fatalf("expected start + 4 changes + total, got %d points", len(points))
	}

	if points[0].Label != "Baseline Cost" || points[0].Metadata["kind"] != "start" {
		t.Errorf("expected start bar first, got %q (%v)", points[0].Label, points[0].Metadata["kind"])
	}
	last := points[len(points)-1]
	if last.Label != "Net Position" || last.Metadata["kind"] != "total" {
		t.Errorf("expected total bar last, got %q (%v)", last.Label, last.Metadata["kind"])
	}

	sum := 0.0
	for _, p := range points[:len(points)-1] {
		sum += p.Value
	}
	if diff := sum - last.Value; diff > 0.01 || diff < -0.01 {
		t.Errorf("total %g must equal start plus changes %g", last.Value, sum)
	}

	// Program cost must be a negative change with a signed display.
	for _, p := range points[1 : len(points)-1] {
		if p.Metadata["kind"] != "change" {
			t.Errorf("middle bar %q has kind %v, want change", p.Label, p.Metadata["kind"])
		}
		if !strings.HasPrefix(p.Display, "+") && !strings.HasPrefix(p.Display, "-") {
			t.Errorf("change bar %q display %q lacks a sign", p.Label, p.Display)
		}
		if p.Label == "Program Cost" && p.Value >= 0 {
			t.Errorf("program cost must be negative, got %g", p.Value)
		}
	}
}

func TestGenerateDataTable_RowsFromConfig(t *testing.T) {
	g := newTestGenerator()

	spec := widget("data-table")
	spec.Config = map[string]interface{}{"rows": float64(3)}

	data := g.Generate(spec)
	if len(data.DataPoints) != 3 {
		t.Fatalf("expected 3 rows from config, got %d", len(data.DataPoints))
	}
	row, ok := data.DataPoints[0].Metadata["row"].(map[string]interface{})
	if !ok {
		t.Fatal("expected structured row metadata")
	}
	for _, col := range []string{"program", "members", "savings", "roi"} {
		if _, present := row[col]; !present {
			t.Errorf("row missing column %q", col)
		}
	}
}

func TestGenerateDataTable_DefaultRows(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("table"))
	if len(data.DataPoints) != 5 {
		t.Fatalf("expected default 5 rows, got %d", len(data.DataPoints))
	}
}

func TestGenerateRankedList_Descending(t *testing.T) {
	g := NewGenerator(nil) // real randomness exercises the sort

	data := g.Generate(widget("ranked-list"))
	points := data.DataPoints
	if len(points) != 5 {
		t.Fatalf("expected 5 ranked items, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Value > points[i-1].Value {
			t.Errorf("values must be descending: %g before %g", points[i-1].Value, points[i].Value)
		}
	}
	for i, p := range points {
		if p.Metadata["rank"] != i+1 {
			t.Errorf("point %d: expected rank %d, got %v", i, i+1, p.Metadata["rank"])
		}
	}
}

func TestGenerateTimeline_Improving(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("timeline"))
	points := data.DataPoints
	if len(points) != 5 {
		t.Fatalf("expected 5 milestones, got %d", len(points))
	}
	if points[0].Label != "Baseline" {
		t.Errorf("first milestone must be Baseline, got %q", points[0].Label)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Value < points[i-1].Value {
			t.Errorf("timeline must not regress: %g after %g", points[i].Value, points[i-1].Value)
		}
		if points[i].Value > 100 {
			t.Errorf("timeline value %g exceeds 100", points[i].Value)
		}
	}
}

func TestGenerateKPIGrid_Count(t *testing.T) {
	g := newTestGenerator() // randFloat 0.5 -> 5 KPIs

	data := g.Generate(widget("kpi-grid"))
	if n := len(data.DataPoints); n < 4 || n > 6 {
		t.Fatalf("expected 4-6 KPIs, got %d", n)
	}
	for i, p := range data.DataPoints {
		if p.Metadata["icon"] == "" || p.Metadata["icon"] == nil {
			t.Errorf("KPI %d missing icon", i)
		}
		if p.Metadata["trend"] == nil {
			t.Errorf("KPI %d missing trend", i)
		}
	}
}

func TestGenerateScorecard_ChangeMetadata(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("scorecard"))
	if n := len(data.DataPoints); n < 3 || n > 5 {
		t.Fatalf("expected 3-5 scorecard rows, got %d", n)
	}
	for i, p := range data.DataPoints {
		for _, key := range []string{"baseline", "current", "percent_change"} {
			if _, ok := p.Metadata[key]; !ok {
				t.Errorf("row %d missing %q metadata", i, key)
			}
		}
	}
}

func TestGenerateFromQuery_AggregatePadding(t *testing.T) {
	g := newTestGenerator()

	spec := widget("custom-aggregate")
	spec.DataRequirement = &model.DataRequirement{
		QueryType: model.QueryTypeAggregate,
		Metrics:   []model.MetricDefinition{{Name: "Total Savings", MetricRef: "total_cost_savings"}},
	}

	data := g.Generate(spec)
	if data.QueryMetadata.Source != "query" {
		t.Fatalf("expected query-driven generation, got %q", data.QueryMetadata.Source)
	}
	if len(data.DataPoints) != 5 {
		t.Fatalf("single-metric aggregate must pad to 5 points, got %d", len(data.DataPoints))
	}
	if data.DataPoints[0].Label != "Total Savings" {
		t.Errorf("first point must carry the metric name, got %q", data.DataPoints[0].Label)
	}
	for _, p := range data.DataPoints[1:] {
		if !strings.Contains(p.Label, "sample") {
			t.Errorf("padded point label %q should be marked as a sample", p.Label)
		}
	}
	if data.QueryMetadata.MetricCount != 1 {
		t.Errorf("expected metric count 1, got %d", data.QueryMetadata.MetricCount)
	}
}

func TestGenerateFromQuery_TimeSeries(t *testing.T) {
	g := newTestGenerator()

	spec := widget("trend")
	spec.DataRequirement = &model.DataRequirement{
		QueryType:  model.QueryTypeTimeSeries,
		Metrics:    []model.MetricDefinition{{Name: "Monthly Savings", MetricRef: "total_cost_savings"}},
		Dimensions: []string{"claim_month"},
	}

	data := g.Generate(spec)
	if len(data.DataPoints) != 12 {
		t.Fatalf("expected 12 monthly points, got %d", len(data.DataPoints))
	}
	if data.DataPoints[0].Label != "Jan" || data.DataPoints[11].Label != "Dec" {
		t.Errorf("expected Jan..Dec labels, got %q..%q", data.DataPoints[0].Label, data.DataPoints[11].Label)
	}
	for i, p := range data.DataPoints {
		if p.Value < 0 {
			t.Errorf("month %d: currency value %g must be non-negative", i, p.Value)
		}
		if !strings.HasPrefix(p.Display, "$") {
			t.Errorf("month %d: currency display %q must carry $", i, p.Display)
		}
	}
}

func TestGenerateFromQuery_DistributionCategories(t *testing.T) {
	g := newTestGenerator()

	spec := widget("breakdown")
	spec.DataRequirement = &model.DataRequirement{
		QueryType:  model.QueryTypeDistribution,
		Metrics:    []model.MetricDefinition{{Name: "Members", MetricRef: "member_count"}},
		Dimensions: []string{"region"},
	}

	data := g.Generate(spec)
	if len(data.DataPoints) != 5 {
		t.Fatalf("expected 5 distribution categories, got %d", len(data.DataPoints))
	}

	seen := make(map[string]bool)
	for _, p := range data.DataPoints {
		if seen[p.Label] {
			t.Errorf("duplicate category label %q", p.Label)
		}
		seen[p.Label] = true
		if p.Metadata["axis"] != "region" {
			t.Errorf("expected grouping axis region, got %v", p.Metadata["axis"])
		}
	}
}

func TestGenerateFromQuery_CompileFailure(t *testing.T) {
	g := newTestGenerator()

	spec := widget("broken")
	spec.DataRequirement = &model.DataRequirement{
		QueryType: model.QueryTypeAggregate,
		Metrics:   []model.MetricDefinition{{Name: "x", MetricRef: "not_in_catalog"}},
	}

	data := g.Generate(spec)
	if data.QueryMetadata.Source != "error" {
		t.Fatalf("expected error source, got %q", data.QueryMetadata.Source)
	}
	if len(data.DataPoints) != 1 {
		t.Fatalf("expected exactly one error point, got %d", len(data.DataPoints))
	}
	p := data.DataPoints[0]
	if p.Label != "Error" || p.Value != 0 {
		t.Errorf("unexpected error point: %+v", p)
	}
	if p.Metadata["error"] == nil {
		t.Error("error point must carry the compile error")
	}
}

func TestGenerate_FallbackForUnknownType(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("hologram"))
	if data.QueryMetadata.Source != "fallback" {
		t.Fatalf("expected fallback source, got %q", data.QueryMetadata.Source)
	}
	if len(data.DataPoints) != 5 {
		t.Fatalf("expected 5 generic points, got %d", len(data.DataPoints))
	}
}

func TestLegacyPie_SumsToHundred(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("pie"))
	sum := 0.0
	for _, p := range data.DataPoints {
		sum += p.Value
	}
	if sum < 99.0 || sum > 101.0 {
		t.Errorf("pie shares must sum to ~100, got %g", sum)
	}
}

func TestLegacyFunnel_StrictlyDecreasing(t *testing.T) {
	g := NewGenerator(nil)

	data := g.Generate(widget("funnel"))
	points := data.DataPoints
	if len(points) != 5 {
		t.Fatalf("expected 5 funnel stages, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Value >= points[i-1].Value {
			t.Errorf("funnel must strictly decrease: stage %d %g >= stage %d %g",
				i, points[i].Value, i-1, points[i-1].Value)
		}
	}
}

func TestLegacyGauge_SinglePointWithBounds(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("gauge"))
	if len(data.DataPoints) != 1 {
		t.Fatalf("gauge is a single point, got %d", len(data.DataPoints))
	}
	p := data.DataPoints[0]
	if p.Metadata["min"] != 0 || p.Metadata["max"] != 100 {
		t.Errorf("gauge must carry min/max bounds, got %v", p.Metadata)
	}
}

func TestLegacyCandlestick_OHLC(t *testing.T) {
	g := newTestGenerator()

	data := g.Generate(widget("candlestick"))
	if len(data.DataPoints) != 12 {
		t.Fatalf("expected 12 monthly candles, got %d", len(data.DataPoints))
	}
	for i, p := range data.DataPoints {
		for _, key := range []string{"open", "close", "high", "low"} {
			if _, ok := p.Metadata[key]; !ok {
				t.Errorf("candle %d missing %q", i, key)
			}
		}
	}
}
