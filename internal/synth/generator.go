package synth

import (
	"math/rand"
	"strings"

	"github.com/halcyonhealth/dashforge/internal/model"
	"github.com/halcyonhealth/dashforge/internal/query"
)

// strategyFunc generates the data points for one widget shape
type strategyFunc func(g *Generator, spec model.WidgetSpec) []model.DataPoint

// Generator produces synthetic preview data structurally matching a widget's
// compiled query or its widget-type-specific shape. It never fails a
// well-formed widget: unknown types degrade to generic points and compile
// failures degrade to a single error-flagged point.
type Generator struct {
	compiler  *query.Compiler
	tableRows int
	randFloat func() float64 // injectable for deterministic tests
}

// NewGenerator creates a generator backed by the given query compiler
func NewGenerator(compiler *query.Compiler) *Generator {
	if compiler == nil {
		compiler = query.NewCompiler(nil)
	}
	return &Generator{
		compiler:  compiler,
		tableRows: 5,
		randFloat: rand.Float64,
	}
}

// shapeStrategies are widget types with a fixed minimum cardinality or special
// shape. They take precedence over query-driven generation.
var shapeStrategies = map[string]strategyFunc{
	"radar":               (*Generator).generateRadar,
	"heatmap":             (*Generator).generateHeatmap,
	"waterfall":           (*Generator).generateWaterfall,
	"data-table":          (*Generator).generateDataTable,
	"table":               (*Generator).generateDataTable,
	"ranked-list":         (*Generator).generateRankedList,
	"timeline":            (*Generator).generateTimeline,
	"quality-progression": (*Generator).generateTimeline,
	"kpi-grid":            (*Generator).generateKPIGrid,
	"metric-comparison":   (*Generator).generateScorecard,
	"scorecard":           (*Generator).generateScorecard,
}

// Generate produces data points for a widget spec. Dispatch order: widget-type
// strategies, query-driven generation, legacy chart families, generic
// fallback.
func (g *Generator) Generate(spec model.WidgetSpec) model.GeneratedData {
	widgetType := normalizeType(spec.Type)

	if strategy, ok := shapeStrategies[widgetType]; ok {
		return model.GeneratedData{
			DataPoints:    strategy(g, spec),
			QueryMetadata: model.QueryMetadata{Source: "widget_type"},
		}
	}

	if spec.DataRequirement != nil && len(spec.DataRequirement.Metrics) > 0 {
		return g.generateFromQuery(spec)
	}

	if strategy, ok := legacyStrategies[widgetType]; ok {
		return model.GeneratedData{
			DataPoints:    strategy(g, spec),
			QueryMetadata: model.QueryMetadata{Source: "legacy"},
		}
	}

	return model.GeneratedData{
		DataPoints:    g.generateGeneric(spec),
		QueryMetadata: model.QueryMetadata{Source: "fallback"},
	}
}

// generateFromQuery compiles the data requirement and synthesizes values whose
// shape matches the query type. A compile failure degrades to one explicit
// error point so one bad widget cannot abort a whole dashboard.
func (g *Generator) generateFromQuery(spec model.WidgetSpec) model.GeneratedData {
	req := *spec.DataRequirement

	plan, err := g.compiler.Compile(req)
	if err != nil {
		return model.GeneratedData{
			DataPoints: []model.DataPoint{{
				Label:    "Error",
				Value:    0,
				Display:  "0",
				Metadata: map[string]interface{}{"error": err.Error()},
			}},
			QueryMetadata: model.QueryMetadata{Source: "error", QueryType: req.QueryType},
		}
	}

	meta := model.QueryMetadata{
		QueryType:   plan.QueryType,
		Tables:      plan.Tables,
		MetricCount: plan.MetricCount,
		HasFilters:  plan.HasFilters,
		HasGrouping: plan.HasGrouping,
		Source:      "query",
	}

	var points []model.DataPoint
	switch req.QueryType {
	case model.QueryTypeTimeSeries:
		points = g.generateTimeSeries(plan)
	case model.QueryTypeDistribution:
		points = g.generateDistribution(plan)
	default:
		points = g.generateAggregate(plan)
	}

	return model.GeneratedData{DataPoints: points, QueryMetadata: meta}
}

// generateGeneric handles unrecognized widget types: 5 labeled points rather
// than an error.
func (g *Generator) generateGeneric(spec model.WidgetSpec) []model.DataPoint {
	points := make([]model.DataPoint, 5)
	for i := range points {
		value := g.between(10, 100)
		points[i] = model.DataPoint{
			Label:   genericLabel(spec, i),
			Value:   round1(value),
			Display: FormatValue(round1(value), model.DataTypeNumber, ""),
			Metadata: map[string]interface{}{
				"widget_type": spec.Type,
				"generated":   "fallback",
			},
		}
	}
	return points
}

func genericLabel(spec model.WidgetSpec, i int) string {
	labels := []string{"Metric A", "Metric B", "Metric C", "Metric D", "Metric E"}
	if spec.Title != "" {
		return spec.Title + " " + string(rune('A'+i))
	}
	return labels[i%len(labels)]
}

func normalizeType(widgetType string) string {
	t := strings.ToLower(strings.TrimSpace(widgetType))
	return strings.ReplaceAll(t, "_", "-")
}

// between returns a uniform random value in [lo, hi)
func (g *Generator) between(lo, hi float64) float64 {
	return lo + g.randFloat()*(hi-lo)
}

// noisy applies +/- fraction noise to v, clamped at zero
func (g *Generator) noisy(v, fraction float64) float64 {
	out := v * (1 + (g.randFloat()*2-1)*fraction)
	if out < 0 {
		out = 0
	}
	return out
}
