package synth

import (
	"fmt"

	"github.com/halcyonhealth/dashforge/internal/metrics"
	"github.com/halcyonhealth/dashforge/internal/model"
	"github.com/halcyonhealth/dashforge/internal/query"
)

// Query-driven generation: values whose shape (point count, grouping axis)
// matches the compiled query's type.

const minAggregatePoints = 5

// generateAggregate produces one point per metric, padded to a minimum of 5
// points by re-running the first metric's value sampler. Downstream renderers
// assume the minimum cardinality.
func (g *Generator) generateAggregate(plan *query.QueryPlan) []model.DataPoint {
	points := make([]model.DataPoint, 0, minAggregatePoints)
	for _, m := range plan.Metrics {
		points = append(points, g.metricPoint(m, m.Name))
	}

	for i := len(points); len(points) < minAggregatePoints; i++ {
		m := plan.Metrics[0]
		points = append(points, g.metricPoint(m, fmt.Sprintf("%s (sample %d)", m.Name, i+1)))
	}
	return points
}

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// generateTimeSeries produces 12 consecutive monthly points with a
// metric-type-appropriate trend and noise, for the first metric.
func (g *Generator) generateTimeSeries(plan *query.QueryPlan) []model.DataPoint {
	m := plan.Metrics[0]
	base := g.sampleValue(m)
	growth := trendFor(m.DataType)

	points := make([]model.DataPoint, len(monthLabels))
	value := base
	for i, month := range monthLabels {
		v := g.noisy(value, 0.08)
		v = clampForType(v, m.DataType)
		points[i] = model.DataPoint{
			Label:   month,
			Value:   round2(v),
			Display: FormatValue(round2(v), m.DataType, m.Format),
			Metadata: map[string]interface{}{
				"metric": m.Name,
				"month":  i + 1,
			},
		}
		value *= growth
	}
	return points
}

var distributionCategories = []string{"North Region", "South Region", "East Region", "West Region", "Central Region"}

// generateDistribution produces one point per fixed category
func (g *Generator) generateDistribution(plan *query.QueryPlan) []model.DataPoint {
	m := plan.Metrics[0]
	axis := "category"
	if len(plan.GroupBy) > 0 {
		axis = plan.GroupBy[0]
	}

	points := make([]model.DataPoint, len(distributionCategories))
	for i, category := range distributionCategories {
		v := clampForType(g.sampleValue(m), m.DataType)
		points[i] = model.DataPoint{
			Label:   category,
			Value:   round2(v),
			Display: FormatValue(round2(v), m.DataType, m.Format),
			Metadata: map[string]interface{}{
				"metric":   m.Name,
				"category": category,
				"axis":     axis,
			},
		}
	}
	return points
}

// metricPoint samples one value for a resolved metric
func (g *Generator) metricPoint(m metrics.ResolvedMetric, label string) model.DataPoint {
	v := clampForType(g.sampleValue(m), m.DataType)
	return model.DataPoint{
		Label:   label,
		Value:   round2(v),
		Display: FormatValue(round2(v), m.DataType, m.Format),
		Metadata: map[string]interface{}{
			"metric":     m.Name,
			"source":     string(m.Source),
			"expression": m.Expression,
		},
	}
}

// sampleValue draws a plausible business value for a metric's data type.
// Bounds are tunable; the hard contracts are non-negative currency/count and
// percentages within a plausible band.
func (g *Generator) sampleValue(m metrics.ResolvedMetric) float64 {
	switch m.DataType {
	case model.DataTypeCurrency:
		return g.between(50_000, 2_500_000)
	case model.DataTypePercentage:
		return g.between(50, 100)
	case model.DataTypeCount:
		return float64(int(g.between(100, 5000)))
	case model.DataTypeRatio:
		return g.between(1.2, 4.5)
	default:
		return g.between(10, 500)
	}
}

// trendFor picks a monthly growth factor appropriate to the metric type:
// savings compound, percentages creep upward, counts grow modestly.
func trendFor(dt model.DataType) float64 {
	switch dt {
	case model.DataTypeCurrency:
		return 1.04
	case model.DataTypePercentage:
		return 1.01
	case model.DataTypeCount:
		return 1.03
	default:
		return 1.02
	}
}

// clampForType enforces the hard value invariants after noise
func clampForType(v float64, dt model.DataType) float64 {
	switch dt {
	case model.DataTypeCurrency, model.DataTypeCount:
		if v < 0 {
			return 0
		}
	case model.DataTypePercentage:
		if v < 0 {
			return 0
		}
		if v > 100 {
			return 100
		}
	}
	return v
}
