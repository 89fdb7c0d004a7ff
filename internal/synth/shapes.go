package synth

import (
	"fmt"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// Widget-type-specific strategies. Each produces a fixed shape the renderer
// assumes: radar needs exactly 5 axes, heatmap a 5x4 grid, and so on.

var radarAxes = []string{"Clinical Outcomes", "Cost Savings", "Member Engagement", "Satisfaction", "Access to Care"}

func (g *Generator) generateRadar(spec model.WidgetSpec) []model.DataPoint {
	points := make([]model.DataPoint, len(radarAxes))
	for i, axis := range radarAxes {
		score := round1(g.between(55, 95))
		points[i] = model.DataPoint{
			Label:   axis,
			Value:   score,
			Display: FormatValue(score, model.DataTypeNumber, ""),
			Metadata: map[string]interface{}{
				"axis":      axis,
				"max_value": 100,
			},
		}
	}
	return points
}

var (
	heatmapRows = []string{"Diabetes", "Hypertension", "Heart Failure", "COPD", "Behavioral Health"}
	heatmapCols = []string{"Q1", "Q2", "Q3", "Q4"}
)

func (g *Generator) generateHeatmap(spec model.WidgetSpec) []model.DataPoint {
	points := make([]model.DataPoint, 0, len(heatmapRows)*len(heatmapCols))
	for r, row := range heatmapRows {
		for c, col := range heatmapCols {
			intensity := round1(g.between(10, 100))
			points = append(points, model.DataPoint{
				Label:   row + " / " + col,
				Value:   intensity,
				Display: FormatValue(intensity, model.DataTypeNumber, ""),
				Metadata: map[string]interface{}{
					"row":       row,
					"col":       col,
					"row_index": r,
					"col_index": c,
				},
			})
		}
	}
	return points
}

// generateWaterfall produces a start bar, signed change bars, and a total bar
// carrying the running cumulative.
func (g *Generator) generateWaterfall(spec model.WidgetSpec) []model.DataPoint {
	start := round2(g.between(500_000, 2_000_000))
	changes := []struct {
		label string
		lo    float64
		hi    float64
	}{
		{"Reduced ER Visits", 50_000, 300_000},
		{"Fewer Readmissions", 40_000, 250_000},
		{"Medication Optimization", 20_000, 150_000},
		{"Program Cost", -400_000, -100_000},
	}

	points := []model.DataPoint{{
		Label:   "Baseline Cost",
		Value:   start,
		Display: FormatValue(start, model.DataTypeCurrency, ""),
		Metadata: map[string]interface{}{
			"kind":       "start",
			"cumulative": start,
		},
	}}

	cumulative := start
	for _, ch := range changes {
		delta := round2(g.between(ch.lo, ch.hi))
		cumulative += delta
		points = append(points, model.DataPoint{
			Label:   ch.label,
			Value:   delta,
			Display: formatSigned(delta, model.DataTypeCurrency),
			Metadata: map[string]interface{}{
				"kind":       "change",
				"cumulative": round2(cumulative),
			},
		})
	}

	points = append(points, model.DataPoint{
		Label:   "Net Position",
		Value:   round2(cumulative),
		Display: FormatValue(round2(cumulative), model.DataTypeCurrency, ""),
		Metadata: map[string]interface{}{
			"kind":       "total",
			"cumulative": round2(cumulative),
		},
	})
	return points
}

var tableColumns = []string{"program", "members", "savings", "roi"}

// generateDataTable produces one point per row, each carrying a structured
// sub-record. Row count comes from config ("rows"), default 5.
func (g *Generator) generateDataTable(spec model.WidgetSpec) []model.DataPoint {
	rows := g.tableRows
	if v, ok := spec.Config["rows"]; ok {
		if n, ok := asInt(v); ok && n > 0 {
			rows = n
		}
	}

	programs := []string{"Diabetes Management", "Cardiac Care", "Behavioral Health", "Maternity Support", "Musculoskeletal", "Oncology Navigation", "Chronic Kidney Care"}
	points := make([]model.DataPoint, rows)
	for i := 0; i < rows; i++ {
		savings := round2(g.between(100_000, 900_000))
		members := float64(int(g.between(200, 4000)))
		roi := round2(g.between(1.2, 4.0))
		program := programs[i%len(programs)]

		points[i] = model.DataPoint{
			Label:   program,
			Value:   savings,
			Display: FormatValue(savings, model.DataTypeCurrency, ""),
			Metadata: map[string]interface{}{
				"columns": tableColumns,
				"row": map[string]interface{}{
					"program": program,
					"members": int(members),
					"savings": FormatValue(savings, model.DataTypeCurrency, ""),
					"roi":     FormatValue(roi, model.DataTypeRatio, ""),
				},
			},
		}
	}
	return points
}

// generateRankedList produces 5 items sorted descending, each with a rank and
// a signed period-over-period delta.
func (g *Generator) generateRankedList(spec model.WidgetSpec) []model.DataPoint {
	items := []string{"Care Coordination", "Telehealth Visits", "Preventive Screenings", "Chronic Condition Coaching", "Pharmacy Review"}

	values := make([]float64, len(items))
	for i := range values {
		values[i] = round1(g.between(20, 100))
	}
	// Descending order is part of the shape contract
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			if values[j] > values[i] {
				values[i], values[j] = values[j], values[i]
			}
		}
	}

	points := make([]model.DataPoint, len(items))
	for i, item := range items {
		delta := round1(g.between(-15, 25))
		points[i] = model.DataPoint{
			Label:   item,
			Value:   values[i],
			Display: FormatValue(values[i], model.DataTypeNumber, ""),
			Metadata: map[string]interface{}{
				"rank":          i + 1,
				"delta":         delta,
				"delta_display": formatSigned(delta, model.DataTypeNumber),
			},
		}
	}
	return points
}

// generateTimeline produces 5 milestones with an improving trend from a
// random baseline. Mostly monotonic: each step adds a non-negative gain with
// small noise.
func (g *Generator) generateTimeline(spec model.WidgetSpec) []model.DataPoint {
	milestones := []string{"Baseline", "Month 3", "Month 6", "Month 9", "Month 12"}
	value := g.between(40, 60)

	points := make([]model.DataPoint, len(milestones))
	for i, m := range milestones {
		if i > 0 {
			value += g.between(2, 10)
			if value > 100 {
				value = 100
			}
		}
		v := round1(value)
		points[i] = model.DataPoint{
			Label:   m,
			Value:   v,
			Display: FormatValue(v, model.DataTypePercentage, ""),
			Metadata: map[string]interface{}{
				"milestone": i,
				"phase":     m,
			},
		}
	}
	return points
}

type kpiTemplate struct {
	label    string
	dataType model.DataType
	icon     string
	lo, hi   float64
}

var kpiTemplates = []kpiTemplate{
	{"Total Savings", model.DataTypeCurrency, "piggy-bank", 250_000, 2_500_000},
	{"ROI", model.DataTypeRatio, "trending-up", 1.5, 4.5},
	{"Members Engaged", model.DataTypeCount, "users", 500, 8000},
	{"Engagement Rate", model.DataTypePercentage, "activity", 55, 90},
	{"ER Visits Avoided", model.DataTypeCount, "heart-pulse", 50, 600},
	{"Satisfaction", model.DataTypePercentage, "smile", 70, 98},
}

// generateKPIGrid produces 4-6 KPIs each with an icon, format, and trend
func (g *Generator) generateKPIGrid(spec model.WidgetSpec) []model.DataPoint {
	count := 4 + int(g.randFloat()*3) // 4..6
	if count > len(kpiTemplates) {
		count = len(kpiTemplates)
	}

	points := make([]model.DataPoint, count)
	for i := 0; i < count; i++ {
		tpl := kpiTemplates[i]
		value := round2(g.between(tpl.lo, tpl.hi))
		trend := round1(g.between(-5, 20))
		points[i] = model.DataPoint{
			Label:   tpl.label,
			Value:   value,
			Display: FormatValue(value, tpl.dataType, ""),
			Metadata: map[string]interface{}{
				"icon":   tpl.icon,
				"format": string(tpl.dataType),
				"trend":  fmtTrend(trend),
			},
		}
	}
	return points
}

// generateScorecard produces 3-5 metrics each with baseline, current, and
// percent change.
func (g *Generator) generateScorecard(spec model.WidgetSpec) []model.DataPoint {
	labels := []string{"HbA1c Control", "Readmission Rate", "Medication Adherence", "Preventive Visits", "Care Gap Closure"}
	count := 3 + int(g.randFloat()*3) // 3..5
	if count > len(labels) {
		count = len(labels)
	}

	points := make([]model.DataPoint, count)
	for i := 0; i < count; i++ {
		baseline := round1(g.between(40, 75))
		current := round1(g.noisy(baseline*g.between(1.0, 1.3), 0.05))
		change := 0.0
		if baseline != 0 {
			change = round1((current - baseline) / baseline * 100)
		}
		points[i] = model.DataPoint{
			Label:   labels[i],
			Value:   current,
			Display: FormatValue(current, model.DataTypePercentage, ""),
			Metadata: map[string]interface{}{
				"baseline":       baseline,
				"current":        current,
				"percent_change": change,
				"change_display": fmt.Sprintf("%+.1f%%", change),
			},
		}
	}
	return points
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
