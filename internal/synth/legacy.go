package synth

import (
	"fmt"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// Legacy config-based generators for widgets that carry no data requirement.
// One bespoke generator per chart family, each with a value range and
// formatting convention appropriate to that family.

var legacyStrategies = map[string]strategyFunc{
	"line":        (*Generator).legacyLine,
	"sparkline":   (*Generator).legacyLine,
	"area":        (*Generator).legacyLine,
	"bar":         (*Generator).legacyBar,
	"stacked-bar": (*Generator).legacyBar,
	"column":      (*Generator).legacyBar,
	"pie":         (*Generator).legacyPie,
	"donut":       (*Generator).legacyPie,
	"scatter":     (*Generator).legacyScatter,
	"bubble":      (*Generator).legacyScatter,
	"gauge":       (*Generator).legacyGauge,
	"progress":    (*Generator).legacyGauge,
	"funnel":      (*Generator).legacyFunnel,
	"treemap":     (*Generator).legacyTreemap,
	"histogram":   (*Generator).legacyHistogram,
	"candlestick": (*Generator).legacyCandlestick,
	"boxplot":     (*Generator).legacyCandlestick,
	"number":      (*Generator).legacyStat,
	"stat":        (*Generator).legacyStat,
	"kpi":         (*Generator).legacyStat,
	"bullet":      (*Generator).legacyBullet,
}

func (g *Generator) legacyLine(spec model.WidgetSpec) []model.DataPoint {
	points := make([]model.DataPoint, len(monthLabels))
	value := g.between(100, 400)
	for i, month := range monthLabels {
		value = g.noisy(value*1.02, 0.06)
		points[i] = model.DataPoint{
			Label:    month,
			Value:    round1(value),
			Display:  FormatValue(round1(value), model.DataTypeNumber, ""),
			Metadata: map[string]interface{}{"series": spec.Title},
		}
	}
	return points
}

var barCategories = []string{"Diabetes", "Cardiac", "Behavioral", "Maternity", "Oncology"}

func (g *Generator) legacyBar(spec model.WidgetSpec) []model.DataPoint {
	points := make([]model.DataPoint, len(barCategories))
	for i, cat := range barCategories {
		v := round2(g.between(100_000, 800_000))
		points[i] = model.DataPoint{
			Label:    cat,
			Value:    v,
			Display:  FormatValue(v, model.DataTypeCurrency, ""),
			Metadata: map[string]interface{}{"category": cat},
		}
	}
	return points
}

// legacyPie produces shares normalized to sum to 100
func (g *Generator) legacyPie(spec model.WidgetSpec) []model.DataPoint {
	labels := []string{"Inpatient", "Outpatient", "Pharmacy", "Emergency", "Other"}
	raw := make([]float64, len(labels))
	total := 0.0
	for i := range raw {
		raw[i] = g.between(5, 40)
		total += raw[i]
	}

	points := make([]model.DataPoint, len(labels))
	for i, label := range labels {
		share := round1(raw[i] / total * 100)
		points[i] = model.DataPoint{
			Label:    label,
			Value:    share,
			Display:  FormatValue(share, model.DataTypePercentage, ""),
			Metadata: map[string]interface{}{"segment": label},
		}
	}
	return points
}

func (g *Generator) legacyScatter(spec model.WidgetSpec) []model.DataPoint {
	points := make([]model.DataPoint, 20)
	for i := range points {
		x := round1(g.between(0, 100))
		y := round1(g.noisy(x*g.between(0.6, 1.4), 0.15))
		points[i] = model.DataPoint{
			Label:   fmt.Sprintf("Member Cohort %d", i+1),
			Value:   y,
			Display: FormatValue(y, model.DataTypeNumber, ""),
			Metadata: map[string]interface{}{
				"x": x,
				"y": y,
			},
		}
	}
	return points
}

func (g *Generator) legacyGauge(spec model.WidgetSpec) []model.DataPoint {
	v := round1(g.between(55, 95))
	return []model.DataPoint{{
		Label:   firstNonEmpty(spec.Title, "Progress"),
		Value:   v,
		Display: FormatValue(v, model.DataTypePercentage, ""),
		Metadata: map[string]interface{}{
			"min":    0,
			"max":    100,
			"target": 80,
		},
	}}
}

// legacyFunnel produces strictly decreasing stage counts
func (g *Generator) legacyFunnel(spec model.WidgetSpec) []model.DataPoint {
	stages := []string{"Eligible", "Invited", "Enrolled", "Engaged", "Completed"}
	value := g.between(5000, 20000)

	points := make([]model.DataPoint, len(stages))
	for i, stage := range stages {
		v := float64(int(value))
		points[i] = model.DataPoint{
			Label:    stage,
			Value:    v,
			Display:  FormatValue(v, model.DataTypeCount, ""),
			Metadata: map[string]interface{}{"stage": i + 1},
		}
		value *= g.between(0.45, 0.8)
	}
	return points
}

func (g *Generator) legacyTreemap(spec model.WidgetSpec) []model.DataPoint {
	labels := []string{"Primary Care", "Specialty Care", "Inpatient", "Pharmacy", "Lab & Imaging", "Emergency", "Other"}
	points := make([]model.DataPoint, len(labels))
	for i, label := range labels {
		v := round2(g.between(50_000, 1_200_000))
		points[i] = model.DataPoint{
			Label:    label,
			Value:    v,
			Display:  FormatValue(v, model.DataTypeCurrency, ""),
			Metadata: map[string]interface{}{"parent": "Total Spend"},
		}
	}
	return points
}

func (g *Generator) legacyHistogram(spec model.WidgetSpec) []model.DataPoint {
	buckets := []string{"0-1K", "1K-5K", "5K-10K", "10K-25K", "25K-50K", "50K+"}
	points := make([]model.DataPoint, len(buckets))
	for i, bucket := range buckets {
		// Cost distributions skew low
		v := float64(int(g.between(50, 2000) / float64(i+1)))
		points[i] = model.DataPoint{
			Label:    bucket,
			Value:    v,
			Display:  FormatValue(v, model.DataTypeCount, ""),
			Metadata: map[string]interface{}{"bucket": bucket},
		}
	}
	return points
}

func (g *Generator) legacyCandlestick(spec model.WidgetSpec) []model.DataPoint {
	points := make([]model.DataPoint, len(monthLabels))
	mid := g.between(100, 300)
	for i, month := range monthLabels {
		mid = g.noisy(mid, 0.05)
		spread := mid * g.between(0.05, 0.15)
		open := round1(mid - spread/2)
		closeV := round1(mid + spread/2)
		points[i] = model.DataPoint{
			Label:   month,
			Value:   round1(mid),
			Display: FormatValue(round1(mid), model.DataTypeNumber, ""),
			Metadata: map[string]interface{}{
				"open":  open,
				"close": closeV,
				"high":  round1(closeV * 1.03),
				"low":   round1(open * 0.97),
			},
		}
	}
	return points
}

func (g *Generator) legacyStat(spec model.WidgetSpec) []model.DataPoint {
	v := round2(g.between(100_000, 3_000_000))
	trend := round1(g.between(-8, 25))
	return []model.DataPoint{{
		Label:   firstNonEmpty(spec.Title, "Total Value"),
		Value:   v,
		Display: FormatValue(v, model.DataTypeCurrency, ""),
		Metadata: map[string]interface{}{
			"trend": fmtTrend(trend),
		},
	}}
}

func (g *Generator) legacyBullet(spec model.WidgetSpec) []model.DataPoint {
	actual := round1(g.between(50, 95))
	target := round1(g.between(70, 90))
	return []model.DataPoint{{
		Label:   firstNonEmpty(spec.Title, "Performance"),
		Value:   actual,
		Display: FormatValue(actual, model.DataTypePercentage, ""),
		Metadata: map[string]interface{}{
			"target":         target,
			"target_display": FormatValue(target, model.DataTypePercentage, ""),
		},
	}}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
