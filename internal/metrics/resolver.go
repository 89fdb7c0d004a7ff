package metrics

import (
	"fmt"
	"strings"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// MetricSource distinguishes catalog metrics from agent-supplied expressions
type MetricSource string

const (
	SourceLibrary MetricSource = "library"
	SourceCustom  MetricSource = "custom"
)

// ResolvedMetric is a metric definition bound to a concrete SQL expression
// and the tables that expression reads.
type ResolvedMetric struct {
	Name           string         `json:"name"`
	Expression     string         `json:"expression"`
	DataType       model.DataType `json:"data_type"`
	Format         string         `json:"format,omitempty"`
	Source         MetricSource   `json:"source"`
	RequiredTables []string       `json:"required_tables"`
}

// ConfigError marks catalog/configuration defects. These come from bad
// upstream data, not from model output, so the pipeline never retries them.
type ConfigError struct {
	Metric string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("metric %q: %s", e.Metric, e.Reason)
}

// Resolver resolves metric definitions against a static catalog
type Resolver struct {
	catalog *Catalog
}

// NewResolver creates a resolver over the given catalog
func NewResolver(catalog *Catalog) *Resolver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Resolver{catalog: catalog}
}

// Resolve binds one metric definition. A catalog miss or a definition with
// neither metric_ref nor expression is a hard ConfigError, never defaulted.
func (r *Resolver) Resolve(def model.MetricDefinition) (ResolvedMetric, error) {
	hasRef := strings.TrimSpace(def.MetricRef) != ""
	hasExpr := strings.TrimSpace(def.Expression) != ""

	switch {
	case hasRef && hasExpr:
		return ResolvedMetric{}, &ConfigError{Metric: def.Name, Reason: "metric_ref and expression are mutually exclusive"}
	case hasRef:
		entry, ok := r.catalog.Lookup(def.MetricRef)
		if !ok {
			return ResolvedMetric{}, &ConfigError{Metric: def.Name, Reason: fmt.Sprintf("unknown metric_ref %q", def.MetricRef)}
		}
		return ResolvedMetric{
			Name:           def.Name,
			Expression:     entry.Expression,
			DataType:       resolveDataType(def.DataType, entry.DataType),
			Format:         def.Format,
			Source:         SourceLibrary,
			RequiredTables: append([]string(nil), entry.RequiredTables...),
		}, nil
	case hasExpr:
		return ResolvedMetric{
			Name:           def.Name,
			Expression:     def.Expression,
			DataType:       resolveDataType(def.DataType, ""),
			Format:         def.Format,
			Source:         SourceCustom,
			RequiredTables: r.inferTables(def.Expression),
		}, nil
	default:
		return ResolvedMetric{}, &ConfigError{Metric: def.Name, Reason: "neither metric_ref nor expression is set"}
	}
}

// ResolveAll resolves a list atomically: the first unresolvable metric aborts
// the whole list so the caller surfaces one coherent error.
func (r *Resolver) ResolveAll(defs []model.MetricDefinition) ([]ResolvedMetric, error) {
	resolved := make([]ResolvedMetric, 0, len(defs))
	for _, def := range defs {
		m, err := r.Resolve(def)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, m)
	}
	return resolved, nil
}

// inferTables scans an expression for known table names, case-insensitive,
// deduplicated, order-preserving against the vocabulary order.
func (r *Resolver) inferTables(expression string) []string {
	lower := strings.ToLower(expression)
	var tables []string
	for _, table := range r.catalog.KnownTables() {
		if strings.Contains(lower, strings.ToLower(table)) {
			tables = append(tables, table)
		}
	}
	return tables
}

func resolveDataType(defType model.DataType, catalogType string) model.DataType {
	if defType != "" {
		return defType
	}
	if catalogType != "" {
		return model.DataType(catalogType)
	}
	return model.DataTypeNumber
}
