package query

import (
	"fmt"
	"strings"

	"github.com/halcyonhealth/dashforge/internal/metrics"
	"github.com/halcyonhealth/dashforge/internal/model"
)

// joinKey is the shared entity identifier assumed by the deterministic join.
// Callers needing richer joins must pre-resolve their metrics to one table.
const joinKey = "member_id"

// QueryPlan is the compiled, non-executed representation of a data
// requirement. Recomputed on every compile, never mutated in place.
type QueryPlan struct {
	Select  []string `json:"select"`
	From    string   `json:"from"`
	Joins   []string `json:"joins,omitempty"`
	Where   []string `json:"where,omitempty"`
	GroupBy []string `json:"group_by,omitempty"`
	OrderBy []string `json:"order_by,omitempty"`

	Tables  []string                 `json:"tables"`
	Metrics []metrics.ResolvedMetric `json:"metrics"`

	QueryType   model.QueryType `json:"query_type"`
	MetricCount int             `json:"metric_count"`
	HasFilters  bool            `json:"has_filters"`
	HasGrouping bool            `json:"has_grouping"`
}

// SQL renders the plan as a single SQL statement
func (p *QueryPlan) SQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(p.Select, ", "))
	b.WriteString(" FROM ")
	b.WriteString(p.From)
	for _, j := range p.Joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if len(p.Where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(p.Where, " AND "))
	}
	if len(p.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(p.GroupBy, ", "))
	}
	if len(p.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(p.OrderBy, ", "))
	}
	return b.String()
}

// Compiler assembles query plans from widget data requirements
type Compiler struct {
	resolver *metrics.Resolver
}

// NewCompiler creates a compiler using the given resolver
func NewCompiler(resolver *metrics.Resolver) *Compiler {
	if resolver == nil {
		resolver = metrics.NewResolver(nil)
	}
	return &Compiler{resolver: resolver}
}

// Compile builds a query plan from a data requirement. Metric resolution
// failures (catalog misses, empty definitions) propagate as hard errors.
func (c *Compiler) Compile(req model.DataRequirement) (*QueryPlan, error) {
	if len(req.Metrics) == 0 {
		return nil, fmt.Errorf("data requirement has no metrics")
	}

	resolved, err := c.resolver.ResolveAll(req.Metrics)
	if err != nil {
		return nil, fmt.Errorf("resolve metrics: %w", err)
	}

	tables := unionTables(resolved)
	if len(tables) == 0 {
		tables = []string{"claims"}
	}

	plan := &QueryPlan{
		From:        tables[0],
		Tables:      tables,
		Metrics:     resolved,
		QueryType:   req.QueryType,
		MetricCount: len(resolved),
		HasFilters:  len(req.Filters) > 0,
		HasGrouping: len(req.Dimensions) > 0,
	}

	// Deterministic join: first table anchors, the rest left-join on the
	// shared member key.
	for _, table := range tables[1:] {
		plan.Joins = append(plan.Joins, fmt.Sprintf("LEFT JOIN %s ON %s.%s = %s.%s", table, tables[0], joinKey, table, joinKey))
	}

	// Projection: dimensions first, then metrics aliased to their names.
	plan.Select = append(plan.Select, req.Dimensions...)
	for _, m := range resolved {
		plan.Select = append(plan.Select, fmt.Sprintf("%s AS %s", m.Expression, quoteIdent(m.Name)))
	}

	for _, f := range req.Filters {
		pred, err := renderFilter(f)
		if err != nil {
			return nil, err
		}
		plan.Where = append(plan.Where, pred)
	}
	if req.TimeRange != nil {
		plan.Where = append(plan.Where, renderTimeRange(*req.TimeRange)...)
	}

	plan.GroupBy = append(plan.GroupBy, req.Dimensions...)

	// Only time-series queries carry an ordering: the first dimension is
	// assumed to be the temporal axis.
	if req.QueryType == model.QueryTypeTimeSeries && len(req.Dimensions) > 0 {
		plan.OrderBy = []string{req.Dimensions[0]}
	}

	return plan, nil
}

// unionTables merges required tables across metrics, order-preserving
func unionTables(resolved []metrics.ResolvedMetric) []string {
	seen := make(map[string]bool)
	var tables []string
	for _, m := range resolved {
		for _, t := range m.RequiredTables {
			if !seen[t] {
				seen[t] = true
				tables = append(tables, t)
			}
		}
	}
	return tables
}

var operatorSQL = map[string]string{
	"eq":  "=",
	"ne":  "!=",
	"gt":  ">",
	"lt":  "<",
	"gte": ">=",
	"lte": "<=",
}

// renderFilter renders one filter definition as a SQL predicate
func renderFilter(f model.FilterDefinition) (string, error) {
	op := strings.ToLower(f.Operator)

	if sqlOp, ok := operatorSQL[op]; ok {
		return fmt.Sprintf("%s %s %s", f.Field, sqlOp, renderValue(f.Value)), nil
	}

	switch op {
	case "like":
		return fmt.Sprintf("%s LIKE %s", f.Field, renderValue(f.Value)), nil
	case "in":
		items, ok := valueList(f.Value)
		if !ok || len(items) == 0 {
			return "", fmt.Errorf("filter on %s: operator in requires a non-empty list", f.Field)
		}
		return fmt.Sprintf("%s IN (%s)", f.Field, strings.Join(items, ", ")), nil
	case "between":
		items, ok := valueList(f.Value)
		if !ok || len(items) != 2 {
			return "", fmt.Errorf("filter on %s: operator between requires exactly 2 values", f.Field)
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", f.Field, items[0], items[1]), nil
	default:
		return "", fmt.Errorf("filter on %s: unknown operator %q", f.Field, f.Operator)
	}
}

func renderTimeRange(tr model.TimeRange) []string {
	field := tr.Field
	if field == "" {
		field = "period_start"
	}
	var preds []string
	if tr.Start != "" {
		preds = append(preds, fmt.Sprintf("%s >= %s", field, renderValue(tr.Start)))
	}
	if tr.End != "" {
		preds = append(preds, fmt.Sprintf("%s <= %s", field, renderValue(tr.End)))
	}
	return preds
}

// valueList normalizes a list-typed filter value, quoting string elements
func valueList(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case []interface{}:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = renderValue(item)
		}
		return items, true
	case []string:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = renderValue(item)
		}
		return items, true
	default:
		return nil, false
	}
}

// renderValue renders a scalar filter value, quoting strings
func renderValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case int:
		return fmt.Sprintf("%d", v)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// quoteIdent makes a metric name safe as a SQL alias
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, ``) + `"`
}
