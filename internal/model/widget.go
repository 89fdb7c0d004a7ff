package model

import "encoding/json"

// DataType classifies how a metric's values are interpreted and formatted
type DataType string

const (
	DataTypeCount      DataType = "count"
	DataTypeCurrency   DataType = "currency"
	DataTypePercentage DataType = "percentage"
	DataTypeNumber     DataType = "number"
	DataTypeRatio      DataType = "ratio"
)

// QueryType classifies the shape of a widget's data requirement
type QueryType string

const (
	QueryTypeAggregate    QueryType = "aggregate"
	QueryTypeTimeSeries   QueryType = "time-series"
	QueryTypeDistribution QueryType = "distribution"
)

// MetricDefinition names a measurement a widget wants to show. Exactly one of
// MetricRef (catalog key) or Expression (raw SQL formula) must be set.
type MetricDefinition struct {
	Name       string   `json:"name"`
	DataType   DataType `json:"data_type,omitempty"`
	MetricRef  string   `json:"metric_ref,omitempty"`
	Expression string   `json:"expression,omitempty"`
	Format     string   `json:"format,omitempty"`
}

// FilterDefinition is one predicate in a data requirement
type FilterDefinition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"` // eq, ne, gt, lt, gte, lte, in, like, between
	Value    interface{} `json:"value"`
}

// TimeRange bounds a query to an interval
type TimeRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Field string `json:"field,omitempty"`
}

// DataRequirement is the full query specification for one widget
type DataRequirement struct {
	QueryType  QueryType          `json:"query_type"`
	Metrics    []MetricDefinition `json:"metrics"`
	Dimensions []string           `json:"dimensions,omitempty"`
	Filters    []FilterDefinition `json:"filters,omitempty"`
	TimeRange  *TimeRange         `json:"time_range,omitempty"`
}

// WidgetSpec describes a single dashboard widget. Producers that have not
// migrated still emit widget_id/chart_config, so both naming conventions are
// accepted on decode.
type WidgetSpec struct {
	ID              string                 `json:"id,omitempty"`
	Type            string                 `json:"type"`
	Title           string                 `json:"title,omitempty"`
	Config          map[string]interface{} `json:"config,omitempty"`
	DataRequirement *DataRequirement       `json:"data_requirement,omitempty"`
}

// UnmarshalJSON merges the legacy widget_id and chart_config aliases.
// chart_config keys win over config keys on conflict.
func (w *WidgetSpec) UnmarshalJSON(data []byte) error {
	type alias WidgetSpec
	aux := struct {
		*alias
		WidgetID    string                 `json:"widget_id,omitempty"`
		WidgetType  string                 `json:"widget_type,omitempty"`
		ChartConfig map[string]interface{} `json:"chart_config,omitempty"`
	}{alias: (*alias)(w)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if w.ID == "" {
		w.ID = aux.WidgetID
	}
	if w.Type == "" {
		w.Type = aux.WidgetType
	}
	if len(aux.ChartConfig) > 0 {
		if w.Config == nil {
			w.Config = make(map[string]interface{}, len(aux.ChartConfig))
		}
		for k, v := range aux.ChartConfig {
			w.Config[k] = v
		}
	}
	return nil
}

// DataPoint is one synthesized value for a widget. Value and Display are both
// required downstream: Display must be derivable from Value and the data type.
type DataPoint struct {
	Label    string                 `json:"label"`
	Value    float64                `json:"value"`
	Display  string                 `json:"display"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// QueryMetadata summarizes a compiled plan for the generator without
// re-parsing the plan text
type QueryMetadata struct {
	QueryType   QueryType `json:"query_type,omitempty"`
	Tables      []string  `json:"tables,omitempty"`
	MetricCount int       `json:"metric_count"`
	HasFilters  bool      `json:"has_filters"`
	HasGrouping bool      `json:"has_grouping"`
	Source      string    `json:"source"` // "query", "widget_type", "legacy", "fallback", "error"
}

// GeneratedData is the output of synthetic data generation for one widget
type GeneratedData struct {
	DataPoints    []DataPoint   `json:"data_points"`
	QueryMetadata QueryMetadata `json:"query_metadata"`
}
