package metrics

import (
	"errors"
	"reflect"
	"testing"

	"github.com/halcyonhealth/dashforge/internal/model"
)

func TestResolve_CatalogRef(t *testing.T) {
	r := NewResolver(nil)

	m, err := r.Resolve(model.MetricDefinition{
		Name:      "HbA1c Improvement",
		MetricRef: "hba1c_reduction",
	})
	if err != nil {
		t.Fatalf("expected resolution, got %v", err)
	}

	if m.Source != SourceLibrary {
		t.Errorf("expected source library, got %s", m.Source)
	}
	if m.Expression == "" {
		t.Error("expected a non-empty expression from the catalog")
	}
	if !reflect.DeepEqual(m.RequiredTables, []string{"lab_results"}) {
		t.Errorf("expected tables [lab_results], got %v", m.RequiredTables)
	}
	if m.DataType != model.DataTypeNumber {
		t.Errorf("expected catalog data type number, got %s", m.DataType)
	}
}

func TestResolve_CustomExpression(t *testing.T) {
	r := NewResolver(nil)

	m, err := r.Resolve(model.MetricDefinition{
		Name:       "Cost per Member",
		Expression: "SUM(claims.paid_amount) / COUNT(DISTINCT members.member_id)",
		DataType:   model.DataTypeCurrency,
	})
	if err != nil {
		t.Fatalf("expected resolution, got %v", err)
	}

	if m.Source != SourceCustom {
		t.Errorf("expected source custom, got %s", m.Source)
	}
	if m.DataType != model.DataTypeCurrency {
		t.Errorf("expected declared data type to win, got %s", m.DataType)
	}
	if !reflect.DeepEqual(m.RequiredTables, []string{"claims", "members"}) {
		t.Errorf("expected inferred tables [claims members], got %v", m.RequiredTables)
	}
}

func TestResolve_UnknownRef(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.Resolve(model.MetricDefinition{Name: "x", MetricRef: "no_such_metric"})
	if err == nil {
		t.Fatal("expected error for unknown metric_ref")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.Metric != "x" {
		t.Errorf("expected error to name the metric, got %q", cfgErr.Metric)
	}
}

func TestResolve_NeitherRefNorExpression(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.Resolve(model.MetricDefinition{Name: "orphan"})
	if err == nil {
		t.Fatal("expected error when neither metric_ref nor expression is set")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
}

func TestResolve_BothRefAndExpression(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.Resolve(model.MetricDefinition{
		Name:       "ambiguous",
		MetricRef:  "member_count",
		Expression: "COUNT(*)",
	})
	if err == nil {
		t.Fatal("expected error when both metric_ref and expression are set")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	r := NewResolver(nil)
	def := model.MetricDefinition{Name: "roi", MetricRef: "roi_percentage"}

	first, err := r.Resolve(def)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := r.Resolve(def)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("resolution must be deterministic for the same definition")
	}
}

func TestResolveAll_Atomic(t *testing.T) {
	r := NewResolver(nil)

	defs := []model.MetricDefinition{
		{Name: "good", MetricRef: "member_count"},
		{Name: "bad", MetricRef: "does_not_exist"},
	}

	resolved, err := r.ResolveAll(defs)
	if err == nil {
		t.Fatal("expected ResolveAll to fail when any metric fails")
	}
	if resolved != nil {
		t.Error("expected no partial results from a failed ResolveAll")
	}
}

func TestResolveAll_AllResolved(t *testing.T) {
	r := NewResolver(nil)

	defs := []model.MetricDefinition{
		{Name: "roi", MetricRef: "roi_percentage"},
		{Name: "members", MetricRef: "member_count"},
	}

	resolved, err := r.ResolveAll(defs)
	if err != nil {
		t.Fatalf("expected all to resolve, got %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected 2 resolved metrics, got %d", len(resolved))
	}
	if resolved[0].Name != "roi" || resolved[1].Name != "members" {
		t.Error("expected input order to be preserved")
	}
}

func TestInferTables_CaseInsensitive(t *testing.T) {
	r := NewResolver(nil)

	tables := r.inferTables("SUM(CLAIMS.paid_amount) + SUM(Costs.savings_amount)")
	if !reflect.DeepEqual(tables, []string{"claims", "costs"}) {
		t.Errorf("expected [claims costs], got %v", tables)
	}
}

func TestDefaultCatalog_AllEntriesComplete(t *testing.T) {
	catalog := DefaultCatalog()

	keys := catalog.Keys()
	if len(keys) < 10 {
		t.Fatalf("expected a substantial default catalog, got %d entries", len(keys))
	}

	for _, key := range keys {
		entry, ok := catalog.Lookup(key)
		if !ok {
			t.Fatalf("Keys returned %q but Lookup missed it", key)
		}
		if entry.Expression == "" {
			t.Errorf("catalog entry %q has no expression", key)
		}
		if len(entry.RequiredTables) == 0 {
			t.Errorf("catalog entry %q has no required tables", key)
		}
		for _, table := range entry.RequiredTables {
			found := false
			for _, known := range catalog.KnownTables() {
				if table == known {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("catalog entry %q requires table %q missing from the known vocabulary", key, table)
			}
		}
	}
}
