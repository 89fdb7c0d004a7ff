package metrics

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogEntry defines one named measurement: how to compute it and which
// tables the computation reads.
type CatalogEntry struct {
	Expression     string   `yaml:"expression" json:"expression"`
	RequiredTables []string `yaml:"required_tables" json:"required_tables"`
	DataType       string   `yaml:"data_type,omitempty" json:"data_type,omitempty"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// Catalog is the static registry of named metrics. Loaded once at startup and
// never mutated afterwards; safe for concurrent reads.
type Catalog struct {
	entries     map[string]CatalogEntry
	knownTables []string
}

// catalogFile is the YAML shape of a catalog file
type catalogFile struct {
	Metrics     map[string]CatalogEntry `yaml:"metrics"`
	KnownTables []string                `yaml:"known_tables,omitempty"`
}

// Lookup returns the entry for a metric key
func (c *Catalog) Lookup(key string) (CatalogEntry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// KnownTables returns the table vocabulary used for expression inference
func (c *Catalog) KnownTables() []string {
	return c.knownTables
}

// Keys returns all catalog keys (order unspecified)
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// LoadCatalog reads a catalog from a YAML file. Entries missing an expression
// are rejected so a bad catalog fails at startup, not at resolve time.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Metrics) == 0 {
		return nil, fmt.Errorf("catalog %s defines no metrics", path)
	}
	for key, entry := range file.Metrics {
		if strings.TrimSpace(entry.Expression) == "" {
			return nil, fmt.Errorf("catalog entry %q has no expression", key)
		}
	}

	tables := file.KnownTables
	if len(tables) == 0 {
		tables = defaultKnownTables()
	}

	return &Catalog{entries: file.Metrics, knownTables: tables}, nil
}

// DefaultCatalog returns the built-in healthcare ROI metric registry
func DefaultCatalog() *Catalog {
	return &Catalog{
		entries:     defaultEntries(),
		knownTables: defaultKnownTables(),
	}
}

func defaultKnownTables() []string {
	return []string{
		"claims",
		"members",
		"enrollments",
		"encounters",
		"outcomes",
		"lab_results",
		"programs",
		"costs",
		"medications",
	}
}

func defaultEntries() map[string]CatalogEntry {
	return map[string]CatalogEntry{
		"roi_percentage": {
			Expression:     "(SUM(costs.savings_amount) - SUM(programs.program_cost)) / NULLIF(SUM(programs.program_cost), 0) * 100",
			RequiredTables: []string{"costs", "programs"},
			DataType:       "percentage",
			Description:    "Return on investment as a percentage of program cost",
		},
		"total_cost_savings": {
			Expression:     "SUM(costs.savings_amount)",
			RequiredTables: []string{"costs"},
			DataType:       "currency",
			Description:    "Total savings attributed to the program",
		},
		"pmpm_cost": {
			Expression:     "SUM(claims.paid_amount) / NULLIF(COUNT(DISTINCT members.member_id), 0) / 12",
			RequiredTables: []string{"claims", "members"},
			DataType:       "currency",
			Description:    "Per-member-per-month cost",
		},
		"total_claims_cost": {
			Expression:     "SUM(claims.paid_amount)",
			RequiredTables: []string{"claims"},
			DataType:       "currency",
			Description:    "Total paid claims cost",
		},
		"member_count": {
			Expression:     "COUNT(DISTINCT members.member_id)",
			RequiredTables: []string{"members"},
			DataType:       "count",
			Description:    "Distinct members in scope",
		},
		"enrollment_rate": {
			Expression:     "COUNT(DISTINCT enrollments.member_id) * 100.0 / NULLIF(COUNT(DISTINCT members.member_id), 0)",
			RequiredTables: []string{"enrollments", "members"},
			DataType:       "percentage",
			Description:    "Share of eligible members enrolled in the program",
		},
		"engagement_rate": {
			Expression:     "COUNT(DISTINCT encounters.member_id) * 100.0 / NULLIF(COUNT(DISTINCT enrollments.member_id), 0)",
			RequiredTables: []string{"encounters", "enrollments"},
			DataType:       "percentage",
			Description:    "Share of enrolled members with at least one program encounter",
		},
		"hba1c_reduction": {
			Expression:     "AVG(lab_results.baseline_value - lab_results.current_value)",
			RequiredTables: []string{"lab_results"},
			DataType:       "number",
			Description:    "Average HbA1c point reduction from baseline",
		},
		"readmission_rate": {
			Expression:     "SUM(CASE WHEN encounters.is_readmission THEN 1 ELSE 0 END) * 100.0 / NULLIF(COUNT(encounters.encounter_id), 0)",
			RequiredTables: []string{"encounters"},
			DataType:       "percentage",
			Description:    "30-day readmission rate",
		},
		"er_visits_avoided": {
			Expression:     "SUM(outcomes.er_visits_avoided)",
			RequiredTables: []string{"outcomes"},
			DataType:       "count",
			Description:    "Emergency visits avoided versus the matched baseline",
		},
		"medication_adherence": {
			Expression:     "AVG(medications.pdc) * 100",
			RequiredTables: []string{"medications"},
			DataType:       "percentage",
			Description:    "Proportion of days covered across maintenance medications",
		},
		"cost_per_engaged_member": {
			Expression:     "SUM(programs.program_cost) / NULLIF(COUNT(DISTINCT encounters.member_id), 0)",
			RequiredTables: []string{"programs", "encounters"},
			DataType:       "currency",
			Description:    "Program cost divided by engaged members",
		},
		"savings_ratio": {
			Expression:     "SUM(costs.savings_amount) / NULLIF(SUM(programs.program_cost), 0)",
			RequiredTables: []string{"costs", "programs"},
			DataType:       "ratio",
			Description:    "Savings per program dollar spent",
		},
	}
}
