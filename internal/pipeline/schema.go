package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// ClaimCategory classifies what kind of claim was extracted
type ClaimCategory string

const (
	CategoryValueProposition ClaimCategory = "value_proposition"
	CategoryClinicalOutcome  ClaimCategory = "clinical_outcome"
	CategoryFinancialMetric  ClaimCategory = "financial_metric"
)

var validCategories = map[ClaimCategory]bool{
	CategoryValueProposition: true,
	CategoryClinicalOutcome:  true,
	CategoryFinancialMetric:  true,
}

// ExtractedClaim is one claim as the agent emits it, before verification
type ExtractedClaim struct {
	Value      string        `json:"value"`
	SourceText string        `json:"source_text,omitempty"`
	DocumentID string        `json:"document_id,omitempty"`
	Category   ClaimCategory `json:"category"`
	Confidence float64       `json:"confidence"`
	Numeric    bool          `json:"numeric,omitempty"`
	Important  bool          `json:"important,omitempty"`
}

// AgentOutput is the typed result schema the completion must satisfy
type AgentOutput struct {
	DashboardTitle string             `json:"dashboard_title"`
	Extractions    []ExtractedClaim   `json:"extractions"`
	Widgets        []model.WidgetSpec `json:"widgets,omitempty"`
}

// DecodeOutput deserializes the JSON text into the result schema and collects
// every field-level violation, so one retry can fix all of them at once.
// A syntax error is a malformed-output failure, not a schema failure.
func DecodeOutput(jsonText string) (*AgentOutput, *ExtractionError) {
	var output AgentOutput
	if err := json.Unmarshal([]byte(jsonText), &output); err != nil {
		return nil, &ExtractionError{
			Kind:    KindMalformedOutput,
			Message: fmt.Sprintf("invalid JSON: %v", err),
		}
	}

	violations := validateSchema(&output)
	if len(violations) > 0 {
		return nil, &ExtractionError{
			Kind:       KindSchema,
			Message:    fmt.Sprintf("%d schema violations", len(violations)),
			Violations: violations,
		}
	}
	return &output, nil
}

// validateSchema checks required fields and value domains, collecting every
// violation with its JSON path.
func validateSchema(output *AgentOutput) []FieldViolation {
	var violations []FieldViolation

	if output.DashboardTitle == "" {
		violations = append(violations, FieldViolation{
			Path: "dashboard_title", Message: "required field is missing or empty",
		})
	}
	if output.Extractions == nil {
		violations = append(violations, FieldViolation{
			Path: "extractions", Message: "required array is missing",
		})
	}

	for i, claim := range output.Extractions {
		path := fmt.Sprintf("extractions[%d]", i)
		if claim.Value == "" {
			violations = append(violations, FieldViolation{
				Path: path + ".value", Message: "required field is missing or empty",
			})
		}
		if claim.Category == "" {
			violations = append(violations, FieldViolation{
				Path: path + ".category", Message: "required field is missing",
			})
		} else if !validCategories[claim.Category] {
			violations = append(violations, FieldViolation{
				Path:    path + ".category",
				Message: fmt.Sprintf("must be one of value_proposition, clinical_outcome, financial_metric; got %q", claim.Category),
			})
		}
		if claim.Confidence < 0 || claim.Confidence > 1 {
			violations = append(violations, FieldViolation{
				Path: path + ".confidence", Message: fmt.Sprintf("must be in [0,1]; got %g", claim.Confidence),
			})
		}
	}

	for i, widget := range output.Widgets {
		if widget.Type == "" {
			violations = append(violations, FieldViolation{
				Path: fmt.Sprintf("widgets[%d].type", i), Message: "required field is missing",
			})
		}
	}

	return violations
}
