package pipeline

import "fmt"

// Business-rule validation: domain rules beyond schema shape. Errors block
// progress and trigger a retry; warnings are informational and attached to
// the result metadata.

// validateBusinessRules checks the agent output against domain rules
func (p *Pipeline) validateBusinessRules(output *AgentOutput) (errors, warnings []string) {
	if len(output.Extractions) < p.minExtractions {
		errors = append(errors, fmt.Sprintf(
			"too few extractions: got %d, need at least %d distinct value propositions, clinical outcomes, or financial metrics",
			len(output.Extractions), p.minExtractions))
	}

	for i, claim := range output.Extractions {
		// Load-bearing claims must carry a verbatim quote so they can be
		// grounded.
		if claim.Important && claim.SourceText == "" {
			errors = append(errors, fmt.Sprintf(
				"extractions[%d] is marked important but has no source_text quote", i))
		}
		if claim.Confidence < 0.5 {
			warnings = append(warnings, fmt.Sprintf(
				"extractions[%d] has low confidence %.2f", i, claim.Confidence))
		}
		if claim.Numeric && claim.SourceText == "" {
			warnings = append(warnings, fmt.Sprintf(
				"extractions[%d] is numeric but has no source_text quote; numeric claims verify best with quotes", i))
		}
	}

	hasFinancial := false
	for _, claim := range output.Extractions {
		if claim.Category == CategoryFinancialMetric {
			hasFinancial = true
			break
		}
	}
	if !hasFinancial {
		warnings = append(warnings, "no financial_metric extraction found; ROI dashboards usually need one")
	}

	for i, widget := range output.Widgets {
		if widget.DataRequirement == nil {
			warnings = append(warnings, fmt.Sprintf(
				"widgets[%d] (%s) has no data_requirement; it will use legacy generation", i, widget.Type))
		} else if len(widget.DataRequirement.Metrics) == 0 {
			errors = append(errors, fmt.Sprintf(
				"widgets[%d] (%s) has a data_requirement with no metrics", i, widget.Type))
		}
	}

	return errors, warnings
}
