package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// maxPromptDocChars bounds how much document text goes into one prompt
const maxPromptDocChars = 24_000

// BuildExtractionPrompt renders the default extraction prompt over the
// supplied documents. The schema description here must stay in sync with
// AgentOutput.
func BuildExtractionPrompt(documents map[string]string, minExtractions int) string {
	var b strings.Builder

	b.WriteString(`Extract the value propositions, clinical outcomes, and financial metrics from the vendor/client materials below, for a healthcare ROI dashboard.

Respond with a single JSON object, no surrounding prose:
{
  "dashboard_title": "short title for the dashboard",
  "extractions": [
    {
      "value": "the claim, stated concisely",
      "source_text": "verbatim quote copied exactly from the document",
      "document_id": "which document the claim came from",
      "category": "value_proposition | clinical_outcome | financial_metric",
      "confidence": 0.0,
      "numeric": false,
      "important": false
    }
  ],
  "widgets": [
    {
      "id": "widget-1",
      "type": "kpi-grid | line | bar | pie | radar | waterfall | data-table | ...",
      "title": "widget title",
      "data_requirement": {
        "query_type": "aggregate | time-series | distribution",
        "metrics": [{"name": "...", "metric_ref": "catalog key"}],
        "dimensions": ["optional grouping fields"]
      }
    }
  ]
}

Rules:
`)
	fmt.Fprintf(&b, "- Extract at least %d distinct claims.\n", minExtractions)
	b.WriteString(`- Every claim must come from the documents. Never invent values.
- source_text must be copied verbatim from the document, character for character.
- Mark claims central to the ROI story as important; important claims require source_text.
- confidence is your own estimate in [0,1].

`)

	ids := make([]string, 0, len(documents))
	for id := range documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	remaining := maxPromptDocChars
	for _, id := range ids {
		text := documents[id]
		if len(text) > remaining {
			// Back the cut up to a rune boundary so truncation never emits
			// invalid UTF-8.
			cut := remaining
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		fmt.Fprintf(&b, "=== Document: %s ===\n%s\n\n", id, text)
		remaining -= len(text)
		if remaining <= 0 {
			break
		}
	}

	return b.String()
}
