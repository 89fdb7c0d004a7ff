package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/halcyonhealth/dashforge/internal/lineage"
	"github.com/halcyonhealth/dashforge/internal/metrics"
	"github.com/halcyonhealth/dashforge/internal/model"
	"github.com/halcyonhealth/dashforge/internal/verify"
)

// CompletionFunc is the injected completion service: one prompt in, raw
// completion text out. Timeouts are the collaborator's responsibility.
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

// Pipeline drives the extraction-verification-retry loop: complete, parse,
// validate schema, validate business rules, ground against sources, record
// lineage. Any gating failure reprompts with cumulative feedback until the
// retry budget is spent.
type Pipeline struct {
	complete CompletionFunc
	verifier *verify.Verifier
	resolver *metrics.Resolver
	tracker  *lineage.Tracker // nil disables lineage recording

	maxRetries     int
	minExtractions int
	agentName      string
	modelID        string
	verbose        bool
}

// Options configures a pipeline
type Options struct {
	Complete       CompletionFunc
	Verifier       *verify.Verifier
	Resolver       *metrics.Resolver
	Tracker        *lineage.Tracker
	MaxRetries     int
	MinExtractions int
	AgentName      string
	ModelID        string
	Verbose        bool
}

// NewPipeline creates a pipeline. Complete is required; everything else has
// workable defaults.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Complete == nil {
		return nil, fmt.Errorf("completion function is required")
	}
	if opts.Verifier == nil {
		opts.Verifier = verify.NewDefaultVerifier()
	}
	if opts.Resolver == nil {
		opts.Resolver = metrics.NewResolver(nil)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.MinExtractions <= 0 {
		opts.MinExtractions = 1
	}
	if opts.AgentName == "" {
		opts.AgentName = "roi-extraction"
	}
	return &Pipeline{
		complete:       opts.Complete,
		verifier:       opts.Verifier,
		resolver:       opts.Resolver,
		tracker:        opts.Tracker,
		maxRetries:     opts.MaxRetries,
		minExtractions: opts.MinExtractions,
		agentName:      opts.AgentName,
		modelID:        opts.ModelID,
		verbose:        opts.Verbose,
	}, nil
}

// Request is one extraction job: the prompt plus the source document texts
// for grounding. An empty Documents map skips the grounding stage.
type Request struct {
	Prompt    string
	Documents map[string]string // document id/URL -> full plain text
}

// Result is the outcome of a successful extraction run
type Result struct {
	Output       *AgentOutput                        `json:"output"`
	Extractions  []model.Extraction                  `json:"extractions"`
	Verification map[string]model.VerificationResult `json:"verification"` // by extraction id
	Attempts     int                                 `json:"attempts"`
	Warnings     []string                            `json:"warnings,omitempty"`
}

// Run executes the retry loop. It terminates successfully the first time
// every gating stage passes, or with ExhaustedError after maxRetries
// consecutive failures. Cancellation is honored at attempt boundaries.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	var feedback []string
	var lastErr error

	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction cancelled before attempt %d: %w", attempt, err)
		}

		result, err := p.runAttempt(ctx, req, attempt, feedback)
		if err == nil {
			return result, nil
		}

		var extErr *ExtractionError
		if e, ok := err.(*ExtractionError); ok {
			extErr = e
		} else {
			// Transport failures and other non-stage errors are not
			// model-fixable.
			return nil, fmt.Errorf("attempt %d: %w", attempt, err)
		}

		if !extErr.Retryable() {
			return nil, extErr
		}

		lastErr = extErr
		feedback = append(feedback, feedbackFor(extErr))
		if p.verbose {
			fmt.Fprintf(os.Stderr, "attempt %d/%d failed (%s); retrying with feedback\n", attempt, p.maxRetries, extErr.Kind)
		}
	}

	return nil, &ExhaustedError{Attempts: p.maxRetries, LastErr: lastErr}
}

// runAttempt performs one pass through the stage sequence
func (p *Pipeline) runAttempt(ctx context.Context, req Request, attempt int, feedback []string) (*Result, error) {
	raw, err := p.complete(ctx, buildPrompt(req.Prompt, feedback))
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	jsonText, extErr := ExtractJSON(raw)
	if extErr != nil {
		return nil, extErr
	}

	output, extErr := DecodeOutput(jsonText)
	if extErr != nil {
		return nil, extErr
	}

	ruleErrors, warnings := p.validateBusinessRules(output)
	if len(ruleErrors) > 0 {
		return nil, &ExtractionError{
			Kind:    KindBusinessRule,
			Message: strings.Join(ruleErrors, "; "),
		}
	}

	// Widget metric definitions are checked against the catalog up front:
	// a catalog miss is an upstream-data defect no reprompt can fix.
	if err := p.checkCatalog(output); err != nil {
		return nil, err
	}

	extractions, verification, extErr := p.ground(output, req.Documents)
	if extErr != nil {
		return nil, extErr
	}

	p.recordLineage(ctx, extractions, verification, req.Documents, attempt-1)

	return &Result{
		Output:       output,
		Extractions:  extractions,
		Verification: verification,
		Attempts:     attempt,
		Warnings:     warnings,
	}, nil
}

// checkCatalog resolves every widget metric definition, surfacing catalog
// and configuration errors as fatal.
func (p *Pipeline) checkCatalog(output *AgentOutput) error {
	for i, widget := range output.Widgets {
		if widget.DataRequirement == nil {
			continue
		}
		if _, err := p.resolver.ResolveAll(widget.DataRequirement.Metrics); err != nil {
			return &ExtractionError{
				Kind:    KindCatalog,
				Message: fmt.Sprintf("widgets[%d] (%s): %v", i, widget.Type, err),
			}
		}
	}
	return nil
}

// ground runs source verification for every extraction whose document text
// was supplied. The stage is skipped only when no documents were supplied,
// never silently.
func (p *Pipeline) ground(output *AgentOutput, documents map[string]string) ([]model.Extraction, map[string]model.VerificationResult, *ExtractionError) {
	extractions := make([]model.Extraction, len(output.Extractions))
	verification := make(map[string]model.VerificationResult, len(output.Extractions))
	var failures []string

	for i, claim := range output.Extractions {
		extraction := model.Extraction{
			ID:         uuid.NewString(),
			Value:      claim.Value,
			SourceText: claim.SourceText,
			DocumentID: claim.DocumentID,
			Confidence: claim.Confidence,
			Numeric:    claim.Numeric,
			Important:  claim.Important,
		}

		if len(documents) > 0 {
			source, ok := documentFor(documents, claim.DocumentID)
			if !ok {
				failures = append(failures, fmt.Sprintf("%q cites unknown document %q", claim.Value, claim.DocumentID))
				extraction.Issues = append(extraction.Issues, "cited document text not supplied")
			} else {
				res := p.verifier.VerifyText(claim.Value, source, claim.SourceText)
				if !res.Verified && claim.Numeric {
					// A reworded numeric claim ("2,500,000 dollars" for a
					// source's "$2.5M") can still ground by magnitude.
					if numRes, ok := p.verifyNumericClaim(claim.Value, source); ok {
						res = numRes
					}
				}
				verification[extraction.ID] = res
				if res.Verified {
					extraction.Confidence = res.Confidence
				} else {
					failures = append(failures, fmt.Sprintf("%q not found in source", claim.Value))
					extraction.Issues = append(extraction.Issues, res.Issues...)
				}
			}
		}

		extractions[i] = extraction
	}

	if len(failures) > 0 {
		return nil, nil, &ExtractionError{
			Kind: KindGrounding,
			Message: fmt.Sprintf("%d extraction(s) could not be verified against their sources: %s",
				len(failures), strings.Join(failures, "; ")),
		}
	}
	return extractions, verification, nil
}

// verifyNumericClaim grounds a numeric claim by magnitude. Every number
// stated in the claim must appear in the source; the returned result carries
// the weakest match's confidence.
func (p *Pipeline) verifyNumericClaim(value, source string) (model.VerificationResult, bool) {
	numbers := verify.ExtractNumbers(value)
	if len(numbers) == 0 {
		return model.VerificationResult{}, false
	}

	var weakest model.VerificationResult
	for i, n := range numbers {
		res := p.verifier.VerifyNumeric(n, source, "")
		if !res.Verified {
			return model.VerificationResult{}, false
		}
		if i == 0 || res.Confidence < weakest.Confidence {
			weakest = res
		}
	}
	return weakest, true
}

// recordLineage writes audit records best-effort: a failure here is logged
// and never fails the overall extraction.
func (p *Pipeline) recordLineage(ctx context.Context, extractions []model.Extraction, verification map[string]model.VerificationResult, documents map[string]string, retryCount int) {
	if p.tracker == nil {
		return
	}
	for _, extraction := range extractions {
		source, ok := documentFor(documents, extraction.DocumentID)
		if !ok {
			continue
		}
		status := model.StatusUnverified
		initial := extraction.Confidence
		if res, found := verification[extraction.ID]; found {
			status = res.Status
		}
		if _, err := p.tracker.RecordExtraction(ctx, extraction, source, p.agentName, p.modelID, retryCount, initial, status); err != nil {
			fmt.Fprintf(os.Stderr, "warning: lineage write failed for %s: %v\n", extraction.ID, err)
		}
	}
}

// documentFor resolves a claim's document id, falling back to the only
// supplied document when the claim cites none.
func documentFor(documents map[string]string, documentID string) (string, bool) {
	if text, ok := documents[documentID]; ok {
		return text, true
	}
	if documentID == "" && len(documents) == 1 {
		for _, text := range documents {
			return text, true
		}
	}
	return "", false
}

// buildPrompt appends the cumulative feedback block describing exactly what
// failed in previous rounds.
func buildPrompt(base string, feedback []string) string {
	if len(feedback) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nYour previous response(s) had problems. Fix ALL of the following:\n")
	for i, f := range feedback {
		b.WriteString(fmt.Sprintf("\nAttempt %d feedback:\n%s\n", i+1, f))
	}
	return b.String()
}

// feedbackFor turns a stage failure into a corrective instruction for the
// next attempt.
func feedbackFor(err *ExtractionError) string {
	switch err.Kind {
	case KindMalformedOutput:
		return "Your response did not contain a parseable JSON object. Respond with a single bare JSON object and no surrounding prose. Detail: " + err.Message
	case KindSchema:
		var b strings.Builder
		b.WriteString("Your JSON did not match the required schema. Fix every field listed:\n")
		for _, v := range err.Violations {
			b.WriteString("- " + v.String() + "\n")
		}
		return strings.TrimRight(b.String(), "\n")
	case KindBusinessRule:
		return "Your output violated content rules: " + err.Message
	case KindGrounding:
		return "Some extractions could not be verified against the source documents: " + err.Message +
			". Include a verbatim source_text quote copied exactly from the document for each extraction, and do not state values that do not appear in the sources."
	default:
		return err.Message
	}
}
