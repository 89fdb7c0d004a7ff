package verify

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/halcyonhealth/dashforge/internal/model"
)

// Verifier checks extracted claims against source document text. It is a pure
// grounding checker: no I/O, never panics, always returns a result.
type Verifier struct {
	fuzzyEnabled   bool
	fuzzyThreshold float64
	windowSize     int
	tolerance      float64
}

// Confidence discounts applied when the match came from the extracted value
// rather than the agent-supplied verbatim quote.
const valueExactConfidence = 0.95

// NewVerifier creates a verifier from configuration, filling in defaults for
// zero values.
func NewVerifier(cfg model.VerifyConfig) *Verifier {
	threshold := cfg.FuzzyThreshold
	if threshold <= 0 {
		threshold = 0.85
	}
	window := cfg.WindowSize
	if window <= 0 {
		window = 200
	}
	tolerance := cfg.NumericTolerance
	if tolerance <= 0 {
		tolerance = 0.01
	}
	return &Verifier{
		fuzzyEnabled:   cfg.FuzzyEnabled,
		fuzzyThreshold: threshold,
		windowSize:     window,
		tolerance:      tolerance,
	}
}

// NewDefaultVerifier creates a verifier with fuzzy matching enabled and
// default thresholds.
func NewDefaultVerifier() *Verifier {
	return NewVerifier(model.VerifyConfig{
		FuzzyEnabled:     true,
		FuzzyThreshold:   0.85,
		WindowSize:       200,
		NumericTolerance: 0.01,
	})
}

// VerifyText checks whether extracted text is grounded in the source document.
// The optional sourceQuote is the agent-supplied verbatim quote; it is checked
// first at full confidence, then the extracted value itself at a discount.
func (v *Verifier) VerifyText(extracted, source, sourceQuote string) model.VerificationResult {
	source = strings.TrimSpace(source)
	extracted = strings.TrimSpace(extracted)
	sourceQuote = strings.TrimSpace(sourceQuote)

	if extracted == "" && sourceQuote == "" {
		return flaggedResult("empty extraction: nothing to verify", 0)
	}
	if source == "" {
		return flaggedResult("empty source document: cannot verify", 0)
	}

	bestScore := 0.0

	// Verbatim quote: exact first, then fuzzy windows.
	if sourceQuote != "" {
		if res, ok := v.matchCandidate(sourceQuote, source, 1.0, 1.0); ok {
			return res
		} else if res.MatchScore > bestScore {
			bestScore = res.MatchScore
		}
	}

	// Fall back to the extracted value at a slight discount.
	if extracted != "" {
		if res, ok := v.matchCandidate(extracted, source, valueExactConfidence, 1.0); ok {
			return res
		} else if res.MatchScore > bestScore {
			bestScore = res.MatchScore
		}
	}

	issue := "extraction not found in source document"
	if bestScore > 0 {
		issue = fmt.Sprintf("extraction not found in source document (best fuzzy score %.2f, threshold %.2f)", bestScore, v.fuzzyThreshold)
	}
	res := flaggedResult(issue, 0)
	res.MatchScore = bestScore
	return res
}

// matchCandidate runs the exact and fuzzy checks for one candidate string.
// On failure it returns the best fuzzy score observed in MatchScore.
func (v *Verifier) matchCandidate(candidate, source string, exactConfidence, fuzzyScale float64) (model.VerificationResult, bool) {
	if len(candidate) > len(source) {
		return model.VerificationResult{Status: model.StatusUnverified}, false
	}

	if strings.Contains(source, candidate) {
		return model.VerificationResult{
			Verified:    true,
			Confidence:  exactConfidence,
			Status:      model.StatusVerified,
			MatchedText: candidate,
			MatchScore:  1.0,
		}, true
	}

	if !v.fuzzyEnabled {
		return model.VerificationResult{Status: model.StatusUnverified}, false
	}

	score, window := v.bestWindowMatch(candidate, source)
	if score >= v.fuzzyThreshold {
		return model.VerificationResult{
			Verified:    true,
			Confidence:  score * fuzzyScale,
			Status:      model.StatusVerified,
			MatchedText: strings.TrimSpace(window),
			MatchScore:  score,
		}, true
	}

	return model.VerificationResult{Status: model.StatusUnverified, MatchScore: score}, false
}

// bestWindowMatch scores the candidate against the window at every source
// offset and returns the best normalized similarity ratio and its window.
// Every offset is scored: skipping offsets can let a decoy region outscore
// the true match and flag a grounded quote. The window cap bounds the
// per-offset cost.
func (v *Verifier) bestWindowMatch(candidate, source string) (float64, string) {
	src := []rune(source)

	// The window tracks the candidate length, capped at the configured size,
	// so the similarity ratio is not dominated by length mismatch.
	window := len([]rune(candidate))
	if window > v.windowSize {
		window = v.windowSize
	}
	if window > len(src) {
		window = len(src)
	}
	if window == 0 {
		return 0, ""
	}

	bestScore, bestStart := -1.0, 0
	for start := 0; start <= len(src)-window; start++ {
		score := similarity(candidate, string(src[start:start+window]))
		if score > bestScore {
			bestScore = score
			bestStart = start
		}
	}

	return bestScore, string(src[bestStart : bestStart+window])
}

var simParams = levenshtein.NewParams()

// similarity is a normalized edit-distance ratio in [0,1]
func similarity(a, b string) float64 {
	return levenshtein.Similarity(a, b, simParams)
}

func flaggedResult(issue string, confidence float64) model.VerificationResult {
	return model.VerificationResult{
		Verified:   false,
		Confidence: confidence,
		Status:     model.StatusFlagged,
		Issues:     []string{issue},
	}
}
