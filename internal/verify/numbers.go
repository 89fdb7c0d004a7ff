package verify

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// numberPattern matches numeric literals as they appear in vendor materials:
// "$1,250,000", "2.5M", "250%", "24 months", "0.85".
var numberPattern = regexp.MustCompile(`\$?\s?\d[\d,]*(?:\.\d+)?\s?(?:[KkMmBb]\b|%)?`)

// VerifyNumeric checks whether a numeric value appears in the source document.
// Checks run in priority order: exact membership, membership within relative
// tolerance, then a search for the literal immediately following the supplied
// context label (e.g. "ROI: 250"). Exhausting all three yields a flagged
// result listing the closest source numbers as a diagnostic aid.
func (v *Verifier) VerifyNumeric(value float64, source, contextLabel string) model.VerificationResult {
	source = strings.TrimSpace(source)
	if source == "" {
		return flaggedResult("empty source document: cannot verify numeric value", 0)
	}

	numbers := ExtractNumbers(source)
	if len(numbers) == 0 {
		return flaggedResult(fmt.Sprintf("no numeric values found in source to match %s", formatLiteral(value)), 0)
	}

	target := math.Abs(value)

	for _, n := range numbers {
		if n == target {
			return model.VerificationResult{
				Verified:    true,
				Confidence:  1.0,
				Status:      model.StatusVerified,
				MatchedText: formatLiteral(n),
				MatchScore:  1.0,
			}
		}
	}

	for _, n := range numbers {
		if withinTolerance(n, target, v.tolerance) {
			return model.VerificationResult{
				Verified:    true,
				Confidence:  0.9,
				Status:      model.StatusVerified,
				MatchedText: formatLiteral(n),
				MatchScore:  1.0 - relativeError(n, target),
			}
		}
	}

	if contextLabel != "" {
		if matched, ok := matchAfterLabel(source, contextLabel, target, v.tolerance); ok {
			return model.VerificationResult{
				Verified:    true,
				Confidence:  0.85,
				Status:      model.StatusVerified,
				MatchedText: matched,
			}
		}
	}

	return flaggedResult(
		fmt.Sprintf("numeric value %s not found in source (closest: %s)", formatLiteral(target), closestNumbers(numbers, target, 10)),
		0,
	)
}

// ExtractNumbers returns every numeric literal in text, normalized to absolute
// magnitude: currency symbols and thousands separators stripped, K/M/B
// suffixes expanded, percent values kept as their face number.
func ExtractNumbers(text string) []float64 {
	matches := numberPattern.FindAllString(text, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		if n, ok := normalizeNumber(m); ok {
			out = append(out, n)
		}
	}
	return out
}

// normalizeNumber parses one raw literal into an absolute magnitude
func normalizeNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1e3
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1e6
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "B"), strings.HasSuffix(s, "b"):
		multiplier = 1e9
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "%"):
		s = s[:len(s)-1]
	}

	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return math.Abs(n * multiplier), true
}

// matchAfterLabel searches for the target literal immediately following the
// context label, e.g. label "ROI" matching "ROI: 250".
func matchAfterLabel(source, label string, target, tolerance float64) (string, bool) {
	pattern := "(?i)" + regexp.QuoteMeta(label) + `[^0-9$]{0,20}(` + numberPattern.String() + `)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", false
	}
	for _, m := range re.FindAllStringSubmatch(source, -1) {
		if n, ok := normalizeNumber(m[1]); ok && withinTolerance(n, target, tolerance) {
			return strings.TrimSpace(m[0]), true
		}
	}
	return "", false
}

func withinTolerance(a, b, tolerance float64) bool {
	return relativeError(a, b) <= tolerance
}

func relativeError(a, b float64) float64 {
	if b == 0 {
		if a == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(a-b) / math.Abs(b)
}

// closestNumbers formats the up-to-n source numbers nearest the target
func closestNumbers(numbers []float64, target float64, n int) string {
	sorted := make([]float64, len(numbers))
	copy(sorted, numbers)
	sort.Slice(sorted, func(i, j int) bool {
		return math.Abs(sorted[i]-target) < math.Abs(sorted[j]-target)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = formatLiteral(v)
	}
	return strings.Join(parts, ", ")
}

func formatLiteral(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
