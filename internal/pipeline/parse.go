package pipeline

import (
	"regexp"
	"strings"
)

// fencedJSON matches a fenced code block, optionally tagged json
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON locates the JSON object in raw completion text: first inside a
// fenced code block, else as the span between the first '{' and the last '}'.
func ExtractJSON(raw string) (string, *ExtractionError) {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", &ExtractionError{
			Kind:    KindMalformedOutput,
			Message: "no JSON object found in completion",
		}
	}
	return raw[start : end+1], nil
}
