package docsource

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements are elements whose text never belongs in extracted document
// text
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"nav":      true,
	"footer":   true,
	"iframe":   true,
}

// blockElements force a line break around their text
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "table": true, "blockquote": true,
}

// HTMLToText strips markup from an HTML document, preserving block structure
// as newlines so quotes stay contiguous for verification. Non-HTML input
// passes through unchanged apart from whitespace normalization.
func HTMLToText(content string) string {
	if !strings.Contains(content, "<") {
		return normalizeWhitespace(content)
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return normalizeWhitespace(content)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(doc)

	return normalizeWhitespace(b.String())
}

// normalizeWhitespace collapses runs of spaces and blank lines
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
