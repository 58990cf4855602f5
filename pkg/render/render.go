// Package render turns plain text into the small HTML fragments embedded in notification bodies.
package render

import (
	"html"
	"strings"
)

// Renderer converts raw text into safe HTML.
type Renderer interface {
	SimpleFormat(text string) string
}

// Simple is the default Renderer.
type Simple struct{}

// SimpleFormat escapes text and turns every newline into <br />.
func (Simple) SimpleFormat(text string) string {
	return SimpleFormat(text)
}

func SimpleFormat(text string) string {
	if text == "" {
		return ""
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.ReplaceAll(html.EscapeString(normalized), "\n", "<br />")
}
