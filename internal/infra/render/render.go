// Package render turns tool results into the text returned to clients.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"kculture/internal/domain"
)

// Document is a tool result that can be shown as markdown. Its JSON form is
// the value itself.
type Document interface {
	Markdown() string
}

// Render produces the text for doc in the requested format, capped at limit runes.
func Render(format domain.ResponseFormat, doc Document, limit int) (string, bool, error) {
	var text string
	if format == domain.FormatJSON {
		encoded, err := JSON(doc)
		if err != nil {
			return "", false, err
		}
		text = encoded
	} else {
		text = doc.Markdown()
	}
	truncated, cut := Truncate(text, limit)
	return truncated, cut, nil
}

// Failure renders a tool-level failure.
func Failure(format domain.ResponseFormat, failure domain.Failure) string {
	if format == domain.FormatJSON {
		encoded, err := JSON(struct {
			Error domain.Failure `json:"error"`
		}{Error: failure})
		if err == nil {
			return encoded
		}
	}
	return "❌ " + failure.Message
}

// JSON encodes v with two-space indentation and without HTML escaping.
func JSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Truncate caps text at limit runes and appends the truncation marker when it cuts.
func Truncate(text string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i] + domain.TruncationMarker, true
		}
		count++
	}
	return text, false
}
