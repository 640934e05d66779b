package extract

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/resume-extractor/internal/schema"
)

// Normalize parses a completion-service reply into exactly expectedCount
// candidate records. Parse failures never propagate: an unusable reply yields
// expectedCount empty records. This is what keeps batch indexing stable no
// matter what the model returns.
func Normalize(rawReply string, expectedCount int) []schema.CandidateRecord {
	if expectedCount < 0 {
		expectedCount = 0
	}
	records := make([]schema.CandidateRecord, expectedCount)

	parsed, ok := parseReply(rawReply)
	if !ok {
		return records
	}

	objects := flatten(parsed, expectedCount)

	for i := 0; i < expectedCount; i++ {
		if i < len(objects) {
			records[i] = schema.Coerce(objects[i])
		}
	}
	return records
}

// parseReply strips code fences and decodes the reply as a JSON value.
// If the whole string fails to parse, it retries on the outermost {...} or
// [...] span.
func parseReply(raw string) (any, bool) {
	text := stripFences(raw)

	var value any
	if err := json.Unmarshal([]byte(text), &value); err == nil {
		return value, true
	}

	if span := outermostSpan(text); span != "" {
		if err := json.Unmarshal([]byte(span), &value); err == nil {
			return value, true
		}
	}
	return nil, false
}

// stripFences removes markdown code fence wrappers. LLMs often wrap JSON in
// ```json ... ``` blocks even when instructed not to. Fences are only honored
// at the very start and end of the trimmed reply.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// outermostSpan locates the outermost {...} or [...] substring, tracking
// string literals so braces inside values do not end the span early.
func outermostSpan(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}

	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// flatten normalizes a parsed JSON value to a flat list of objects:
// a single object becomes a one-element list, nested lists are reduced to
// their first element, and any other shape is replaced by empty objects.
func flatten(value any, expectedCount int) []map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		objects := make([]map[string]any, 0, len(v))
		for _, item := range v {
			objects = append(objects, asObject(item))
		}
		return objects
	default:
		objects := make([]map[string]any, expectedCount)
		for i := range objects {
			objects[i] = map[string]any{}
		}
		return objects
	}
}

// asObject reduces a list element to an object, unwrapping nested lists to
// their first element.
func asObject(item any) map[string]any {
	for {
		switch v := item.(type) {
		case map[string]any:
			return v
		case []any:
			if len(v) == 0 {
				return map[string]any{}
			}
			item = v[0]
		default:
			return map[string]any{}
		}
	}
}
