package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches a leading <think>...</think> block some models emit.
var thinkTagPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// ExtractJSON returns the first JSON object in an LLM reply, skipping
// reasoning tags, markdown fences and surrounding prose.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	for start := strings.IndexByte(cleaned, '{'); start >= 0; {
		if obj, ok := balancedObject(cleaned[start:]); ok && json.Valid([]byte(obj)) {
			return obj, nil
		}
		next := strings.IndexByte(cleaned[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return "", fmt.Errorf("no valid JSON object found in response")
}

// balancedObject returns the prefix of s up to the brace that closes s[0].
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
