package jsonutil

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strings.TrimSpace(strVal)
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return strconv.FormatFloat(numVal, 'f', -1, 64)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	return string(raw)
}

// amountPattern finds the first number in text like "$50,000", "USD 1,200.50" or "50k".
var amountPattern = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(k|m|thousand|million)?\b`)

// ParseAmount extracts a monetary amount from free text. Thousands separators
// are ignored and k/m suffixes scale the value.
func ParseAmount(s string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k", "thousand":
		v *= 1_000
	case "m", "million":
		v *= 1_000_000
	}
	return v, true
}

// FlexibleFloat reads a number that may arrive as a JSON number or as a
// string such as "$50,000". Returns nil for null, empty or unparseable input.
func FlexibleFloat(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return &numVal
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		if v, ok := ParseAmount(strVal); ok {
			return &v
		}
	}
	return nil
}

// FlexibleInt is FlexibleFloat rounded to the nearest integer.
func FlexibleInt(raw json.RawMessage) *int {
	f := FlexibleFloat(raw)
	if f == nil {
		return nil
	}
	v := int(math.Round(*f))
	return &v
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
