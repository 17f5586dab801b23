package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{name: "string value", input: json.RawMessage(`"Net 30"`), want: "Net 30"},
		{name: "string is trimmed", input: json.RawMessage(`"  2 years "`), want: "2 years"},
		{name: "integer value", input: json.RawMessage(`30`), want: "30"},
		{name: "float value", input: json.RawMessage(`1.5`), want: "1.5"},
		{name: "boolean", input: json.RawMessage(`true`), want: "true"},
		{name: "null", input: json.RawMessage(`null`), want: ""},
		{name: "empty", input: nil, want: ""},
		{name: "object falls back to raw", input: json.RawMessage(`{"a":1}`), want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlexibleStringValue(tt.input))
		})
	}
}

func TestFlexibleFloat(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  *float64
	}{
		{name: "number", input: json.RawMessage(`50000`), want: ptr(50000)},
		{name: "currency string", input: json.RawMessage(`"$50,000"`), want: ptr(50000)},
		{name: "decimal string", input: json.RawMessage(`"USD 1,299.99"`), want: ptr(1299.99)},
		{name: "k suffix", input: json.RawMessage(`"50k"`), want: ptr(50000)},
		{name: "million", input: json.RawMessage(`"1.2 million"`), want: ptr(1200000)},
		{name: "null", input: json.RawMessage(`null`), want: nil},
		{name: "no digits", input: json.RawMessage(`"not specified"`), want: nil},
		{name: "boolean", input: json.RawMessage(`false`), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleFloat(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.001)
		})
	}
}

func TestFlexibleInt(t *testing.T) {
	got := FlexibleInt(json.RawMessage(`"20 units"`))
	require.NotNil(t, got)
	assert.Equal(t, 20, *got)

	got = FlexibleInt(json.RawMessage(`2.6`))
	require.NotNil(t, got)
	assert.Equal(t, 3, *got)

	assert.Nil(t, FlexibleInt(json.RawMessage(`"many"`)))
}

func TestParseAmount(t *testing.T) {
	v, ok := ParseAmount("Total: $20,500.00 including tax")
	require.True(t, ok)
	assert.InDelta(t, 20500.0, v, 0.001)

	_, ok = ParseAmount("no amount here")
	assert.False(t, ok)
}

func ptr(v float64) *float64 { return &v }
