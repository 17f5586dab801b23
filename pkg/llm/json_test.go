package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"think tags", "<think>hmm {not json}</think>\n{\"a\":2}", `{"a":2}`, false},
		{"prose around", `Here you go: {"a":{"b":"}"}} thanks`, `{"a":{"b":"}"}}`, false},
		{"skips broken first brace", `{oops} then {"ok":true}`, `{"ok":true}`, false},
		{"none", "no json here", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type reply struct {
		Title string `json:"title"`
	}
	got, err := ParseJSONResponse[reply]("```\n{\"title\":\"Laptops\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Laptops" {
		t.Errorf("Title = %q", got.Title)
	}

	if _, err := ParseJSONResponse[reply](`{"title": 5}`); err == nil {
		t.Error("expected unmarshal error for wrong type")
	}
}
