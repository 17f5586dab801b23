package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2026-03-01", "2026-03-01", false},
		{"2026-03-01T10:20:30Z", "2026-03-01", false},
		{"2026-03-01 10:20:30", "2026-03-01", false},
		{"  2026-03-01  ", "2026-03-01", false},
		{"next week", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDate_AddDaysAcrossMonth(t *testing.T) {
	d := NewDate(time.Date(2026, 10, 16, 23, 59, 0, 0, time.UTC))
	if got := d.AddDays(30).String(); got != "2026-11-15" {
		t.Errorf("AddDays(30) = %s, want 2026-11-15", got)
	}
}

func TestDate_JSONInsideStruct(t *testing.T) {
	var rfp RFP
	if err := json.Unmarshal([]byte(`{"title":"x","deadline":"2026-01-31","delivery_date":null}`), &rfp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if rfp.Deadline == nil || rfp.Deadline.String() != "2026-01-31" {
		t.Errorf("Deadline = %v, want 2026-01-31", rfp.Deadline)
	}
	if rfp.DeliveryDate != nil {
		t.Errorf("DeliveryDate = %v, want nil", rfp.DeliveryDate)
	}

	out, err := json.Marshal(rfp)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(out, &generic); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if generic["deadline"] != "2026-01-31" {
		t.Errorf("deadline marshalled as %v", generic["deadline"])
	}
}

func TestDate_Scan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Scan(time.Time) failed: %v", err)
	}
	if d.String() != "2026-05-04" {
		t.Errorf("Scan(time.Time) = %s", d)
	}
	if err := d.Scan([]byte("2026-06-07")); err != nil {
		t.Fatalf("Scan([]byte) failed: %v", err)
	}
	if d.String() != "2026-06-07" {
		t.Errorf("Scan([]byte) = %s", d)
	}
	if err := d.Scan(42); err == nil {
		t.Error("Scan(int) expected error")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{50000, "$50,000"},
		{1150.5, "$1,150.50"},
		{0, "$0"},
		{999, "$999"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
