package money

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr error
	}{
		{name: "whole units", in: "12", want: 1200},
		{name: "two decimals", in: "12.34", want: 1234},
		{name: "one decimal", in: "0.5", want: 50},
		{name: "single cent", in: "0.01", want: 1},
		{name: "large amount", in: "100000.00", want: 10000000},
		{name: "too precise", in: "1.005", wantErr: ErrTooPrecise},
		{name: "zero", in: "0.00", wantErr: ErrNotPositive},
		{name: "negative", in: "-3.50", wantErr: ErrNotPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}

	t.Run("garbage input", func(t *testing.T) {
		if _, err := Parse("12,34"); err == nil {
			t.Error("expected error for malformed amount")
		}
	})
}

func TestParseShare(t *testing.T) {
	if got, err := ParseShare("0.00"); err != nil || got != 0 {
		t.Errorf("ParseShare(\"0.00\") = %d, %v, want 0, nil", got, err)
	}
	if got, err := ParseShare("4.25"); err != nil || got != 425 {
		t.Errorf("ParseShare(\"4.25\") = %d, %v, want 425, nil", got, err)
	}
	if _, err := ParseShare("-1.00"); !errors.Is(err, ErrNegative) {
		t.Errorf("ParseShare(\"-1.00\") error = %v, want %v", err, ErrNegative)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{1234, "12.34"},
		{1200, "12.00"},
		{1, "0.01"},
		{-50, "-0.50"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		if got := Format(tt.minor); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.minor, got, tt.want)
		}
	}
}
