package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{" 1000 ", "1000", true},
		{"0.01", "0.01", true},
		{"0", "", false},
		{"-5", "", false},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tc.in, err)
			}
			want, _ := decimal.NewFromString(tc.want)
			if !got.Equal(want) {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, want)
			}
		} else if err == nil {
			t.Fatalf("ParseAmount(%q) expected error", tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	got := FormatAmount(decimal.NewFromFloat(1234.5), USD)
	if got != "$1,234.50" {
		t.Fatalf("FormatAmount USD = %q", got)
	}
	if got := FormatAmount(decimal.NewFromInt(10), BRL); got == "" {
		t.Fatal("FormatAmount BRL returned empty string")
	}
}
