package dataset

import (
	"testing"
)

func TestParseNumberLocales(t *testing.T) {
	cases := []struct {
		in   string
		opt  ParseOptions
		want float64
	}{
		{"1.000,5", ParseOptions{}, 1000.5},
		{"1,000.5", ParseOptions{}, 1000.5},
		{"0,5", ParseOptions{}, 0.5},
		{"12%", ParseOptions{}, 12},
		{"1 234,5", ParseOptions{DecimalSeparator: ',', ThousandsSeparator: ' '}, 1234.5},
		{"1e3", ParseOptions{}, 1000},
		{"-3.25", ParseOptions{}, -3.25},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in, c.opt)
		if !ok || got != c.want {
			t.Fatalf("ParseNumber(%q) = %v,%v want %v", c.in, got, ok, c.want)
		}
	}
	for _, bad := range []string{"", "abc", "2024-01-05", "nan"} {
		if _, ok := ParseNumber(bad, ParseOptions{}); ok {
			t.Fatalf("ParseNumber(%q) should fail", bad)
		}
	}
}

func TestParseTimeLayouts(t *testing.T) {
	for _, s := range []string{"2024-01-31", "2024/01/31", "01/31/2024", "2024-01-31 10:20:30", "Jan 2024", "31-Jan-2024", "2024-01-31T10:20:30Z"} {
		if _, ok := ParseTime(s); !ok {
			t.Fatalf("ParseTime(%q) failed", s)
		}
	}
	if _, ok := ParseTime("not a date"); ok {
		t.Fatalf("ParseTime accepted garbage")
	}
}

func TestHasDateToken(t *testing.T) {
	if !HasDateToken([]string{"March 3", "x"}) {
		t.Fatalf("month token not found")
	}
	// plain numbers containing "200" look like dates to the probe
	if !HasDateToken([]string{"1200", "5"}) {
		t.Fatalf("expected 200 substring to match")
	}
	if HasDateToken([]string{"apple", "pear"}) {
		t.Fatalf("unexpected token match")
	}
}

func TestSplitUnit(t *testing.T) {
	cases := map[string][2]string{
		"Concentration (g/L)": {"Concentration", "g/L"},
		"Mass [mg/L]":         {"Mass", "mg/L"},
		"price_USD":           {"price", "USD"},
		"plain":               {"plain", ""},
	}
	for in, want := range cases {
		b, u := SplitUnit(in)
		if b != want[0] || u != want[1] {
			t.Fatalf("SplitUnit(%q) = %q,%q", in, b, u)
		}
	}
}
