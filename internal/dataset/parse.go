package dataset

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseOptions controls how numeric cells are read from text.
type ParseOptions struct {
	// DecimalSeparator; if 0, auto-detect per value.
	DecimalSeparator rune
	// ThousandsSeparator; if 0, common separators (',' '.' space) other than the decimal one are dropped.
	ThousandsSeparator rune
}

// nullTokens are cell spellings read as missing.
var nullTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NULL": {}, "null": {}, "NaN": {}, "nan": {},
	"None": {}, "#N/A": {}, "<NA>": {}, "-nan": {}, "-NaN": {},
}

// IsNullToken reports whether a raw cell should be treated as missing.
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// ParseNumber reads a locale-formatted number; "%" signs and non-breaking spaces are ignored.
func ParseNumber(s string, opt ParseOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	return parseFloat(raw)
}

// ParseFloatStrict reads a plain float literal with no locale handling.
func ParseFloatStrict(s string) (float64, bool) {
	return parseFloat(strings.TrimSpace(s))
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{
	time.RFC3339, time.RFC3339Nano,
	"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02",
	"2006/01/02", "2006/01/02 15:04:05", "2006.01.02",
	"01/02/2006", "1/2/2006", "01/02/06", "1/2/06", "02/01/2006",
	"1/2/2006 15:04", "1/2/2006 15:04:05",
	"2006-01", "2006/01",
	"Jan 2006", "January 2006", "Jan-2006", "Jan 2, 2006", "January 2, 2006",
	"2 Jan 2006", "02-Jan-2006", "2-Jan-2006", "2 January 2006", "2006-Jan-02",
	"Mon, 02 Jan 2006 15:04:05 MST", "Mon Jan 2 15:04:05 2006",
}

// ParseTime tries a fixed set of common date layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateTokens are the substrings whose presence in a sample suggests dates.
var DateTokens = []string{
	"/", "-", ":",
	"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
	"202", "201", "200",
}

// HasDateToken joins the sample with spaces and probes it for a date token, case-insensitively.
func HasDateToken(sample []string) bool {
	joined := strings.ToLower(strings.Join(sample, " "))
	for _, tok := range DateTokens {
		if strings.Contains(joined, tok) {
			return true
		}
	}
	return false
}

// Sample returns the first n non-null cells of c formatted as text.
func Sample(c *Column, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < c.Len() && len(out) < n; i++ {
		if !c.Null[i] {
			out = append(out, c.Format(i))
		}
	}
	return out
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(USD|EUR|GBP|kg|km|mg/L|g/L|°[CF]|%|ppm)$`), 2},
}

// SplitUnit separates a trailing unit annotation from a column header.
func SplitUnit(name string) (base, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			b := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if b != "" && u != "" {
				return b, u
			}
		}
	}
	return s, ""
}
