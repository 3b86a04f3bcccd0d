package cleaning

import (
	"fmt"
	"strings"
	"time"

	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/stats"
)

const (
	numericThreshold = 0.8
	dateSampleSize   = 10
)

var boolWords = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
	"1": true, "0": false,
	"t": true, "f": false,
	"y": true, "n": false,
}

var currencyHints = []string{"price", "cost", "amount"}

func handleMissingValues(t *dataset.Table, _ Options) (any, error) {
	rep := &MissingValues{
		MissingCounts:     map[string]int{},
		ImputationMethods: map[string]string{},
		ColumnsRemoved:    []string{},
		UnfilledColumns:   []string{},
	}
	for _, c := range t.Columns {
		n := c.Missing()
		if n == 0 {
			continue
		}
		rep.MissingCounts[c.Name] = n
		rep.order = append(rep.order, c.Name)
		switch c.Kind {
		case dataset.Numeric:
			rep.ImputationMethods[c.Name] = "median"
			vals := c.Floats()
			if len(vals) == 0 {
				break
			}
			m := stats.Median(vals)
			for i := range c.Null {
				if c.Null[i] {
					c.Num[i], c.Null[i] = m, false
				}
			}
		case dataset.Text:
			rep.ImputationMethods[c.Name] = "mode"
			fill := mode(c)
			for i := range c.Null {
				if c.Null[i] {
					c.Str[i], c.Null[i] = fill, false
				}
			}
		default:
			rep.ImputationMethods[c.Name] = "forward_backward_fill"
			fillForwardBackward(c)
		}
		if c.Missing() > 0 {
			rep.UnfilledColumns = append(rep.UnfilledColumns, c.Name)
		}
	}
	return rep, nil
}

// mode returns the most frequent present value; ties go to the smallest string.
func mode(c *dataset.Column) string {
	counts := map[string]int{}
	for i, s := range c.Str {
		if !c.Null[i] {
			counts[s]++
		}
	}
	best, bestN := "Unknown", 0
	for s, n := range counts {
		if n > bestN || (n == bestN && s < best) {
			best, bestN = s, n
		}
	}
	return best
}

func fillForwardBackward(c *dataset.Column) {
	last := -1
	for i := 0; i < c.Len(); i++ {
		if !c.Null[i] {
			last = i
		} else if last >= 0 {
			c.CopyCell(i, last)
		}
	}
	next := -1
	for i := c.Len() - 1; i >= 0; i-- {
		if !c.Null[i] {
			next = i
		} else if next >= 0 {
			c.CopyCell(i, next)
		}
	}
}

func handleDuplicates(t *dataset.Table, _ Options) (any, error) {
	before := t.Rows()
	seen := make(map[string]struct{}, before)
	keep := make([]int, 0, before)
	for i := 0; i < before; i++ {
		k := t.RowKey(i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	removed := before - len(keep)
	if removed > 0 {
		t.KeepRows(keep)
	}
	rep := &Duplicates{DuplicatesRemoved: removed}
	if before > 0 {
		rep.PercentageRemoved = dataset.Float(float64(removed) / float64(before) * 100)
	}
	return rep, nil
}

func handleOutliers(t *dataset.Table, opt Options) (any, error) {
	rep := &Outliers{Detected: map[string]OutlierFinding{}, Handled: map[string]string{}}
	rows := t.Rows()
	for _, c := range t.NumericColumns() {
		vals := c.Floats()
		if len(vals) == 0 {
			continue
		}
		fence := stats.IQRFence(vals, opt.IQRMultiplier)
		count := 0
		for _, v := range vals {
			if fence.Outside(v) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		rep.Detected[c.Name] = OutlierFinding{
			Count:      count,
			Percentage: dataset.Float(float64(count) / float64(rows) * 100),
			Bounds:     Bounds{Lower: dataset.Float(fence.Lower), Upper: dataset.Float(fence.Upper)},
		}
		rep.order = append(rep.order, c.Name)
		for i := range c.Num {
			if !c.Null[i] {
				c.Num[i] = fence.Clamp(c.Num[i])
			}
		}
		rep.Handled[c.Name] = "capped"
	}
	return rep, nil
}

func fixDataTypes(t *dataset.Table, _ Options) (any, error) {
	rep := &TypeConversions{Conversions: map[string]string{}, Errors: map[string]string{}}
	for i, c := range t.Columns {
		if c.Kind != dataset.Text {
			continue
		}
		conv, kind, err := coerceColumn(c)
		if err != nil {
			rep.Errors[c.Name] = err.Error()
			continue
		}
		if conv != nil {
			t.Columns[i] = conv
			rep.Conversions[c.Name] = "text -> " + kind.String()
		}
	}
	return rep, nil
}

// coerceColumn tries numeric, then datetime, then boolean. A nil column means no change.
func coerceColumn(c *dataset.Column) (out *dataset.Column, kind dataset.Kind, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%v", r)
		}
	}()
	present := c.NonNull()
	if present == 0 {
		return nil, dataset.Text, nil
	}

	nums := make([]float64, c.Len())
	numNull := make([]bool, c.Len())
	parsed := 0
	for i, s := range c.Str {
		if c.Null[i] {
			numNull[i] = true
			continue
		}
		if v, ok := dataset.ParseFloatStrict(s); ok {
			nums[i] = v
			parsed++
		} else {
			numNull[i] = true
		}
	}
	if float64(parsed) >= numericThreshold*float64(present) {
		return &dataset.Column{Name: c.Name, Kind: dataset.Numeric, Num: nums, Null: numNull}, dataset.Numeric, nil
	}

	if looksLikeDates(c) {
		times := make([]time.Time, c.Len())
		timeNull := make([]bool, c.Len())
		for i, s := range c.Str {
			if c.Null[i] {
				timeNull[i] = true
				continue
			}
			if ts, ok := dataset.ParseTime(s); ok {
				times[i] = ts
			} else {
				timeNull[i] = true
			}
		}
		return &dataset.Column{Name: c.Name, Kind: dataset.Datetime, Time: times, Null: timeNull}, dataset.Datetime, nil
	}

	distinct := map[string]struct{}{}
	for i, s := range c.Str {
		if !c.Null[i] {
			distinct[s] = struct{}{}
		}
	}
	if len(distinct) > 2 {
		return nil, dataset.Text, nil
	}
	for s := range distinct {
		if _, ok := boolWords[strings.ToLower(s)]; !ok {
			return nil, dataset.Text, nil
		}
	}
	bools := make([]bool, c.Len())
	for i, s := range c.Str {
		if !c.Null[i] {
			bools[i] = boolWords[strings.ToLower(s)]
		}
	}
	return &dataset.Column{Name: c.Name, Kind: dataset.Bool, Bool: bools, Null: append([]bool(nil), c.Null...)}, dataset.Bool, nil
}

// looksLikeDates probes the leading values for date-like tokens and requires
// each of them to parse.
func looksLikeDates(c *dataset.Column) bool {
	sample := dataset.Sample(c, dateSampleSize)
	if len(sample) == 0 || !dataset.HasDateToken(sample) {
		return false
	}
	for _, s := range sample {
		if _, ok := dataset.ParseTime(s); !ok {
			return false
		}
	}
	return true
}

func handleInconsistentValues(t *dataset.Table, _ Options) (any, error) {
	rep := &Standardization{InconsistenciesFixed: map[string]int{}, Applied: map[string]string{}}
	for _, c := range t.Columns {
		if c.Kind != dataset.Text {
			continue
		}
		changed := 0
		for i, s := range c.Str {
			if c.Null[i] {
				continue
			}
			norm := strings.Join(strings.Fields(strings.ToLower(s)), " ")
			if norm != s {
				c.Str[i] = norm
				changed++
			}
		}
		if changed > 0 {
			rep.InconsistenciesFixed[c.Name] = changed
		}
		rep.Applied[c.Name] = "case_normalization_and_whitespace_removal"
	}
	return rep, nil
}

func fixFormatting(t *dataset.Table, _ Options) (any, error) {
	rep := &Formatting{Fixes: map[string]string{}}
	for _, c := range t.Columns {
		if c.Kind != dataset.Text {
			continue
		}
		currency := isCurrencyColumn(c.Name)
		for i, s := range c.Str {
			if c.Null[i] {
				continue
			}
			s = strings.TrimSpace(s)
			if currency {
				s = keepCurrencyChars(s)
			}
			c.Str[i] = s
		}
		if currency {
			rep.Fixes[c.Name] = "currency_cleaning"
		}
	}
	return rep, nil
}

func isCurrencyColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, h := range currencyHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func keepCurrencyChars(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
}

func summarize(rep *Report) Summary {
	sum := Summary{}
	var recs []string
	for _, step := range rep.Steps {
		switch f := step.Report.(type) {
		case *MissingValues:
			best, bestN := "", 0
			for _, name := range f.order {
				n := f.MissingCounts[name]
				sum.TotalIssuesFound += n
				if n > bestN {
					best, bestN = name, n
				}
			}
			if bestN > 0 {
				recs = append(recs, fmt.Sprintf("Consider investigating missing values in %s (%d missing values)", best, bestN))
			}
			for _, name := range f.UnfilledColumns {
				recs = append(recs, fmt.Sprintf("Column %s is entirely empty; %s imputation could not fill it", name, f.ImputationMethods[name]))
			}
		case *Duplicates:
			sum.TotalFixesApplied += f.DuplicatesRemoved
		case *Outliers:
			best, bestN := "", 0
			for _, name := range f.order {
				n := f.Detected[name].Count
				sum.TotalIssuesFound += n
				if n > bestN {
					best, bestN = name, n
				}
			}
			if bestN > 0 {
				recs = append(recs, fmt.Sprintf("Review outliers in %s (%d outliers detected)", best, bestN))
			}
		}
	}
	if sum.TotalFixesApplied > 0 {
		sum.DataQualityImprovement = "significant"
	} else {
		sum.DataQualityImprovement = "minimal"
	}
	if len(recs) == 0 {
		recs = []string{"Data quality is good. No major issues detected."}
	}
	sum.Recommendations = recs
	return sum
}
