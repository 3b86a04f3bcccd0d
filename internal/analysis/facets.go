package analysis

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/stats"
)

const (
	trendSampleSize   = 5
	strongCorrelation = 0.7
	veryStrongCorr    = 0.8
	normalSkew        = 0.5
)

func basicStats(t *dataset.Table) Facet[ByColumn[ColumnStats]] {
	num := t.NumericColumns()
	if len(num) == 0 {
		return Skipped[ByColumn[ColumnStats]](MsgNoNumericColumns)
	}
	out := ByColumn[ColumnStats]{}
	for _, c := range num {
		x := c.Floats()
		if len(x) == 0 {
			continue
		}
		s := stats.Sorted(x)
		_, unit := dataset.SplitUnit(c.Name)
		out = append(out, ColumnStats{
			Column:   c.Name,
			Unit:     unit,
			Count:    len(x),
			Mean:     Float(stat.Mean(x, nil)),
			Median:   Float(stats.Quantile(s, 0.5)),
			Std:      Float(sampleStd(x)),
			Min:      Float(floats.Min(x)),
			Max:      Float(floats.Max(x)),
			Q25:      Float(stats.Quantile(s, 0.25)),
			Q75:      Float(stats.Quantile(s, 0.75)),
			Skewness: Float(skewness(x)),
			Kurtosis: Float(kurtosis(x)),
		})
	}
	return Computed(out)
}

func sampleStd(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// skewness is the bias-corrected sample skewness; constant data has zero skew.
func skewness(x []float64) float64 {
	if len(x) < 3 {
		return math.NaN()
	}
	if stat.StdDev(x, nil) == 0 {
		return 0
	}
	return stat.Skew(x, nil)
}

// kurtosis is the bias-corrected excess kurtosis; constant data has zero kurtosis.
func kurtosis(x []float64) float64 {
	if len(x) < 4 {
		return math.NaN()
	}
	if stat.StdDev(x, nil) == 0 {
		return 0
	}
	return stat.ExKurtosis(x, nil)
}

func detectTrends(t *dataset.Table, log *slog.Logger) Facet[ByColumn[Trend]] {
	out := ByColumn[Trend]{}
	date, keys, valid := findDateColumn(t)
	if date == nil {
		return Computed(out)
	}
	log.Debug("trend date column", "column", date.Name)

	order := make([]int, t.Rows())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case valid[a] && !valid[b]:
			return -1
		case !valid[a] && valid[b]:
			return 1
		case !valid[a] && !valid[b]:
			return 0
		case keys[a] < keys[b]:
			return -1
		case keys[a] > keys[b]:
			return 1
		}
		return 0
	})

	for _, c := range t.NumericColumns() {
		if c == date {
			continue
		}
		var xs, ys []float64
		for pos, row := range order {
			if c.Null[row] {
				continue
			}
			xs = append(xs, float64(pos))
			ys = append(ys, c.Num[row])
		}
		if len(xs) < 2 {
			continue
		}
		_, slope := stat.LinearRegression(xs, ys, nil, false)
		if math.IsNaN(slope) {
			log.Warn("could not fit trend", "column", c.Name)
			continue
		}
		dir := "decreasing"
		if slope > 0 {
			dir = "increasing"
		}
		out = append(out, Trend{
			Column:     c.Name,
			Direction:  dir,
			Strength:   Float(math.Abs(slope)),
			Slope:      Float(slope),
			DateColumn: date.Name,
			Points:     len(xs),
		})
	}
	return Computed(out)
}

// findDateColumn returns the first datetime column, or else the first column
// whose leading values look like dates and whose every value parses as one.
// Numeric columns always parse, so a numeric column whose leading values
// contain a date token is accepted.
func findDateColumn(t *dataset.Table) (*dataset.Column, []float64, []bool) {
	for _, c := range t.Columns {
		if c.Kind == dataset.Datetime {
			keys, valid := timeKeys(c)
			return c, keys, valid
		}
	}
	for _, c := range t.Columns {
		sample := dataset.Sample(c, trendSampleSize)
		if len(sample) == 0 || !dataset.HasDateToken(sample) {
			continue
		}
		switch c.Kind {
		case dataset.Numeric:
			keys := slices.Clone(c.Num)
			valid := make([]bool, c.Len())
			for i := range valid {
				valid[i] = !c.Null[i]
			}
			return c, keys, valid
		case dataset.Text:
			parsed := &dataset.Column{Name: c.Name, Kind: dataset.Datetime, Time: make([]time.Time, c.Len()), Null: slices.Clone(c.Null)}
			ok := true
			for i, s := range c.Str {
				if c.Null[i] {
					continue
				}
				ts, good := dataset.ParseTime(s)
				if !good {
					ok = false
					break
				}
				parsed.Time[i] = ts
			}
			if ok {
				keys, valid := timeKeys(parsed)
				return c, keys, valid
			}
		}
	}
	return nil, nil, nil
}

func timeKeys(c *dataset.Column) ([]float64, []bool) {
	keys := make([]float64, c.Len())
	valid := make([]bool, c.Len())
	for i, ts := range c.Time {
		if c.Null[i] {
			continue
		}
		keys[i] = float64(ts.Unix()) + float64(ts.Nanosecond())/1e9
		valid[i] = true
	}
	return keys, valid
}

func analyzeCorrelations(t *dataset.Table) Facet[Correlations] {
	num := t.NumericColumns()
	if len(num) < 2 {
		return Skipped[Correlations](MsgCorrelationInsufficient)
	}
	n := len(num)
	m := CorrMatrix{Columns: make([]string, n), Values: make([][]Float, n)}
	for i, c := range num {
		m.Columns[i] = c.Name
		m.Values[i] = make([]Float, n)
	}
	for i := 0; i < n; i++ {
		m.Values[i][i] = Float(pearson(num[i], num[i]))
		for j := i + 1; j < n; j++ {
			r := Float(pearson(num[i], num[j]))
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}

	res := Correlations{Matrix: m, StrongCorrelations: []PairCorr{}}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := float64(m.Values[i][j])
			if !(math.Abs(r) > strongCorrelation) {
				continue
			}
			strength := "moderate"
			if math.Abs(r) > veryStrongCorr {
				strength = "strong"
			}
			res.StrongCorrelations = append(res.StrongCorrelations, PairCorr{
				Variable1: m.Columns[i], Variable2: m.Columns[j], Correlation: Float(r), Strength: strength,
			})
		}
	}
	for i := range res.StrongCorrelations {
		p := res.StrongCorrelations[i]
		if res.Highest == nil || math.Abs(float64(p.Correlation)) > math.Abs(float64(res.Highest.Correlation)) {
			res.Highest = &p
		}
	}
	return Computed(res)
}

// pearson uses only rows where both columns are present; undefined coefficients are NaN.
func pearson(a, b *dataset.Column) float64 {
	var xs, ys []float64
	for i := range a.Num {
		if a.Null[i] || b.Null[i] {
			continue
		}
		xs = append(xs, a.Num[i])
		ys = append(ys, b.Num[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if stat.StdDev(xs, nil) == 0 || stat.StdDev(ys, nil) == 0 {
		return math.NaN()
	}
	if a == b {
		return 1
	}
	return stat.Correlation(xs, ys, nil)
}

func detectAnomalies(t *dataset.Table, k float64) Facet[ByColumn[Anomaly]] {
	out := ByColumn[Anomaly]{}
	for _, c := range t.NumericColumns() {
		x := c.Floats()
		if len(x) == 0 {
			continue
		}
		fence := stats.IQRFence(x, k)
		var vals []Float
		for _, v := range x {
			if fence.Outside(v) {
				vals = append(vals, Float(v))
			}
		}
		if len(vals) == 0 {
			continue
		}
		out = append(out, Anomaly{
			Column:     c.Name,
			Count:      len(vals),
			Percentage: Float(float64(len(vals)) / float64(len(x)) * 100),
			Values:     vals,
			Bounds:     Bounds{Lower: Float(fence.Lower), Upper: Float(fence.Upper)},
		})
	}
	return Computed(out)
}

func identifyPatterns(t *dataset.Table, opt Options) Facet[Patterns] {
	return Computed(Patterns{
		Seasonality:   Skipped[struct{}](MsgSeasonality),
		Clusters:      guard(opt.Logger, "Clustering", func() Facet[Clusters] { return identifyClusters(t, opt) }),
		Distributions: analyzeDistributions(t),
	})
}

func analyzeDistributions(t *dataset.Table) ByColumn[Distribution] {
	out := ByColumn[Distribution]{}
	for _, c := range t.NumericColumns() {
		x := c.Floats()
		if len(x) == 0 {
			continue
		}
		s := stats.Sorted(x)
		skew := skewness(x)
		kind := "skewed"
		if math.Abs(skew) < normalSkew {
			kind = "normal"
		}
		out = append(out, Distribution{
			Column:   c.Name,
			Type:     kind,
			Skewness: Float(skew),
			Kurtosis: Float(kurtosis(x)),
			Percentiles: Percentiles{
				P10: Float(stats.Quantile(s, 0.10)),
				P25: Float(stats.Quantile(s, 0.25)),
				P50: Float(stats.Quantile(s, 0.50)),
				P75: Float(stats.Quantile(s, 0.75)),
				P90: Float(stats.Quantile(s, 0.90)),
			},
		})
	}
	return out
}
