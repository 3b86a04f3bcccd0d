package analysis

import (
	"bytes"
	"encoding/json"

	"github.com/Ace30/insightmate/internal/dataset"
)

// Float is the JSON-safe number used throughout results.
type Float = dataset.Float

// Facet is either a computed value or the reason it was skipped. A skipped facet
// marshals as {"message": reason} so the key is always present in output.
type Facet[T any] struct {
	Data   T
	Reason string
}

// Computed wraps a computed value.
func Computed[T any](v T) Facet[T] { return Facet[T]{Data: v} }

// Skipped records why a facet produced no value.
func Skipped[T any](reason string) Facet[T] { return Facet[T]{Reason: reason} }

// OK reports whether the facet was computed.
func (f Facet[T]) OK() bool { return f.Reason == "" }

// Get returns the data and whether it was computed.
func (f Facet[T]) Get() (T, bool) { return f.Data, f.OK() }

func (f Facet[T]) MarshalJSON() ([]byte, error) {
	if !f.OK() {
		return json.Marshal(struct {
			Message string `json:"message"`
		}{f.Reason})
	}
	return json.Marshal(f.Data)
}

func (f *Facet[T]) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err == nil && len(probe) == 1 {
			var msg string
			if raw, ok := probe["message"]; ok && json.Unmarshal(raw, &msg) == nil {
				*f = Skipped[T](msg)
				return nil
			}
		}
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Computed(v)
	return nil
}

// ColumnRecord is a per-column finding that knows which column it describes.
type ColumnRecord[T any] interface {
	ColumnName() string
	WithColumn(name string) T
}

// ByColumn is an ordered list of per-column findings; it marshals as a JSON
// object keyed by column name in table order.
type ByColumn[T ColumnRecord[T]] []T

func (b ByColumn[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.ColumnName())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (b *ByColumn[T]) UnmarshalJSON(data []byte) error {
	keys, vals, err := dataset.OrderedObject(data)
	if err != nil {
		return err
	}
	out := make(ByColumn[T], 0, len(keys))
	for i, k := range keys {
		var v T
		if err := json.Unmarshal(vals[i], &v); err != nil {
			return err
		}
		out = append(out, v.WithColumn(k))
	}
	*b = out
	return nil
}

// Find returns the record for a column.
func (b ByColumn[T]) Find(name string) (T, bool) {
	for _, v := range b {
		if v.ColumnName() == name {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Result holds every analysis facet.
type Result struct {
	BasicStats   Facet[ByColumn[ColumnStats]] `json:"basic_stats"`
	Trends       Facet[ByColumn[Trend]]       `json:"trends"`
	Correlations Facet[Correlations]          `json:"correlations"`
	Anomalies    Facet[ByColumn[Anomaly]]     `json:"anomalies"`
	Patterns     Facet[Patterns]              `json:"patterns"`
	Segments     Facet[struct{}]              `json:"segments"`
	Forecasts    Facet[struct{}]              `json:"forecasts"`
}

// ColumnStats are descriptive statistics over the present values of a numeric column.
type ColumnStats struct {
	Column   string `json:"-"`
	Unit     string `json:"unit,omitempty"`
	Count    int    `json:"count"`
	Mean     Float  `json:"mean"`
	Median   Float  `json:"median"`
	Std      Float  `json:"std"`
	Min      Float  `json:"min"`
	Max      Float  `json:"max"`
	Q25      Float  `json:"q25"`
	Q75      Float  `json:"q75"`
	Skewness Float  `json:"skewness"`
	Kurtosis Float  `json:"kurtosis"`
}

func (s ColumnStats) ColumnName() string { return s.Column }
func (s ColumnStats) WithColumn(n string) ColumnStats {
	s.Column = n
	return s
}

// Trend is a linear fit of a column against its time-ordered position.
type Trend struct {
	Column     string `json:"-"`
	Direction  string `json:"direction"`
	Strength   Float  `json:"strength"`
	Slope      Float  `json:"slope"`
	DateColumn string `json:"date_column,omitempty"` // column the rows were ordered by
	Points     int    `json:"points"`
}

func (t Trend) ColumnName() string { return t.Column }
func (t Trend) WithColumn(n string) Trend {
	t.Column = n
	return t
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string  `json:"columns"`
	Values  [][]Float `json:"values"` // row-major, Values[i][j]
}

// At returns the coefficient for a pair of columns.
func (m CorrMatrix) At(a, b string) (Float, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return dataset.NaN(), false
	}
	return m.Values[i][j], true
}

// PairCorr is one strongly correlated pair of columns.
type PairCorr struct {
	Variable1   string `json:"variable1"`
	Variable2   string `json:"variable2"`
	Correlation Float  `json:"correlation"`
	Strength    string `json:"strength"`
}

type Correlations struct {
	Matrix             CorrMatrix `json:"correlation_matrix"`
	StrongCorrelations []PairCorr `json:"strong_correlations"`
	Highest            *PairCorr  `json:"highest_correlation"`
}

// Bounds are the IQR fences used for anomaly detection.
type Bounds struct {
	Lower Float `json:"lower"`
	Upper Float `json:"upper"`
}

// Anomaly lists the values of a column outside its IQR fences.
// Percentage is relative to the number of present values.
type Anomaly struct {
	Column     string  `json:"-"`
	Count      int     `json:"count"`
	Percentage Float   `json:"percentage"`
	Values     []Float `json:"outlier_values"`
	Bounds     Bounds  `json:"bounds"`
}

func (a Anomaly) ColumnName() string { return a.Column }
func (a Anomaly) WithColumn(n string) Anomaly {
	a.Column = n
	return a
}

type Patterns struct {
	Seasonality   Facet[struct{}]        `json:"seasonality"`
	Clusters      Facet[Clusters]        `json:"clusters"`
	Distributions ByColumn[Distribution] `json:"distributions"`
}

// Clusters summarizes a k-means partition of the standardized complete rows.
type Clusters struct {
	K              int       `json:"n_clusters"`
	Columns        []string  `json:"columns"`
	Sizes          []int     `json:"cluster_sizes"`
	Centers        [][]Float `json:"cluster_centers"`
	Inertia        Float     `json:"inertia"`
	PointsUsed     int       `json:"data_points_used"`
	PointsExcluded int       `json:"data_points_excluded"`
}

type Percentiles struct {
	P10 Float `json:"10th"`
	P25 Float `json:"25th"`
	P50 Float `json:"50th"`
	P75 Float `json:"75th"`
	P90 Float `json:"90th"`
}

type Distribution struct {
	Column      string      `json:"-"`
	Type        string      `json:"distribution_type"`
	Skewness    Float       `json:"skewness"`
	Kurtosis    Float       `json:"kurtosis"`
	Percentiles Percentiles `json:"percentiles"`
}

func (d Distribution) ColumnName() string { return d.Column }
func (d Distribution) WithColumn(n string) Distribution {
	d.Column = n
	return d
}
