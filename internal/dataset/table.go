package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEmptyTable is returned when a table has no columns or no rows.
	ErrEmptyTable = errors.New("table is empty")
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrRaggedColumns is returned when columns disagree on row count.
	ErrRaggedColumns = errors.New("columns have different lengths")
)

// Kind is the inferred semantic type of a column.
type Kind int

const (
	Text Kind = iota
	Numeric
	Datetime
	Bool
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Datetime:
		return "datetime"
	case Bool:
		return "boolean"
	default:
		return "text"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*k = Numeric
	case "datetime":
		*k = Datetime
	case "boolean":
		*k = Bool
	case "text":
		*k = Text
	default:
		return fmt.Errorf("unknown column kind %q", string(b))
	}
	return nil
}

// Column is a named, typed vector. Only the slice matching Kind is populated;
// Null marks missing cells regardless of kind.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Str  []string
	Time []time.Time
	Bool []bool
	Null []bool
}

// NumericColumn builds a numeric column; NaN values become missing cells.
func NumericColumn(name string, vals ...float64) *Column {
	c := &Column{Name: name, Kind: Numeric, Num: make([]float64, len(vals)), Null: make([]bool, len(vals))}
	for i, v := range vals {
		if math.IsNaN(v) {
			c.Null[i] = true
			continue
		}
		c.Num[i] = v
	}
	return c
}

// TextColumn builds a text column; empty strings become missing cells.
func TextColumn(name string, vals ...string) *Column {
	c := &Column{Name: name, Kind: Text, Str: make([]string, len(vals)), Null: make([]bool, len(vals))}
	for i, v := range vals {
		if v == "" {
			c.Null[i] = true
			continue
		}
		c.Str[i] = v
	}
	return c
}

// DatetimeColumn builds a datetime column; zero times become missing cells.
func DatetimeColumn(name string, vals ...time.Time) *Column {
	c := &Column{Name: name, Kind: Datetime, Time: make([]time.Time, len(vals)), Null: make([]bool, len(vals))}
	for i, v := range vals {
		if v.IsZero() {
			c.Null[i] = true
			continue
		}
		c.Time[i] = v
	}
	return c
}

// BoolColumn builds a boolean column without missing cells.
func BoolColumn(name string, vals ...bool) *Column {
	c := &Column{Name: name, Kind: Bool, Bool: append([]bool(nil), vals...), Null: make([]bool, len(vals))}
	return c
}

func (c *Column) Len() int { return len(c.Null) }

func (c *Column) IsNull(i int) bool { return c.Null[i] }

// Missing counts null cells.
func (c *Column) Missing() int {
	n := 0
	for _, null := range c.Null {
		if null {
			n++
		}
	}
	return n
}

// NonNull counts present cells.
func (c *Column) NonNull() int { return c.Len() - c.Missing() }

// Floats returns the non-null values of a numeric column in row order.
func (c *Column) Floats() []float64 {
	if c.Kind != Numeric {
		return nil
	}
	out := make([]float64, 0, c.Len())
	for i, v := range c.Num {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// Value returns the cell as float64, string, time.Time or bool; nil when missing.
func (c *Column) Value(i int) any {
	if c.Null[i] {
		return nil
	}
	switch c.Kind {
	case Numeric:
		return c.Num[i]
	case Datetime:
		return c.Time[i]
	case Bool:
		return c.Bool[i]
	default:
		return c.Str[i]
	}
}

// Format renders a non-null cell the way it would print in a sample; missing cells are "".
func (c *Column) Format(i int) string {
	if c.Null[i] {
		return ""
	}
	switch c.Kind {
	case Numeric:
		return FormatNumber(c.Num[i])
	case Datetime:
		return c.Time[i].Format("2006-01-02 15:04:05")
	case Bool:
		if c.Bool[i] {
			return "True"
		}
		return "False"
	default:
		return c.Str[i]
	}
}

// FormatNumber prints a float without a trailing exponent or padding.
func FormatNumber(v float64) string {
	if v == 0 {
		v = 0 // fold -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Clone deep-copies the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Null: append([]bool(nil), c.Null...)}
	if c.Num != nil {
		out.Num = append([]float64(nil), c.Num...)
	}
	if c.Str != nil {
		out.Str = append([]string(nil), c.Str...)
	}
	if c.Time != nil {
		out.Time = append([]time.Time(nil), c.Time...)
	}
	if c.Bool != nil {
		out.Bool = append([]bool(nil), c.Bool...)
	}
	return out
}

// CopyCell copies cell src over cell dst, including its null flag.
func (c *Column) CopyCell(dst, src int) {
	c.Null[dst] = c.Null[src]
	switch c.Kind {
	case Numeric:
		c.Num[dst] = c.Num[src]
	case Datetime:
		c.Time[dst] = c.Time[src]
	case Bool:
		c.Bool[dst] = c.Bool[src]
	default:
		c.Str[dst] = c.Str[src]
	}
}

func (c *Column) keep(idx []int) {
	null := make([]bool, len(idx))
	for k, i := range idx {
		null[k] = c.Null[i]
	}
	switch c.Kind {
	case Numeric:
		v := make([]float64, len(idx))
		for k, i := range idx {
			v[k] = c.Num[i]
		}
		c.Num = v
	case Datetime:
		v := make([]time.Time, len(idx))
		for k, i := range idx {
			v[k] = c.Time[i]
		}
		c.Time = v
	case Bool:
		v := make([]bool, len(idx))
		for k, i := range idx {
			v[k] = c.Bool[i]
		}
		c.Bool = v
	default:
		v := make([]string, len(idx))
		for k, i := range idx {
			v[k] = c.Str[i]
		}
		c.Str = v
	}
	c.Null = null
}

// Shape is the (rows, columns) size of a table.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Table is an ordered set of equally long, uniquely named columns.
type Table struct {
	Columns []*Column
}

// New validates column names and lengths and returns a table.
func New(cols ...*Column) (*Table, error) {
	t := &Table{Columns: cols}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the structural invariants of the table.
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Len() != t.Columns[0].Len() {
			return fmt.Errorf("%w: %q has %d rows, want %d", ErrRaggedColumns, c.Name, c.Len(), t.Columns[0].Len())
		}
	}
	return nil
}

func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

func (t *Table) Shape() Shape { return Shape{Rows: t.Rows(), Cols: len(t.Columns)} }

// Column looks a column up by exact name.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// NumericColumns returns numeric columns in table order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == Numeric {
			out = append(out, c)
		}
	}
	return out
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	return out
}

// KeepRows retains only the given row indices, in the given order.
func (t *Table) KeepRows(idx []int) {
	for _, c := range t.Columns {
		c.keep(idx)
	}
}

// RowKey fingerprints row i; rows with equal keys are exact duplicates.
// Missing cells compare equal to each other.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j, c := range t.Columns {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		if c.Null[i] {
			b.WriteString("\x00")
			continue
		}
		switch c.Kind {
		case Numeric:
			b.WriteString("n:")
			b.WriteString(strconv.FormatFloat(c.Num[i]+0, 'g', -1, 64))
		case Datetime:
			b.WriteString("d:")
			b.WriteString(strconv.FormatInt(c.Time[i].UnixNano(), 10))
		case Bool:
			b.WriteString("b:")
			b.WriteString(strconv.FormatBool(c.Bool[i]))
		default:
			b.WriteString("s:")
			b.WriteString(c.Str[i])
		}
	}
	return b.String()
}

// MissingCount counts null cells across the whole table.
func (t *Table) MissingCount() int {
	n := 0
	for _, c := range t.Columns {
		n += c.Missing()
	}
	return n
}

// MissingPercentage is the share of null cells over all cells, in percent.
func (t *Table) MissingPercentage() float64 {
	cells := t.Rows() * len(t.Columns)
	if cells == 0 {
		return 0
	}
	return float64(t.MissingCount()) / float64(cells) * 100
}

// DuplicateCount counts rows that repeat an earlier row exactly.
func (t *Table) DuplicateCount() int {
	seen := make(map[string]struct{}, t.Rows())
	n := 0
	for i := 0; i < t.Rows(); i++ {
		k := t.RowKey(i)
		if _, ok := seen[k]; ok {
			n++
			continue
		}
		seen[k] = struct{}{}
	}
	return n
}

// Summary is the transport-friendly overview of a table.
type Summary struct {
	TotalRows     int               `json:"total_rows"`
	TotalColumns  int               `json:"total_columns"`
	MissingValues map[string]int    `json:"missing_values"`
	DataTypes     map[string]string `json:"data_types"`
}

func (t *Table) Summary() Summary {
	s := Summary{
		TotalRows:     t.Rows(),
		TotalColumns:  len(t.Columns),
		MissingValues: make(map[string]int, len(t.Columns)),
		DataTypes:     make(map[string]string, len(t.Columns)),
	}
	for _, c := range t.Columns {
		s.MissingValues[c.Name] = c.Missing()
		s.DataTypes[c.Name] = c.Kind.String()
	}
	return s
}
