package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Records returns the table row by row, keyed by column name. Missing cells are nil.
func (t *Table) Records() []map[string]any {
	n := t.Rows()
	out := make([]map[string]any, n)
	for i := range n {
		rec := make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			rec[c.Name] = c.Value(i)
		}
		out[i] = rec
	}
	return out
}

// WriteCSV writes the table with a header row. Missing cells are empty.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(t.Columns))
	for i := range t.Rows() {
		for j, c := range t.Columns {
			row[j] = c.Format(i)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
