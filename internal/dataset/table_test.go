package dataset

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewValidates(t *testing.T) {
	if _, err := New(NumericColumn("a", 1, 2), NumericColumn("a", 3, 4)); !errors.Is(err, ErrDuplicateColumn) {
		t.Fatalf("want ErrDuplicateColumn, got %v", err)
	}
	if _, err := New(NumericColumn("a", 1, 2), TextColumn("b", "x")); !errors.Is(err, ErrRaggedColumns) {
		t.Fatalf("want ErrRaggedColumns, got %v", err)
	}
}

func TestDuplicateCountNullsEqual(t *testing.T) {
	tbl, err := New(
		NumericColumn("n", 1, math.NaN(), 1, math.NaN()),
		TextColumn("s", "x", "", "x", ""),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := tbl.DuplicateCount(); got != 2 {
		t.Fatalf("DuplicateCount = %d, want 2", got)
	}
}

func TestKeepRowsAndClone(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl, _ := New(
		NumericColumn("n", 1, 2, 3),
		DatetimeColumn("d", day, time.Time{}, day.AddDate(0, 0, 2)),
		BoolColumn("b", true, false, true),
	)
	cp := tbl.Clone()
	cp.KeepRows([]int{2, 0})
	if tbl.Rows() != 3 {
		t.Fatalf("clone mutated original")
	}
	if cp.Rows() != 2 || cp.Columns[0].Num[0] != 3 || !cp.Columns[2].Bool[1] {
		t.Fatalf("KeepRows result wrong: %+v", cp.Columns[0])
	}
	if cp.Columns[1].Null[0] || !cp.Columns[1].Time[1].Equal(day) {
		t.Fatalf("datetime column not reordered")
	}
}

func TestSummary(t *testing.T) {
	tbl, _ := New(NumericColumn("n", 1, math.NaN()), TextColumn("s", "a", "b"))
	s := tbl.Summary()
	if s.TotalRows != 2 || s.TotalColumns != 2 {
		t.Fatalf("summary = %+v", s)
	}
	if s.MissingValues["n"] != 1 || s.DataTypes["s"] != "text" {
		t.Fatalf("summary = %+v", s)
	}
	if got := tbl.MissingPercentage(); got != 25 {
		t.Fatalf("MissingPercentage = %v", got)
	}
}

func TestFloatJSON(t *testing.T) {
	b, err := json.Marshal([]Float{1.5, NaN(), Float(math.Inf(1))})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[1.5,null,null]" {
		t.Fatalf("json = %s", b)
	}
	var back []Float
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[0] != 1.5 || back[1].Valid() {
		t.Fatalf("round trip = %v", back)
	}
}

func TestOrderedObject(t *testing.T) {
	keys, vals, err := OrderedObject([]byte(`{"z":1,"a":{"x":[1,2]},"m":"s"}`))
	if err != nil {
		t.Fatalf("OrderedObject: %v", err)
	}
	if len(keys) != 3 || keys[0] != "z" || keys[1] != "a" || keys[2] != "m" {
		t.Fatalf("keys = %v", keys)
	}
	if string(vals[1]) != `{"x":[1,2]}` {
		t.Fatalf("vals[1] = %s", vals[1])
	}
	if _, _, err := OrderedObject([]byte(`[1]`)); err == nil {
		t.Fatalf("expected error for array input")
	}
}
