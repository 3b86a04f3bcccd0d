package dataset

import (
	"bytes"
	"math"
	"testing"
)

func TestRecordsAndWriteCSV(t *testing.T) {
	num := NumericColumn("x", 1.5, math.NaN(), 3)
	tbl, err := New(num, TextColumn("name", "a", "b", "c"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	recs := tbl.Records()
	if len(recs) != 3 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[0]["x"] != 1.5 || recs[0]["name"] != "a" {
		t.Fatalf("first record = %v", recs[0])
	}
	if recs[1]["x"] != nil {
		t.Fatalf("missing cell should be nil, got %v", recs[1]["x"])
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got, want := buf.String(), "x,name\n1.5,a\n,b\n3,c\n"; got != want {
		t.Fatalf("csv = %q, want %q", got, want)
	}

	back, err := ReadCSV(buf.Bytes(), LoadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if back.Column("x").Missing() != 1 {
		t.Fatalf("round trip lost the missing cell")
	}
}
