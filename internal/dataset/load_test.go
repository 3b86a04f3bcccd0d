package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestReadCSVInfersKinds(t *testing.T) {
	data := "date,revenue,region\n2024-01-01,100,North\n2024-02-01,,South\n2024-03-01,120.5,North\n"
	tbl, err := ReadCSV([]byte(data), LoadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got := tbl.Shape(); got.Rows != 3 || got.Cols != 3 {
		t.Fatalf("shape = %+v", got)
	}
	if k := tbl.Column("date").Kind; k != Text {
		t.Fatalf("date kind = %v, want text (coerced later)", k)
	}
	rev := tbl.Column("revenue")
	if rev.Kind != Numeric {
		t.Fatalf("revenue kind = %v", rev.Kind)
	}
	if !rev.Null[1] || rev.Missing() != 1 {
		t.Fatalf("expected one missing revenue cell, got %v", rev.Null)
	}
	if rev.Num[2] != 120.5 {
		t.Fatalf("revenue[2] = %v", rev.Num[2])
	}
}

func TestReadCSVDelimiterFallback(t *testing.T) {
	data := "a;b;c\n1;2;3\n4;5;6\n"
	tbl, err := ReadCSV([]byte(data), LoadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got := strings.Join(tbl.Names(), ","); got != "a,b,c" {
		t.Fatalf("names = %s", got)
	}
}

func TestReadCSVLatin1(t *testing.T) {
	enc, err := charmap.ISO8859_1.NewEncoder().String("city,temp\nMünchen,21\nKöln,19\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tbl, err := ReadCSV([]byte(enc), LoadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got := tbl.Column("city").Str[0]; got != "München" {
		t.Fatalf("city[0] = %q", got)
	}
}

func TestReadCSVNullTokensAndDuplicateHeaders(t *testing.T) {
	data := "x,x,\nNA,1,a\n2,null,b\n"
	tbl, err := ReadCSV([]byte(data), LoadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got := strings.Join(tbl.Names(), "|"); got != "x|x.1|Unnamed: 2" {
		t.Fatalf("names = %s", got)
	}
	if !tbl.Columns[0].Null[0] || !tbl.Columns[1].Null[1] {
		t.Fatalf("null tokens not recognised")
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV([]byte("  \n"), LoadOptions{}); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("want ErrEmptyTable, got %v", err)
	}
	if _, err := ReadCSV([]byte("a,b\n"), LoadOptions{}); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("header only: want ErrEmptyTable, got %v", err)
	}
}

func TestReadCSVAllMissingColumnIsNumeric(t *testing.T) {
	tbl, err := ReadCSV([]byte("a,b\n1,\n2,\n"), LoadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if c := tbl.Column("b"); c.Kind != Numeric || c.Missing() != 2 {
		t.Fatalf("b = %+v", c)
	}
}

func TestReadJSONShapes(t *testing.T) {
	cases := map[string]string{
		"array":   `[{"b":1,"a":"x"},{"a":"y","b":2,"c":true}]`,
		"data":    `{"data":[{"b":1,"a":"x"},{"a":"y","b":2,"c":true}]}`,
		"records": `{"records":[{"b":1,"a":"x"},{"a":"y","b":2,"c":true}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			tbl, err := ReadJSON([]byte(body), LoadOptions{})
			if err != nil {
				t.Fatalf("ReadJSON: %v", err)
			}
			if got := strings.Join(tbl.Names(), ","); got != "b,a,c" {
				t.Fatalf("column order = %s", got)
			}
			if tbl.Column("b").Kind != Numeric {
				t.Fatalf("b should be numeric")
			}
			if c := tbl.Column("c"); !c.Null[0] || c.Str[1] != "true" {
				t.Fatalf("c = %+v", c)
			}
		})
	}
	single, err := ReadJSON([]byte(`{"k":1,"v":"z"}`), LoadOptions{})
	if err != nil {
		t.Fatalf("single object: %v", err)
	}
	if single.Rows() != 1 {
		t.Fatalf("single object rows = %d", single.Rows())
	}
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	f := excelize.NewFile()
	rows := [][]any{{"Group", "Score"}, {"A", 10}, {"B", 12.5}, {"A", 9}}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if _, err := f.NewSheet("Other"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if err := f.SetCellValue("Other", "A1", "only"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := f.SetCellValue("Other", "A2", "x"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	tbl, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Rows() != 3 || tbl.Column("Score").Kind != Numeric {
		t.Fatalf("unexpected table: rows=%d kind=%v", tbl.Rows(), tbl.Column("Score").Kind)
	}
	other, err := Load(path, LoadOptions{Sheet: "Other"})
	if err != nil {
		t.Fatalf("Load other: %v", err)
	}
	if other.Column("only") == nil {
		t.Fatalf("expected column from second sheet, got %v", other.Names())
	}
	if _, err := Load(path, LoadOptions{SheetIndex: 5}); err == nil {
		t.Fatalf("expected out-of-range sheet error")
	}
}

func TestLoadUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.parquet")
	if err := os.WriteFile(path, []byte("PAR1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path, LoadOptions{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.tsv")
	if err := os.WriteFile(path, []byte("a\tb\n1\t2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tbl.Columns) != 2 {
		t.Fatalf("cols = %d", len(tbl.Columns))
	}
}
