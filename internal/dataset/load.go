package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnsupportedFormat is returned for file extensions with no loader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// LoadOptions controls file loading.
type LoadOptions struct {
	// Delimiter for CSV. If 0, tries ',', ';', '\t', '|' in order.
	Delimiter rune
	// Sheet selects an XLSX sheet by name; SheetIndex (1-based) is used when empty.
	Sheet      string
	SheetIndex int
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	Parse   ParseOptions
}

// Load reads a tabular file, dispatching on its extension.
func Load(path string, opt LoadOptions) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".tsv", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if ext == ".tsv" && opt.Delimiter == 0 {
			opt.Delimiter = '\t'
		}
		return ReadCSV(data, opt)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read json: %w", err)
		}
		return ReadJSON(data, opt)
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, opt)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

type encoding struct {
	name   string
	decode func([]byte) ([]byte, error)
}

var csvEncodings = []encoding{
	{"utf-8", func(b []byte) ([]byte, error) {
		if !utf8.Valid(b) {
			return nil, errors.New("invalid utf-8")
		}
		return b, nil
	}},
	{"latin-1", func(b []byte) ([]byte, error) { return charmap.ISO8859_1.NewDecoder().Bytes(b) }},
	{"cp1252", func(b []byte) ([]byte, error) { return charmap.Windows1252.NewDecoder().Bytes(b) }},
}

// ReadCSV decodes delimited text. Encodings and delimiters are tried in a fixed
// order and the first attempt that yields a consistent table wins.
func ReadCSV(data []byte, opt LoadOptions) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyTable
	}
	delims := []rune{',', ';', '\t', '|'}
	if opt.Delimiter != 0 {
		delims = []rune{opt.Delimiter}
	}
	var lastErr error
	for _, enc := range csvEncodings {
		text, err := enc.decode(data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", enc.name, err)
			continue
		}
		header, rows, err := splitDelimited(text, delims, opt.MaxRows)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", enc.name, err)
			continue
		}
		return FromRecords(header, rows, opt.Parse)
	}
	return nil, fmt.Errorf("load csv: %w", lastErr)
}

func splitDelimited(text []byte, delims []rune, maxRows int) ([]string, [][]string, error) {
	var (
		single     []string
		singleRows [][]string
		lastErr    error
	)
	for _, d := range delims {
		header, rows, err := readDelimited(text, d, maxRows)
		if err != nil {
			lastErr = err
			continue
		}
		if len(header) > 1 {
			return header, rows, nil
		}
		if single == nil {
			single, singleRows = header, rows
		}
	}
	if single != nil {
		return single, singleRows, nil
	}
	return nil, nil, lastErr
}

func readDelimited(text []byte, delim rune, maxRows int) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.LazyQuotes = true
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmptyTable
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read record: %w", err)
		}
		rows = append(rows, rec)
		if maxRows > 0 && len(rows) >= maxRows {
			break
		}
	}
	return header, rows, nil
}

// ReadJSON accepts an array of objects, an object holding a "data" or "records"
// array, or a single object treated as one row.
func ReadJSON(data []byte, opt LoadOptions) (*Table, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(data) == 0 {
		return nil, ErrEmptyTable
	}
	var items []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("load json: %w", err)
		}
	case '{':
		var wrapper struct {
			Data    []json.RawMessage `json:"data"`
			Records []json.RawMessage `json:"records"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			// data/records of the wrong shape: treat the object as a row
			wrapper.Data, wrapper.Records = nil, nil
		}
		switch {
		case wrapper.Data != nil:
			items = wrapper.Data
		case wrapper.Records != nil:
			items = wrapper.Records
		default:
			items = []json.RawMessage{data}
		}
	default:
		return nil, fmt.Errorf("load json: %w: top-level value must be an array or object", ErrUnsupportedFormat)
	}

	var header []string
	index := map[string]int{}
	var rows []map[string]string
	for i, item := range items {
		keys, vals, err := OrderedObject(item)
		if err != nil {
			return nil, fmt.Errorf("load json: record %d: %w", i, err)
		}
		row := make(map[string]string, len(keys))
		for k, key := range keys {
			if _, ok := index[key]; !ok {
				index[key] = len(header)
				header = append(header, key)
			}
			row[key] = jsonCell(vals[k])
		}
		rows = append(rows, row)
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(header))
		for j, h := range header {
			cells[i][j] = row[h]
		}
	}
	return FromRecords(header, cells, opt.Parse)
}

func jsonCell(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// LoadXLSX reads one worksheet; the first row is the header.
func LoadXLSX(path string, opt LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("load xlsx: %w", ErrEmptyTable)
	}
	sheet := sheets[0]
	switch {
	case opt.Sheet != "":
		found := false
		for _, s := range sheets {
			if s == opt.Sheet {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("load xlsx: sheet %q not found", opt.Sheet)
		}
		sheet = opt.Sheet
	case opt.SheetIndex > 0:
		if opt.SheetIndex > len(sheets) {
			return nil, fmt.Errorf("load xlsx: sheet index %d out of range (1..%d)", opt.SheetIndex, len(sheets))
		}
		sheet = sheets[opt.SheetIndex-1]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("load xlsx: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	header := rows[0]
	body := rows[1:]
	if opt.MaxRows > 0 && len(body) > opt.MaxRows {
		body = body[:opt.MaxRows]
	}
	width := len(header)
	for _, r := range body {
		width = max(width, len(r))
	}
	for len(header) < width {
		header = append(header, "")
	}
	cells := make([][]string, len(body))
	for i, r := range body {
		cells[i] = make([]string, width)
		copy(cells[i], r)
	}
	return FromRecords(header, cells, opt.Parse)
}

// FromRecords builds a table from string cells. Null tokens become missing; a
// column whose present cells all parse as numbers is numeric, otherwise text.
// Dates are left as text for the cleaner to coerce.
func FromRecords(header []string, rows [][]string, opt ParseOptions) (*Table, error) {
	if len(header) == 0 || len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	names := make([]string, len(header))
	seen := map[string]int{}
	for j, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(j)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[j] = name
	}

	cols := make([]*Column, len(names))
	for j, name := range names {
		raw := make([]string, len(rows))
		null := make([]bool, len(rows))
		for i, r := range rows {
			if j < len(r) {
				raw[i] = r[j]
			}
			null[i] = IsNullToken(raw[i])
		}
		cols[j] = inferColumn(name, raw, null, opt)
	}
	return New(cols...)
}

func inferColumn(name string, raw []string, null []bool, opt ParseOptions) *Column {
	nums := make([]float64, len(raw))
	numeric := true // an all-missing column stays numeric
	for i, s := range raw {
		if null[i] {
			continue
		}
		v, ok := ParseNumber(s, opt)
		if !ok {
			numeric = false
			break
		}
		nums[i] = v
	}
	if numeric {
		return &Column{Name: name, Kind: Numeric, Num: nums, Null: null}
	}
	str := make([]string, len(raw))
	for i, s := range raw {
		if !null[i] {
			str[i] = s
		}
	}
	return &Column{Name: name, Kind: Text, Str: str, Null: null}
}
