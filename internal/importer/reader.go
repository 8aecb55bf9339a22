package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"

	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Reader parses an uploaded spreadsheet into headers and rows.
type Reader interface {
	Parse(filename string, r io.Reader) (*Table, error)
}

// FileReader handles .xlsx through excelize and .csv through encoding/csv.
type FileReader struct {
	log *log.Logger
}

// NewFileReader creates a new spreadsheet reader
func NewFileReader() *FileReader {
	return &FileReader{log: logger.Service("importer")}
}

var zipMagic = []byte("PK\x03\x04")

// Parse reads the first sheet of the file. The first non-blank row is the
// header row; fully blank data rows are dropped.
func (fr *FileReader) Parse(filename string, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	fr.log.Debug("Parsing spreadsheet", "filename", filename, "size", len(data))

	switch {
	case ext == ".xlsx" || ext == ".xlsm" || bytes.HasPrefix(data, zipMagic):
		return fr.parseXLSX(data)
	case ext == ".csv" || ext == ".txt" || ext == "":
		return fr.parseCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func (fr *FileReader) parseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{Headers: []string{}, Rows: []Row{}}, nil
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	cellAt := func(rowIdx, colIdx int, value string) Cell {
		if strings.TrimSpace(value) == "" {
			return EmptyCell()
		}
		axis, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
		if err != nil {
			return StringCell(value)
		}
		// Numeric cells usually carry no explicit type attribute.
		kind, err := f.GetCellType(sheet, axis)
		if err == nil && (kind == excelize.CellTypeNumber || kind == excelize.CellTypeUnset) {
			if n, perr := strconv.ParseFloat(value, 64); perr == nil {
				return NumberCell(n)
			}
		}
		return StringCell(value)
	}

	table := buildTable(raw, cellAt)
	fr.log.Debug("Parsed workbook", "sheet", sheet, "headers", len(table.Headers), "rows", len(table.Rows))
	return table, nil
}

func (fr *FileReader) parseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	raw, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	table := buildTable(raw, func(_, _ int, value string) Cell {
		return StringCell(value)
	})
	fr.log.Debug("Parsed csv", "delimiter", string(cr.Comma), "headers", len(table.Headers), "rows", len(table.Rows))
	return table, nil
}

// sniffDelimiter picks ';' when the header line has more semicolons than
// commas, as spreadsheets exported with a comma decimal separator do.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func buildTable(raw [][]string, cellAt func(rowIdx, colIdx int, value string) Cell) *Table {
	table := &Table{Headers: []string{}, Rows: []Row{}}

	headerIdx := -1
	for i, record := range raw {
		if !blankRecord(record) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return table
	}

	columns := headerNames(raw[headerIdx])
	for _, name := range columns {
		if name != "" {
			table.Headers = append(table.Headers, name)
		}
	}

	for i := headerIdx + 1; i < len(raw); i++ {
		record := raw[i]
		if blankRecord(record) {
			continue
		}
		row := make(Row, len(table.Headers))
		for j, name := range columns {
			if name == "" {
				continue
			}
			if j < len(record) {
				row[name] = cellAt(i, j, record[j])
			} else {
				row[name] = EmptyCell()
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// headerNames trims header labels and suffixes duplicates with _1, _2...
// Blank header cells yield "" and their column is ignored.
func headerNames(record []string) []string {
	seen := make(map[string]int, len(record))
	names := make([]string, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			names[i] = fmt.Sprintf("%s_%d", h, n+1)
			continue
		}
		seen[h] = 0
		names[i] = h
	}
	return names
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
