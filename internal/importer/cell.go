// Package importer reads guest spreadsheets and maps their columns onto
// participation fields.
package importer

import (
	"strconv"
	"strings"
)

// CellKind tells which variant a Cell holds.
type CellKind byte

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
)

func (k CellKind) String() string {
	switch k {
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is one spreadsheet value: a string, a number or nothing.
type Cell struct {
	kind CellKind
	str  string
	num  float64
}

// StringCell wraps s. Blank strings become an empty cell.
func StringCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{kind: CellString, str: s}
}

// NumberCell wraps a numeric value.
func NumberCell(n float64) Cell {
	return Cell{kind: CellNumber, num: n}
}

// EmptyCell returns the zero cell.
func EmptyCell() Cell {
	return Cell{}
}

// Kind returns the variant held by the cell.
func (c Cell) Kind() CellKind {
	return c.kind
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.kind == CellEmpty
}

// Number returns the numeric value and whether the cell is a number.
func (c Cell) Number() (float64, bool) {
	return c.num, c.kind == CellNumber
}

// String renders the cell as text. Whole numbers print without a decimal
// point or exponent so that document numbers stored as numerics survive.
func (c Cell) String() string {
	switch c.kind {
	case CellString:
		return c.str
	case CellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON renders numbers as JSON numbers and empty cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case CellString:
		return []byte(strconv.Quote(c.str)), nil
	case CellNumber:
		return []byte(strconv.FormatFloat(c.num, 'f', -1, 64)), nil
	default:
		return []byte("null"), nil
	}
}

// Row maps a header to the cell found under it.
type Row map[string]Cell

// Text returns the trimmed text under column, or "" when column is blank or
// absent.
func (r Row) Text(column string) string {
	if column == "" {
		return ""
	}
	return strings.TrimSpace(r[column].String())
}

// Table is the parsed content of the first sheet of a file.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}
