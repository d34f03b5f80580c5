package export

import (
	"io"
	"time"
)

// Format represents the export file format
type Format string

const (
	FormatExcel Format = "xlsx"
	FormatCSV   Format = "csv"
	FormatPDF   Format = "pdf"
)

// ParseFormat maps a query value to a Format. Empty selects Excel.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "", "xlsx", "excel":
		return FormatExcel, true
	case "csv":
		return FormatCSV, true
	case "pdf":
		return FormatPDF, true
	default:
		return "", false
	}
}

// Exporter is the interface for all export formats
type Exporter interface {
	Export(data *Table, writer io.Writer) error
	ContentType() string
	FileExtension() string
}

// Table is a titled grid of values.
type Table struct {
	Title     string
	CreatedAt time.Time
	Headers   []string
	Rows      [][]interface{}
	Style     Style
}

// Style defines styling options for exports
type Style struct {
	Landscape     bool
	HeaderBgColor string // Hex color
	AlternateRows bool
	RowBgColor1   string
	RowBgColor2   string
	FontSize      float64
	ColumnWidths  map[int]float64 // Excel column index -> width
}

// DefaultStyle returns default export styling
func DefaultStyle() Style {
	return Style{
		HeaderBgColor: "#4472C4",
		AlternateRows: true,
		RowBgColor1:   "#FFFFFF",
		RowBgColor2:   "#F2F2F2",
		FontSize:      10,
		ColumnWidths:  make(map[int]float64),
	}
}
