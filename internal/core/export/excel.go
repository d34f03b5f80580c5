package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter implements Excel export using excelize
type ExcelExporter struct {
	sheetName string
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{
		sheetName: "Export",
	}
}

// Export exports data to Excel format
func (e *ExcelExporter) Export(data *Table, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	// Set sheet name
	f.SetSheetName("Sheet1", e.sheetName)

	// Write title if provided
	rowIndex := 1
	if data.Title != "" {
		f.SetCellValue(e.sheetName, fmt.Sprintf("A%d", rowIndex), data.Title)
		titleStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 14},
		})
		f.SetCellStyle(e.sheetName, fmt.Sprintf("A%d", rowIndex), fmt.Sprintf("A%d", rowIndex), titleStyle)
		rowIndex++

		if !data.CreatedAt.IsZero() {
			f.SetCellValue(e.sheetName, fmt.Sprintf("A%d", rowIndex), "Generated: "+data.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			rowIndex++
		}
		rowIndex++ // Add blank row
	}

	// Create header style
	headerStyle, err := e.createHeaderStyle(f, data.Style)
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// Write headers
	headerRow := rowIndex
	for colIndex, header := range data.Headers {
		cell := columnNumberToName(colIndex+1) + strconv.Itoa(rowIndex)
		f.SetCellValue(e.sheetName, cell, header)
		f.SetCellStyle(e.sheetName, cell, cell, headerStyle)

		// Set column width if specified
		if width, ok := data.Style.ColumnWidths[colIndex]; ok {
			colName := columnNumberToName(colIndex + 1)
			f.SetColWidth(e.sheetName, colName, colName, width)
		}
	}
	rowIndex++

	oddRowStyle, _ := e.createRowStyle(f, data.Style, data.Style.RowBgColor1)
	evenRowStyle := oddRowStyle
	if data.Style.AlternateRows {
		evenRowStyle, _ = e.createRowStyle(f, data.Style, data.Style.RowBgColor2)
	}

	// Write data rows
	for rowIdx, row := range data.Rows {
		for colIndex, value := range row {
			cell := columnNumberToName(colIndex+1) + strconv.Itoa(rowIndex)
			f.SetCellValue(e.sheetName, cell, value)

			// Apply alternating row style
			if rowIdx%2 == 0 {
				f.SetCellStyle(e.sheetName, cell, cell, oddRowStyle)
			} else {
				f.SetCellStyle(e.sheetName, cell, cell, evenRowStyle)
			}
		}
		rowIndex++
	}

	// Freeze header row
	if len(data.Rows) > 0 {
		f.SetPanes(e.sheetName, &excelize.Panes{
			Freeze:      true,
			XSplit:      0,
			YSplit:      headerRow,
			TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
			ActivePane:  "bottomLeft",
		})
	}

	if len(data.Headers) > 0 {
		lastCol := columnNumberToName(len(data.Headers))
		lastRow := headerRow + len(data.Rows)
		f.AutoFilter(e.sheetName, fmt.Sprintf("A%d:%s%d", headerRow, lastCol, lastRow), nil)
	}

	// Write to output
	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}

	return nil
}

// ContentType returns the MIME type for Excel files
func (e *ExcelExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension returns the file extension for Excel files
func (e *ExcelExporter) FileExtension() string {
	return ".xlsx"
}

// createHeaderStyle creates the header style
func (e *ExcelExporter) createHeaderStyle(f *excelize.File, style Style) (int, error) {
	headerStyle := &excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  style.FontSize,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{stripHashFromColor(style.HeaderBgColor)},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	}

	return f.NewStyle(headerStyle)
}

// createRowStyle creates a row style with background color
func (e *ExcelExporter) createRowStyle(f *excelize.File, style Style, bgColor string) (int, error) {
	rowStyle := &excelize.Style{
		Font: &excelize.Font{
			Size: style.FontSize,
		},
	}

	// Only add fill if bgColor is not white
	if bgColor != "" && bgColor != "#FFFFFF" {
		rowStyle.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{stripHashFromColor(bgColor)},
		}
	}

	return f.NewStyle(rowStyle)
}

// columnNumberToName converts column number to Excel column name (1 -> A, 27 -> AA)
func columnNumberToName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+(col%26))) + name
		col /= 26
	}
	return name
}

// stripHashFromColor removes # from hex color codes
func stripHashFromColor(color string) string {
	if len(color) > 0 && color[0] == '#' {
		return color[1:]
	}
	return color
}
