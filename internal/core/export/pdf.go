package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfHeaderHeight = 7.0
	pdfRowHeight    = 6.0
)

// PDFExporter implements PDF export using gofpdf
type PDFExporter struct {
	pageSize string
}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{pageSize: "A4"}
}

// Export renders the table, repeating the header row on every page.
func (p *PDFExporter) Export(data *Table, writer io.Writer) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("no headers provided")
	}

	orientation := "P"
	if data.Style.Landscape {
		orientation = "L"
	}
	fontSize := data.Style.FontSize
	if fontSize <= 0 {
		fontSize = 10
	}

	pdf := gofpdf.New(orientation, "mm", p.pageSize, "")
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.Cell(0, 10, data.Title)
		pdf.Ln(12)
	}
	if !data.CreatedAt.IsZero() {
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", data.CreatedAt.Format("2006-01-02 15:04:05")))
		pdf.Ln(10)
	}

	pageWidth, pageHeight := pdf.GetPageSize()
	leftMargin, _, rightMargin, bottomMargin := pdf.GetMargins()
	colWidth := (pageWidth - leftMargin - rightMargin) / float64(len(data.Headers))
	// gofpdf's auto page break would split a row across pages
	pdf.SetAutoPageBreak(false, bottomMargin)
	limit := pageHeight - bottomMargin

	drawHeader := func() {
		pdf.SetFont("Arial", "B", fontSize)
		fill := data.Style.HeaderBgColor != ""
		if fill {
			pdf.SetFillColor(hexToRGB(data.Style.HeaderBgColor))
			pdf.SetTextColor(255, 255, 255)
		}
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, pdfHeaderHeight, header, "1", 0, "C", fill, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", fontSize)
	}
	drawHeader()

	for rowIdx, row := range data.Rows {
		if pdf.GetY()+pdfRowHeight > limit {
			pdf.AddPage()
			drawHeader()
		}
		if data.Style.AlternateRows {
			color := data.Style.RowBgColor1
			if rowIdx%2 == 1 {
				color = data.Style.RowBgColor2
			}
			pdf.SetFillColor(hexToRGB(color))
		}
		for colIdx := range data.Headers {
			value := ""
			if colIdx < len(row) && row[colIdx] != nil {
				value = fmt.Sprintf("%v", row[colIdx])
			}
			pdf.CellFormat(colWidth, pdfRowHeight, value, "1", 0, "L", data.Style.AlternateRows, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// ContentType returns the MIME type for PDF files
func (p *PDFExporter) ContentType() string {
	return "application/pdf"
}

// FileExtension returns the file extension for PDF files
func (p *PDFExporter) FileExtension() string {
	return ".pdf"
}

// hexToRGB converts hex color to RGB values, white when invalid
func hexToRGB(hex string) (int, int, int) {
	hex = stripHashFromColor(hex)
	if len(hex) != 6 {
		return 255, 255, 255
	}
	var r, g, b int
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
