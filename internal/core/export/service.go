package export

import (
	"bytes"
	"fmt"
)

// Service picks an exporter per format
type Service struct {
	exporters map[Format]Exporter
}

// NewService creates a new export service
func NewService() *Service {
	return &Service{
		exporters: map[Format]Exporter{
			FormatExcel: NewExcelExporter(),
			FormatCSV:   NewCSVExporter(),
			FormatPDF:   NewPDFExporter(),
		},
	}
}

// Export renders data in format and returns the file body, its content type
// and file extension.
func (s *Service) Export(data *Table, format Format) ([]byte, string, string, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, "", "", fmt.Errorf("unsupported export format: %s", format)
	}

	var buf bytes.Buffer
	if err := exporter.Export(data, &buf); err != nil {
		return nil, "", "", fmt.Errorf("%s export failed: %w", format, err)
	}

	return buf.Bytes(), exporter.ContentType(), exporter.FileExtension(), nil
}
