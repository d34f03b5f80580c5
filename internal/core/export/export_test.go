package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable(rows int) *Table {
	t := &Table{
		Title:     "Contacts",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Headers:   []string{"Name", "Email", "Phone"},
		Style:     DefaultStyle(),
	}
	for i := 0; i < rows; i++ {
		t.Rows = append(t.Rows, []interface{}{"Ana", "ana@example.com", nil})
	}
	return t
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("")
	assert.True(t, ok)
	assert.Equal(t, FormatExcel, f)

	f, ok = ParseFormat("pdf")
	assert.True(t, ok)
	assert.Equal(t, FormatPDF, f)

	_, ok = ParseFormat("docx")
	assert.False(t, ok)
}

func TestExportExcel(t *testing.T) {
	body, contentType, ext, err := NewService().Export(sampleTable(3), FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)
	assert.Contains(t, contentType, "spreadsheetml")

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Export")
	require.NoError(t, err)
	// title, generated, blank, header, 3 rows
	require.Len(t, rows, 7)
	assert.Equal(t, "Contacts", rows[0][0])
	assert.Equal(t, []string{"Name", "Email", "Phone"}, rows[3])
	assert.Equal(t, "ana@example.com", rows[4][1])
}

func TestExportCSV(t *testing.T) {
	body, contentType, _, err := NewService().Export(sampleTable(2), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Email,Phone", lines[0])
	assert.Equal(t, "Ana,ana@example.com,", lines[1])
}

func TestExportPDFPaginates(t *testing.T) {
	body, contentType, _, err := NewService().Export(sampleTable(120), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestExportPDFRequiresHeaders(t *testing.T) {
	_, _, _, err := NewService().Export(&Table{}, FormatPDF)
	assert.Error(t, err)
}

func TestExportUnknownFormat(t *testing.T) {
	_, _, _, err := NewService().Export(sampleTable(1), Format("docx"))
	assert.Error(t, err)
}
