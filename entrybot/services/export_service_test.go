package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/metrics"
)

type fakePDF struct {
	html string
}

func (f *fakePDF) RenderPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	return []byte("%PDF-fake"), nil
}

func sampleRows(n int) []models.ExportRow {
	rows := make([]models.ExportRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.ExportRow{
			VenueCode: "42",
			VenueName: "Cafe",
			Username:  "hana",
			Nickname:  "Hana",
			VisitDate: jan(1),
			VisitTime: "10:00:00",
		})
	}
	return rows
}

func TestEncodeCSV(t *testing.T) {
	rows := sampleRows(2)
	rows[1].Nickname = "comma, inside"

	data, err := EncodeCSV(rows)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{"Cafe", "hana", "Hana", "2024-01-01", "10:00:00"}, records[1])
	assert.Equal(t, "comma, inside", records[2][2])
}

func TestEncodeXLSX(t *testing.T) {
	data, err := EncodeXLSX(sampleRows(3))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "2024-01-01", rows[3][3])
}

func TestPDFDocumentLimits(t *testing.T) {
	rows := sampleRows(pdfMaxRows + 20)
	rows[0].VenueName = strings.Repeat("가", 30)

	doc, err := PDFDocument(rows)
	require.NoError(t, err)
	assert.Equal(t, pdfMaxRows+1, strings.Count(doc, "<tr>"))
	assert.Contains(t, doc, strings.Repeat("가", pdfMaxCellRune)+"</td>")
	assert.NotContains(t, doc, strings.Repeat("가", pdfMaxCellRune+1))
}

func TestPDFDocumentEscapes(t *testing.T) {
	rows := sampleRows(1)
	rows[0].Nickname = "<b>x</b>"

	doc, err := PDFDocument(rows)
	require.NoError(t, err)
	assert.NotContains(t, doc, "<b>x</b>")
}

func TestExportServiceExport(t *testing.T) {
	_, venues, visits, c := newStatsFixture(t)
	ctx := context.Background()
	require.NoError(t, venues.Create(ctx, &models.Venue{Code: "42", Name: "Cafe", OwnerID: 9}))
	mustRecord(t, visits, "42", userA, "a", 1)
	mustRecord(t, visits, "42", userB, "b", 2)
	mustRecord(t, visits, "07", userB, "b", 2)

	pdf := &fakePDF{}
	svc := NewExportService(visits, c, metrics.Noop(), pdf)

	file, err := svc.Export(ctx, FormatCSV, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, file.Rows)
	assert.Equal(t, "visits_20240105_120000.csv", file.Name)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	code := "42"
	file, err = svc.Export(ctx, FormatPDF, &code)
	require.NoError(t, err)
	assert.Equal(t, 2, file.Rows)
	assert.Equal(t, []byte("%PDF-fake"), file.Data)
	assert.Contains(t, pdf.html, "Cafe")

	_, err = svc.Export(ctx, ExportFormat("doc"), nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseExportFormat("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExportFileName(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 59, 1, 0, time.UTC)
	assert.Equal(t, "visits_20240310_085901.xlsx", ExportFileName(at, FormatXLSX))
}
