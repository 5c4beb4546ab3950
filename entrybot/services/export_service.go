package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/xuri/excelize/v2"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
	"github.com/disgoorg/entry-bot/entrybot/metrics"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
)

const (
	pdfMaxRows     = 100
	pdfMaxCellRune = 15
	xlsxSheetName  = "방문 기록"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")

	exportHeader = []string{"매장명", "사용자명", "닉네임", "방문일", "방문시간"}
	utf8BOM      = []byte{0xEF, 0xBB, 0xBF}
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f ExportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// ExportFile is a rendered export ready to be attached or downloaded.
type ExportFile struct {
	Name        string
	Format      ExportFormat
	ContentType string
	Data        []byte
	Rows        int
}

// PDFRenderer prints an HTML document to PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

type ExportService struct {
	visits  repositories.VisitRepository
	clock   clock.Clock
	metrics *metrics.Metrics
	pdf     PDFRenderer
}

func NewExportService(visits repositories.VisitRepository, c clock.Clock, m *metrics.Metrics, pdf PDFRenderer) *ExportService {
	if pdf == nil {
		pdf = NewChromePDFRenderer()
	}
	return &ExportService{visits: visits, clock: c, metrics: m, pdf: pdf}
}

// Rows returns export rows for one venue, or for every venue when code is nil.
func (s *ExportService) Rows(ctx context.Context, code *string) ([]models.ExportRow, error) {
	if code != nil && *code != "" {
		return s.visits.ExportVenue(ctx, *code)
	}
	return s.visits.ExportAll(ctx)
}

func (s *ExportService) Export(ctx context.Context, format ExportFormat, code *string) (*ExportFile, error) {
	rows, err := s.Rows(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load export rows: %w", err)
	}

	var data []byte
	switch format {
	case FormatCSV:
		data, err = EncodeCSV(rows)
	case FormatXLSX:
		data, err = EncodeXLSX(rows)
	case FormatPDF:
		data, err = s.encodePDF(ctx, rows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s export: %w", format, err)
	}

	s.metrics.IncExport(string(format))
	slog.Info("Export generated",
		slog.String("type", "sys"),
		slog.String("format", string(format)),
		slog.Int("rows", len(rows)),
		slog.Int("bytes", len(data)))

	return &ExportFile{
		Name:        ExportFileName(s.clock.Now(), format),
		Format:      format,
		ContentType: format.ContentType(),
		Data:        data,
		Rows:        len(rows),
	}, nil
}

func ExportFileName(at time.Time, format ExportFormat) string {
	return fmt.Sprintf("visits_%s.%s", at.In(clock.KST).Format("20060102_150405"), format)
}

func exportRecord(r models.ExportRow) []string {
	return []string{r.VenueName, r.Username, r.Nickname, r.VisitDate.String(), r.VisitTime}
}

// EncodeCSV writes rows with a UTF-8 byte order mark so spreadsheet apps
// pick the right encoding.
func EncodeCSV(rows []models.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write(exportRecord(r)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func EncodeXLSX(rows []models.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheetName, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(xlsxSheetName, "A1", "E1", headerStyle); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		record := exportRecord(r)
		values := make([]interface{}, len(record))
		for j, v := range record {
			values[j] = v
		}
		if err := f.SetSheetRow(xlsxSheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	for col, width := range map[string]float64{"A": 20, "B": 20, "C": 20, "D": 15, "E": 12} {
		if err := f.SetColWidth(xlsxSheetName, col, col, width); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var pdfTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
body { font-family: sans-serif; font-size: 9pt; }
table { border-collapse: collapse; width: 100%; }
th { background: #1f3fbf; color: #f5f5f5; padding: 4px 4px 12px; }
td { background: #f5f5dc; text-align: center; padding: 4px; }
th, td { border: 1px solid #000; }
</style></head><body>
<table>
<tr><th>Store</th><th>Username</th><th>Nickname</th><th>Date</th><th>Time</th></tr>
{{range .}}<tr><td>{{index . 0}}</td><td>{{index . 1}}</td><td>{{index . 2}}</td><td>{{index . 3}}</td><td>{{index . 4}}</td></tr>
{{end}}</table>
</body></html>`))

// PDFDocument renders the printable table: the first 100 rows with long
// text cells cut to 15 runes.
func PDFDocument(rows []models.ExportRow) (string, error) {
	if len(rows) > pdfMaxRows {
		rows = rows[:pdfMaxRows]
	}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			truncateRunes(r.VenueName, pdfMaxCellRune),
			truncateRunes(r.Username, pdfMaxCellRune),
			truncateRunes(r.Nickname, pdfMaxCellRune),
			r.VisitDate.String(),
			r.VisitTime,
		})
	}

	var buf strings.Builder
	if err := pdfTemplate.Execute(&buf, records); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *ExportService) encodePDF(ctx context.Context, rows []models.ExportRow) ([]byte, error) {
	doc, err := PDFDocument(rows)
	if err != nil {
		return nil, err
	}
	return s.pdf.RenderPDF(ctx, doc)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ChromePDFRenderer prints through a headless Chrome instance.
type ChromePDFRenderer struct {
	timeout time.Duration
}

func NewChromePDFRenderer() *ChromePDFRenderer {
	return &ChromePDFRenderer{timeout: 30 * time.Second}
}

func (r *ChromePDFRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)...)
	defer cancelAlloc()

	chromedpCtx, cancelChrome := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelChrome()

	var pdf []byte
	err := chromedp.Run(chromedpCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to print pdf: %w", err)
	}
	return pdf, nil
}
