package utils

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/disgoorg/entry-bot/entrybot/clock"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(TemplateFuncs()).ParseFS(templateFS, "templates/*.html"))

// TemplateFuncs returns a map of functions that can be used in templates
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime":   formatTime,
		"formatNumber": formatNumber,
		"pluralize":    pluralize,
	}
}

// RenderPage executes the named page template and sends it as HTML.
func RenderPage(c *fiber.Ctx, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

// formatTime formats t in KST with the given layout
func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.In(clock.KST).Format(layout)
}

// pluralize returns the singular or plural form of a word based on count
func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// formatNumber formats a number with thousand separators
func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result bytes.Buffer
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(char)
	}
	return result.String()
}
