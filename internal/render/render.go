// Package render formats filtered messages and error outcomes as minimal HTML pages.
package render

import (
	"embed"
	"html/template"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

//go:embed tmpl/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "tmpl/*.tmpl"))

const (
	// TimestampLayout is the display layout for message times
	TimestampLayout = "2006-01-02 15:04:05"

	// DisplayOffset is the fixed UTC+8 display offset
	DisplayOffset = 8 * time.Hour

	// EmptyPlaceholder is shown when no message survives filtering
	EmptyPlaceholder = "No matching messages"

	resultsTitle = "Results"
)

var (
	imagePlaceholderRegex = regexp.MustCompile(`\[image:[^\]]*\]`)
	lineBreakRegex        = regexp.MustCompile(`[ \t]*(\r\n|\r|\n)+[ \t]*`)
)

// Line is one rendered message
type Line struct {
	Timestamp string
	Body      string
}

// ErrorInfo is the user-facing description of a failed lookup
type ErrorInfo struct {
	Title   string
	Message string
}

type pageData struct {
	Title string
	Lines []Line
	Empty string
	Error *ErrorInfo
}

// FormatTimestamp shifts t by the display offset and formats the UTC
// fields, so output never depends on the host's time zone
func FormatTimestamp(t time.Time) string {
	return t.UTC().Add(DisplayOffset).Format(TimestampLayout)
}

// CleanBody removes [image:...] placeholders and collapses line breaks
// so each message renders as one line
func CleanBody(s string) string {
	s = imagePlaceholderRegex.ReplaceAllString(s, "")
	s = lineBreakRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Lines converts messages into display lines, keeping their order
func Lines(messages []email.Message) []Line {
	lines := make([]Line, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, Line{
			Timestamp: FormatTimestamp(m.SentAt),
			Body:      CleanBody(m.BodyText),
		})
	}
	return lines
}

// Messages writes the results page. HTML in message bodies is escaped.
func Messages(w io.Writer, messages []email.Message) error {
	return templates.ExecuteTemplate(w, "page", pageData{
		Title: resultsTitle,
		Lines: Lines(messages),
		Empty: EmptyPlaceholder,
	})
}

// Error writes an error page in the same document shell
func Error(w io.Writer, info ErrorInfo) error {
	return templates.ExecuteTemplate(w, "page", pageData{
		Title: info.Title,
		Error: &info,
	})
}
