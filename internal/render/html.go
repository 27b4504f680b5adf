// Package render lays the assembled content table out as a printable
// document: an HTML table first, then a PDF printed from it with headless
// Chromium.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/goodsign/monday"

	"wochenplan/internal/schedule"
)

// headerDateLayout is the date part of a header cell. Parsing a header
// back with the same layout must reproduce the date.
const headerDateLayout = "Monday, 2.1.2006"

// HeaderLabel formats one header cell: localized weekday, date, and the
// two-digit ISO week, e.g. "Montag, 5.1.2026 (KW: 02)".
func HeaderLabel(day time.Time, locale monday.Locale) string {
	_, week := day.ISOWeek()
	return fmt.Sprintf("%s (KW: %02d)", monday.Format(day, headerDateLayout, locale), week)
}

type pageData struct {
	Title   string
	Headers [schedule.GroupDays]string
	Rows    []pageRow
}

type pageRow [schedule.GroupDays]pageCell

type pageCell struct {
	Time string
	Text template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  @page { size: A4 landscape; margin: 8mm; }
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 9pt; }
  table { width: 100%; border-collapse: collapse; table-layout: fixed; }
  th, td { border: 1px solid #444; padding: 2px 4px; vertical-align: top; }
  th { background: #eee; }
  col.time { width: 5%; }
  col.text { width: 28.3%; }
  td.time { text-align: right; white-space: nowrap; color: #222; }
  td.text { overflow: hidden; }
</style>
</head>
<body data-ready="true">
<table>
<colgroup>{{range .Headers}}<col class="time"><col class="text">{{end}}</colgroup>
<thead>
<tr>{{range .Headers}}<th></th><th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td class="time">{{.Time}}</td><td class="text">{{.Text}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// HTML renders the content table as a standalone printable page with six
// data columns: a time label and a text column per day. Padding cells of
// shorter day grids stay blank.
func HTML(tbl schedule.Table, locale monday.Locale) ([]byte, error) {
	data := pageData{
		Title: fmt.Sprintf("%s - %s",
			tbl.Group.First().Format("2006-01-02"),
			tbl.Group.Last().Format("2006-01-02")),
	}
	for i, day := range tbl.Group.Days {
		data.Headers[i] = HeaderLabel(day, locale)
	}

	for _, row := range tbl.Rows {
		var pr pageRow
		for i, cell := range row {
			if cell.HasSlot {
				pr[i].Time = cell.Slot.Format("15:04")
			}
			pr[i].Text = cellText(cell.Lines)
		}
		data.Rows = append(data.Rows, pr)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// cellText joins a cell's lines with line breaks. Event texts may carry
// embedded newlines (summary plus description); those break too.
func cellText(lines []string) template.HTML {
	if len(lines) == 0 {
		return ""
	}
	escaped := make([]string, 0, len(lines))
	for _, line := range lines {
		escaped = append(escaped, template.HTMLEscapeString(line))
	}
	joined := strings.Join(escaped, "\n")
	return template.HTML(strings.ReplaceAll(joined, "\n", "<br>"))
}
