package services

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"

	"github.com/username/stationetl/src/models"
)

// maxReportRows caps the row table of a mailed report.
const maxReportRows = 200

var reportHTML = template.Must(template.New("report").Parse(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.4;">
<h2>Report ETL {{.Category}} - {{.ReportDate}}</h2>
<p>File: <b>{{.FileName}}</b> &rarr; {{.Destination}}{{if .Error}} ({{.Error}}){{end}}</p>
<table border="1" cellpadding="4" style="border-collapse: collapse;">
<tr><th>Rows</th><th>Modified</th><th>Skipped</th><th>Errored</th><th>Warnings</th></tr>
<tr><td>{{.TotalRows}}</td><td>{{.Modified}}</td><td>{{.Skipped}}</td><td>{{.Errored}}</td><td>{{.Warnings}}</td></tr>
</table>
{{if .Metrics}}<h3>Metrics</h3><ul>{{range .Metrics}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Duplicates}}<h3>Duplicate keys</h3>
<table border="1" cellpadding="4" style="border-collapse: collapse;">
<tr><th>Key</th><th>Lines</th></tr>
{{range .Duplicates}}<tr><td>{{.Key}}</td><td>{{.Lines}}</td></tr>
{{end}}</table>{{end}}
{{if .NewRefValues}}<h3>New reference values</h3><p>{{.NewRefValues}}</p>{{end}}
{{if .Rows}}<h3>Rows not modified</h3>
<table border="1" cellpadding="4" style="border-collapse: collapse;">
<tr><th>Line</th><th>Key</th><th>Outcome</th><th>Reason</th></tr>
{{range .Rows}}<tr><td>{{.Line}}</td><td>{{.Key}}</td><td>{{.Outcome}}</td><td>{{.Reason}}</td></tr>
{{end}}</table>{{if .Truncated}}<p>{{.Truncated}} more rows omitted.</p>{{end}}{{end}}
{{if .LogLines}}<h3>Log</h3><pre>{{range .LogLines}}{{.}}
{{end}}</pre>{{end}}
</body>
</html>`))

type reportView struct {
	models.Report
	Metrics      []string
	Duplicates   []duplicateView
	NewRefValues string
	Rows         []models.RowDetail
	Truncated    int
}

type duplicateView struct {
	Key   string
	Lines string
}

// formatDuplicate renders a key tuple as "COL=value, ..." in column order and
// its line numbers as a comma-separated list.
func formatDuplicate(d models.DuplicateKey) duplicateView {
	cols := make([]string, 0, len(d.Fields))
	for c := range d.Fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + "=" + d.Fields[c]
	}
	lines := make([]string, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = strconv.Itoa(l)
	}
	return duplicateView{Key: strings.Join(parts, ", "), Lines: strings.Join(lines, ", ")}
}

// ReportSubject is the mail subject used for a report.
func ReportSubject(r models.Report) string {
	status := "OK"
	if r.Destination != DestinationOK {
		status = "ERROR"
	}
	return fmt.Sprintf("Report ETL %s %s - %s [%s]", r.Category, r.ReportDate, r.FileName, status)
}

// RenderReportHTML renders the mailed form of a report. Only rows that were
// not modified are listed.
func RenderReportHTML(r models.Report) (string, error) {
	v := reportView{Report: r, NewRefValues: strings.Join(r.NewRefValues, ", ")}
	for k, val := range r.Metrics {
		v.Metrics = append(v.Metrics, fmt.Sprintf("%s: %g", k, val))
	}
	sort.Strings(v.Metrics)
	for _, d := range r.Duplicates {
		v.Duplicates = append(v.Duplicates, formatDuplicate(d))
	}
	for _, row := range r.Rows {
		if row.Outcome == models.OutcomeModified.String() {
			continue
		}
		if len(v.Rows) == maxReportRows {
			v.Truncated++
			continue
		}
		v.Rows = append(v.Rows, row)
	}
	var buf bytes.Buffer
	if err := reportHTML.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// RenderReportText is the plain text fallback of RenderReportHTML.
func RenderReportText(r models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nFile: %s -> %s\n", ReportSubject(r), r.FileName, r.Destination)
	if r.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.Error)
	}
	fmt.Fprintf(&b, "Rows: %d, modified: %d, skipped: %d, errored: %d, warnings: %d\n",
		r.TotalRows, r.Modified, r.Skipped, r.Errored, r.Warnings)
	for _, d := range r.Duplicates {
		dv := formatDuplicate(d)
		fmt.Fprintf(&b, "Duplicate key %s at lines %s\n", dv.Key, dv.Lines)
	}
	if len(r.NewRefValues) > 0 {
		fmt.Fprintf(&b, "New reference values: %s\n", strings.Join(r.NewRefValues, ", "))
	}
	for _, line := range r.LogLines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
