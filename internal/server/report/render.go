package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

// Raw HTML stays disabled: user text is escaped before it reaches markdown,
// and anything that slips through is dropped by the renderer.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Inspection Report: {{.Name}}</title>
<style>body{font-family:Arial,sans-serif;margin:24px}h1{margin-bottom:0}.meta{color:#555}table{width:100%;border-collapse:collapse;margin-top:12px}td,th{border:1px solid #ddd;padding:8px;text-align:left}th{background:#f5f5f5}</style>
</head><body>
<h1>{{.Name}}</h1>
<div class="meta">Industry: {{.Industry}} &middot; Generated: {{.Generated}}</div>
{{.Body}}
</body></html>
`))

const dateLayout = "2006-01-02"

// Markdown renders the report body as GitHub-flavoured markdown. Every user
// supplied value is escaped.
func Markdown(r Report) string {
	var b strings.Builder

	writeTasks(&b, "Open Tasks", r.Open, r, "No open tasks.")
	writeTasks(&b, "Completed Tasks", r.Done, r, "No completed tasks.")

	fmt.Fprintf(&b, "## Documents (%d)\n\n", len(r.Documents))
	if len(r.Documents) == 0 {
		b.WriteString("_No documents._\n\n")
	} else {
		b.WriteString("| Name | Type | Note | Uploaded |\n|---|---|---|---|\n")
		for _, d := range r.Documents {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				escapeCell(d.OriginalName), escapeCell(d.ContentType), escapeCell(d.Note), d.UploadedAt.UTC().Format(dateLayout))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeTasks(b *strings.Builder, title string, tasks []*models.Task, r Report, empty string) {
	fmt.Fprintf(b, "## %s (%d)\n\n", title, len(tasks))
	if len(tasks) == 0 {
		fmt.Fprintf(b, "_%s_\n\n", empty)
		return
	}

	b.WriteString("| Task | Due | Description |\n|---|---|---|\n")
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(dateLayout)
			if t.IsOverdue(r.GeneratedAt) {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", escapeCell(t.Title), due, escapeCell(t.Description))
	}
	b.WriteString("\n")
}

// RenderHTML produces the complete report page.
func RenderHTML(r Report) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(r)), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	industry, name := "", ""
	if r.Binder != nil {
		name, industry = r.Binder.Name, r.Binder.Industry
	}

	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Name      string
		Industry  string
		Generated string
		Body      template.HTML
	}{
		Name:      name,
		Industry:  industry,
		Generated: r.GeneratedAt.UTC().Format(dateLayout),
		// goldmark output of escaped input, raw HTML disabled
		Body: template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return out.Bytes(), nil
}

var cellEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`\`, `\\`,
	"|", `\|`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"!", `\!`,
	"#", `\#`,
	"~", `\~`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// escapeCell makes arbitrary text safe inside a markdown table cell.
func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}
