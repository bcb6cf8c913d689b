package backend

import (
	"bytes"
	"html/template"

	"golang.org/x/net/html"

	"mdviewer/backend/render"
)

var documentTemplate = template.Must(template.New("document").Parse(`<!doctype html>
<html>
<head>
<meta charset='utf-8'>
<title>{{.Title}}</title>
<style>
body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Helvetica, Arial, sans-serif;
    padding: 1rem;
    background: white;
    color: #24292f;
}
.markdown-body {
    max-width: 900px;
    margin: auto;
}
pre {
    background: #f6f8fa;
    padding: 10px;
    overflow: auto;
    border-radius: 6px;
    border: 1px solid #e1e4e8;
}
code {
    background: rgba(27,31,35,.05);
    padding: .2em .4em;
    border-radius: 6px;
    font-size: 85%;
}
h1, h2, h3, h4 {
    border-bottom: 1px solid #e1e4e8;
    padding-bottom: .3em;
}
blockquote {
    color: #6a737d;
    border-left: .25em solid #dfe2e5;
    padding: 0 1em;
}
table {
    border-collapse: collapse;
}
td, th {
    border: 1px solid #dfe2e5;
    padding: 6px 13px;
}
@media print {
    body {
        background: white !important;
        color: black !important;
    }
    pre {
        background: white !important;
        border: 1px solid #ccc !important;
    }
}
</style>
</head>
<body class='markdown-body'>
{{.Body}}
</body>
</html>`))

// BuildDocument wraps an HTML fragment in the fixed print-friendly shell.
// The title is escaped; body is trusted and inserted as is.
func BuildDocument(title, body string) (string, error) {
	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

const (
	panelOpen  = `<div style='padding: 20px; background: #f8d7da; border: 1px solid #f5c6cb; border-radius: 4px; color: #721c24;'>`
	sourceOpen = `<hr/><pre style='background: white; padding: 10px; border: 1px solid #ddd;'>`
)

// FallbackPanel renders a render failure together with the original source
// as plain text, so the document is readable even when rendering fails.
func FallbackPanel(err *render.Error, source string) string {
	var b bytes.Buffer
	b.WriteString(panelOpen)
	if err.Unreachable() {
		b.WriteString("<h3>🔌 Rendering error</h3>")
		b.WriteString("<p><strong>🌐 Unable to contact the GitHub rendering service.</strong></p>")
		b.WriteString("<p>❌ Error: " + html.EscapeString(err.Message) + "</p>")
	} else {
		b.WriteString("<h3>💥 Rendering error</h3>")
		b.WriteString("<p>⛔ Error: " + html.EscapeString(err.Message) + "</p>")
	}
	b.WriteString("<p>The file will be shown as plain text.</p>")
	b.WriteString(sourceOpen)
	b.WriteString(html.EscapeString(source))
	b.WriteString("</pre></div>")
	return b.String()
}
