package api

import (
	"bytes"
	_ "embed"
	"html/template"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed assets/index.md
var indexMarkdown []byte

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="no">
<head>
<meta charset="utf-8">
<title>PDF-prisfjerner</title>
</head>
<body>
{{.Body}}
<form action="/upload" method="post" enctype="multipart/form-data">
<input type="file" name="files" accept=".pdf,application/pdf" multiple>
<button type="submit">Last opp</button>
</form>
<p>Maks filstørrelse: {{.MaxSize}}</p>
<form action="/process" method="post"><button type="submit">Behandle filer</button></form>
<form action="/download-all" method="get"><button type="submit">Last ned alle</button></form>
<form action="/cleanup" method="post"><button type="submit">Rydd opp</button></form>
</body>
</html>
`))

// renderIndex converts the embedded Markdown into the landing page
func renderIndex(maxFileSize int64) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert(indexMarkdown, &body); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Body    template.HTML
		MaxSize string
	}{
		Body:    template.HTML(body.String()),
		MaxSize: formatSize(maxFileSize),
	})
	if err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}

func formatSize(n int64) string {
	switch {
	case n <= 0:
		return "ubegrenset"
	case n >= 1<<20 && n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + " MB"
	case n >= 1<<10 && n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " B"
	}
}
