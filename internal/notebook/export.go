// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ExportHTML renders nb as a standalone HTML page. Markdown cells are
// converted with goldmark; code and raw cells become escaped pre blocks.
func ExportHTML(nb *Notebook, title string, w io.Writer) error {
	var body bytes.Buffer
	for i, c := range nb.Cells {
		switch c.CellType {
		case MarkdownCell:
			body.WriteString("<section class=\"markdown\">\n")
			if err := markdown.Convert([]byte(c.Source), &body); err != nil {
				return fmt.Errorf("rendering cell %d: %w", i, err)
			}
			body.WriteString("</section>\n")
		case CodeCell:
			fmt.Fprintf(&body, "<pre class=\"code\"><code class=\"language-python\">%s</code></pre>\n", html.EscapeString(string(c.Source)))
		case RawCell:
			fmt.Fprintf(&body, "<pre class=\"raw\">%s</pre>\n", html.EscapeString(string(c.Source)))
		}
	}

	_, err := fmt.Fprintf(w, pageTemplate, html.EscapeString(title), body.String())
	return err
}

// ExportName returns the HTML file name for a notebook path.
func ExportName(path string) string {
	return strings.TrimSuffix(path, Extension) + ".html"
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { max-width: 52rem; margin: 2rem auto; font-family: sans-serif; line-height: 1.5; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; }
</style>
</head>
<body>
%s</body>
</html>
`
