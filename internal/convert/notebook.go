package convert

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// NotebookConverter renders Jupyter notebooks: markdown cells through
// goldmark, code cells and textual outputs as preformatted blocks, image
// outputs inlined as data URIs.
type NotebookConverter struct{}

// notebook mirrors the slice of the .ipynb schema the renderer needs.
type notebook struct {
	Cells    []notebookCell `json:"cells"`
	Metadata struct {
		Title string `json:"title"`
	} `json:"metadata"`
}

type notebookCell struct {
	CellType string         `json:"cell_type"`
	Source   multilineText  `json:"source"`
	Outputs  []cellOutput   `json:"outputs"`
	Metadata map[string]any `json:"metadata"`
}

type cellOutput struct {
	OutputType string                   `json:"output_type"`
	Text       multilineText            `json:"text"`
	Data       map[string]multilineText `json:"data"`
	Ename      string                   `json:"ename"`
	Evalue     string                   `json:"evalue"`
}

// multilineText accepts the two shapes notebook JSON uses for text: a
// single string or a list of line strings.
type multilineText string

func (m *multilineText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = multilineText(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*m = multilineText(strings.Join(lines, ""))
	return nil
}

func (c *NotebookConverter) Convert(r io.Reader, filename string) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	var nb notebook
	if err := json.Unmarshal(raw, &nb); err != nil {
		return "", fmt.Errorf("parse notebook: %w", err)
	}

	title := nb.Metadata.Title
	if title == "" {
		title = strings.TrimSuffix(filename, ".ipynb")
	}

	md := goldmark.New()
	var buf strings.Builder
	writeDocHead(&buf, title)

	for i, cell := range nb.Cells {
		fmt.Fprintf(&buf, "<section class=\"cell cell-%s\" id=\"cell-%d\">\n", cell.CellType, i)
		switch cell.CellType {
		case "markdown":
			if err := md.Convert([]byte(cell.Source), &buf); err != nil {
				return "", fmt.Errorf("render markdown cell %d: %w", i, err)
			}
		case "code":
			buf.WriteString("<pre class=\"source\"><code>")
			buf.WriteString(html.EscapeString(string(cell.Source)))
			buf.WriteString("</code></pre>\n")
			for _, out := range cell.Outputs {
				writeOutput(&buf, out)
			}
		case "raw":
			buf.WriteString("<pre class=\"raw\">")
			buf.WriteString(html.EscapeString(string(cell.Source)))
			buf.WriteString("</pre>\n")
		}
		buf.WriteString("</section>\n")
	}

	writeDocFoot(&buf)
	return buf.String(), nil
}

func writeOutput(buf *strings.Builder, out cellOutput) {
	switch out.OutputType {
	case "stream":
		buf.WriteString("<pre class=\"output\">")
		buf.WriteString(html.EscapeString(string(out.Text)))
		buf.WriteString("</pre>\n")
	case "execute_result", "display_data":
		if png, ok := out.Data["image/png"]; ok {
			data := strings.TrimSpace(string(png))
			fmt.Fprintf(buf, "<img class=\"output\" src=\"data:image/png;base64,%s\" alt=\"output\">\n", data)
			return
		}
		if txt, ok := out.Data["text/plain"]; ok {
			buf.WriteString("<pre class=\"output\">")
			buf.WriteString(html.EscapeString(string(txt)))
			buf.WriteString("</pre>\n")
		}
	case "error":
		fmt.Fprintf(buf, "<pre class=\"output error\">%s: %s</pre>\n",
			html.EscapeString(out.Ename), html.EscapeString(out.Evalue))
	}
}
