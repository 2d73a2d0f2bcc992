package convert

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// TextConverter renders plain text files: blank-line separated runs
// become paragraphs, with line breaks inside a run preserved.
type TextConverter struct{}

func (c *TextConverter) Convert(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var buf strings.Builder
	writeDocHead(&buf, title)
	for _, para := range paragraphs {
		buf.WriteString("<p>")
		for i, line := range strings.Split(para, "\n") {
			if i > 0 {
				buf.WriteString("<br>")
			}
			buf.WriteString(html.EscapeString(line))
		}
		buf.WriteString("</p>\n")
	}
	writeDocFoot(&buf)
	return buf.String(), nil
}
