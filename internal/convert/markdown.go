package convert

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

// MarkdownConverter renders markdown documents through goldmark.
type MarkdownConverter struct{}

func (c *MarkdownConverter) Convert(r io.Reader, filename string) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	md := goldmark.New()
	var body strings.Builder
	if err := md.Convert(raw, &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if t := firstHeading(raw); t != "" {
		title = t
	}

	var buf strings.Builder
	writeDocHead(&buf, title)
	buf.WriteString(body.String())
	writeDocFoot(&buf)
	return buf.String(), nil
}

// firstHeading returns the text of the document's first ATX h1, if any.
func firstHeading(raw []byte) string {
	for _, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			break
		}
	}
	return ""
}
