package convert

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLConverter passes HTML snapshots through largely as-is, stripping
// active content (scripts, embedded frames) so the rendering surface
// stays inert.
type HTMLConverter struct{}

var strippedTags = map[string]bool{
	"script": true, "iframe": true, "object": true, "embed": true,
}

func (c *HTMLConverter) Convert(r io.Reader, filename string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	stripActive(doc)
	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func stripActive(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && strippedTags[c.Data] {
			n.RemoveChild(c)
		} else {
			stripActive(c)
		}
		c = next
	}
}
