package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// CSVConverter renders CSV files as an HTML table, first row as the
// header.
type CSVConverter struct{}

func (c *CSVConverter) Convert(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}

	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var buf strings.Builder
	writeDocHead(&buf, title)
	if len(records) > 0 {
		buf.WriteString("<table>\n<thead><tr>")
		for _, cell := range records[0] {
			buf.WriteString("<th>" + html.EscapeString(cell) + "</th>")
		}
		buf.WriteString("</tr></thead>\n<tbody>\n")
		for _, row := range records[1:] {
			buf.WriteString("<tr>")
			for _, cell := range row {
				buf.WriteString("<td>" + html.EscapeString(cell) + "</td>")
			}
			buf.WriteString("</tr>\n")
		}
		buf.WriteString("</tbody>\n</table>\n")
	}
	writeDocFoot(&buf)
	return buf.String(), nil
}
