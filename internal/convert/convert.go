// Package convert renders heterogeneous source formats into the HTML the
// viewer core operates on. Converters are plain data transformation: the
// selector and find machinery only ever sees the rendered DOM.
package convert

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Converter renders raw document bytes to viewer HTML.
type Converter interface {
	Convert(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists file extensions the viewer can render.
var SupportedExtensions = map[string]bool{
	".csv":      true,
	".docx":     true,
	".html":     true,
	".htm":      true,
	".ipynb":    true,
	".md":       true,
	".markdown": true,
	".pdf":      true,
	".txt":      true,
}

// ForFile returns the appropriate converter for a filename.
func ForFile(filename string) (Converter, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".docx":
		return &DOCXConverter{}, nil
	case ".html", ".htm":
		return &HTMLConverter{}, nil
	case ".ipynb":
		return &NotebookConverter{}, nil
	case ".md", ".markdown":
		return &MarkdownConverter{}, nil
	case ".txt":
		return &TextConverter{}, nil
	case ".csv":
		return &CSVConverter{}, nil
	case ".pdf":
		return &PDFConverter{FallbackPdftotext: true}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
