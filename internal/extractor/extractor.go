// Package extractor turns URLs and uploaded documents into best-effort plain
// text for the question pipeline. Extraction is lossy by design; callers get
// either usable text or ErrNoContent, never silent empty output.
package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoContent means the source yielded no usable text.
var ErrNoContent = errors.New("no usable text could be extracted")

// Extraction is the best-effort plain text pulled from a source, plus its
// title when one could be determined.
type Extraction struct {
	Title string
	Text  string
}

// FromFile extracts plain text from a local document. The format is chosen
// by file extension.
func FromFile(path string) (*Extraction, error) {
	var (
		text string
		err  error
	)

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		text, err = extractPDF(path)
	case ".docx":
		text, err = extractDOCX(path)
	case ".pptx":
		text, err = extractPPTX(path)
	case ".xlsx":
		text, err = extractXLSX(path)
	case ".ods":
		text, err = extractODS(path)
	case ".md", ".markdown":
		text, err = extractMarkdown(path)
	case ".txt":
		text, err = extractText(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, filepath.Base(path))
	}

	title := strings.TrimSuffix(filepath.Base(path), ext)
	return &Extraction{Title: title, Text: text}, nil
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
