package extractor

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

func extractPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}

func extractDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// GetContent returns the raw document XML; pull the run text out of it.
	return tagText(r.Editable().GetContent(), "w:t"), nil
}

func extractPPTX(path string) (string, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text.WriteString(tagText(string(data), "a:t"))
		text.WriteString("\n")
	}
	return text.String(), nil
}

func extractXLSX(path string) (string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		fmt.Fprintf(&text, "Sheet: %s\n", sheet.Name)
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

func extractODS(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		fmt.Fprintf(&text, "Sheet: %s\n", sheetName)
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

// tagText pulls the character data of every <tag>...</tag> pair out of an
// OOXML document fragment. Attributes on the opening tag are tolerated.
func tagText(xmlContent, tag string) string {
	var text strings.Builder
	closing := "</" + tag + ">"
	parts := strings.Split(xmlContent, "<"+tag)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		// Splitting on "<w:t" also hits "<w:tbl" and friends; a real match
		// continues with ">" or an attribute list.
		if !strings.HasPrefix(part, ">") && !strings.HasPrefix(part, " ") {
			continue
		}
		gt := strings.Index(part, ">")
		if gt < 0 {
			continue
		}
		rest := part[gt+1:]
		if end := strings.Index(rest, closing); end >= 0 {
			text.WriteString(rest[:end] + " ")
		}
	}
	return text.String()
}
