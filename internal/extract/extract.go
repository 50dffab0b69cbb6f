// Package extract pulls plain text out of uploaded resume documents without
// any AI involvement. Unsupported or unparsable documents are handed to the
// AI extraction chain by the caller.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePlainText = "text/plain"
	MimePDF       = "application/pdf"
	MimeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedType marks a MIME type this package cannot parse locally.
var ErrUnsupportedType = errors.New("unsupported file type")

// Supported reports whether Text can handle the MIME type at all.
func Supported(mimeType string) bool {
	switch mimeType {
	case MimePlainText, MimePDF, MimeDocx:
		return true
	}
	return false
}

// Text extracts plain text from the document bytes based on MIME type.
func Text(data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty document")
	}

	switch mimeType {
	case MimePlainText:
		return string(data), nil
	case MimePDF:
		return pdfText(data)
	case MimeDocx:
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("pdf contains no extractable text")
	}
	return out, nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	out := strings.TrimSpace(doc.Editable().GetContent())
	if out == "" {
		return "", errors.New("docx contains no extractable text")
	}
	return out, nil
}
