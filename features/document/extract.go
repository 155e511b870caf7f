package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Supported upload MIME types.
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var supportedMimeTypes = map[string]bool{
	MimePDF:  true,
	MimeDOCX: true,
	MimeText: true,
}

func SupportedMimeType(mimeType string) bool {
	return supportedMimeTypes[mimeType]
}

// ExtractText pulls plain text out of a stored upload. An upload whose
// extracted text is empty after trimming yields ErrExtraction; parse
// failures do too, since both leave nothing to ingest.
func ExtractText(path, mimeType string) (string, error) {
	var text string
	var err error

	switch mimeType {
	case MimePDF:
		text, err = extractPDF(path)
	case MimeDOCX:
		text, err = extractDOCX(path)
	case MimeText:
		text, err = extractPlain(path)
	default:
		return "", fmt.Errorf("%w: unsupported mime type %q", ErrValidation, mimeType)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: document is empty", ErrExtraction)
	}
	return text, nil
}

func extractPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("read pdf buffer: %w", err)
	}
	return buf.String(), nil
}

// docx paragraph structure, just enough of the WordprocessingML schema
// to collect run text with paragraph breaks.
type docxDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("docx missing word/document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	var doc docxDocument
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var b strings.Builder
	for i, p := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range p.Runs {
			b.WriteString(r.Text)
		}
	}
	return b.String(), nil
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is server-generated under the upload dir
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return string(data), nil
}
