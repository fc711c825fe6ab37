package rag

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file extensions the extractor
// does not handle.
var ErrUnsupportedFormat = fmt.Errorf("unsupported document format")

// Extractor pulls plain text out of document files by extension.
// Supported: .pdf, .docx, .txt, .md, .markdown.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Supported reports whether the extractor handles the file's extension.
func (e *Extractor) Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// Extract returns the plain text of the file at path. A file that
// exists but cannot be parsed yields empty text and a warning log, not
// an error; unreadable files and unsupported extensions are errors.
func (e *Extractor) Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(path)
	case ".docx":
		return e.extractDOCX(path)
	case ".txt", ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (e *Extractor) extractPDF(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		e.logger.Warn("pdf parse failed", "path", path, "error", err)
		return "", nil
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("pdf page extraction failed", "path", path, "page", i, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// docx body XML, just enough structure to collect runs per paragraph.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

func (e *Extractor) extractDOCX(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		e.logger.Warn("docx parse failed", "path", path, "error", err)
		return "", nil
	}
	defer func() { _ = zr.Close() }()

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			e.logger.Warn("docx parse failed", "path", path, "error", err)
			return "", nil
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			e.logger.Warn("docx parse failed", "path", path, "error", err)
			return "", nil
		}
		break
	}
	if docXML == nil {
		e.logger.Warn("docx has no document body", "path", path)
		return "", nil
	}

	var doc docxDocument
	if err := xml.NewDecoder(bytes.NewReader(docXML)).Decode(&doc); err != nil {
		e.logger.Warn("docx parse failed", "path", path, "error", err)
		return "", nil
	}

	var sb strings.Builder
	for _, p := range doc.Body.Paragraphs {
		for _, r := range p.Runs {
			sb.WriteString(r.Text)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
