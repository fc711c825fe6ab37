package rag

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/valet-ai/valet/internal/log"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestExtract_PlainText(t *testing.T) {
	e := NewExtractor(log.NewNop())

	for _, name := range []string{"note.txt", "readme.md", "doc.markdown", "NOTE.TXT"} {
		path := writeFile(t, name, "hello world")
		text, err := e.Extract(path)
		if err != nil {
			t.Fatalf("Extract(%s): %v", name, err)
		}
		if text != "hello world" {
			t.Errorf("Extract(%s) = %q", name, text)
		}
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := NewExtractor(log.NewNop())
	path := writeFile(t, "image.png", "not text")

	if _, err := e.Extract(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestExtract_MissingFile(t *testing.T) {
	e := NewExtractor(log.NewNop())

	for _, name := range []string{"gone.txt", "gone.pdf", "gone.docx"} {
		if _, err := e.Extract(filepath.Join(t.TempDir(), name)); err == nil {
			t.Errorf("expected error for missing %s", name)
		}
	}
}

func TestExtract_CorruptPDFYieldsEmptyText(t *testing.T) {
	e := NewExtractor(log.NewNop())
	path := writeFile(t, "broken.pdf", "this is not a pdf")

	text, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestExtract_DOCX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memo.docx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating docx: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("creating entry: %v", err)
	}
	const body = `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
  </body>
</document>`
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("writing entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing file: %v", err)
	}

	e := NewExtractor(log.NewNop())
	text, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "First paragraph.\nSecond paragraph.\n"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestExtract_CorruptDOCXYieldsEmptyText(t *testing.T) {
	e := NewExtractor(log.NewNop())
	path := writeFile(t, "broken.docx", "not a zip archive")

	text, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestSupported(t *testing.T) {
	e := NewExtractor(log.NewNop())

	supported := []string{"a.pdf", "b.docx", "c.txt", "d.md", "e.markdown", "F.PDF"}
	for _, p := range supported {
		if !e.Supported(p) {
			t.Errorf("Supported(%s) = false", p)
		}
	}
	unsupported := []string{"a.png", "b.csv", "noext", "c.doc"}
	for _, p := range unsupported {
		if e.Supported(p) {
			t.Errorf("Supported(%s) = true", p)
		}
	}
}
