package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteText(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(dir, "Session 1", "Plants convert light to energy.", FormatText)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if want := filepath.Join(dir, "scribe-notes-Session-1.txt"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if string(data) != "Plants convert light to energy." {
		t.Errorf("content = %q, want the summary verbatim", data)
	}
}

func TestWriteMarkdownExtension(t *testing.T) {
	path, err := Write(t.TempDir(), "Session 2", "# Notes", FormatMarkdown)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if filepath.Ext(path) != ".md" {
		t.Errorf("extension = %q, want .md", filepath.Ext(path))
	}
}

func TestWriteEmptySummary(t *testing.T) {
	if _, err := Write(t.TempDir(), "Session 1", "", FormatText); err == nil {
		t.Error("Write() with empty summary should fail")
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Session 1", "Session-1"},
		{"../../etc/passwd", "etcpasswd"},
		{"notas de clase: química", "notas-de-clase-qumica"},
		{"", "session"},
		{"///", "session"},
	}
	for _, tt := range tests {
		if got := sanitizeTitle(tt.in); got != tt.want {
			t.Errorf("sanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("txt"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(txt) = %v, %v", f, err)
	}
	if f, err := ParseFormat("md"); err != nil || f != FormatMarkdown {
		t.Errorf("ParseFormat(md) = %v, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("ParseFormat(pdf) should fail")
	}
}
