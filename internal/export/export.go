// Package export saves generated notes to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format of an exported note file.
type Format string

const (
	// FormatText writes plain text with a .txt extension.
	FormatText Format = "txt"
	// FormatMarkdown writes the note as Markdown with a .md extension.
	FormatMarkdown Format = "md"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatMarkdown:
		return Format(s), nil
	default:
		return "", fmt.Errorf("export: unknown format %q (supported: txt, md)", s)
	}
}

// Write saves the summary verbatim under dir, named from the sanitized
// conversation title. Returns the path written.
func Write(dir, title, summary string, format Format) (string, error) {
	if summary == "" {
		return "", fmt.Errorf("export: nothing to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: creating %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("scribe-notes-%s.%s", sanitizeTitle(title), format))
	if err := os.WriteFile(path, []byte(summary), 0o644); err != nil {
		return "", fmt.Errorf("export: writing %s: %w", path, err)
	}
	return path, nil
}

// sanitizeTitle reduces a conversation title to a safe file-name stem.
func sanitizeTitle(title string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, title)
	stem = strings.Trim(stem, "-")
	if stem == "" {
		return "session"
	}
	return stem
}
