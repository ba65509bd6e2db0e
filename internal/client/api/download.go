package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SanitizeFilename derives a filesystem-safe filename from entity metadata:
// spaces become underscores and path-unsafe characters are stripped.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	return strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
}

// SaveDownload writes a downloaded document under dir using the sanitized
// name and returns the full path written.
func SaveDownload(dir, name string, data []byte) (string, error) {
	name = SanitizeFilename(name)
	if name == "" {
		return "", fmt.Errorf("empty filename after sanitizing")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}
	return path, nil
}
