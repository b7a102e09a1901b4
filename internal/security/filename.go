// Package security guards file names derived from user-supplied labels.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxFilenameLen bounds sanitised names to avoid overly long paths.
const maxFilenameLen = 128

// SanitizeFilename makes a safe file name from an arbitrary label. Each run
// of characters other than ASCII letters, digits, dot or dash becomes a
// single underscore; leading and trailing dots and underscores are trimmed.
// An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// JoinWithin joins name onto dir and rejects results that escape dir. The
// check is lexical so it also works for in-memory filesystems.
func JoinWithin(dir, name string) (string, error) {
	cleanDir := filepath.Clean(dir)
	joined := filepath.Join(cleanDir, name)

	rel, err := filepath.Rel(cleanDir, joined)
	if err != nil {
		return "", fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path traversal detected: %q escapes %s", name, dir)
	}
	return joined, nil
}
