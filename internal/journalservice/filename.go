package journalservice

import (
	"strings"
	"time"
	"unicode"
)

const filenamePrefix = "journal"

// ExportFilename names an export file: journal[-<term>]-YYYYMMDD-HHMMSS.md.
func ExportFilename(query string, at time.Time) string {
	parts := []string{filenamePrefix}
	if term := sanitizeTerm(query); term != "" {
		parts = append(parts, term)
	}
	parts = append(parts, at.Format("20060102-150405"))
	return strings.Join(parts, "-") + ".md"
}

// sanitizeTerm replaces characters that are unsafe in file names with '_'.
func sanitizeTerm(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsSpace(r), unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if r := []rune(out); len(r) > 40 {
		out = string(r[:40])
	}
	return out
}
