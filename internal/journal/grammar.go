// Package journal converts notes, todos and schedules to and from a single
// date-grouped Markdown document.
package journal

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/starford/daybook/internal/models"
)

// Section emoji and labels.
const (
	emojiNotes     = "📝"
	emojiTodos     = "✅"
	emojiSchedules = "📅"

	labelNotes     = "笔记"
	labelTodos     = "待办"
	labelSchedules = "日程"

	markDone = "✅"
	markOpen = "⬜"

	separator = "---"

	defaultTitle = "📒 日记导出"
)

// Attribute labels, rendered as "**<label>:** value".
const (
	attrTags      = "标签"
	attrDueDate   = "截止日期"
	attrStartDate = "开始日期"
	attrType      = "类型"
)

// attrIndent makes attribute lines continuation lines of the numbered item.
const attrIndent = "   "

var weekdays = [...]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

var (
	sectionRe   = regexp.MustCompile(`^###\s+(📝|✅|📅)`)
	noteHeadRe  = regexp.MustCompile(`^####\s+(\d{1,2}):(\d{2})\s+-\s+` + labelNotes + `\s*(\d+)`)
	numberedRe  = regexp.MustCompile(`^\d+\.\s`)
	todoItemRe  = regexp.MustCompile(`^\d+\.\s+(✅|⬜)\s*(.*)$`)
	schedItemRe = regexp.MustCompile(`^\d+\.\s+\*\*(.*?)\*\*\s+-\s*(.*)$`)
	attrRe      = regexp.MustCompile(`^\*\*([^*]+?)[:：]\*\*\s*(.*)$`)
	tagRe       = regexp.MustCompile(`(?m)(?:^|[ \t]+)#([^\s#]+)`)

	cnDateRe  = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	isoDateRe = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
)

// DateKey renders d the way date headings show it, e.g. "2024年1月15日 星期一".
func DateKey(d models.Date) string {
	return fmt.Sprintf("%d年%d月%d日 %s", d.Year, int(d.Month), d.Day, weekdays[d.Weekday()])
}

// ParseHeadingDate extracts a calendar day from heading text. The Chinese
// form is tried before the ISO form; the first that yields a real day wins.
func ParseHeadingDate(text string) (models.Date, bool) {
	for _, re := range []*regexp.Regexp{cnDateRe, isoDateRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		date := models.Date{Year: y, Month: time.Month(mo), Day: d}
		if date.Valid() {
			return date, true
		}
	}
	return models.Date{}, false
}

// parseAttr splits an attribute line into label and value.
func parseAttr(line string) (label, value string, ok bool) {
	m := attrRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

func attrLine(label, value string) string {
	return "**" + label + ":** " + value
}

// parseTagList reads "#a #b" style values; bare words are accepted as tags too.
func parseTagList(value string) []string {
	// "#a#b" reads as two tags, the same way inline tags are lifted.
	return dedupTags(strings.FieldsFunc(value, func(r rune) bool {
		return r == '#' || unicode.IsSpace(r)
	}))
}

func formatTagList(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, "#"+t)
	}
	return strings.Join(parts, " ")
}

// extractTags returns the tags embedded in text, in order of appearance.
func extractTags(text string) []string {
	var out []string
	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// stripTags removes #tag tokens from every line of text and trims the result.
func stripTags(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		stripped := tagRe.ReplaceAllString(line, "")
		if stripped != line && strings.HasPrefix(line, "#") {
			stripped = strings.TrimLeft(stripped, " \t")
		}
		lines[i] = strings.TrimRight(stripped, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func dedupTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// oneLine folds line breaks so a value cannot spill onto a following line.
func oneLine(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	parts := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " ")
}

// bodyEscape prefixes note body lines that would otherwise parse as
// structure: headings, separators, attribute lines, and lines that already
// start with the escape.
const bodyEscape = `\`

func needsBodyEscape(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	_, _, attr := parseAttr(t)
	return attr || t == separator || isHeading(t) || strings.HasPrefix(t, bodyEscape)
}

func escapeBodyLine(line string) string {
	if needsBodyEscape(line) {
		return bodyEscape + line
	}
	return line
}

func unescapeBodyLine(line string) string {
	if rest, ok := strings.CutPrefix(line, bodyEscape); ok && needsBodyEscape(rest) {
		return rest
	}
	return line
}

// isHeading reports whether line is an ATX heading ("#", "## x", ...).
func isHeading(line string) bool {
	rest := strings.TrimLeft(line, "#")
	return rest != line && (rest == "" || rest[0] == ' ' || rest[0] == '\t')
}

// FileExtensions lists the file extensions accepted for import.
var FileExtensions = []string{".md", ".markdown", ".txt"}

// HasFileExtension reports whether name carries one of FileExtensions.
func HasFileExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range FileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
