package journal

import "strings"

// cursor walks the lines of a document. Look-ahead readers peek at the next
// line and advance only once they have accepted it.
type cursor struct {
	lines []string
	pos   int
}

func newCursor(doc string) *cursor {
	doc = strings.TrimPrefix(doc, "\ufeff")
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	return &cursor{lines: strings.Split(doc, "\n")}
}

// next returns the current line and moves past it.
func (c *cursor) next() (string, bool) {
	line, ok := c.peek()
	if ok {
		c.pos++
	}
	return line, ok
}

// peek returns the current line without consuming it.
func (c *cursor) peek() (string, bool) {
	if c.pos >= len(c.lines) {
		return "", false
	}
	return c.lines[c.pos], true
}

func (c *cursor) advance() {
	if c.pos < len(c.lines) {
		c.pos++
	}
}
