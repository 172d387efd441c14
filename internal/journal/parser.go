package journal

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/starford/daybook/internal/models"
)

// Result holds the records recovered from a document.
type Result struct {
	Notes     []models.Note
	Todos     []models.Todo
	Schedules []models.Schedule

	// Dropped counts items that appeared under a heading whose date could
	// not be parsed and were therefore discarded.
	Dropped int
	// BadHeadings lists the date heading texts that matched neither grammar.
	BadHeadings []string
}

// Count returns the number of recovered records.
func (r *Result) Count() int {
	return len(r.Notes) + len(r.Todos) + len(r.Schedules)
}

// Journal returns the recovered records as a Journal.
func (r *Result) Journal() Journal {
	return Journal{Notes: r.Notes, Todos: r.Todos, Schedules: r.Schedules}
}

type section int

const (
	sectionNone section = iota
	sectionNotes
	sectionTodos
	sectionSchedules
)

func sectionOf(emoji string) section {
	switch emoji {
	case emojiNotes:
		return sectionNotes
	case emojiTodos:
		return sectionTodos
	case emojiSchedules:
		return sectionSchedules
	}
	return sectionNone
}

// noteBuffer accumulates the note currently being read.
type noteBuffer struct {
	active    bool
	at        time.Time
	lines     []string
	tags      []string
	inContent bool // inside a body paragraph; attribute-shaped lines are text there
	blanks    int  // blank lines seen since the last body line
}

// parseState is the whole state of the line-by-line parse.
type parseState struct {
	opts    *options
	date    models.Date
	dateKey string
	hasDate bool
	section section
	note    noteBuffer
	res     *Result
}

func newParseState(o *options) *parseState {
	return &parseState{opts: o, res: &Result{}}
}

// Parse recovers notes, todos and schedules from a document produced by
// Serialize or edited by hand. It never fails: lines outside the grammar are
// skipped, and items under an unparseable date heading are dropped and counted.
func Parse(doc string, opts ...Option) *Result {
	st := newParseState(newOptions(opts))
	c := newCursor(doc)
	for line, ok := c.next(); ok; line, ok = c.next() {
		st.step(line, c)
	}
	st.finish()
	return st.res
}

// step applies one line. Item handlers may consume look-ahead lines from c.
func (s *parseState) step(raw string, c *cursor) {
	line := strings.TrimSpace(raw)

	switch {
	case line == "":
		s.blank()
		return
	case line == separator:
		s.endNoteBody()
		return
	case isHeading(line):
		s.heading(line)
		return
	}

	switch s.section {
	case sectionNotes:
		s.noteLine(strings.TrimRight(raw, " \t\r"), line)
	case sectionTodos:
		s.todoLine(line, c)
	case sectionSchedules:
		s.scheduleLine(line, c)
	}
}

// heading dispatches heading lines. Sub-heading patterns are checked before
// the date heading so "### 📝 ..." is never mistaken for a date.
func (s *parseState) heading(line string) {
	if m := noteHeadRe.FindStringSubmatch(line); m != nil && s.section == sectionNotes {
		s.startNote(m[1], m[2])
		return
	}
	if m := sectionRe.FindStringSubmatch(line); m != nil {
		s.flushNote()
		s.section = sectionOf(m[1])
		return
	}
	if strings.HasPrefix(line, "## ") {
		s.enterDate(strings.TrimSpace(line[len("## "):]))
		return
	}
	s.flushNote()
}

func (s *parseState) enterDate(text string) {
	s.flushNote()
	s.section = sectionNone

	d, ok := ParseHeadingDate(text)
	if !ok {
		s.hasDate = false
		s.date = models.Date{}
		s.dateKey = ""
		s.res.BadHeadings = append(s.res.BadHeadings, text)
		s.opts.logger.Warn("journal: unparseable date heading, skipping its items",
			slog.String("heading", text))
		return
	}
	s.hasDate = true
	s.date = d
	s.dateKey = DateKey(d)
}

func (s *parseState) startNote(hh, mm string) {
	s.flushNote()
	if !s.hasDate {
		s.res.Dropped++
		return
	}
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h > 23 || m > 59 {
		s.res.Dropped++
		s.opts.logger.Warn("journal: note heading has an impossible time, skipping the note",
			slog.String("time", hh+":"+mm), slog.String("date", s.dateKey))
		return
	}
	s.note = noteBuffer{
		active: true,
		at:     time.Date(s.date.Year, s.date.Month, s.date.Day, h, m, 0, 0, s.opts.loc),
	}
}

func (s *parseState) noteLine(raw, line string) {
	if !s.note.active {
		return
	}
	// Attribute lines count as metadata only between paragraphs: directly
	// under the heading or after a blank line.
	if !s.note.inContent {
		if label, value, ok := parseAttr(line); ok {
			if label == attrTags {
				s.note.tags = append(s.note.tags, parseTagList(value)...)
			}
			return
		}
	}
	if len(s.note.lines) > 0 {
		for ; s.note.blanks > 0; s.note.blanks-- {
			s.note.lines = append(s.note.lines, "")
		}
	}
	s.note.blanks = 0
	s.note.lines = append(s.note.lines, unescapeBodyLine(raw))
	s.note.inContent = true
}

func (s *parseState) blank() {
	if s.note.active && len(s.note.lines) > 0 {
		s.note.blanks++
	}
	s.endNoteBody()
}

func (s *parseState) endNoteBody() {
	s.note.inContent = false
}

// flushNote emits the buffered note, lifting inline #tags out of the body.
func (s *parseState) flushNote() {
	if !s.note.active {
		return
	}
	body := strings.Join(s.note.lines, "\n")
	tags := dedupTags(append(s.note.tags, extractTags(body)...))
	s.res.Notes = append(s.res.Notes, models.Note{
		Content:   stripTags(body),
		Tags:      tags,
		CreatedAt: s.note.at,
	})
	s.note = noteBuffer{}
}

func (s *parseState) todoLine(line string, c *cursor) {
	m := todoItemRe.FindStringSubmatch(line)
	if m == nil {
		return
	}
	if !s.hasDate {
		s.res.Dropped++
		return
	}
	todo := models.Todo{
		Date:      s.date,
		Content:   strings.TrimSpace(m[2]),
		Completed: m[1] == markDone,
	}
	s.readTodoAttrs(&todo, c)
	s.res.Todos = append(s.res.Todos, todo)
}

// readTodoAttrs consumes the attribute lines directly below a todo. It stops
// at the first line that is not a known todo attribute, which includes blank
// lines and the next numbered item.
func (s *parseState) readTodoAttrs(todo *models.Todo, c *cursor) {
	for {
		raw, ok := c.peek()
		if !ok {
			return
		}
		label, value, ok := parseAttr(strings.TrimSpace(raw))
		if !ok {
			return
		}
		switch label {
		case attrTags:
			todo.Tags = parseTagList(value)
		case attrDueDate:
			todo.DueDate = s.attrDate(label, value)
		case attrStartDate:
			todo.StartDate = s.attrDate(label, value)
		default:
			return
		}
		c.advance()
	}
}

func (s *parseState) attrDate(label, value string) *models.Date {
	d, ok := ParseHeadingDate(value)
	if !ok {
		s.opts.logger.Debug("journal: ignoring invalid date attribute",
			slog.String("attribute", label), slog.String("value", value), slog.String("date", s.dateKey))
		return nil
	}
	return &d
}

func (s *parseState) scheduleLine(line string, c *cursor) {
	m := schedItemRe.FindStringSubmatch(line)
	if m == nil {
		return
	}
	if !s.hasDate {
		s.res.Dropped++
		return
	}
	sched := models.Schedule{
		Date:  s.date,
		Time:  strings.TrimSpace(m[1]),
		Title: strings.TrimSpace(m[2]),
	}
	s.readScheduleAttrs(&sched, c)
	s.res.Schedules = append(s.res.Schedules, sched)
}

// readScheduleAttrs consumes an optional description line and an optional
// type attribute, in either order.
func (s *parseState) readScheduleAttrs(sched *models.Schedule, c *cursor) {
	for {
		raw, ok := c.peek()
		if !ok {
			return
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			return
		}
		label, value, isAttr := parseAttr(line)
		if isAttr && label == attrType {
			if t := models.ScheduleType(strings.ToLower(value)); t.Valid() {
				sched.Type = t
			} else {
				s.opts.logger.Debug("journal: ignoring unknown schedule type",
					slog.String("value", value), slog.String("date", s.dateKey))
			}
			c.advance()
			continue
		}
		if sched.Description != "" {
			return
		}
		// An indented line is a continuation of the item whatever it looks
		// like; an unindented one must not look like structure.
		continuation := strings.HasPrefix(raw, attrIndent) || strings.HasPrefix(raw, "\t")
		if !continuation && (isAttr || line == separator || isHeading(line) || numberedRe.MatchString(line)) {
			return
		}
		sched.Description = line
		c.advance()
	}
}

func (s *parseState) finish() {
	s.flushNote()
}
