package journal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/daybook/internal/models"
)

// dateGroup collects the records anchored on one calendar day.
type dateGroup struct {
	date      models.Date
	notes     []models.Note
	todos     []models.Todo
	schedules []models.Schedule
}

// Serialize renders j as a Markdown document grouped by day, newest first.
// It never fails; an empty journal yields a header-only document.
func Serialize(j Journal, opts ...Option) string {
	o := newOptions(opts)

	var b strings.Builder
	writeHeader(&b, j, o)
	for _, g := range partition(j, o) {
		writeGroup(&b, g, o)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, j Journal, o *options) {
	fmt.Fprintf(b, "# %s\n\n", o.title)
	if !o.generatedAt.IsZero() {
		fmt.Fprintf(b, "> 导出时间: %s\n", o.generatedAt.In(o.loc).Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(b, "> 共 %d 条%s · %d 条%s · %d 条%s\n\n",
		len(j.Notes), labelNotes, len(j.Todos), labelTodos, len(j.Schedules), labelSchedules)
}

// partition assigns every record to the group of its anchor day and returns
// the groups in descending date order.
func partition(j Journal, o *options) []*dateGroup {
	byDate := make(map[models.Date]*dateGroup)
	group := func(d models.Date) *dateGroup {
		g, ok := byDate[d]
		if !ok {
			g = &dateGroup{date: d}
			byDate[d] = g
		}
		return g
	}

	for _, n := range j.Notes {
		g := group(models.DateOf(n.CreatedAt.In(o.loc)))
		g.notes = append(g.notes, n)
	}
	for _, t := range j.Todos {
		g := group(todoAnchor(t))
		g.todos = append(g.todos, t)
	}
	for _, s := range j.Schedules {
		g := group(s.Date)
		g.schedules = append(g.schedules, s)
	}

	groups := make([]*dateGroup, 0, len(byDate))
	for _, g := range byDate {
		sort.SliceStable(g.notes, func(a, b int) bool {
			return g.notes[a].CreatedAt.After(g.notes[b].CreatedAt)
		})
		groups = append(groups, g)
	}
	sort.Slice(groups, func(a, b int) bool {
		return groups[a].date.After(groups[b].date)
	})
	return groups
}

// todoAnchor is the day a todo is filed under, falling back to its due date.
func todoAnchor(t models.Todo) models.Date {
	switch {
	case !t.Date.IsZero():
		return t.Date
	case t.DueDate != nil:
		return *t.DueDate
	case t.StartDate != nil:
		return *t.StartDate
	}
	return models.Date{}
}

func writeGroup(b *strings.Builder, g *dateGroup, o *options) {
	fmt.Fprintf(b, "## %s\n\n", DateKey(g.date))

	if len(g.notes) > 0 {
		fmt.Fprintf(b, "### %s %s (%d)\n\n", emojiNotes, labelNotes, len(g.notes))
		for i, n := range g.notes {
			writeNote(b, i+1, n, o)
		}
	}
	if len(g.todos) > 0 {
		fmt.Fprintf(b, "### %s %s (%d)\n\n", emojiTodos, labelTodos, len(g.todos))
		for i, t := range g.todos {
			writeTodo(b, i+1, t)
		}
		b.WriteString("\n")
	}
	if len(g.schedules) > 0 {
		fmt.Fprintf(b, "### %s %s (%d)\n\n", emojiSchedules, labelSchedules, len(g.schedules))
		for i, s := range g.schedules {
			writeSchedule(b, i+1, s)
		}
		b.WriteString("\n")
	}

	b.WriteString(separator + "\n\n")
}

// writeNote emits the heading, the tag line and the body of one note. Tags
// embedded in the content are lifted into the tag line.
func writeNote(b *strings.Builder, ordinal int, n models.Note, o *options) {
	fmt.Fprintf(b, "#### %s - %s %d\n", n.CreatedAt.In(o.loc).Format("15:04"), labelNotes, ordinal)

	blob := n.Content
	if len(n.Tags) > 0 {
		blob += " " + formatTagList(n.Tags)
	}
	if tags := dedupTags(extractTags(blob)); len(tags) > 0 {
		b.WriteString(attrLine(attrTags, formatTagList(tags)) + "\n")
	}
	if body := stripTags(blob); body != "" {
		for _, line := range strings.Split(body, "\n") {
			b.WriteString(escapeBodyLine(line) + "\n")
		}
	}
	b.WriteString("\n")
}

func writeTodo(b *strings.Builder, ordinal int, t models.Todo) {
	mark := markOpen
	if t.Completed {
		mark = markDone
	}
	b.WriteString(strings.TrimRight(fmt.Sprintf("%d. %s %s", ordinal, mark, oneLine(t.Content)), " ") + "\n")

	if tags := dedupTags(t.Tags); len(tags) > 0 {
		b.WriteString(attrIndent + attrLine(attrTags, formatTagList(tags)) + "\n")
	}
	if t.DueDate != nil {
		b.WriteString(attrIndent + attrLine(attrDueDate, t.DueDate.String()) + "\n")
	}
	if t.StartDate != nil {
		b.WriteString(attrIndent + attrLine(attrStartDate, t.StartDate.String()) + "\n")
	}
}

func writeSchedule(b *strings.Builder, ordinal int, s models.Schedule) {
	b.WriteString(strings.TrimRight(fmt.Sprintf("%d. **%s** - %s", ordinal, oneLine(s.Time), oneLine(s.Title)), " ") + "\n")

	if desc := oneLine(s.Description); desc != "" {
		b.WriteString(attrIndent + desc + "\n")
	}
	if s.Type != "" {
		b.WriteString(attrIndent + attrLine(attrType, string(s.Type)) + "\n")
	}
}
