package journal

import (
	"log/slog"
	"time"

	"github.com/starford/daybook/internal/models"
)

// Journal holds the three record collections exchanged with the codec.
type Journal struct {
	Notes     []models.Note
	Todos     []models.Todo
	Schedules []models.Schedule
}

// Len returns the total number of records in j.
func (j Journal) Len() int {
	return len(j.Notes) + len(j.Todos) + len(j.Schedules)
}

// Option configures Serialize and Parse.
type Option func(*options)

type options struct {
	loc         *time.Location
	logger      *slog.Logger
	generatedAt time.Time
	title       string
}

// WithLocation sets the time zone used to derive calendar days and clock
// times from note timestamps. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithLogger sets the logger for parse diagnostics. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithGeneratedAt adds an export timestamp line to the document header.
func WithGeneratedAt(t time.Time) Option {
	return func(o *options) {
		o.generatedAt = t
	}
}

// WithTitle overrides the document title.
func WithTitle(title string) Option {
	return func(o *options) {
		if title != "" {
			o.title = title
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		loc:    time.Local,
		logger: slog.Default(),
		title:  defaultTitle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
