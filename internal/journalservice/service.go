// Package journalservice exports stored records as a journal document and
// imports journal documents back into the store.
package journalservice

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/models"
)

// Repository is the persistence the service reads from and writes to.
type Repository interface {
	CreateNote(ctx context.Context, content string, tags []string, createdAt time.Time) (*models.Note, error)
	AddTodo(ctx context.Context, date models.Date, t models.Todo) (*models.Todo, error)
	AddSchedule(ctx context.Context, date models.Date, s models.Schedule) (*models.Schedule, error)

	AllNotes(ctx context.Context) ([]models.Note, error)
	AllTodosByDate(ctx context.Context) (map[models.Date][]models.Todo, error)
	AllSchedulesByDate(ctx context.Context) (map[models.Date][]models.Schedule, error)

	SearchNotes(ctx context.Context, query string) ([]models.Note, error)
	SearchTodos(ctx context.Context, query string) ([]models.Todo, error)
	SearchSchedules(ctx context.Context, query string) ([]models.Schedule, error)
}

// Event kinds passed to the Notifier.
const (
	EventExported = "journal.exported"
	EventImported = "journal.imported"
)

// Notifier receives a notification after each export and import.
type Notifier interface {
	Notify(kind string, data any)
}

// Export is a rendered journal document.
type Export struct {
	Filename string `json:"filename"`
	Content  []byte `json:"-"`
	// Checksum covers the rendered records but not the generation time, so
	// it only changes when the exported data does.
	Checksum string `json:"checksum"`
	Records  int    `json:"records"`
	Query    string `json:"query,omitempty"`
}

// ImportSummary tallies the outcome of one import.
type ImportSummary struct {
	Source      string   `json:"source,omitempty"`
	Notes       int      `json:"notes"`
	Todos       int      `json:"todos"`
	Schedules   int      `json:"schedules"`
	Failed      int      `json:"failed"`
	Dropped     int      `json:"dropped"`
	BadHeadings []string `json:"bad_headings,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// Succeeded returns the number of records created.
func (s *ImportSummary) Succeeded() int {
	return s.Notes + s.Todos + s.Schedules
}

// Service coordinates the store and the journal codec.
type Service struct {
	repo     Repository
	loc      *time.Location
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the time zone used for calendar days. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNotifier sets the receiver of export and import events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock overrides the clock used for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new journal service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		loc:    time.Local,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone the service renders calendar days in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Export renders every record, or only those matching query when it is
// non-empty, as one journal document.
func (s *Service) Export(ctx context.Context, query string) (*Export, error) {
	query = strings.TrimSpace(query)

	var (
		j   journal.Journal
		err error
	)
	if query == "" {
		j, err = s.loadAll(ctx)
	} else {
		j, err = s.loadMatching(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	opts := []journal.Option{journal.WithLocation(s.loc)}
	if query != "" {
		opts = append(opts, journal.WithTitle("日记导出 · "+query))
	}
	stable := journal.Serialize(j, opts...)
	content := []byte(journal.Serialize(j, append(opts, journal.WithGeneratedAt(now))...))

	exp := &Export{
		Filename: ExportFilename(query, now.In(s.loc)),
		Content:  content,
		Checksum: checksum.Sum([]byte(stable)),
		Records:  j.Len(),
		Query:    query,
	}
	s.logger.Info("journal exported",
		slog.String("filename", exp.Filename),
		slog.Int("records", exp.Records),
		slog.String("query", query))
	s.notify(EventExported, exp)
	return exp, nil
}

func (s *Service) loadAll(ctx context.Context) (journal.Journal, error) {
	notes, err := s.repo.AllNotes(ctx)
	if err != nil {
		return journal.Journal{}, fmt.Errorf("load notes: %w", err)
	}
	todosByDate, err := s.repo.AllTodosByDate(ctx)
	if err != nil {
		return journal.Journal{}, fmt.Errorf("load todos: %w", err)
	}
	schedsByDate, err := s.repo.AllSchedulesByDate(ctx)
	if err != nil {
		return journal.Journal{}, fmt.Errorf("load schedules: %w", err)
	}
	return journal.Journal{
		Notes:     notes,
		Todos:     flatten(todosByDate),
		Schedules: flatten(schedsByDate),
	}, nil
}

func (s *Service) loadMatching(ctx context.Context, query string) (journal.Journal, error) {
	notes, err := s.repo.SearchNotes(ctx, query)
	if err != nil {
		return journal.Journal{}, fmt.Errorf("search notes: %w", err)
	}
	todos, err := s.repo.SearchTodos(ctx, query)
	if err != nil {
		return journal.Journal{}, fmt.Errorf("search todos: %w", err)
	}
	scheds, err := s.repo.SearchSchedules(ctx, query)
	if err != nil {
		return journal.Journal{}, fmt.Errorf("search schedules: %w", err)
	}
	return journal.Journal{Notes: notes, Todos: todos, Schedules: scheds}, nil
}

// Import parses doc and creates every recovered record. A record that fails
// to be created is counted and skipped; records created before a failure
// stay created. The error return is reserved for documents that cannot be
// read at all.
func (s *Service) Import(ctx context.Context, filename string, doc []byte) (*ImportSummary, error) {
	if filename != "" && !journal.HasFileExtension(filename) {
		return nil, fmt.Errorf("%w: %s (accepted: %s)",
			apperr.ErrUnsupportedFormat, filename, strings.Join(journal.FileExtensions, ", "))
	}
	if !utf8.Valid(doc) {
		return nil, fmt.Errorf("%w: not valid UTF-8", apperr.ErrInvalidDocument)
	}

	res := journal.Parse(string(doc), journal.WithLocation(s.loc), journal.WithLogger(s.logger))
	sum := &ImportSummary{
		Source:      filename,
		Dropped:     res.Dropped,
		BadHeadings: res.BadHeadings,
	}

	for _, n := range res.Notes {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if _, err := s.repo.CreateNote(ctx, n.Content, n.Tags, n.CreatedAt); err != nil {
			s.recordFailure(sum, "note", n.CreatedAt.In(s.loc).Format("2006-01-02 15:04"), err)
			continue
		}
		sum.Notes++
	}
	for _, t := range res.Todos {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if _, err := s.repo.AddTodo(ctx, t.Date, t); err != nil {
			s.recordFailure(sum, "todo", journal.DateKey(t.Date), err)
			continue
		}
		sum.Todos++
	}
	for _, sc := range res.Schedules {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if _, err := s.repo.AddSchedule(ctx, sc.Date, sc); err != nil {
			s.recordFailure(sum, "schedule", journal.DateKey(sc.Date), err)
			continue
		}
		sum.Schedules++
	}

	s.logger.Info("journal imported",
		slog.String("source", filename),
		slog.Int("succeeded", sum.Succeeded()),
		slog.Int("failed", sum.Failed),
		slog.Int("dropped", sum.Dropped))
	s.notify(EventImported, sum)
	return sum, nil
}

func (s *Service) recordFailure(sum *ImportSummary, kind, where string, err error) {
	sum.Failed++
	sum.Errors = append(sum.Errors, fmt.Sprintf("%s (%s): %v", kind, where, err))
	s.logger.Warn("import: create failed",
		slog.String("kind", kind), slog.String("at", where), slog.String("error", err.Error()))
}

func (s *Service) notify(kind string, data any) {
	if s.notifier != nil {
		s.notifier.Notify(kind, data)
	}
}

// flatten returns the values of byDate, newest day first.
func flatten[T any](byDate map[models.Date][]T) []T {
	dates := make([]models.Date, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].After(dates[b]) })

	var out []T
	for _, d := range dates {
		out = append(out, byDate[d]...)
	}
	return out
}
