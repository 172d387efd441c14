package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/models"
)

// timestampLayout stores instants in UTC with a fixed-width fraction so
// that text order in SQLite matches time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CreateNote stores a new note and returns it with its assigned ID.
func (db *DB) CreateNote(ctx context.Context, content string, tags []string, createdAt time.Time) (*models.Note, error) {
	n := models.Note{
		ID:        uuid.NewString(),
		Content:   content,
		Tags:      nonNilSlice(tags),
		CreatedAt: createdAt,
	}
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("%w: note: %v", apperr.ErrInvalid, err)
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notes (id, content, tags, created_at) VALUES (?, ?, ?, ?)`,
		n.ID, n.Content, encodeTags(n.Tags), n.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return nil, fmt.Errorf("store: insert note: %w", err)
	}
	return &n, nil
}

// AddTodo files a todo under date, after the todos already on that day.
func (db *DB) AddTodo(ctx context.Context, date models.Date, t models.Todo) (*models.Todo, error) {
	t.ID = uuid.NewString()
	t.Date = date
	t.Tags = nonNilSlice(t.Tags)
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: todo: %v", apperr.ErrInvalid, err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	pos, err := nextPosition(ctx, tx, "todos", date)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO todos (id, date, position, content, completed, tags, due_date, start_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, date.String(), pos, t.Content, t.Completed, encodeTags(t.Tags),
		encodeDate(t.DueDate), encodeDate(t.StartDate))
	if err != nil {
		return nil, fmt.Errorf("store: insert todo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit todo: %w", err)
	}
	return &t, nil
}

// AddSchedule files a schedule under date, after the schedules already on that day.
func (db *DB) AddSchedule(ctx context.Context, date models.Date, s models.Schedule) (*models.Schedule, error) {
	s.ID = uuid.NewString()
	s.Date = date
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: schedule: %v", apperr.ErrInvalid, err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	pos, err := nextPosition(ctx, tx, "schedules", date)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedules (id, date, position, title, time, description, type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, date.String(), pos, s.Title, s.Time, s.Description, string(s.Type))
	if err != nil {
		return nil, fmt.Errorf("store: insert schedule: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit schedule: %w", err)
	}
	return &s, nil
}

// AllNotes returns every note, newest first.
func (db *DB) AllNotes(ctx context.Context) ([]models.Note, error) {
	return db.queryNotes(ctx, `SELECT id, content, tags, created_at FROM notes ORDER BY created_at DESC`)
}

// SearchNotes returns notes whose content or tags contain query, newest first.
func (db *DB) SearchNotes(ctx context.Context, query string) ([]models.Note, error) {
	like := likePattern(query)
	return db.queryNotes(ctx, `
		SELECT id, content, tags, created_at FROM notes
		WHERE content LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\'
		ORDER BY created_at DESC
	`, like, like)
}

// AllTodosByDate returns every todo grouped by the day it is filed under.
func (db *DB) AllTodosByDate(ctx context.Context) (map[models.Date][]models.Todo, error) {
	todos, err := db.queryTodos(ctx, `
		SELECT id, date, content, completed, tags, due_date, start_date
		FROM todos ORDER BY date DESC, position
	`)
	if err != nil {
		return nil, err
	}
	out := make(map[models.Date][]models.Todo)
	for _, t := range todos {
		out[t.Date] = append(out[t.Date], t)
	}
	return out, nil
}

// SearchTodos returns todos whose content or tags contain query.
func (db *DB) SearchTodos(ctx context.Context, query string) ([]models.Todo, error) {
	like := likePattern(query)
	return db.queryTodos(ctx, `
		SELECT id, date, content, completed, tags, due_date, start_date
		FROM todos
		WHERE content LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\'
		ORDER BY date DESC, position
	`, like, like)
}

// AllSchedulesByDate returns every schedule grouped by day.
func (db *DB) AllSchedulesByDate(ctx context.Context) (map[models.Date][]models.Schedule, error) {
	scheds, err := db.querySchedules(ctx, `
		SELECT id, date, title, time, description, type
		FROM schedules ORDER BY date DESC, position
	`)
	if err != nil {
		return nil, err
	}
	out := make(map[models.Date][]models.Schedule)
	for _, s := range scheds {
		out[s.Date] = append(out[s.Date], s)
	}
	return out, nil
}

// SearchSchedules returns schedules whose title or description contain query.
func (db *DB) SearchSchedules(ctx context.Context, query string) ([]models.Schedule, error) {
	like := likePattern(query)
	return db.querySchedules(ctx, `
		SELECT id, date, title, time, description, type
		FROM schedules
		WHERE title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'
		ORDER BY date DESC, position
	`, like, like)
}

func (db *DB) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var (
			n               models.Note
			tags, createdAt string
		)
		if err := rows.Scan(&n.ID, &n.Content, &tags, &createdAt); err != nil {
			return nil, err
		}
		n.Tags = decodeTags(tags)
		if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("store: note %s: bad created_at: %w", n.ID, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (db *DB) queryTodos(ctx context.Context, query string, args ...any) ([]models.Todo, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query todos: %w", err)
	}
	defer rows.Close()

	var out []models.Todo
	for rows.Next() {
		var (
			t                    models.Todo
			date, tags, due, beg string
		)
		if err := rows.Scan(&t.ID, &date, &t.Content, &t.Completed, &tags, &due, &beg); err != nil {
			return nil, err
		}
		if t.Date, err = models.ParseDate(date); err != nil {
			return nil, fmt.Errorf("store: todo %s: %w", t.ID, err)
		}
		t.Tags = decodeTags(tags)
		t.DueDate = decodeDate(due)
		t.StartDate = decodeDate(beg)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (db *DB) querySchedules(ctx context.Context, query string, args ...any) ([]models.Schedule, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query schedules: %w", err)
	}
	defer rows.Close()

	var out []models.Schedule
	for rows.Next() {
		var (
			s          models.Schedule
			date, kind string
		)
		if err := rows.Scan(&s.ID, &date, &s.Title, &s.Time, &s.Description, &kind); err != nil {
			return nil, err
		}
		if s.Date, err = models.ParseDate(date); err != nil {
			return nil, fmt.Errorf("store: schedule %s: %w", s.ID, err)
		}
		s.Type = models.ScheduleType(kind)
		out = append(out, s)
	}
	return out, rows.Err()
}

// nextPosition returns the position after the last row of table on date.
// table is always a package constant.
func nextPosition(ctx context.Context, tx *sql.Tx, table string, date models.Date) (int, error) {
	var pos int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM `+table+` WHERE date = ?`, date.String()).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("store: next %s position: %w", table, err)
	}
	return pos, nil
}

func encodeTags(tags []string) string {
	data, _ := json.Marshal(nonNilSlice(tags))
	return string(data)
}

func decodeTags(raw string) []string {
	var tags []string
	_ = json.Unmarshal([]byte(raw), &tags)
	return nonNilSlice(tags)
}

func encodeDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func decodeDate(raw string) *models.Date {
	if raw == "" {
		return nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &d
}

// likePattern wraps query for a LIKE match, escaping its wildcards.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
