package api

import (
	"time"

	"github.com/starford/daybook/internal/models"
)

// CreateNoteRequest is the request body for creating a note. CreatedAt
// defaults to the time of the request.
type CreateNoteRequest struct {
	Content   string     `json:"content" example:"今天很开心"`
	Tags      []string   `json:"tags,omitempty" example:"心情"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// CreateTodoRequest is the request body for creating a todo.
type CreateTodoRequest struct {
	Date      models.Date  `json:"date" example:"2024-01-15"`
	Content   string       `json:"content" example:"买牛奶"`
	Completed bool         `json:"completed"`
	Tags      []string     `json:"tags,omitempty"`
	DueDate   *models.Date `json:"due_date,omitempty" example:"2024-01-16"`
	StartDate *models.Date `json:"start_date,omitempty"`
}

// CreateScheduleRequest is the request body for creating a schedule.
type CreateScheduleRequest struct {
	Date        models.Date         `json:"date" example:"2024-01-15"`
	Title       string              `json:"title" example:"周会"`
	Time        string              `json:"time" example:"10:00"`
	Description string              `json:"description,omitempty"`
	Type        models.ScheduleType `json:"type,omitempty" example:"meeting"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// TodoListResponse wraps todo listings, newest day first.
type TodoListResponse struct {
	Todos []models.Todo `json:"todos"`
	Total int           `json:"total"`
}

// ScheduleListResponse wraps schedule listings, newest day first.
type ScheduleListResponse struct {
	Schedules []models.Schedule `json:"schedules"`
	Total     int               `json:"total"`
}
