package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/starford/daybook/internal/journalservice"
	"github.com/starford/daybook/internal/models"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc     *journalservice.Service
	records journalservice.Repository
	now     func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(svc *journalservice.Service, records journalservice.Repository) *Handler {
	return &Handler{svc: svc, records: records, now: time.Now}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListNotes handles GET /api/notes. The optional q parameter filters by
// content or tag.
//
//	@Summary	List notes, newest first
//	@Tags		notes
//	@Produce	json
//	@Param		q	query		string	false	"Substring filter"
//	@Success	200	{object}	NoteListResponse
//	@Security	BearerAuth
//	@Router		/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.records.SearchNotes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// CreateNote handles POST /api/notes.
//
//	@Summary	Create a note
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateNoteRequest	true	"Note to create"
//	@Success	201		{object}	models.Note
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	createdAt := h.now()
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}
	note, err := h.records.CreateNote(r.Context(), req.Content, req.Tags, createdAt)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// ListTodos handles GET /api/todos.
//
//	@Summary	List todos, newest day first
//	@Tags		todos
//	@Produce	json
//	@Param		q	query		string	false	"Substring filter"
//	@Success	200	{object}	TodoListResponse
//	@Security	BearerAuth
//	@Router		/todos [get]
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.records.SearchTodos(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "list todos", err)
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	writeJSON(w, http.StatusOK, TodoListResponse{Todos: todos, Total: len(todos)})
}

// CreateTodo handles POST /api/todos.
//
//	@Summary	Create a todo filed under a day
//	@Tags		todos
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateTodoRequest	true	"Todo to create"
//	@Success	201		{object}	models.Todo
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/todos [post]
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	todo, err := h.records.AddTodo(r.Context(), req.Date, models.Todo{
		Content:   req.Content,
		Completed: req.Completed,
		Tags:      req.Tags,
		DueDate:   req.DueDate,
		StartDate: req.StartDate,
	})
	if err != nil {
		writeError(w, "create todo", err)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

// ListSchedules handles GET /api/schedules.
//
//	@Summary	List schedules, newest day first
//	@Tags		schedules
//	@Produce	json
//	@Param		q	query		string	false	"Substring filter"
//	@Success	200	{object}	ScheduleListResponse
//	@Security	BearerAuth
//	@Router		/schedules [get]
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	scheds, err := h.records.SearchSchedules(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "list schedules", err)
		return
	}
	if scheds == nil {
		scheds = []models.Schedule{}
	}
	writeJSON(w, http.StatusOK, ScheduleListResponse{Schedules: scheds, Total: len(scheds)})
}

// CreateSchedule handles POST /api/schedules.
//
//	@Summary	Create a schedule filed under a day
//	@Tags		schedules
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateScheduleRequest	true	"Schedule to create"
//	@Success	201		{object}	models.Schedule
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/schedules [post]
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sched, err := h.records.AddSchedule(r.Context(), req.Date, models.Schedule{
		Title:       req.Title,
		Time:        req.Time,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		writeError(w, "create schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, sched)
}
