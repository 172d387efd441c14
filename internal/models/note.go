// Package models defines the record types managed by Daybook.
package models

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ScheduleType is the category label of a schedule entry.
type ScheduleType string

// Known schedule types. Values outside this set are dropped on import.
const (
	ScheduleWork     ScheduleType = "work"
	SchedulePersonal ScheduleType = "personal"
	ScheduleMeeting  ScheduleType = "meeting"
	ScheduleStudy    ScheduleType = "study"
	ScheduleHealth   ScheduleType = "health"
	ScheduleOther    ScheduleType = "other"
)

// ScheduleTypes lists every accepted schedule type in display order.
var ScheduleTypes = []ScheduleType{
	ScheduleWork, SchedulePersonal, ScheduleMeeting, ScheduleStudy, ScheduleHealth, ScheduleOther,
}

// Valid reports whether t is one of ScheduleTypes.
func (t ScheduleType) Valid() bool {
	for _, known := range ScheduleTypes {
		if t == known {
			return true
		}
	}
	return false
}

// tagPattern matches a tag as it can appear after '#' in a tag line: one
// token with no whitespace and no further '#'.
var tagPattern = regexp.MustCompile(`^[^\s#]+$`)

var tagRules = validation.Each(validation.Required, validation.Match(tagPattern).Error("must not contain whitespace or '#'"))

// Note is a free-text journal entry.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields required to store a note.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.CreatedAt, validation.Required),
		validation.Field(&n.Tags, tagRules),
	)
}

// Todo is a checklist item filed under a calendar day.
type Todo struct {
	ID        string   `json:"id"`
	Date      Date     `json:"date"`
	Content   string   `json:"content"`
	Completed bool     `json:"completed"`
	Tags      []string `json:"tags"`
	DueDate   *Date    `json:"due_date,omitempty"`
	StartDate *Date    `json:"start_date,omitempty"`
}

// Validate checks the fields required to store a todo.
func (t Todo) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Date, validation.By(requireDate)),
		validation.Field(&t.Content, validation.Required),
		validation.Field(&t.Tags, tagRules),
	)
}

// Schedule is a timed entry on a calendar day.
type Schedule struct {
	ID          string       `json:"id"`
	Date        Date         `json:"date"`
	Title       string       `json:"title"`
	Time        string       `json:"time"`
	Description string       `json:"description,omitempty"`
	Type        ScheduleType `json:"type,omitempty"`
}

// Validate checks the fields required to store a schedule.
func (s Schedule) Validate() error {
	types := make([]interface{}, len(ScheduleTypes))
	for i, t := range ScheduleTypes {
		types[i] = t
	}
	return validation.ValidateStruct(&s,
		validation.Field(&s.Date, validation.By(requireDate)),
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.Type, validation.In(types...)),
	)
}

func requireDate(value interface{}) error {
	d, _ := value.(Date)
	if d.IsZero() {
		return errors.New("cannot be blank")
	}
	if !d.Valid() {
		return errors.New("must be a valid calendar date")
	}
	return nil
}
