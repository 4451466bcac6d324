package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	dom "taskmanager/internal/domain"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day or zone ("2026-02-19").
type Date struct{ t time.Time }

// NewDate drops the time-of-day part of t.
func NewDate(t time.Time) Date {
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: deadline must be a date (YYYY-MM-DD), got %q", dom.ErrInvalidArgument, s)
	}
	return Date{t: parsed}, nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: deadline must be a date string", dom.ErrInvalidArgument)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TaskRequest is the JSON body for POST /tasks and PUT /tasks/{id}.
// Completed is tri-state on update: null leaves the stored value alone.
type TaskRequest struct {
	Title       string       `json:"title" binding:"notblank,max=255" example:"Buy milk"`
	Description *string      `json:"description" example:"2 litres, semi-skimmed"`
	Category    dom.Category `json:"category" binding:"required" swaggertype:"string" enums:"WORK,PERSONAL,LEARNING" example:"PERSONAL"`
	Priority    dom.Priority `json:"priority" binding:"required" swaggertype:"string" enums:"HIGH,MEDIUM,LOW" example:"LOW"`
	Deadline    *Date        `json:"deadline" swaggertype:"string" format:"date" example:"2026-03-01"`
	Completed   *bool        `json:"completed"`
}

type TaskResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Category    dom.Category `json:"category" swaggertype:"string"`
	Priority    dom.Priority `json:"priority" swaggertype:"string"`
	Deadline    *Date        `json:"deadline" swaggertype:"string" format:"date"`
	Completed   bool         `json:"completed"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Content          []T   `json:"content"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	Number           int   `json:"number"`
	Size             int   `json:"size"`
	NumberOfElements int   `json:"numberOfElements"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
}

// NewPage fills the metadata for content at page number of the given size.
func NewPage[T any](content []T, number, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Number:           number,
		Size:             size,
		NumberOfElements: len(content),
		First:            number == 0,
		Last:             number+1 >= totalPages,
		Empty:            len(content) == 0,
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status  int    `json:"status" example:"404"`
	Message string `json:"message" example:"task with id 'x' not found"`
}
