package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category is a closed set. Declaration order is the sort order.
type Category string

const (
	CategoryWork     Category = "WORK"
	CategoryPersonal Category = "PERSONAL"
	CategoryLearning Category = "LEARNING"
)

// Categories lists every Category in declaration order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryLearning}

// Priority is a closed set. Declaration order is the sort order.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Priorities lists every Priority in declaration order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParseCategory resolves s (case-insensitive) against Categories.
func ParseCategory(s string) (Category, error) {
	v := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range Categories {
		if c == v {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q (allowed: %s)", ErrInvalidArgument, s, join(Categories))
}

// ParsePriority resolves s (case-insensitive) against Priorities.
func ParsePriority(s string) (Priority, error) {
	v := Priority(strings.ToUpper(strings.TrimSpace(s)))
	for _, p := range Priorities {
		if p == v {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown priority %q (allowed: %s)", ErrInvalidArgument, s, join(Priorities))
}

// Valid reports whether c is a member of Categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Valid reports whether p is a member of Priorities.
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// UnmarshalText lets JSON bodies carry any casing. Empty input yields the
// zero value so that "required" validation reports it.
func (c *Category) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*c = ""
		return nil
	}
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*p = ""
		return nil
	}
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func join[T ~string](vs []T) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// Task is the persisted entity. Deadline is a civil date held as midnight UTC.
type Task struct {
	ID          string
	Title       string
	Description *string
	Category    Category
	Priority    Priority
	Deadline    *time.Time
	Completed   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
