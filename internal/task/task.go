// Package task holds the to-do list model: the task record, the store that
// persists it, and the filter/sort pipeline used to render it.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var ErrInvalidPriority = errors.New("invalid priority")

func ParsePriority(v string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(v))); p {
	case "":
		return PriorityMedium, nil
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, v)
	}
}

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryShopping Category = "shopping"

	// CategoryAll selects every category in a view. It is never stored.
	CategoryAll Category = "all"
)

var ErrInvalidCategory = errors.New("invalid category")

// Categories lists the storable categories in display order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryShopping}

// FilterCategories lists the view filter values in tab order.
var FilterCategories = []Category{CategoryAll, CategoryWork, CategoryPersonal, CategoryShopping}

var legacyCategories = map[string]Category{
	"仕事":     CategoryWork,
	"プライベート": CategoryPersonal,
	"買い物":    CategoryShopping,
	"すべて":    CategoryAll,
}

func normalizeCategory(v string) Category {
	v = strings.TrimSpace(v)
	if c, ok := legacyCategories[v]; ok {
		return c
	}
	return Category(strings.ToLower(v))
}

// ParseCategory parses a stored category. "all" is rejected.
func ParseCategory(v string) (Category, error) {
	switch c := normalizeCategory(v); c {
	case CategoryWork, CategoryPersonal, CategoryShopping:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, v)
	}
}

// ParseFilterCategory parses a view filter; empty means all.
func ParseFilterCategory(v string) (Category, error) {
	if strings.TrimSpace(v) == "" {
		return CategoryAll, nil
	}
	if c := normalizeCategory(v); c == CategoryAll {
		return c, nil
	}
	return ParseCategory(v)
}

// Task is a single to-do entry. DueDate keeps the text it was entered or
// persisted with; use Due to interpret it.
type Task struct {
	ID        string   `json:"id" yaml:"id"`
	Text      string   `json:"text" yaml:"text"`
	Note      string   `json:"note" yaml:"note"`
	Completed bool     `json:"completed" yaml:"completed"`
	Priority  Priority `json:"priority" yaml:"priority"`
	DueDate   string   `json:"dueDate" yaml:"dueDate"`
	Alerted   bool     `json:"alerted" yaml:"alerted"`
	Category  Category `json:"category" yaml:"category"`
}

// NewTask is the input of an add intent.
type NewTask struct {
	Text     string
	Note     string
	Priority Priority
	DueDate  string
	Category Category
}

var dueLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDue interprets a due date string. Zone-less layouts are read in loc.
// ok is false when v is empty.
func ParseDue(v string, loc *time.Location) (due time.Time, ok bool, err error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true, nil
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized due date %q", v)
}

// Due returns the parsed due time. ok is false for tasks without one.
func (t Task) Due(loc *time.Location) (time.Time, bool, error) {
	return ParseDue(t.DueDate, loc)
}

// Pending reports whether the task's alarm can still fire.
func (t Task) Pending(loc *time.Location) bool {
	if t.Completed || t.Alerted {
		return false
	}
	_, ok, err := t.Due(loc)
	return ok && err == nil
}

func newID() string {
	return ulid.Make().String()
}
