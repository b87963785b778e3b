// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"strings"
	"time"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

var priorityLabels = map[Priority]string{
	PriorityLow:    "Baja",
	PriorityMedium: "Media",
	PriorityHigh:   "Alta",
}

// Valid reports whether p is one of the enumerated priorities.
func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// Label returns the display label for p, or the raw value if unknown.
func (p Priority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

// ParsePriority accepts a wire value or a display label, case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, label := range priorityLabels {
		if s == string(p) || s == strings.ToLower(label) {
			return p, true
		}
	}
	return "", false
}

// Status is the completion state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

var statusLabels = map[Status]string{
	StatusPending: "Pendiente",
	StatusDone:    "Completada",
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display label for s, or the raw value if unknown.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus accepts a wire value or a display label, case-insensitively.
func ParseStatus(v string) (Status, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for s, label := range statusLabels {
		if v == string(s) || v == strings.ToLower(label) {
			return s, true
		}
	}
	return "", false
}

// Task represents a single task item as returned by the API.
// ID is assigned by the API and never invented by the client.
type Task struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	DueDate     time.Time `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskInput is a partial task payload for create and update requests.
// Zero fields are omitted from the request body.
type TaskInput struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Status      Status     `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Apply returns a copy of t with the non-zero fields of in written over it.
func (t Task) Apply(in TaskInput) Task {
	if in.Title != "" {
		t.Title = in.Title
	}
	if in.Description != "" {
		t.Description = in.Description
	}
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	if in.Status != "" {
		t.Status = in.Status
	}
	if in.DueDate != nil {
		t.DueDate = *in.DueDate
	}
	return t
}

// Filters narrows a task listing server-side.
// A zero field means no constraint.
type Filters struct {
	Priority Priority
	Status   Status
	Title    string
	DueDate  string
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

const (
	// DefaultPage is the page requested when none is given.
	DefaultPage = 1

	// DefaultLimit is the page size requested when none is given.
	DefaultLimit = 10
)

// ListOptions selects a page of tasks.
type ListOptions struct {
	Page    int
	Limit   int
	Filters Filters
}

// WithDefaults fills zero page and limit with DefaultPage and DefaultLimit.
func (o ListOptions) WithDefaults() ListOptions {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	return o
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit,omitempty"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Normalize clamps Page into [1, TotalPages] when TotalPages > 0.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.TotalPages > 0 && p.Page > p.TotalPages {
		p.Page = p.TotalPages
	}
	return p
}

// Page is the list envelope returned by GET /tasks.
type Page struct {
	Data       []Task `json:"data"`
	Status     int    `json:"status,omitempty"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit,omitempty"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
}

// Pagination extracts the normalized pagination metadata of the page.
func (p Page) Pagination() Pagination {
	return Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}.Normalize()
}

// Collection is a client-cached page of tasks plus its pagination.
// Stale is set when the tasks were changed locally after the last fetch,
// meaning Pagination may no longer describe them.
type Collection struct {
	Tasks      []Task
	Pagination Pagination
	Stale      bool
}
