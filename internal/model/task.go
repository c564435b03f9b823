package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Priority levels in severity order: High sorts before Medium before Low.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank returns the fixed sort ordinal of the priority. Unknown values rank last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

type Task struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput carries the fields a caller supplies on creation. DueDate is a
// pointer so an absent date is distinguishable from the zero time.
type CreateInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
}

func (in CreateInput) Validate() error {
	var v ValidationError
	checkText(&v, "title", in.Title, MaxTitleLen)
	checkText(&v, "description", in.Description, MaxDescriptionLen)
	if in.DueDate == nil || in.DueDate.IsZero() {
		v.add("due_date", "is required")
	}
	if in.Priority == "" {
		v.add("priority", "is required")
	} else if !in.Priority.Valid() {
		v.add("priority", "must be High, Medium or Low")
	}
	if in.Status != "" && !in.Status.Valid() {
		v.add("status", "must be Pending or Completed")
	}
	return v.orNil()
}

// Task builds the record to persist, applying defaults for optional fields.
func (in CreateInput) Task(owner uuid.UUID) Task {
	t := Task{
		OwnerID:     owner,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Priority:    in.Priority,
		Status:      in.Status,
	}
	if in.DueDate != nil {
		t.DueDate = *in.DueDate
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	return t
}

// UpdateInput is a partial update: nil fields are left unchanged.
type UpdateInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *Priority  `json:"priority"`
	Status      *Status    `json:"status"`
}

// Apply merges the provided fields over an existing record.
func (in UpdateInput) Apply(t Task) Task {
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.DueDate != nil {
		t.DueDate = *in.DueDate
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	return t
}

// Validate checks a merged record against the same constraints as creation.
func (t Task) Validate() error {
	var v ValidationError
	checkText(&v, "title", t.Title, MaxTitleLen)
	checkText(&v, "description", t.Description, MaxDescriptionLen)
	if t.DueDate.IsZero() {
		v.add("due_date", "is required")
	}
	if !t.Priority.Valid() {
		v.add("priority", "must be High, Medium or Low")
	}
	if !t.Status.Valid() {
		v.add("status", "must be Pending or Completed")
	}
	return v.orNil()
}

// checkText validates the value as it will be persisted: surrounding
// whitespace is trimmed first and the bound counts characters, not bytes.
func checkText(v *ValidationError, field, value string, max int) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		v.add(field, "is required")
		return
	}
	if utf8.RuneCountInString(trimmed) > max {
		v.add(field, "is too long")
	}
}
