package models

import (
	"fmt"
	"time"
)

// Priority is the task priority level stored as text.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps a wire value to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Task is a unit of tracked work. CreatedByID references the owning user;
// AssignedToID is optional.
type Task struct {
	ID             int64
	Title          string
	Description    string
	DueDate        *time.Time
	Priority       Priority
	IsCompleted    bool
	CompletedAt    *time.Time
	EstimatedHours *int32
	ActualHours    *int32
	CreatedByID    int64
	AssignedToID   *int64
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	Tags           []Tag
}

// Tag is a label attachable to tasks via the task_tags join table.
type Tag struct {
	ID          int64
	Name        string
	Color       string
	Description string
	CreatedByID *int64
	CreatedAt   time.Time
}
