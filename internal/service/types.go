package service

import "time"

// StatusNeedsAction is the status of an open task.
const StatusNeedsAction = "needsAction"

// StatusCompleted is the status of a completed task.
const StatusCompleted = "completed"

// Task represents a single task item.
type Task struct {
	ID       string
	Title    string
	Notes    string
	Position string
	Status   string
	// Due is zero when the task has no due date.
	Due time.Time
}

// TaskList represents a task list.
type TaskList struct {
	ID        string
	Title     string
	IsDefault bool
}
