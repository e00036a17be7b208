// Package service defines the backend-agnostic interface of the gtasks
// plugin. Plugin code never imports the Google SDK directly.
package service

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a list or task does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the stored token is rejected.
	ErrUnauthorized = errors.New("token expired or revoked")
)

// Service defines the task backend operations the menu needs.
type Service interface {
	// ListLists returns all task lists in API order.
	ListLists(ctx context.Context) ([]TaskList, error)

	// ListOpenTasks returns every open task of a list in API order,
	// following pagination.
	ListOpenTasks(ctx context.Context, listID string) ([]Task, error)

	// CompleteTask marks a task as completed.
	CompleteTask(ctx context.Context, listID, taskID string) error
}
