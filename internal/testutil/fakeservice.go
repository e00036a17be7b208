// Package testutil provides fakes and golden-file helpers shared by the
// plugin tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"menubar/internal/service"
)

// DefaultListID is the ID used for the default list.
const DefaultListID = "@default"

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu        sync.RWMutex
	lists     []service.TaskList
	tasks     map[string][]service.Task // listID -> tasks
	completed []string

	// Error injection for testing
	ListListsErr     error
	ListOpenTasksErr map[string]error // listID -> error
	CompleteTaskErr  error
}

// NewFakeService creates a new FakeService with an empty default list.
func NewFakeService() *FakeService {
	fs := &FakeService{
		tasks:            make(map[string][]service.Task),
		ListOpenTasksErr: make(map[string]error),
	}
	fs.lists = []service.TaskList{
		{ID: DefaultListID, Title: "My Tasks", IsDefault: true},
	}
	return fs
}

// AddList adds a list to the fake service.
func (f *FakeService) AddList(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, service.TaskList{ID: id, Title: title})
}

// AddTask adds an open task to a list.
func (f *FakeService) AddTask(listID, taskID, title string) {
	f.AddTaskDue(listID, taskID, title, time.Time{})
}

// AddTaskDue adds an open task with a due date to a list.
func (f *FakeService) AddTaskDue(listID, taskID, title string, due time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[listID] = append(f.tasks[listID], service.Task{
		ID:     taskID,
		Title:  title,
		Status: service.StatusNeedsAction,
		Due:    due,
	})
}

// Completed returns "listID/taskID" for every completed task, in call order.
func (f *FakeService) Completed() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.completed...)
}

// ListLists implements service.Service.
func (f *FakeService) ListLists(ctx context.Context) ([]service.TaskList, error) {
	if f.ListListsErr != nil {
		return nil, f.ListListsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.TaskList, len(f.lists))
	copy(result, f.lists)
	return result, nil
}

// ListOpenTasks implements service.Service.
func (f *FakeService) ListOpenTasks(ctx context.Context, listID string) ([]service.Task, error) {
	if err := f.ListOpenTasksErr[listID]; err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	var open []service.Task
	for _, t := range f.tasks[listID] {
		if t.Status != service.StatusCompleted {
			open = append(open, t)
		}
	}
	return open, nil
}

// CompleteTask implements service.Service.
func (f *FakeService) CompleteTask(ctx context.Context, listID, taskID string) error {
	if f.CompleteTaskErr != nil {
		return f.CompleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks[listID] {
		if t.ID == taskID {
			f.tasks[listID][i].Status = service.StatusCompleted
			f.completed = append(f.completed, listID+"/"+taskID)
			return nil
		}
	}
	return fmt.Errorf("complete task %s: %w", taskID, service.ErrNotFound)
}
