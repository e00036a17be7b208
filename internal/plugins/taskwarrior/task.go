// Package taskwarrior is the taskwarrior plugin: pending tasks grouped by
// project, most urgent first, with click actions to complete or start them.
package taskwarrior

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	uuid "github.com/nu7hatch/gouuid"

	"menubar/internal/fetch"
)

// TimeLayout is the timestamp format of "task export".
const TimeLayout = "20060102T150405Z"

// NoneProject is the grouping key of tasks without a project.
const NoneProject = "none"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
	StatusWaiting   Status = "waiting"
	StatusRecurring Status = "recurring"
)

func (s Status) valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusDeleted, StatusWaiting, StatusRecurring:
		return true
	}
	return false
}

// Priority is L, M, H or empty.
type Priority string

const (
	PriorityLow    Priority = "L"
	PriorityMedium Priority = "M"
	PriorityHigh   Priority = "H"
)

func (p Priority) valid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is one record of "task export".
type Task struct {
	ID          int
	UUID        string
	Description string
	// Project is NoneProject when the task has none.
	Project  string
	Entry    time.Time
	Modified time.Time
	Priority Priority
	Status   Status
	// Start is zero unless the task is active.
	Start   time.Time
	Urgency float64
}

// Started reports whether the task is active.
func (t Task) Started() bool { return !t.Start.IsZero() }

// nativeFields are export attributes taskwarrior itself defines but the menu
// does not use. Anything else is a user-defined attribute.
var nativeFields = []string{
	"annotations", "depends", "due", "end", "imask", "last", "mask",
	"parent", "recur", "rtype", "scheduled", "tags", "template", "until", "wait",
}

// DecodeTasks decodes the JSON array written by "task export". Missing
// required fields are always errors; user-defined attributes are errors only
// when strict is set.
func DecodeTasks(body []byte, strict bool) ([]Task, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, &fetch.DecodeError{Record: "export", Err: err}
	}
	tasks := make([]Task, 0, len(raws))
	for i, raw := range raws {
		t, err := decodeTask("export["+strconv.Itoa(i)+"]", raw, strict)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func decodeTask(record string, raw []byte, strict bool) (Task, error) {
	obj, err := fetch.DecodeObject(record, raw)
	if err != nil {
		return Task{}, err
	}
	invalid := func(field string, cause error) error {
		return &fetch.DecodeError{Record: record, Field: field, Err: fmt.Errorf("%w: %v", fetch.ErrInvalidField, cause)}
	}

	var t Task
	var id, entry, modified, status, start string
	if err := obj.Required("id", &t.ID); err != nil {
		return Task{}, err
	}
	if err := obj.Required("uuid", &id); err != nil {
		return Task{}, err
	}
	u, err := uuid.ParseHex(id)
	if err != nil {
		return Task{}, invalid("uuid", err)
	}
	t.UUID = u.String()
	if err := obj.Required("description", &t.Description); err != nil {
		return Task{}, err
	}
	if err := obj.Required("entry", &entry); err != nil {
		return Task{}, err
	}
	if t.Entry, err = time.Parse(TimeLayout, entry); err != nil {
		return Task{}, invalid("entry", err)
	}
	if err := obj.Required("modified", &modified); err != nil {
		return Task{}, err
	}
	if t.Modified, err = time.Parse(TimeLayout, modified); err != nil {
		return Task{}, invalid("modified", err)
	}
	if err := obj.Required("status", &status); err != nil {
		return Task{}, err
	}
	t.Status = Status(status)
	if !t.Status.valid() {
		return Task{}, invalid("status", fmt.Errorf("unknown status %q", status))
	}
	if err := obj.Required("urgency", &t.Urgency); err != nil {
		return Task{}, err
	}

	if _, err := obj.Optional("project", &t.Project); err != nil {
		return Task{}, err
	}
	if t.Project == "" {
		t.Project = NoneProject
	}
	var priority string
	if _, err := obj.Optional("priority", &priority); err != nil {
		return Task{}, err
	}
	t.Priority = Priority(priority)
	if !t.Priority.valid() {
		return Task{}, invalid("priority", fmt.Errorf("unknown priority %q", priority))
	}
	if ok, err := obj.Optional("start", &start); err != nil {
		return Task{}, err
	} else if ok {
		if t.Start, err = time.Parse(TimeLayout, start); err != nil {
			return Task{}, invalid("start", err)
		}
	}

	if !strict {
		return t, nil
	}
	obj.Known(nativeFields...)
	return t, obj.Strict()
}
