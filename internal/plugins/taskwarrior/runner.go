package taskwarrior

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"menubar/internal/fetch"
)

// Runner runs taskwarrior.
type Runner interface {
	// Export returns the JSON export of the pending tasks.
	Export(ctx context.Context) ([]byte, error)
	// Done completes the task with the given working-set id.
	Done(ctx context.Context, id int) error
	// Start marks the task with the given working-set id active.
	Start(ctx context.Context, id int) error
}

// CLI runs the task binary with a taskrc override file.
type CLI struct {
	Binary string
	// TaskRC is passed as rc:<path> when set.
	TaskRC  string
	Timeout time.Duration
}

// Export implements Runner.
func (c CLI) Export(ctx context.Context) ([]byte, error) {
	return c.run(ctx, "status:pending", "export")
}

// Done implements Runner.
func (c CLI) Done(ctx context.Context, id int) error {
	_, err := c.run(ctx, strconv.Itoa(id), "done")
	return err
}

// Start implements Runner.
func (c CLI) Start(ctx context.Context, id int) error {
	_, err := c.run(ctx, strconv.Itoa(id), "start")
	return err
}

func (c CLI) run(ctx context.Context, args ...string) ([]byte, error) {
	bin := c.Binary
	if bin == "" {
		bin = "task"
	}
	if c.TaskRC != "" {
		args = append([]string{"rc:" + c.TaskRC}, args...)
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	log.WithFields(log.Fields{
		"op":   "task",
		"args": args,
	}).Debug("Running")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, fmt.Errorf("%s %s: %w: %v: %s", bin, strings.Join(args, " "), fetch.ErrTransport, err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%s: %w: %v", bin, fetch.ErrTransport, err)
	}
	return out, nil
}

// Pending loads and decodes the pending tasks.
func Pending(ctx context.Context, r Runner, strict bool) fetch.Result[Task] {
	body, err := r.Export(ctx)
	if err != nil {
		return fetch.Fail[Task](err)
	}
	tasks, err := DecodeTasks(body, strict)
	if err != nil {
		return fetch.Fail[Task](err)
	}
	return fetch.Ok(tasks)
}
