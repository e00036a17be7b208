// Package gtasks is the Google Tasks plugin: open tasks of every list, each
// line completing its task when clicked.
package gtasks

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"menubar/internal/cli"
	"menubar/internal/config"
	"menubar/internal/exitcode"
	"menubar/internal/fetch"
	"menubar/internal/output"
	"menubar/internal/service"
)

// Program is the plugin's name in usage text.
const Program = "gtasks"

// DoneCommand is the click action of a task line.
const DoneCommand = "done"

const dueLayout = "2006-01-02"

// untitled labels tasks created without a title.
const untitled = "(untitled)"

// Registry holds the gtasks commands.
var Registry = cli.NewRegistry[service.Service]()

func init() {
	Registry.MustRegister(&MenuCmd{}, &DoneCmd{})
	cli.RegisterBuiltins(Registry, Program)
}

// listTasks is one list with its open tasks.
type listTasks struct {
	list  service.TaskList
	tasks []service.Task
}

// load fetches every list and its open tasks. Lists whose tasks cannot be
// fetched are reported in failures and skipped.
func load(ctx context.Context, svc service.Service) (fetch.Result[listTasks], []error) {
	lists, err := svc.ListLists(ctx)
	if err != nil {
		return fetch.Fail[listTasks](err), nil
	}
	var (
		items    []listTasks
		failures []error
	)
	for _, l := range lists {
		tasks, err := svc.ListOpenTasks(ctx, l.ID)
		if err != nil {
			var de *fetch.DecodeError
			if errors.As(err, &de) {
				return fetch.Fail[listTasks](err), nil
			}
			failures = append(failures, fmt.Errorf("%s: %w", l.Title, err))
			continue
		}
		if len(tasks) > 0 {
			items = append(items, listTasks{list: l, tasks: tasks})
		}
	}
	return fetch.Ok(items), failures
}

func tooltip(t service.Task) string {
	var parts []string
	if t.Notes != "" {
		parts = append(parts, t.Notes)
	}
	if !t.Due.IsZero() {
		parts = append(parts, "due "+t.Due.UTC().Format(dueLayout))
	}
	return strings.Join(parts, "\n")
}

func failureLine(m *output.Menu, err error) {
	m.Add(":exclamationmark.triangle: "+err.Error(), output.NewAction().Color("red").Symbolize(true))
}

// MenuCmd renders the dropdown.
type MenuCmd struct{}

func (c *MenuCmd) Name() string       { return cli.MenuCommand }
func (c *MenuCmd) Aliases() []string  { return []string{"swiftbar"} }
func (c *MenuCmd) Synopsis() string   { return "Print the SwiftBar menu" }
func (c *MenuCmd) Usage() string      { return Program + " menu" }
func (c *MenuCmd) NeedsService() bool { return true }

func (c *MenuCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MenuCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	res, failures := load(ctx, svc)
	if res.Fatal() {
		fmt.Fprintf(errOut, "error: %s\n", res.Err)
		return exitcode.RenderError
	}

	var m output.Menu
	m.Add(":checklist:", output.NewAction().Symbolize(true))
	m.Separator()
	for _, lt := range res.Items {
		m.Add(lt.list.Title, output.NewAction().SFColor("gray"))
		for _, t := range lt.tasks {
			a := output.Click(cfg.PluginPath, "--command="+DoneCommand, "--list="+lt.list.ID, "--id="+t.ID)
			if tip := tooltip(t); tip != "" {
				a.Tooltip(tip)
			}
			title := t.Title
			if strings.TrimSpace(title) == "" {
				title = untitled
			}
			m.Add(title, a)
		}
		m.Separator()
	}

	if res.Failed() {
		failures = append([]error{res.Err}, failures...)
	}
	for _, err := range failures {
		log.WithFields(log.Fields{
			"op":    "load tasks",
			"cause": err,
		}).Warning("Google Tasks request failed")
		failureLine(&m, err)
	}
	m.Add("Refresh", output.NewAction().Refresh(true))

	if err := m.Write(out); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.RenderError
	}
	return exitcode.Success
}

// DoneCmd completes a task.
type DoneCmd struct {
	listID string
	taskID string
}

func (c *DoneCmd) Name() string       { return DoneCommand }
func (c *DoneCmd) Aliases() []string  { return nil }
func (c *DoneCmd) Synopsis() string   { return "Mark a task completed" }
func (c *DoneCmd) Usage() string      { return Program + " done --list <list-id> --id <task-id>" }
func (c *DoneCmd) NeedsService() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listID, "list", "", "Task list id")
	fs.StringVar(&c.taskID, "id", "", "Task id")
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.listID == "" || c.taskID == "" {
		fmt.Fprintln(errOut, "error: done requires --list and --id")
		return exitcode.UserError
	}

	if err := svc.CompleteTask(ctx, c.listID, c.taskID); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		switch {
		case errors.Is(err, service.ErrNotFound):
			return exitcode.UserError
		case errors.Is(err, service.ErrUnauthorized):
			return exitcode.AuthError
		}
		return exitcode.BackendError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "Completed.")
	}
	return exitcode.Success
}
