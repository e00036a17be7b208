package taskwarrior

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	log "github.com/sirupsen/logrus"

	"menubar/internal/cli"
	"menubar/internal/config"
	"menubar/internal/exitcode"
	"menubar/internal/output"
)

// Program is the plugin's name in usage text.
const Program = "taskwarrior"

// Click actions of a task line.
const (
	CompletedCommand = "COMPLETED"
	ActiveCommand    = "ACTIVE"
)

const (
	startedColor   = "#fc9cc7"
	alternateColor = "#A3AAFF"
)

// Env is the service bundle of the plugin.
type Env struct {
	Runner Runner
}

// NewEnv returns the production bundle.
func NewEnv(ctx context.Context, cfg *config.Config) (*Env, error) {
	return &Env{Runner: CLI{
		Binary:  cfg.Taskwarrior.Binary,
		TaskRC:  cfg.TaskRCPath(),
		Timeout: cfg.Taskwarrior.Timeout,
	}}, nil
}

// Registry holds the taskwarrior commands.
var Registry = cli.NewRegistry[*Env]()

func init() {
	Registry.MustRegister(
		&MenuCmd{},
		&TaskCmd{name: "completed", synopsis: "Mark a task done", op: doneOp},
		&TaskCmd{name: "active", synopsis: "Start a task", op: startOp},
	)
	cli.RegisterBuiltins(Registry, Program)
}

// ProjectLabel returns the display label of a project.
func ProjectLabel(cfg *config.Config, project string) string {
	if label, ok := cfg.Taskwarrior.Projects[project]; ok {
		return label
	}
	return project
}

func taskClick(a *output.Action, self, command string, id int) *output.Action {
	return a.Bash(self).
		Arg(0, "--command="+command).
		Arg(1, "--id="+strconv.Itoa(id)).
		Terminal(false).
		Trim(false).
		Refresh(true)
}

// BuildMenu renders the grouped tasks. Each task gets a completing line and
// an option-key alternate that starts it instead.
func BuildMenu(cfg *config.Config, groups []ProjectGroup) *output.Menu {
	var m output.Menu
	m.Add(":list.bullet.circle:", output.NewAction().
		Symbolize(true).
		SFColor("purple").
		Dropdown(false).
		Tooltip("TaskWarrior"))
	m.Separator()

	for _, g := range groups {
		m.Add(ProjectLabel(cfg, g.Project), output.NewAction().SFColor("gray"))
		for _, t := range g.Tasks {
			label := "  " + t.Description
			primary := output.NewAction()
			if t.Started() {
				primary.Color(startedColor)
			}
			m.Add(label, taskClick(primary, cfg.PluginPath, CompletedCommand, t.ID))
			m.Add(label, taskClick(output.NewAction(), cfg.PluginPath, ActiveCommand, t.ID).
				Alternate().
				Color(alternateColor))
		}
		m.Separator()
	}
	return &m
}

// MenuCmd renders the dropdown.
type MenuCmd struct{}

func (c *MenuCmd) Name() string       { return cli.MenuCommand }
func (c *MenuCmd) Aliases() []string  { return []string{"swiftbar"} }
func (c *MenuCmd) Synopsis() string   { return "Print the SwiftBar menu" }
func (c *MenuCmd) Usage() string      { return Program + " menu" }
func (c *MenuCmd) NeedsService() bool { return true }

func (c *MenuCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MenuCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	res := Pending(ctx, env.Runner, cfg.Taskwarrior.StrictSchema)
	if res.Fatal() {
		fmt.Fprintf(errOut, "error: %s\n", res.Err)
		return exitcode.RenderError
	}

	m := BuildMenu(cfg, GroupByProject(res.Items))
	if res.Failed() {
		log.WithFields(log.Fields{
			"op":    "export",
			"cause": res.Err,
		}).Warning("Export failed")
		m.Add(":exclamationmark.triangle: "+res.Err.Error(), output.NewAction().Color("red").Symbolize(true))
	}
	if err := m.Write(out); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.RenderError
	}
	return exitcode.Success
}

type taskOp struct {
	verb string
	run  func(r Runner, ctx context.Context, id int) error
}

var (
	doneOp  = taskOp{verb: "Completed", run: Runner.Done}
	startOp = taskOp{verb: "Started", run: Runner.Start}
)

// TaskCmd applies one operation to a task by working-set id.
type TaskCmd struct {
	name     string
	synopsis string
	op       taskOp
	id       int
}

func (c *TaskCmd) Name() string       { return c.name }
func (c *TaskCmd) Aliases() []string  { return nil }
func (c *TaskCmd) Synopsis() string   { return c.synopsis }
func (c *TaskCmd) Usage() string      { return Program + " " + c.name + " --id <n>" }
func (c *TaskCmd) NeedsService() bool { return true }

func (c *TaskCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.id, "id", 0, "Task id")
	fs.IntVar(&c.id, "i", 0, "Task id (shorthand)")
}

func (c *TaskCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.id < 1 {
		fmt.Fprintf(errOut, "error: %s requires --id\n", c.name)
		return exitcode.UserError
	}
	if err := c.op.run(env.Runner, ctx, c.id); err != nil {
		fmt.Fprintf(errOut, "error: task %d: %s\n", c.id, err)
		return exitcode.BackendError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "%s task %d.\n", c.op.verb, c.id)
	}
	return exitcode.Success
}
