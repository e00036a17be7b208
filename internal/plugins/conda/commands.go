package conda

import (
	"context"
	"flag"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"menubar/internal/cli"
	"menubar/internal/config"
	"menubar/internal/exitcode"
	"menubar/internal/output"
)

// Program is the plugin's name in usage text.
const Program = "conda-envs"

// CopyCommand is the click action of an environment line.
const CopyCommand = "copy"

// Registry holds the conda-envs commands.
var Registry = cli.NewRegistry[*Env]()

func init() {
	Registry.MustRegister(&MenuCmd{}, &CopyCmd{})
	cli.RegisterBuiltins(Registry, Program)
}

// BuildMenu lists the environments. A failed listing leaves an error line
// instead of the environments.
func BuildMenu(ctx context.Context, cfg *config.Config, env *Env) *output.Menu {
	var m output.Menu
	m.Add(":c.circle:", output.NewAction().Symbolize(true))
	m.Separator()
	m.Add("Click to copy to clipboard", nil)

	res := env.Lister.Environments(ctx)
	for _, e := range res.Items {
		m.Add(e.Name, output.Click(cfg.PluginPath, CopyCommand, e.Name))
	}
	m.Separator()
	if res.Failed() {
		log.WithFields(log.Fields{
			"op":    "env list",
			"cause": res.Err,
		}).Warning("Listing failed")
		m.Add(":exclamationmark.triangle: "+res.Err.Error(), output.NewAction().Color("red").Symbolize(true))
	}
	m.Add("Refresh", output.NewAction().Refresh(true))
	return &m
}

// MenuCmd renders the dropdown.
type MenuCmd struct{}

func (c *MenuCmd) Name() string       { return cli.MenuCommand }
func (c *MenuCmd) Aliases() []string  { return nil }
func (c *MenuCmd) Synopsis() string   { return "Print the SwiftBar menu" }
func (c *MenuCmd) Usage() string      { return Program + " menu" }
func (c *MenuCmd) NeedsService() bool { return true }

func (c *MenuCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MenuCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if err := BuildMenu(ctx, cfg, env).Write(out); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.RenderError
	}
	return exitcode.Success
}

// CopyCmd copies an environment name to the clipboard.
type CopyCmd struct{}

func (c *CopyCmd) Name() string       { return CopyCommand }
func (c *CopyCmd) Aliases() []string  { return nil }
func (c *CopyCmd) Synopsis() string   { return "Copy an environment name to the clipboard" }
func (c *CopyCmd) Usage() string      { return Program + " [copy] <env>" }
func (c *CopyCmd) NeedsService() bool { return true }

func (c *CopyCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CopyCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(errOut, "error: copy requires one environment name")
		return exitcode.UserError
	}
	if err := env.Clipboard.WriteAll(args[0]); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	log.WithField("env", args[0]).Debug("Copied environment name")
	return exitcode.Success
}
