// Package snippets is the oft-copied plugin: a menu of configured text
// snippets, each copied to the clipboard when clicked.
package snippets

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"menubar/internal/cli"
	"menubar/internal/clipboard"
	"menubar/internal/config"
	"menubar/internal/exitcode"
	"menubar/internal/output"
)

// Program is the plugin's name in usage text.
const Program = "oft-copied"

// CopyCommand is the click action of a snippet line.
const CopyCommand = "copy"

// ErrUnknownSnippet is returned when no snippet has the requested title.
var ErrUnknownSnippet = errors.New("unknown snippet")

// Env is the service bundle of the plugin.
type Env struct {
	Clipboard clipboard.Writer
}

// NewEnv returns the production bundle.
func NewEnv(ctx context.Context, cfg *config.Config) (*Env, error) {
	return &Env{Clipboard: clipboard.System{}}, nil
}

// Registry holds the oft-copied commands.
var Registry = cli.NewRegistry[*Env]()

func init() {
	Registry.MustRegister(&MenuCmd{}, &CopyCmd{})
	cli.RegisterBuiltins(Registry, Program)
}

// Lookup returns the text of the snippet titled title.
func Lookup(items []config.Snippet, title string) (string, error) {
	for _, s := range items {
		if s.Title == title {
			return s.Text, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSnippet, title)
}

// BuildMenu assembles the snippet menu.
func BuildMenu(cfg *config.Config) *output.Menu {
	var m output.Menu
	m.Add(":text.bubble:", output.NewAction().Symbolize(true))
	m.Separator()
	m.Add("Click to copy to clipboard", nil)
	m.Separator()
	for _, s := range cfg.Snippets.Items {
		m.Add(s.Title, output.Click(cfg.PluginPath, "--command="+CopyCommand, "--title="+s.Title).Tooltip(s.Text))
	}
	m.Separator()
	m.Add(":arrow.clockwise: Refresh", output.NewAction().Symbolize(true).Refresh(true).Terminal(false))
	m.Add(":pencil.tip.crop.circle: Edit...", output.NewAction().
		Symbolize(true).
		Bash(cfg.Snippets.Editor).
		Arg(0, cfg.FilePath()).
		Refresh(true).
		Terminal(false))
	return &m
}

// MenuCmd renders the dropdown.
type MenuCmd struct{}

func (c *MenuCmd) Name() string       { return cli.MenuCommand }
func (c *MenuCmd) Aliases() []string  { return nil }
func (c *MenuCmd) Synopsis() string   { return "Print the SwiftBar menu" }
func (c *MenuCmd) Usage() string      { return Program + " menu" }
func (c *MenuCmd) NeedsService() bool { return false }

func (c *MenuCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MenuCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if err := BuildMenu(cfg).Write(out); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.RenderError
	}
	return exitcode.Success
}

// CopyCmd copies a snippet to the clipboard.
type CopyCmd struct {
	title  string
	toCopy string
}

func (c *CopyCmd) Name() string       { return CopyCommand }
func (c *CopyCmd) Aliases() []string  { return nil }
func (c *CopyCmd) Synopsis() string   { return "Copy a snippet to the clipboard" }
func (c *CopyCmd) Usage() string      { return Program + " copy --title <title>" }
func (c *CopyCmd) NeedsService() bool { return true }

// Trigger keeps the "--to-copy=<title>" click form working.
func (c *CopyCmd) Trigger() string { return "to-copy" }

func (c *CopyCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "Title of the snippet")
	fs.StringVar(&c.toCopy, "to-copy", "", "Title of the snippet")
}

func (c *CopyCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	title := c.title
	if title == "" {
		title = c.toCopy
	}
	if title == "" && len(args) == 1 {
		title = args[0]
	}
	if title == "" {
		fmt.Fprintln(errOut, "error: copy requires --title")
		return exitcode.UserError
	}

	text, err := Lookup(cfg.Snippets.Items, title)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if err := env.Clipboard.WriteAll(text); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	log.WithField("title", title).Debug("Copied snippet")
	return exitcode.Success
}
