package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"menubar/internal/config"
	"menubar/internal/exitcode"
)

// Version is the application version. Set at build time.
var Version = "0.1.0"

// RegisterBuiltins adds help and version to r.
func RegisterBuiltins[S any](r *Registry[S], program string) {
	r.MustRegister(
		&HelpCmd[S]{Program: program, Registry: r},
		&VersionCmd[S]{Program: program},
	)
}

// HelpCmd implements the help command.
type HelpCmd[S any] struct {
	Program  string
	Registry *Registry[S]
}

func (c *HelpCmd[S]) Name() string       { return "help" }
func (c *HelpCmd[S]) Aliases() []string  { return nil }
func (c *HelpCmd[S]) Synopsis() string   { return "Print usage" }
func (c *HelpCmd[S]) Usage() string      { return c.Program + " help" }
func (c *HelpCmd[S]) NeedsService() bool { return false }

func (c *HelpCmd[S]) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd[S]) Run(ctx context.Context, cfg *config.Config, svc S, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, c.helpText())
	return exitcode.Success
}

func (c *HelpCmd[S]) helpText() string {
	var b strings.Builder
	b.WriteString("Usage:\n")
	fmt.Fprintf(&b, "  %-52s Render the SwiftBar menu\n", c.Program)
	for _, cmd := range c.Registry.All() {
		fmt.Fprintf(&b, "  %-52s %s\n", cmd.Usage(), cmd.Synopsis())
	}
	b.WriteString(`
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`)
	return b.String()
}

// VersionCmd implements the version command.
type VersionCmd[S any] struct {
	Program string
}

func (c *VersionCmd[S]) Name() string       { return "version" }
func (c *VersionCmd[S]) Aliases() []string  { return nil }
func (c *VersionCmd[S]) Synopsis() string   { return "Print version" }
func (c *VersionCmd[S]) Usage() string      { return c.Program + " version" }
func (c *VersionCmd[S]) NeedsService() bool { return false }

func (c *VersionCmd[S]) RegisterFlags(fs *flag.FlagSet) {}

func (c *VersionCmd[S]) Run(ctx context.Context, cfg *config.Config, svc S, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "%s %s\n", c.Program, Version)
	return exitcode.Success
}
