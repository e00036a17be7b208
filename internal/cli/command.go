// Package cli dispatches a plugin invocation to one of its commands.
//
// SwiftBar runs a plugin with no arguments to render the menu, and with the
// params of a clicked line to perform that line's action. Both forms are
// commands here: "menu" is the default, click actions are selected by name.
package cli

import (
	"context"
	"flag"
	"io"

	"menubar/internal/config"
)

// MenuCommand is the command run when the plugin gets no arguments.
const MenuCommand = "menu"

// Command defines the interface for plugin commands. S is the plugin's
// service bundle, built once per invocation by a ServiceFactory.
type Command[S any] interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsService returns true if the command uses the plugin's services.
	// help and version return false.
	NeedsService() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// svc is the zero value if NeedsService() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc S, args []string, out, errOut io.Writer) int
}

// Triggered is implemented by commands that are also selected by a leading
// flag instead of a name, e.g. "--to-copy=<title>".
type Triggered interface {
	Trigger() string
}
