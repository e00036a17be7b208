package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"menubar/internal/config"
	"menubar/internal/credential"
	"menubar/internal/exitcode"
	"menubar/internal/logging"
)

// ServiceFactory creates a plugin's services from config.
// Used to inject the backends during dispatch.
type ServiceFactory[S any] func(ctx context.Context, cfg *config.Config) (S, error)

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	bare string
}

// WithBareCommand routes a first argument that is neither a flag nor a
// command name to the named command, as a positional argument. This keeps
// plugins whose menu lines pass a bare value (an environment name) working.
func WithBareCommand(name string) Option {
	return func(o *options) { o.bare = name }
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher[S any] struct {
	registry *Registry[S]
	factory  ServiceFactory[S]
	opts     options
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher[S any](registry *Registry[S], factory ServiceFactory[S], opts ...Option) *Dispatcher[S] {
	d := &Dispatcher[S]{
		registry: registry,
		factory:  factory,
	}
	for _, o := range opts {
		o(&d.opts)
	}
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
//
// Accepted forms:
//
//	plugin                          render the menu
//	plugin --command=NAME [flags]   click action, e.g. --command=COMPLETED --id=3
//	plugin NAME [flags] [args]      click action, e.g. use_bag <key>
//	plugin --trigger=VALUE          click action selected by its trigger flag
//	plugin VALUE                    the bare command, if configured
func (d *Dispatcher[S]) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// Leading common flags apply to whichever command follows them
	common, args := leadingCommonFlags(args)
	withCommon := func(rest []string) []string {
		return append(append([]string(nil), common...), rest...)
	}

	// No command -> render the menu
	if len(args) == 0 {
		return d.dispatch(ctx, MenuCommand, common, out, errOut)
	}

	if name, rest, ok := commandSelector(args); ok {
		if name == "" {
			fmt.Fprintln(errOut, "error: flag needs an argument: -command")
			return exitcode.UserError
		}
		return d.dispatch(ctx, name, withCommon(rest), out, errOut)
	}

	first := args[0]
	if cmd, ok := d.registry.Find(first); ok && !strings.HasPrefix(first, "-") {
		return d.dispatchCommand(ctx, cmd, withCommon(args[1:]), out, errOut)
	}

	if strings.HasPrefix(first, "-") {
		if cmd, ok := d.registry.FindTrigger(flagName(first)); ok {
			return d.dispatchCommand(ctx, cmd, withCommon(args), out, errOut)
		}
		fmt.Fprintf(errOut, "error: unknown command: %s\n", first)
		return exitcode.UserError
	}

	if d.opts.bare != "" {
		return d.dispatch(ctx, d.opts.bare, withCommon(args), out, errOut)
	}

	fmt.Fprintf(errOut, "error: unknown command: %s\n", first)
	return exitcode.UserError
}

// leadingCommonFlags splits off the common flags that precede the command,
// including the separate value of "--config <dir>".
func leadingCommonFlags(args []string) (common, rest []string) {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") && isCommonFlag(flagName(args[i])) {
		if flagName(args[i]) == "config" && !strings.Contains(args[i], "=") && i+1 < len(args) {
			i++
		}
		i++
	}
	return args[:i], args[i:]
}

// commandSelector extracts NAME from a leading --command=NAME, --command NAME
// or -c NAME. ok is true if the selector is present; name is empty if its
// value is missing.
func commandSelector(args []string) (name string, rest []string, ok bool) {
	first := args[0]
	for _, prefix := range []string{"--command=", "-command=", "-c=", "--c="} {
		if v, found := strings.CutPrefix(first, prefix); found {
			return v, args[1:], true
		}
	}
	switch first {
	case "--command", "-command", "-c", "--c":
		if len(args) < 2 {
			return "", nil, true
		}
		return args[1], args[2:], true
	}
	return "", nil, false
}

// flagName returns "to-copy" for "--to-copy=x", "-to-copy" or "--to-copy".
func flagName(arg string) string {
	name := strings.TrimLeft(arg, "-")
	name, _, _ = strings.Cut(name, "=")
	return name
}

func isCommonFlag(name string) bool {
	switch name {
	case "config", "quiet", "debug":
		return true
	}
	return false
}

func (d *Dispatcher[S]) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher[S]) dispatchCommand(ctx context.Context, cmd Command[S], args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return reportFlagError(err, errOut)
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	logging.Setup(errOut, debug)

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if err := cfg.Load(); err != nil {
		fmt.Fprintf(errOut, "error: config: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	log.WithFields(log.Fields{
		"command": cmd.Name(),
		"args":    positionalArgs,
	}).Debug("Dispatching")

	var svc S
	if cmd.NeedsService() {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: plugin has no service factory")
			return exitcode.BackendError
		}
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			if errors.Is(err, credential.ErrNotFound) || errors.Is(err, config.ErrNoCredentials) {
				fmt.Fprintf(errOut, "error: auth error: %s\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
	}

	return cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
}

func reportFlagError(err error, errOut io.Writer) int {
	errStr := err.Error()

	// Check for missing flag value
	if strings.Contains(errStr, "flag needs an argument") {
		flagPart := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagPart)
		return exitcode.UserError
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
	return exitcode.UserError
}
