package coffee

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
	"menubar/internal/fetch"
)

// Command names used in click actions.
const (
	UseBagCommand        = "use_bag"
	DeactivateBagCommand = "deactivate_bag"
	NewBagCommand        = "new_bag"
	ProfileCommand       = "profile"
)

// UseBagCmd logs a cup from a bag.
type UseBagCmd struct{}

func (c *UseBagCmd) Name() string       { return UseBagCommand }
func (c *UseBagCmd) Aliases() []string  { return nil }
func (c *UseBagCmd) Synopsis() string   { return "Log a cup from a bag" }
func (c *UseBagCmd) Usage() string      { return Program + " use_bag <bag-key>" }
func (c *UseBagCmd) NeedsService() bool { return true }

func (c *UseBagCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UseBagCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	key, code := bagKeyArg(UseBagCommand, args, errOut)
	if code != exitcode.Success {
		return code
	}
	body, err := env.API.NewUse(ctx, key, env.now())
	return report(ctx, cfg, env, out, errOut, body, err, reportOptions{
		subtitle: "Unable to put coffee use.",
	})
}

// DeactivateBagCmd marks a bag finished today.
type DeactivateBagCmd struct{}

func (c *DeactivateBagCmd) Name() string       { return DeactivateBagCommand }
func (c *DeactivateBagCmd) Aliases() []string  { return nil }
func (c *DeactivateBagCmd) Synopsis() string   { return "Mark a bag finished" }
func (c *DeactivateBagCmd) Usage() string      { return Program + " deactivate_bag <bag-key>" }
func (c *DeactivateBagCmd) NeedsService() bool { return true }

func (c *DeactivateBagCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DeactivateBagCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	key, code := bagKeyArg(DeactivateBagCommand, args, errOut)
	if code != exitcode.Success {
		return code
	}
	body, err := env.API.Deactivate(ctx, key, env.today())
	return report(ctx, cfg, env, out, errOut, body, err, reportOptions{
		subtitle: "Unable to deactivate bag.",
	})
}

func bagKeyArg(cmd string, args []string, errOut io.Writer) (string, int) {
	switch {
	case len(args) == 0 || args[0] == "":
		fmt.Fprintf(errOut, "error: %s requires a bag key\n", cmd)
		return "", exitcode.UserError
	case len(args) > 1:
		fmt.Fprintf(errOut, "error: %s takes one bag key, got %d arguments\n", cmd, len(args))
		return "", exitcode.UserError
	}
	return args[0], exitcode.Success
}

type reportOptions struct {
	// subtitle of the failure notification.
	subtitle string
	// onFailOnly skips the success message.
	onFailOnly bool
}

// report prints the outcome of a write and maps it to an exit code. A non-2xx
// response is also posted as a desktop notification.
func report(ctx context.Context, cfg *config.Config, env *Env, out, errOut io.Writer, body []byte, err error, opts reportOptions) int {
	if err == nil {
		if !opts.onFailOnly && !cfg.Quiet {
			fmt.Fprintln(out, "Successful!")
			if b := strings.TrimSpace(string(body)); b != "" {
				fmt.Fprintln(out, b)
			}
		}
		return exitcode.Success
	}

	var se *StatusError
	switch {
	case errors.Is(err, credential.ErrNotFound):
		fmt.Fprintf(errOut, "error: auth error: %s\n", err)
		return exitcode.AuthError
	case errors.As(err, &se):
		fmt.Fprintf(out, "Error: %s\n", se)
		if b := strings.TrimSpace(se.Body); b != "" {
			fmt.Fprintln(out, b)
		}
		title := fmt.Sprintf("Request failed (%d)", se.Code)
		if nerr := env.Notifier.Notify(ctx, title, opts.subtitle, se.Detail); nerr != nil {
			log.WithFields(log.Fields{
				"op":    "notify",
				"cause": nerr,
			}).Warning("Notification failed")
		}
		return exitcode.BackendError
	case errors.Is(err, fetch.ErrMissingField), errors.Is(err, fetch.ErrInvalidField), errors.Is(err, ErrInvalidBagKey):
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
}
