package cli_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menubar/internal/cli"
	"menubar/internal/config"
	"menubar/internal/credential"
	"menubar/internal/exitcode"
)

// recordCmd remembers how it was invoked.
type recordCmd struct {
	name     string
	aliases  []string
	needsSvc bool

	id   string
	ran  bool
	svc  string
	args []string
}

func (c *recordCmd) Name() string       { return c.name }
func (c *recordCmd) Aliases() []string  { return c.aliases }
func (c *recordCmd) Synopsis() string   { return "record " + c.name }
func (c *recordCmd) Usage() string      { return "plugin " + c.name }
func (c *recordCmd) NeedsService() bool { return c.needsSvc }

func (c *recordCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.id, "id", "", "")
}

func (c *recordCmd) Run(ctx context.Context, cfg *config.Config, svc string, args []string, out, errOut io.Writer) int {
	c.ran = true
	c.svc = svc
	c.args = args
	return exitcode.Success
}

// triggeredCmd is selected by --to-copy.
type triggeredCmd struct {
	recordCmd
	toCopy string
}

func (c *triggeredCmd) Trigger() string { return "to-copy" }

func (c *triggeredCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.toCopy, "to-copy", "", "")
}

type fixture struct {
	menu      *recordCmd
	completed *recordCmd
	copyCmd   *triggeredCmd
	reg       *cli.Registry[string]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	f := &fixture{
		menu:      &recordCmd{name: cli.MenuCommand, aliases: []string{"swiftbar"}, needsSvc: true},
		completed: &recordCmd{name: "completed", needsSvc: true},
		copyCmd:   &triggeredCmd{recordCmd: recordCmd{name: "copy"}},
		reg:       cli.NewRegistry[string](),
	}
	f.reg.MustRegister(f.menu, f.completed, f.copyCmd)
	cli.RegisterBuiltins(f.reg, "plugin")
	return f
}

func staticFactory(svc string) cli.ServiceFactory[string] {
	return func(ctx context.Context, cfg *config.Config) (string, error) {
		return svc, nil
	}
}

func run(d *cli.Dispatcher[string], args ...string) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_NoArgsRendersMenu(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	_, stderr, code := run(d)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.True(t, f.menu.ran)
	assert.Equal(t, "svc", f.menu.svc)
}

func TestDispatcher_CommandSelector(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"equals form", []string{"--command=COMPLETED", "--id=5"}},
		{"single dash", []string{"-command=completed", "--id", "5"}},
		{"separate value", []string{"--command", "Completed", "--id=5"}},
		{"short flag", []string{"-c", "COMPLETED", "-id=5"}},
		{"positional name", []string{"completed", "--id=5"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			d := cli.NewDispatcher(f.reg, staticFactory("svc"))

			_, stderr, code := run(d, tc.args...)

			require.Equal(t, exitcode.Success, code, stderr)
			assert.True(t, f.completed.ran)
			assert.Equal(t, "5", f.completed.id)
			assert.False(t, f.menu.ran)
		})
	}
}

func TestDispatcher_CommandSelectorMissingValue(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	_, stderr, code := run(d, "--command")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: flag needs an argument: -command\n", stderr)
}

func TestDispatcher_SwiftbarAliasRendersMenu(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	_, _, code := run(d, "--command=SWIFTBAR")

	assert.Equal(t, exitcode.Success, code)
	assert.True(t, f.menu.ran)
}

func TestDispatcher_TriggerFlag(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	_, stderr, code := run(d, "--to-copy=IPython autoreload")

	require.Equal(t, exitcode.Success, code, stderr)
	assert.True(t, f.copyCmd.ran)
	assert.Equal(t, "IPython autoreload", f.copyCmd.toCopy)
	// copy does not need the service
	assert.Empty(t, f.copyCmd.svc)
}

func TestDispatcher_CommonFlagAloneRendersMenu(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	_, _, code := run(d, "--debug")

	assert.Equal(t, exitcode.Success, code)
	assert.True(t, f.menu.ran)
}

func TestDispatcher_LeadingCommonFlagsKeepCommand(t *testing.T) {
	cfgDir := t.TempDir()
	tests := [][]string{
		{"--debug", "completed", "--id=7"},
		{"--quiet", "--command=completed", "--id=7"},
		{"--config", cfgDir, "--debug", "completed", "--id=7"},
		{"--config=" + cfgDir, "-c", "completed", "--id", "7"},
	}
	for _, args := range tests {
		f := newFixture(t)
		d := cli.NewDispatcher(f.reg, staticFactory("svc"))

		_, stderr, code := run(d, args...)

		require.Equal(t, exitcode.Success, code, "%v: %s", args, stderr)
		assert.True(t, f.completed.ran, args)
		assert.False(t, f.menu.ran, args)
		assert.Equal(t, "7", f.completed.id, args)
	}
}

func TestDispatcher_LeadingCommonFlagsBeforeUnknownCommand(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	_, stderr, code := run(d, "--debug", "use_bag", "b1")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unknown command: use_bag\n", stderr)
	assert.False(t, f.menu.ran)
}

func TestDispatcher_LeadingCommonFlagsBeforeBareValue(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"), cli.WithBareCommand("copy"))

	_, stderr, code := run(d, "--quiet", "my-env")

	require.Equal(t, exitcode.Success, code, stderr)
	assert.True(t, f.copyCmd.ran)
	assert.Equal(t, []string{"my-env"}, f.copyCmd.args)
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	_, stderr, code := run(d, "unknowncmd")
	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unknown command: unknowncmd\n", stderr)

	_, stderr, code = run(d, "--command=FROBNICATE")
	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unknown command: FROBNICATE\n", stderr)

	_, stderr, code = run(d, "--frobnicate")
	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unknown command: --frobnicate\n", stderr)
}

func TestDispatcher_BareCommand(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"), cli.WithBareCommand("copy"))

	_, stderr, code := run(d, "my-env")

	require.Equal(t, exitcode.Success, code, stderr)
	assert.True(t, f.copyCmd.ran)
	assert.Equal(t, []string{"my-env"}, f.copyCmd.args)
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	_, stderr, code := run(d, "help", "--unknown")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unknown flag: -unknown\n", stderr)
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	_, stderr, code := run(d, "--command=completed", "--id")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: flag needs an argument: -id\n", stderr)
}

func TestDispatcher_FactoryErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing credential", credential.ErrNotFound, exitcode.AuthError},
		{"missing oauth files", config.ErrNoCredentials, exitcode.AuthError},
		{"backend", errors.New("connection refused"), exitcode.BackendError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			d := cli.NewDispatcher(f.reg, func(ctx context.Context, cfg *config.Config) (string, error) {
				return "", tc.err
			})

			_, stderr, code := run(d)

			assert.Equal(t, tc.want, code)
			assert.Contains(t, stderr, tc.err.Error())
			assert.False(t, f.menu.ran)
		})
	}
}

func TestDispatcher_HelpAndVersion(t *testing.T) {
	f := newFixture(t)
	d := cli.NewDispatcher(f.reg, staticFactory("svc"))

	stdout, stderr, code := run(d, "help")
	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "plugin completed")
	assert.Contains(t, stdout, "--config <dir>")

	stdout, _, code = run(d, "version")
	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "plugin 0.1.0\n", stdout)
}
