package coffee

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	log "github.com/sirupsen/logrus"

	"menubar/internal/config"
	"menubar/internal/exitcode"
	"menubar/internal/fetch"
	"menubar/internal/output"
)

// MenuCmd renders the dropdown.
type MenuCmd struct{}

func (c *MenuCmd) Name() string       { return "menu" }
func (c *MenuCmd) Aliases() []string  { return nil }
func (c *MenuCmd) Synopsis() string   { return "Print the SwiftBar menu" }
func (c *MenuCmd) Usage() string      { return Program + " menu" }
func (c *MenuCmd) NeedsService() bool { return true }

func (c *MenuCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MenuCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if err := Render(ctx, cfg, env, out); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.RenderError
	}
	return exitcode.Success
}

// Render fetches the active bags and today's uses and writes the menu to w.
// Unreachable or failing endpoints degrade to an error line; malformed
// records abort without writing anything.
func Render(ctx context.Context, cfg *config.Config, env *Env, w io.Writer) error {
	m, err := BuildMenu(ctx, cfg, env)
	if err != nil {
		return err
	}
	return m.Write(w)
}

// BuildMenu assembles the coffee-tracker menu.
func BuildMenu(ctx context.Context, cfg *config.Config, env *Env) (*output.Menu, error) {
	self := cfg.PluginPath
	today := env.today()

	bags := env.API.ActiveBags(ctx)
	if bags.Fatal() {
		return nil, bags.Err
	}
	uses := env.API.Uses(ctx, today, cfg.Coffee.RecentUses)
	if uses.Fatal() {
		return nil, uses.Err
	}
	cups, err := env.API.CupsSince(ctx, today)
	var de *fetch.DecodeError
	if errors.As(err, &de) {
		return nil, err
	}

	var failures []error
	for _, e := range []error{bags.Err, uses.Err, err} {
		if e != nil {
			failures = append(failures, e)
		}
	}
	if err != nil {
		// The capped list is the best count left.
		cups = len(uses.Items)
	}

	var m output.Menu
	m.Add(":drop.fill:", output.NewAction().
		SFColor("#764636").
		Set("ansi", "false").
		Set("emojize", "false").
		Symbolize(true))
	m.Separator()

	for _, bag := range bags.Items {
		m.Add(bag.String(), output.Click(self, UseBagCommand, bag.Key))
		m.Add("finish "+bag.String(), output.Click(self, DeactivateBagCommand, bag.Key).
			Color("red").
			Alternate())
	}
	m.Separator()

	m.Add("Add a new bag...", output.Click(self, NewBagCommand).Terminal(true))
	m.Separator()

	m.Add(cupsLabel(cups), nil)
	names := make(map[string]string, len(bags.Items))
	for _, b := range bags.Items {
		names[b.Key] = b.String()
	}
	for _, u := range uses.Items {
		name, ok := names[u.BagID]
		if !ok {
			name = u.BagID
		}
		m.AddNested(1, u.When.Format("15:04")+" "+name, nil)
	}
	m.Separator()

	for _, f := range failures {
		log.WithFields(log.Fields{
			"op":    "menu",
			"cause": f,
		}).Warning("Fetch failed")
		m.Add(":exclamationmark.triangle: "+f.Error(), output.NewAction().Color("red").Symbolize(true))
	}
	m.Add("Refresh", output.NewAction().Refresh(true))
	return &m, nil
}

func cupsLabel(n int) string {
	unit := "cups"
	if n == 1 {
		unit = "cup"
	}
	return strconv.Itoa(n) + " " + unit + " of ☕️ today"
}
