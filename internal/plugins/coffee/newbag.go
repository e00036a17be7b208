package coffee

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"menubar/internal/config"
	"menubar/internal/exitcode"
)

// NewBagCmd registers a new bag, asking for whatever the flags leave out.
type NewBagCmd struct {
	brand  string
	name   string
	weight string
	start  string
	yes    bool
}

func (c *NewBagCmd) Name() string       { return NewBagCommand }
func (c *NewBagCmd) Aliases() []string  { return nil }
func (c *NewBagCmd) Synopsis() string   { return "Add a new bag" }
func (c *NewBagCmd) NeedsService() bool { return true }

func (c *NewBagCmd) Usage() string {
	return Program + " new_bag [--brand <b>] [--name <n>] [--weight <g>] [--start YYYY-MM-DD] [--yes]"
}

func (c *NewBagCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.brand, "brand", "", "Brand of the bag")
	fs.StringVar(&c.name, "name", "", "Name of the bag")
	fs.StringVar(&c.weight, "weight", "", "Weight of the bag in grams")
	fs.StringVar(&c.start, "start", "", "Day the bag was opened, defaults to today")
	fs.BoolVar(&c.yes, "yes", false, "Submit without prompting")
}

func (c *NewBagCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	draft, err := c.flagDraft(cfg, env)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	if !c.yes {
		draft, err = env.Prompter.Fill(ctx, draft)
		if errors.Is(err, ErrCancelled) {
			fmt.Fprintln(out, "Bag not submitted.")
			return exitcode.Success
		}
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
	}
	if err := draft.Validate(); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	printSummary(out, draft)
	if !c.yes {
		ok, err := env.Prompter.Confirm(ctx, "Submit bag?")
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
		if !ok {
			fmt.Fprintln(out, "Bag not submitted.")
			return exitcode.Success
		}
	}

	body, err := env.API.NewBag(ctx, draft)
	if code := report(ctx, cfg, env, out, errOut, body, err, reportOptions{
		subtitle:   "Unable to add a new bag.",
		onFailOnly: true,
	}); code != exitcode.Success {
		return code
	}
	fmt.Fprintln(out, "New bag submitted!")
	return exitcode.Success
}

// flagDraft builds the draft from flags, filling weight and start with the
// configured defaults.
func (c *NewBagCmd) flagDraft(cfg *config.Config, env *Env) (BagDraft, error) {
	d := BagDraft{
		Brand:  strings.TrimSpace(c.brand),
		Name:   strings.TrimSpace(c.name),
		Weight: cfg.Coffee.DefaultWeight,
		Start:  env.today(),
	}
	if c.weight != "" {
		w, err := strconv.ParseFloat(c.weight, 64)
		if err != nil {
			return BagDraft{}, fmt.Errorf("invalid value %q for flag -weight", c.weight)
		}
		d.Weight = w
	}
	if c.start != "" {
		s, err := time.ParseInLocation(DateLayout, c.start, time.Local)
		if err != nil {
			return BagDraft{}, fmt.Errorf("invalid value %q for flag -start: expected %s", c.start, DateLayout)
		}
		d.Start = s
	}
	return d, nil
}

func printSummary(w io.Writer, d BagDraft) {
	const head = "New Coffee Bag Information:"
	rule := strings.Repeat("-", len(head))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, head)
	fmt.Fprintf(w, ">  brand: %s\n", d.Brand)
	fmt.Fprintf(w, ">   name: %s\n", d.Name)
	fmt.Fprintf(w, "> weight: %s\n", formatWeight(d.Weight))
	fmt.Fprintf(w, ">  start: %s\n", d.Start.Format(DateLayout))
	fmt.Fprintln(w, rule)
}
