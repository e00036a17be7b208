package coffee

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"menubar/internal/config"
	"menubar/internal/exitcode"
)

// ProfileCmd times repeated menu renders.
type ProfileCmd struct {
	loops int
}

func (c *ProfileCmd) Name() string       { return ProfileCommand }
func (c *ProfileCmd) Aliases() []string  { return nil }
func (c *ProfileCmd) Synopsis() string   { return "Time menu rendering" }
func (c *ProfileCmd) Usage() string      { return Program + " profile [--loops <n>]" }
func (c *ProfileCmd) NeedsService() bool { return true }

func (c *ProfileCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.loops, "loops", 10, "Number of renders")
}

func (c *ProfileCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if c.loops < 1 {
		fmt.Fprintf(errOut, "error: --loops must be at least 1, got %d\n", c.loops)
		return exitcode.UserError
	}
	timers := make([]time.Duration, 0, c.loops)
	for i := 0; i < c.loops; i++ {
		start := time.Now()
		if err := Render(ctx, cfg, env, io.Discard); err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.RenderError
		}
		timers = append(timers, time.Since(start))
	}
	s := summarize(timers)
	fmt.Fprintf(out, "     mean: %s\n", s.mean)
	fmt.Fprintf(out, "   median: %s\n", s.median)
	fmt.Fprintf(out, "std. dev.: %s\n", s.stddev)
	return exitcode.Success
}

type stats struct {
	mean, median, stddev time.Duration
}

// summarize computes the mean, median and sample standard deviation.
// The deviation of a single sample is zero.
func summarize(ds []time.Duration) stats {
	if len(ds) == 0 {
		return stats{}
	}
	sorted := make([]time.Duration, len(ds))
	copy(sorted, ds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum float64
	for _, d := range ds {
		sum += float64(d)
	}
	mean := sum / float64(len(ds))

	var median float64
	if n := len(sorted); n%2 == 1 {
		median = float64(sorted[n/2])
	} else {
		median = (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
	}

	var stddev float64
	if len(ds) > 1 {
		var sq float64
		for _, d := range ds {
			sq += (float64(d) - mean) * (float64(d) - mean)
		}
		stddev = math.Sqrt(sq / float64(len(ds)-1))
	}
	return stats{
		mean:   time.Duration(mean),
		median: time.Duration(median),
		stddev: time.Duration(stddev),
	}
}
