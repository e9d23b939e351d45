package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/pricelog"
	"github.com/google/subcommands"
)

// sampleCmd holds the flags for the 'sample' subcommand.
type sampleCmd struct {
	watch int
}

func (*sampleCmd) Name() string     { return "sample" }
func (*sampleCmd) Synopsis() string { return "append the current prices of the holdings to the ledger" }
func (*sampleCmd) Usage() string {
	return `plog sample [-w n]

  Fetches the spot price of every held symbol and of the benchmark, and
  appends them to the ledger. An empty ledger is first backfilled with the
  daily history. Symbols whose price cannot be fetched are recorded as
  unavailable.
`
}

func (c *sampleCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.watch, "w", 0, "sample every n seconds")
}

func (c *sampleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}
	s, err := openSession()
	if err != nil {
		return exitStatus(err)
	}
	defer s.Close()

	holdings, err := pricelog.LoadHoldings(s.cfg.Paths.Holdings)
	if err != nil {
		return exitStatus(err)
	}
	u := &pricelog.Updater{
		Source:   newSource(s.cfg, s.log),
		Backend:  s.backend,
		Holdings: holdings,
		Options:  s.cfg.UpdateOptions(),
		Location: s.cfg.Location(),
		Logger:   s.log,
	}

	for {
		stats, err := u.Run(ctx, time.Now())
		if err != nil {
			return exitStatus(err)
		}
		if stats.Failures != nil {
			s.log.Debug().Err(stats.Failures).Msg("sampling failures")
		}
		if c.watch <= 0 {
			break
		}
		select {
		case <-ctx.Done():
			return subcommands.ExitSuccess
		case <-time.After(time.Duration(c.watch) * time.Second):
		}
	}
	return subcommands.ExitSuccess
}
