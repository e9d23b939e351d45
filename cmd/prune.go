package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type pruneCmd struct {
	rows int
}

func (*pruneCmd) Name() string     { return "prune" }
func (*pruneCmd) Synopsis() string { return "drop the oldest samples of the ledger" }
func (*pruneCmd) Usage() string {
	return `plog prune [-n <rows>]

  Keeps only the n most recent samples of the ledger. Without -n the
  store.max_rows configuration applies.
`
}

func (c *pruneCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.rows, "n", 0, "Number of samples to keep")
}

func (c *pruneCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.rows < 0 {
		return exitStatus(fmt.Errorf("invalid number of rows %d", c.rows))
	}
	s, err := openSession()
	if err != nil {
		return exitStatus(err)
	}
	defer s.Close()

	store, err := s.load(ctx)
	if err != nil {
		return exitStatus(err)
	}
	rows := c.rows
	if rows == 0 {
		rows = s.cfg.StoreOptions().MaxRows
	}
	n := store.Prune(rows)
	if err := s.backend.Save(ctx, store); err != nil {
		return exitStatus(err)
	}
	s.log.Info().Int("pruned", n).Int("rows", store.Len()).Msg("ledger pruned")
	return subcommands.ExitSuccess
}
