package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the ledger into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `plog fmt

  Validates the ledger, merges samples falling in the same deduplication
  bucket, sorts them by timestamp and writes them back. A corrupt ledger is
  left untouched.
`
}

func (*fmtCmd) SetFlags(f *flag.FlagSet) {}

func (*fmtCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession()
	if err != nil {
		return exitStatus(err)
	}
	defer s.Close()

	store, err := s.backend.Load(ctx)
	if err != nil {
		return exitStatus(err)
	}
	if err := s.backend.Save(ctx, store); err != nil {
		return exitStatus(err)
	}
	s.log.Info().Int("rows", store.Len()).Str("ledger", s.cfg.Paths.Ledger).Msg("ledger formatted")
	return subcommands.ExitSuccess
}
