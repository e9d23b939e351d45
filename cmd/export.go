package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/pricelog/renderer"
	"github.com/google/subcommands"
)

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the aligned price series as a spreadsheet" }
func (*exportCmd) Usage() string {
	return `plog export [-o <file.xlsx>]

  Writes the forward-filled price series of the holdings, with the total
  value at every sample, and the current positions into an xlsx workbook.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "series.xlsx", "Output workbook")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession()
	if err != nil {
		return exitStatus(err)
	}
	defer s.Close()

	e, err := s.engine(ctx)
	if err != nil {
		return exitStatus(err)
	}
	r := e.Report(time.Now(), s.cfg.Windows())

	out, err := os.Create(c.output)
	if err != nil {
		return exitStatus(fmt.Errorf("could not create %q: %w", c.output, err))
	}
	if err := renderer.Export(out, r, s.display(ctx), s.cfg.Location()); err != nil {
		out.Close()
		return exitStatus(fmt.Errorf("could not export to %q: %w", c.output, err))
	}
	if err := out.Close(); err != nil {
		return exitStatus(err)
	}
	s.log.Info().Str("file", c.output).Int("rows", r.Series.Len()).Msg("series exported")
	return subcommands.ExitSuccess
}
