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

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	output         string
	raw            bool
	skipIndicators bool
	skipMonthly    bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display the portfolio performance report" }
func (*reportCmd) Usage() string {
	return `plog report [-o <file>] [-raw] [-skip-indicators] [-skip-monthly]

  Displays the value of the portfolio, its trailing and anchored period
  returns, its positions, technical indicators for every held symbol, and
  the data quality issues of the ledger.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Write the markdown report to this file instead of the terminal")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown instead of rendering it")
	f.BoolVar(&c.skipIndicators, "skip-indicators", false, "Do not compute technical indicators")
	f.BoolVar(&c.skipMonthly, "skip-monthly", false, "Do not display the anchored periods")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	for _, issue := range r.Issues {
		s.log.Warn().Str("symbol", issue.Symbol).Stringer("issue", issue.Kind).Msg("data quality")
	}

	report := renderer.NewReport(r, s.display(ctx), s.cfg.Location())
	md := renderer.RenderReport(report, renderer.ReportOptions{SkipIndicators: c.skipIndicators, SkipMonthly: c.skipMonthly})

	switch {
	case c.output != "":
		if err := os.WriteFile(c.output, []byte(md), 0644); err != nil {
			return exitStatus(fmt.Errorf("could not write report: %w", err))
		}
		s.log.Info().Str("file", c.output).Msg("report written")
	case c.raw:
		fmt.Print(md)
	default:
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
