// Package cmd implements the CLI application to sample prices and report on a portfolio.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/pricelog"
	"github.com/etnz/pricelog/config"
	"github.com/etnz/pricelog/sqlite"
	"github.com/etnz/pricelog/yahoo"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&sampleCmd{}, "ledger")
	c.Register(&pruneCmd{}, "ledger")
	c.Register(&fmtCmd{}, "ledger")

	c.Register(&reportCmd{}, "reports")
	c.Register(&exportCmd{}, "reports")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", config.DefaultPath, "Path to the configuration file (TOML format)")
var verbose = flag.Bool("v", false, "Log debug messages")

// newSource creates the price source, tests replace it.
var newSource = func(cfg *config.Config, log zerolog.Logger) pricelog.Source {
	return yahoo.New(yahoo.Options{
		BaseURL:  cfg.Source.BaseURL,
		Timeout:  cfg.Timeout(),
		CacheDir: cfg.Source.CacheDir,
		Logger:   log,
	})
}

// Logger returns the console logger on stderr.
func Logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// LoadConfig loads the configuration file selected by the -config flag.
func LoadConfig() (*config.Config, error) {
	return config.Load(*configFile)
}

// OpenBackend opens the ledger backend selected by the configuration. The
// returned closer, nil when the backend holds no resource, must be called
// once the backend is no longer used.
func OpenBackend(cfg *config.Config) (pricelog.Backend, io.Closer, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		b, err := sqlite.Open(cfg.Paths.Ledger, cfg.StoreOptions(), cfg.Location())
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	default:
		b := &pricelog.FileBackend{Path: cfg.Paths.Ledger, Options: cfg.StoreOptions(), Location: cfg.Location()}
		return b, nil, nil
	}
}

// session is what every subcommand needs: the configuration, a logger and
// the opened ledger backend.
type session struct {
	cfg     *config.Config
	log     zerolog.Logger
	backend pricelog.Backend
	closer  io.Closer
}

func openSession() (*session, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	backend, closer, err := OpenBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: Logger(), backend: backend, closer: closer}, nil
}

func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// load returns the persisted ledger. A corrupt ledger is logged and replaced
// by an empty one.
func (s *session) load(ctx context.Context) (*pricelog.Store, error) {
	store, err := s.backend.Load(ctx)
	if errors.Is(err, pricelog.ErrCorruptState) {
		s.log.Error().Err(err).Str("ledger", s.cfg.Paths.Ledger).Msg("ledger is corrupt, using an empty ledger")
		return store, nil
	}
	return store, err
}

// engine loads the holdings and the ledger into an analytics engine,
// benchmarked against the configured benchmark.
func (s *session) engine(ctx context.Context) (*pricelog.Engine, error) {
	holdings, err := pricelog.LoadHoldings(s.cfg.Paths.Holdings)
	if err != nil {
		return nil, err
	}
	store, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	samples := store.All()
	return pricelog.NewEngine(samples, holdings, s.cfg.Periods()).WithBenchmark(samples, s.cfg.Source.Benchmark), nil
}

// display resolves the display currency, falling back to the base currency.
func (s *session) display(ctx context.Context) pricelog.Display {
	var src pricelog.Source
	if s.cfg.Display.RateSymbol != "" {
		src = newSource(s.cfg, s.log)
	}
	return pricelog.ResolveDisplay(ctx, s.cfg.Converter(src), s.cfg.Display.BaseCurrency, s.cfg.Display.Currency, s.log)
}

// exitStatus prints err and returns the matching exit status.
func exitStatus(err error) subcommands.ExitStatus {
	if err == nil {
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, pricelog.ErrConfiguration) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// printMarkdown renders md for the terminal, or prints it raw when it cannot.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "dark")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
