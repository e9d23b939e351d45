// Package config loads the pricelog.toml configuration file.
//
// Values are read from the toml file, then overridden by PRICELOG_*
// environment variables. A .env file next to the configuration file is
// loaded into the environment first, without overriding variables already
// set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/etnz/pricelog"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "pricelog.toml"

// Backends of the ledger.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	// Timezone of the ledger timestamps and of the period anchors. Empty is
	// the local timezone.
	Timezone string `toml:"timezone"`

	Paths struct {
		Holdings string `toml:"holdings"`
		Ledger   string `toml:"ledger"`
	} `toml:"paths"`

	Store struct {
		Backend string `toml:"backend"`
		MaxRows int    `toml:"max_rows"`
		// Dedup is the deduplication granularity, "0" means exact timestamps.
		Dedup string `toml:"dedup"`
		Mode  string `toml:"mode"`
	} `toml:"store"`

	Period struct {
		AnchorDay int `toml:"anchor_day"`
	} `toml:"period"`

	Analytics struct {
		Windows []string `toml:"windows"`
	} `toml:"analytics"`

	Source struct {
		BaseURL      string `toml:"base_url"`
		Timeout      string `toml:"timeout"`
		BackfillDays int    `toml:"backfill_days"`
		Benchmark    string `toml:"benchmark"`
		CacheDir     string `toml:"cache_dir"`
	} `toml:"source"`

	Display struct {
		BaseCurrency string  `toml:"base_currency"`
		Currency     string  `toml:"currency"`
		Rate         float64 `toml:"rate"`
		RateSymbol   string  `toml:"rate_symbol"`
	} `toml:"display"`

	// resolved by validate
	location *time.Location
	store    pricelog.StoreOptions
	windows  []pricelog.Window
	timeout  time.Duration
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		panic(err) // defaults are always valid
	}
	return cfg
}

// Load reads the configuration at path. A missing file is not an error, the
// defaults apply.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, fmt.Errorf("%w: %w", pricelog.ErrConfiguration, err)
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %w", pricelog.ErrConfiguration, path, err)
	default:
		if keys := md.Undecoded(); len(keys) > 0 {
			return nil, fmt.Errorf("%w: %s: unknown keys %v", pricelog.ErrConfiguration, path, keys)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", pricelog.ErrConfiguration, err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pricelog.ErrConfiguration, path, err)
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func applyEnv(cfg *Config) error {
	cfg.Timezone = getEnv("PRICELOG_TIMEZONE", cfg.Timezone)
	cfg.Paths.Holdings = getEnv("PRICELOG_HOLDINGS", cfg.Paths.Holdings)
	cfg.Paths.Ledger = getEnv("PRICELOG_LEDGER", cfg.Paths.Ledger)
	cfg.Store.Backend = getEnv("PRICELOG_BACKEND", cfg.Store.Backend)
	cfg.Source.BaseURL = getEnv("PRICELOG_BASE_URL", cfg.Source.BaseURL)
	cfg.Source.Benchmark = getEnv("PRICELOG_BENCHMARK", cfg.Source.Benchmark)
	cfg.Source.CacheDir = getEnv("PRICELOG_CACHE_DIR", cfg.Source.CacheDir)
	cfg.Display.Currency = getEnv("PRICELOG_CURRENCY", cfg.Display.Currency)

	var errs []error
	var err error
	if cfg.Store.MaxRows, err = getEnvInt("PRICELOG_MAX_ROWS", cfg.Store.MaxRows); err != nil {
		errs = append(errs, err)
	}
	if cfg.Period.AnchorDay, err = getEnvInt("PRICELOG_ANCHOR_DAY", cfg.Period.AnchorDay); err != nil {
		errs = append(errs, err)
	}
	if v := os.Getenv("PRICELOG_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("PRICELOG_RATE: %w", err))
		}
		cfg.Display.Rate = rate
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Paths.Holdings == "" {
		cfg.Paths.Holdings = "holdings.json"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendJSON
	}
	if cfg.Paths.Ledger == "" {
		if cfg.Store.Backend == BackendSQLite {
			cfg.Paths.Ledger = "price_history.db"
		} else {
			cfg.Paths.Ledger = "price_history.json"
		}
	}
	if cfg.Store.MaxRows <= 0 {
		cfg.Store.MaxRows = pricelog.DefaultMaxRows
	}
	if cfg.Store.Dedup == "" {
		cfg.Store.Dedup = "1m"
	}
	if cfg.Period.AnchorDay == 0 {
		cfg.Period.AnchorDay = pricelog.DefaultAnchorDay
	}
	if len(cfg.Analytics.Windows) == 0 {
		for _, w := range pricelog.DefaultWindows() {
			cfg.Analytics.Windows = append(cfg.Analytics.Windows, w.Name)
		}
	}
	if cfg.Source.Timeout == "" {
		cfg.Source.Timeout = pricelog.DefaultTimeout.String()
	}
	if cfg.Source.BackfillDays <= 0 {
		cfg.Source.BackfillDays = pricelog.DefaultBackfillDays
	}
	if cfg.Source.Benchmark == "" {
		cfg.Source.Benchmark = pricelog.DefaultBenchmark
	}
	if cfg.Display.BaseCurrency == "" {
		cfg.Display.BaseCurrency = "USD"
	}
	if cfg.Display.Currency == "" {
		cfg.Display.Currency = cfg.Display.BaseCurrency
	}
}

func validate(cfg *Config) error {
	var err error
	if cfg.location, err = loadLocation(cfg.Timezone); err != nil {
		return err
	}

	switch cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend)); cfg.Store.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("store.backend %q is neither %q nor %q", cfg.Store.Backend, BackendJSON, BackendSQLite)
	}
	granularity, err := time.ParseDuration(cfg.Store.Dedup)
	if err != nil || granularity < 0 {
		return fmt.Errorf("store.dedup %q is not a valid duration", cfg.Store.Dedup)
	}
	mode, err := pricelog.ParseMode(cfg.Store.Mode)
	if err != nil {
		return fmt.Errorf("store.mode: %w", err)
	}
	cfg.store = pricelog.StoreOptions{Granularity: granularity, Mode: mode, MaxRows: cfg.Store.MaxRows}

	if _, err := pricelog.NewPeriods(cfg.Period.AnchorDay, cfg.location); err != nil {
		return fmt.Errorf("period.anchor_day: %w", err)
	}

	cfg.windows = cfg.windows[:0]
	for _, s := range cfg.Analytics.Windows {
		w, err := pricelog.ParseWindow(s)
		if err != nil {
			return fmt.Errorf("analytics.windows: %w", err)
		}
		cfg.windows = append(cfg.windows, w)
	}

	if cfg.timeout, err = time.ParseDuration(cfg.Source.Timeout); err != nil || cfg.timeout <= 0 {
		return fmt.Errorf("source.timeout %q is not a positive duration", cfg.Source.Timeout)
	}
	cfg.Source.Benchmark = strings.ToUpper(strings.TrimSpace(cfg.Source.Benchmark))

	if cfg.Display.Rate < 0 {
		return fmt.Errorf("display.rate %v is negative", cfg.Display.Rate)
	}
	cfg.Display.BaseCurrency = strings.ToUpper(cfg.Display.BaseCurrency)
	cfg.Display.Currency = strings.ToUpper(cfg.Display.Currency)
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, err)
	}
	return loc, nil
}

// Location returns the ledger and period location.
func (c *Config) Location() *time.Location { return c.location }

// StoreOptions returns the options of the ledger store.
func (c *Config) StoreOptions() pricelog.StoreOptions { return c.store }

// Periods returns the anchored periods.
func (c *Config) Periods() pricelog.Periods {
	return pricelog.Periods{AnchorDay: c.Period.AnchorDay, Location: c.location}
}

// Windows returns the trailing windows of the report.
func (c *Config) Windows() []pricelog.Window { return c.windows }

// Timeout bounds every call to the price source.
func (c *Config) Timeout() time.Duration { return c.timeout }

// UpdateOptions returns the options of the sampling run.
func (c *Config) UpdateOptions() pricelog.UpdateOptions {
	return pricelog.UpdateOptions{
		Benchmark:    c.Source.Benchmark,
		BackfillDays: c.Source.BackfillDays,
		Timeout:      c.timeout,
	}
}

// Converter returns the display currency converter, or nil when amounts are
// displayed in the base currency. A static rate wins over a rate symbol.
// Without either, the converter fails and the base currency is displayed.
func (c *Config) Converter(src pricelog.Source) pricelog.Converter {
	switch {
	case c.Display.Currency == c.Display.BaseCurrency:
		return nil
	case c.Display.Rate > 0:
		return pricelog.StaticRate(decimal.NewFromFloat(c.Display.Rate))
	case c.Display.RateSymbol != "" && src != nil:
		return pricelog.SourceRate{Source: src, Symbol: c.Display.RateSymbol, Timeout: c.timeout}
	default:
		return pricelog.MissingRate(c.Display.Currency)
	}
}
