package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by the config, e.g.
// WORDPRACTICE_SESSION__SIZE sets session.size.
const EnvPrefix = "WORDPRACTICE_"

// Config holds application configuration loaded from files, environment
// variables and flags.
type Config struct {
	DB      string  `koanf:"db" validate:"required"`
	Session Session `koanf:"session"`
	List    List    `koanf:"list"`
	Log     Log     `koanf:"log"`
	Sources Sources `koanf:"sources"`
	HTTP    HTTP    `koanf:"http"`
}

type Session struct {
	Size   int `koanf:"size" validate:"min=1"`   // words per review session
	Sample int `koanf:"sample" validate:"min=1"` // due words sampled before shuffling
}

type List struct {
	PageSize int `koanf:"page_size" validate:"min=1"`
}

type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

type Sources struct {
	ReposDir     string        `koanf:"repos_dir" validate:"required"`  // where git sources are checked out
	SyncInterval time.Duration `koanf:"sync_interval" validate:"min=0"` // periodic sync in serve mode, 0 disables
}

type HTTP struct {
	Addr string `koanf:"addr" validate:"required"`
}

// SlogLevel maps the configured level name to a slog.Level.
func (l Log) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Flags returns the flag set that carries every config key and its default,
// plus the command switches handled by main.
func Flags(name string) *pflag.FlagSet {
	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("config", "wordpractice.yaml", "Path to the YAML config file")
	f.String("db", "wordpractice.db", "Path to the SQLite database file")
	f.Int("session.size", 20, "Maximum number of words in a review session")
	f.Int("session.sample", 100, "Number of most overdue words a session is drawn from")
	f.Int("list.page_size", 10, "Words per page on the list screen")
	f.String("log.level", "info", "Log level: debug, info, warn or error")
	f.String("sources.repos_dir", "repos", "Directory git sources are checked out in")
	f.Duration("sources.sync_interval", time.Hour, "How often sources are synced in serve mode (0 disables)")
	f.String("http.addr", ":8080", "Listen address in serve mode")

	f.String("add-source", "", "Add a word list source: a directory, a git URL or an .xlsx file")
	f.Bool("sync", false, "Sync all sources and exit")
	f.Bool("serve", false, "Serve the HTTP API instead of the interactive menu")
	return f
}

// Load builds the configuration from, in increasing priority: a .env file,
// the YAML config file, WORDPRACTICE_ environment variables and the flags
// that were set on the command line. Flags that were not set supply the
// defaults. Missing .env and config files are not an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	k := koanf.New(".")

	path, _ := flags.GetString("config")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config file %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) || flags.Changed("config") {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error loading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
