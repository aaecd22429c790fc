// Package config loads settings from defaults, an optional YAML file,
// REVISIT_* environment variables, and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultPath is read when present; a missing file at this path is not an error.
	DefaultPath = "revisit.yaml"
	EnvPrefix   = "REVISIT_"
)

// Config is the full application configuration.
type Config struct {
	Storage  StorageConfig  `koanf:"storage"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Log      LogConfig      `koanf:"log"`
	Server   ServerConfig   `koanf:"server"`
	Notes    NotesConfig    `koanf:"notes"`
	Document DocumentConfig `koanf:"document"`
}

type StorageConfig struct {
	Driver string `koanf:"driver" validate:"oneof=sqlite memory"`
	Path   string `koanf:"path" validate:"required_if=Driver sqlite"`
	Key    string `koanf:"key" validate:"required"`
}

type ScheduleConfig struct {
	// Timezone is an IANA name deciding which calendar day counts as today.
	Timezone string `koanf:"timezone" validate:"required"`
}

// Location resolves Timezone.
func (c ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalid, c.Timezone, err)
	}
	return loc, nil
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

type NotesConfig struct {
	Dir      string `koanf:"dir"`
	GitURL   string `koanf:"git_url" validate:"omitempty,url"`
	Checkout string `koanf:"checkout" validate:"required_with=GitURL"`
}

// DocumentConfig is the document position new items fall back to when the
// caller gives none.
type DocumentConfig struct {
	Name string `koanf:"name"`
	Page int    `koanf:"page" validate:"gte=0"`
	URL  string `koanf:"url" validate:"omitempty,url"`
}

var ErrInvalid = errors.New("invalid configuration")

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Storage:  StorageConfig{Driver: "sqlite", Path: "revisit.db", Key: "revisions"},
		Schedule: ScheduleConfig{Timezone: "UTC"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Server:   ServerConfig{Addr: ":8080"},
		Notes:    NotesConfig{Checkout: ".revisit/notes"},
	}
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"storage":    "storage.driver",
	"db":         "storage.path",
	"timezone":   "schedule.timezone",
	"log-level":  "log.level",
	"log-format": "log.format",
	"addr":       "server.addr",
	"notes-dir":  "notes.dir",
	"git-url":    "notes.git_url",
}

// Load builds a Config. path names a YAML file; an empty path skips the file
// and a missing DefaultPath is ignored. flags may be nil; only flags the user
// set override earlier layers.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !(path == DefaultPath && errors.Is(err, fs.ErrNotExist)) {
				return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("loading flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey turns REVISIT_NOTES_GIT_URL into notes.git_url. Keys have one
// section level, so only the first underscore separates.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Validate checks field constraints and that the timezone resolves.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.Schedule.Location(); err != nil {
		return err
	}
	return nil
}
