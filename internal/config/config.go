// Package config provides functionality for managing configuration options
// for the client using command-line flags, a JSON config file, a .env file
// and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// State store backends.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite3"
	StorePostgres = "postgres"
)

// Options holds the configuration values for the client.
type Options struct {
	// ServerURL is the base URL of the inventory API.
	ServerURL string `json:"server_url"`

	// Address is the listen address (ip:port) of the browser UI.
	Address string `json:"address"`

	// Store selects where the session is persisted: file, sqlite3 or postgres.
	Store string `json:"store"`

	// StatePath is the JSON file used by the file store.
	StatePath string `json:"state_path"`

	// StateDSN is the connection string used by the SQL stores.
	StateDSN string `json:"state_dsn"`

	// CAFile is an optional PEM bundle trusted for the API's TLS certificate.
	CAFile string `json:"ca_file"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// NoticeTTL is how long an error notice stays visible.
	NoticeTTL Duration `json:"notice_ttl"`

	// RequestTimeout bounds each API call. Zero disables the limit.
	RequestTimeout Duration `json:"request_timeout"`

	// Timezone names the location timestamps are rendered in.
	Timezone string `json:"timezone"`

	// Config is the path to the config file.
	Config string `json:"-"`
}

// Duration is a time.Duration that reads "5s" style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Location resolves Timezone, defaulting to the local zone.
func (o *Options) Location() (*time.Location, error) {
	if o.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(o.Timezone)
}

// Validate checks the combination of options.
func (o *Options) Validate() error {
	if o.ServerURL == "" {
		return errors.New("server url must be provided")
	}
	if !strings.HasPrefix(o.ServerURL, "http://") && !strings.HasPrefix(o.ServerURL, "https://") {
		return fmt.Errorf("server url %q must start with http:// or https://", o.ServerURL)
	}
	switch o.Store {
	case StoreFile:
		if o.StatePath == "" {
			return errors.New("state path must be provided for the file store")
		}
	case StoreSQLite, StorePostgres:
		if o.StateDSN == "" {
			return fmt.Errorf("state dsn must be provided for the %s store", o.Store)
		}
	default:
		return fmt.Errorf("unknown state store %q", o.Store)
	}
	if o.NoticeTTL <= 0 {
		return errors.New("notice ttl must be positive")
	}
	if o.RequestTimeout < 0 {
		return errors.New("request timeout must not be negative")
	}
	if _, err := o.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

// Parse reads configuration for the running binary from os.Args and the
// environment. It exits the process on invalid input, like flag.Parse.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[0], os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return opts
}

// ParseArgs parses command-line flags, then applies the config file and
// environment variables on top. Environment wins over the file, and the
// file wins over flag defaults.
func ParseArgs(name string, args []string) (*Options, error) {
	// Missing .env files are fine; configuration may come from the environment directly.
	_ = godotenv.Load()

	options := &Options{}
	noticeTTL := 5 * time.Second
	var requestTimeout time.Duration

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&options.ServerURL, "url", "http://localhost:8080", "inventory API base URL")
	fs.StringVar(&options.Address, "a", "localhost:3000", "run browser UI on ip:port")
	fs.StringVar(&options.Store, "store", StoreFile, "session store: file | sqlite3 | postgres")
	fs.StringVar(&options.StatePath, "state", "session.json", "session file for the file store")
	fs.StringVar(&options.StateDSN, "d", "", "session store dsn for sqlite3/postgres")
	fs.StringVar(&options.CAFile, "ca", "", "path to CA cert trusted for the API")
	fs.StringVar(&options.LogLevel, "log", "info", "log level")
	fs.DurationVar(&noticeTTL, "notice-ttl", noticeTTL, "how long error notices stay visible")
	fs.DurationVar(&requestTimeout, "timeout", 0, "per-request timeout, 0 disables it")
	fs.StringVar(&options.Timezone, "tz", "", "time zone for rendered timestamps")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	options.NoticeTTL = Duration(noticeTTL)
	options.RequestTimeout = Duration(requestTimeout)

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if err := applyEnv(options); err != nil {
		return nil, err
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func applyEnv(o *Options) error {
	strs := map[string]*string{
		"SERVER_URL":    &o.ServerURL,
		"WEBUI_ADDRESS": &o.Address,
		"STATE_STORE":   &o.Store,
		"STATE_PATH":    &o.StatePath,
		"STATE_DSN":     &o.StateDSN,
		"CA_FILE":       &o.CAFile,
		"LOG_LEVEL":     &o.LogLevel,
		"TIMEZONE":      &o.Timezone,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*Duration{
		"NOTICE_TTL":      &o.NoticeTTL,
		"REQUEST_TIMEOUT": &o.RequestTimeout,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = Duration(d)
	}
	return nil
}
