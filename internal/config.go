package internal

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL       = "https://d4armory.io/api"
	DefaultDataPath      = "data"
	DefaultQueueAttempts = 3
	DefaultQueueSleep    = 5 * time.Second
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultLogFile       = "fetch_data.log"
	DefaultUserAgent     = "armory-history/dev"
)

// ErrNoAccounts is returned when no account identifiers were configured
var ErrNoAccounts = errors.New("no account ids to fetch, pass in value or set environment variable: ACCOUNT_ID")

// Config holds fetch pipeline settings. Values are layered: defaults, then
// an optional YAML file, then environment variables, then command-line
// flags applied by the caller.
type Config struct {
	AccountIDs      []string      `env:"ACCOUNT_ID" envSeparator:"," yaml:"account_ids"`
	DataPath        string        `env:"DATA_PATH" yaml:"data_path"`
	QueueAttempts   int           `env:"PROFILE_QUEUE_ATTEMPTS" yaml:"queue_attempts"`
	QueueSleep      time.Duration `env:"PROFILE_QUEUE_SLEEP" yaml:"queue_sleep"`
	BaseURL         string        `env:"ARMORY_BASE_URL" yaml:"base_url"`
	Schema          string        `env:"ARMORY_SCHEMA" yaml:"schema"`
	VolatileKeys    []string      `env:"ARMORY_VOLATILE_KEYS" envSeparator:"," yaml:"volatile_keys"`
	RequestRate     float64       `env:"ARMORY_REQUEST_RATE" yaml:"request_rate"`
	HTTPTimeout     time.Duration `env:"ARMORY_HTTP_TIMEOUT" yaml:"http_timeout"`
	UserAgent       string        `env:"ARMORY_USER_AGENT" yaml:"user_agent"`
	HistoryDB       string        `env:"ARMORY_HISTORY_DB" yaml:"history_db"`
	LogFile         string        `env:"ARMORY_LOG_FILE" yaml:"log_file"`
	ContinueOnError bool          `env:"ARMORY_CONTINUE_ON_ERROR" yaml:"continue_on_error"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		DataPath:      DefaultDataPath,
		QueueAttempts: DefaultQueueAttempts,
		QueueSleep:    DefaultQueueSleep,
		BaseURL:       DefaultBaseURL,
		Schema:        SchemaFull,
		HTTPTimeout:   DefaultHTTPTimeout,
		UserAgent:     DefaultUserAgent,
		LogFile:       DefaultLogFile,
	}
}

// LoadConfig builds a Config from defaults, the YAML file at path (skipped
// when path is empty) and the environment. A nil environ reads the process
// environment.
func LoadConfig(path string, environ map[string]string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, &ConfigError{Key: path, Err: err}
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &ConfigError{Key: path, Err: fmt.Errorf("failed to unmarshal config: %w", err)}
		}
	}

	opts := env.Options{
		Environment: environ,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): func(v string) (interface{}, error) {
				return ParseDuration(v)
			},
		},
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, &ConfigError{Key: "env", Err: fmt.Errorf("parse env: %w", err)}
	}

	cfg.AccountIDs = cleanList(cfg.AccountIDs)
	cfg.VolatileKeys = cleanList(cfg.VolatileKeys)
	return cfg, nil
}

// Validate reports the first configuration problem found
func (c Config) Validate() error {
	if len(c.AccountIDs) == 0 {
		return &ConfigError{Key: "ACCOUNT_ID", Err: ErrNoAccounts}
	}
	if c.DataPath == "" {
		return &ConfigError{Key: "DATA_PATH", Err: errors.New("must not be empty")}
	}
	if c.QueueAttempts < 1 {
		return &ConfigError{Key: "PROFILE_QUEUE_ATTEMPTS", Err: fmt.Errorf("must be at least 1, got %d", c.QueueAttempts)}
	}
	if c.QueueSleep < 0 {
		return &ConfigError{Key: "PROFILE_QUEUE_SLEEP", Err: fmt.Errorf("must not be negative, got %s", c.QueueSleep)}
	}
	if c.RequestRate < 0 {
		return &ConfigError{Key: "ARMORY_REQUEST_RATE", Err: fmt.Errorf("must not be negative, got %g", c.RequestRate)}
	}
	if c.BaseURL == "" {
		return &ConfigError{Key: "ARMORY_BASE_URL", Err: errors.New("must not be empty")}
	}
	if _, err := ParseSchema(c.Schema); err != nil {
		return &ConfigError{Key: "ARMORY_SCHEMA", Err: err}
	}
	return nil
}

// ParseDuration accepts a Go duration ("5s", "1m30s") or a bare number of
// seconds ("5", "2.5")
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return d, nil
}

// SplitIDs splits comma separated values, trims them and drops empty and
// repeated entries, keeping first occurrence order
func SplitIDs(values ...string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, ",")...)
	}
	return cleanList(parts)
}

func cleanList(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
