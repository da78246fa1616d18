package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", map[string]string{})
	require.NoError(t, err)

	require.Equal(t, DefaultDataPath, cfg.DataPath)
	require.Equal(t, DefaultQueueAttempts, cfg.QueueAttempts)
	require.Equal(t, DefaultQueueSleep, cfg.QueueSleep)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, SchemaFull, cfg.Schema)
	require.Empty(t, cfg.AccountIDs)
}

func TestLoadConfig_Environment(t *testing.T) {
	cfg, err := LoadConfig("", map[string]string{
		"ACCOUNT_ID":             "A1, A2,,A3 ",
		"DATA_PATH":              "/srv/data",
		"PROFILE_QUEUE_ATTEMPTS": "7",
		"PROFILE_QUEUE_SLEEP":    "250ms",
		"ARMORY_SCHEMA":          "compact",
		"ARMORY_VOLATILE_KEYS":   "seasonRank, paragon",
	})
	require.NoError(t, err)

	require.Equal(t, []string{"A1", "A2", "A3"}, cfg.AccountIDs)
	require.Equal(t, "/srv/data", cfg.DataPath)
	require.Equal(t, 7, cfg.QueueAttempts)
	require.Equal(t, 250*time.Millisecond, cfg.QueueSleep)
	require.Equal(t, SchemaCompact, cfg.Schema)
	require.Equal(t, []string{"seasonRank", "paragon"}, cfg.VolatileKeys)
}

func TestLoadConfig_AttemptsAndSleepAreIndependent(t *testing.T) {
	cfg, err := LoadConfig("", map[string]string{"PROFILE_QUEUE_ATTEMPTS": "9"})
	require.NoError(t, err)

	require.Equal(t, 9, cfg.QueueAttempts)
	require.Equal(t, DefaultQueueSleep, cfg.QueueSleep)
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "armory.yaml")
	content := `account_ids: [F1, F2]
data_path: file-data
queue_attempts: 4
queue_sleep: 2s
schema: compact
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path, map[string]string{"DATA_PATH": "env-data"})
	require.NoError(t, err)

	require.Equal(t, []string{"F1", "F2"}, cfg.AccountIDs)
	require.Equal(t, "env-data", cfg.DataPath)
	require.Equal(t, 4, cfg.QueueAttempts)
	require.Equal(t, 2*time.Second, cfg.QueueSleep)
	require.Equal(t, SchemaCompact, cfg.Schema)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("queue_attempts: [oops"), 0644))

	tests := []struct {
		name    string
		path    string
		environ map[string]string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.yaml"), environ: map[string]string{}},
		{name: "malformed file", path: bad, environ: map[string]string{}},
		{name: "bad env int", environ: map[string]string{"PROFILE_QUEUE_ATTEMPTS": "three"}},
		{name: "bad env duration", environ: map[string]string{"PROFILE_QUEUE_SLEEP": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path, tt.environ)
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.AccountIDs = []string{"A1"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{name: "no accounts", mutate: func(c *Config) { c.AccountIDs = nil }, key: "ACCOUNT_ID"},
		{name: "empty data path", mutate: func(c *Config) { c.DataPath = "" }, key: "DATA_PATH"},
		{name: "zero attempts", mutate: func(c *Config) { c.QueueAttempts = 0 }, key: "PROFILE_QUEUE_ATTEMPTS"},
		{name: "negative sleep", mutate: func(c *Config) { c.QueueSleep = -time.Second }, key: "PROFILE_QUEUE_SLEEP"},
		{name: "negative rate", mutate: func(c *Config) { c.RequestRate = -1 }, key: "ARMORY_REQUEST_RATE"},
		{name: "no base url", mutate: func(c *Config) { c.BaseURL = "" }, key: "ARMORY_BASE_URL"},
		{name: "bad schema", mutate: func(c *Config) { c.Schema = "v9" }, key: "ARMORY_SCHEMA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			require.Equal(t, tt.key, cfgErr.Key)
		})
	}

	noAccounts := valid
	noAccounts.AccountIDs = nil
	require.ErrorIs(t, noAccounts.Validate(), ErrNoAccounts)
}

func TestLoadConfig_SleepInSeconds(t *testing.T) {
	cfg, err := LoadConfig("", map[string]string{"PROFILE_QUEUE_SLEEP": "5", "ARMORY_HTTP_TIMEOUT": "1m"})
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.QueueSleep)
	require.Equal(t, time.Minute, cfg.HTTPTimeout)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "5", want: 5 * time.Second},
		{in: "2.5", want: 2500 * time.Millisecond},
		{in: "90s", want: 90 * time.Second},
		{in: " 1m ", want: time.Minute},
		{in: "later", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSplitIDs(t *testing.T) {
	require.Equal(t, []string{"A1", "A2", "A3"}, SplitIDs("A1, A2", "A2,,A3", " A1 "))
	require.Empty(t, SplitIDs("", " , "))
}

func TestLoadConfig_DuplicateAccounts(t *testing.T) {
	cfg, err := LoadConfig("", map[string]string{"ACCOUNT_ID": "A1,A2,A1"})
	require.NoError(t, err)
	require.Equal(t, []string{"A1", "A2"}, cfg.AccountIDs)
}
