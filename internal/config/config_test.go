package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so no stray .env or
// config.json is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return dir
}

func TestParseArgs_Defaults(t *testing.T) {
	chdirTemp(t)

	opts, err := ParseArgs("client", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", opts.ServerURL)
	assert.Equal(t, "localhost:3000", opts.Address)
	assert.Equal(t, StoreFile, opts.Store)
	assert.Equal(t, "session.json", opts.StatePath)
	assert.Equal(t, 5*time.Second, opts.NoticeTTL.Std())
	assert.Zero(t, opts.RequestTimeout)
}

func TestParseArgs_FileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	cfg := filepath.Join(dir, "client.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{
		"server_url": "http://inventory:9000",
		"store": "sqlite3",
		"state_dsn": "file:state.db",
		"notice_ttl": "2s"
	}`), 0o600))

	t.Setenv("SERVER_URL", "https://api.example.com")
	t.Setenv("REQUEST_TIMEOUT", "3s")

	opts, err := ParseArgs("client", []string{"-c", cfg, "-url", "http://flag:1"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", opts.ServerURL)
	assert.Equal(t, StoreSQLite, opts.Store)
	assert.Equal(t, "file:state.db", opts.StateDSN)
	assert.Equal(t, 2*time.Second, opts.NoticeTTL.Std())
	assert.Equal(t, 3*time.Second, opts.RequestTimeout.Std())
}

func TestParseArgs_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("LOG_LEVEL") })

	opts, err := ParseArgs("client", nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", opts.LogLevel)
}

func TestValidate(t *testing.T) {
	base := func() Options {
		return Options{
			ServerURL: "http://localhost:8080",
			Store:     StoreFile,
			StatePath: "session.json",
			NoticeTTL: Duration(time.Second),
		}
	}

	tests := []struct {
		name       string
		mutate     func(*Options)
		wantSubstr string
	}{
		{"ok", func(*Options) {}, ""},
		{"no url", func(o *Options) { o.ServerURL = "" }, "server url must be provided"},
		{"bad scheme", func(o *Options) { o.ServerURL = "ftp://x" }, "must start with"},
		{"unknown store", func(o *Options) { o.Store = "redis" }, "unknown state store"},
		{"sql without dsn", func(o *Options) { o.Store = StorePostgres }, "state dsn must be provided"},
		{"zero ttl", func(o *Options) { o.NoticeTTL = 0 }, "notice ttl"},
		{"bad tz", func(o *Options) { o.Timezone = "Mars/Olympus" }, "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSubstr)
		})
	}
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1500ms"`)))
	assert.Equal(t, 1500*time.Millisecond, d.Std())
	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, 1000*time.Nanosecond, d.Std())
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
