package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/stockroom/internal/config"
	"github.com/atinyakov/stockroom/internal/service"
	"github.com/atinyakov/stockroom/internal/testutil"
)

func options(srvURL string) *config.Options {
	return &config.Options{
		ServerURL: srvURL,
		NoticeTTL: config.Duration(time.Second),
		Timezone:  "UTC",
	}
}

func TestNew_SessionSurvivesRestart(t *testing.T) {
	srv := testutil.NewInventoryServer(t)
	ctx := context.Background()

	stores := map[string]func(o *config.Options, dir string){
		config.StoreFile: func(o *config.Options, dir string) {
			o.StatePath = filepath.Join(dir, "state", "session.json")
		},
		config.StoreSQLite: func(o *config.Options, dir string) {
			o.StateDSN = filepath.Join(dir, "state.db")
		},
	}
	for name, setup := range stores {
		t.Run(name, func(t *testing.T) {
			opts := options(srv.URL)
			opts.Store = name
			setup(opts, t.TempDir())

			first, err := New(opts, nil)
			require.NoError(t, err)
			require.False(t, first.Workspace.Start(ctx))
			require.NoError(t, first.Workspace.Login(ctx, "manager123", "pw"))
			require.NoError(t, first.Close())

			second, err := New(opts, nil)
			require.NoError(t, err)
			defer second.Close()
			assert.True(t, second.Workspace.Start(ctx))
			assert.Equal(t, service.ScreenMain, second.Workspace.Auth.Screen())
			assert.Equal(t, "manager123", second.Workspace.Auth.Session().Current().Username)
		})
	}
}

func TestNew_EmptyStateFile(t *testing.T) {
	srv := testutil.NewInventoryServer(t)
	ctx := context.Background()

	opts := options(srv.URL)
	opts.Store = config.StoreFile
	opts.StatePath = filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(opts.StatePath, nil, 0o600))

	a, err := New(opts, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.False(t, a.Workspace.Start(ctx))
	assert.Equal(t, service.ScreenLogin, a.Workspace.Auth.Screen())

	require.NoError(t, a.Workspace.Login(ctx, "admin123", "pw"))
	buf, err := os.ReadFile(opts.StatePath)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "admin123")
}

func TestOpenStore_Unknown(t *testing.T) {
	opts := options("http://localhost")
	opts.Store = "redis"
	_, _, err := OpenStore(opts, nil)
	assert.ErrorContains(t, err, "unknown state store")
}

func TestNew_BadTimezone(t *testing.T) {
	opts := options("http://localhost")
	opts.Store = config.StoreFile
	opts.StatePath = filepath.Join(t.TempDir(), "s.json")
	opts.Timezone = "Mars/Olympus"
	_, err := New(opts, nil)
	assert.Error(t, err)
}
