package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/stockroom/internal/models"
	"github.com/atinyakov/stockroom/internal/testutil"
)

func TestWorkspace_ManagerAddsItem(t *testing.T) {
	srv := testutil.NewInventoryServer(t)
	ctx := context.Background()
	w := NewWorkspace(newAPIClient(t, srv), newMemStore(), WorkspaceOptions{Location: time.UTC})

	require.False(t, w.Start(ctx))
	require.NoError(t, w.Login(ctx, "manager123", "secret"))
	assert.Equal(t, ScreenMain, w.Auth.Screen())

	view := w.Catalog.View()
	assert.True(t, view.Empty)
	assert.True(t, view.AddFormVisible)

	require.NoError(t, w.Catalog.AddItem(ctx, models.ItemForm{Name: "Widget", Quantity: "5"}))
	view = w.Catalog.View()
	require.Len(t, view.Rows, 1)
	row := view.Rows[0]
	assert.Equal(t, "Widget", row.Name)
	assert.Equal(t, 5, row.Quantity)
	assert.NotEmpty(t, row.Created)
	assert.NotEmpty(t, row.Updated)
	assert.Equal(t, []Action{ActionHistory, ActionEdit}, row.Actions)

	require.NoError(t, w.History.ShowHistory(ctx, row.ID, row.Name))
	hv, open := w.History.Overlay()
	require.True(t, open)
	assert.Equal(t, "No history", hv.Placeholder)
}

func TestWorkspace_StartRestoresSession(t *testing.T) {
	srv := testutil.NewInventoryServer(t)
	srv.Seed("Widget", 1)
	store := newMemStore(KeyToken, srv.IssueToken(t, "viewer123"), KeyUser, "viewer123", KeyRole, "viewer")
	w := NewWorkspace(newAPIClient(t, srv), store, WorkspaceOptions{})

	require.True(t, w.Start(context.Background()))
	assert.Len(t, w.Catalog.Items(), 1)
	assert.False(t, w.Catalog.View().AddFormVisible)
}

func TestWorkspace_ReportAndLogout(t *testing.T) {
	store := newMemStore(KeyToken, "t", KeyUser, "admin123", KeyRole, "admin")
	w := NewWorkspace(&mockAPI{}, store, WorkspaceOptions{NoticeTTL: time.Hour})
	require.True(t, w.Start(context.Background()))

	w.Report(ErrCancelled)
	assert.Empty(t, w.Notices.Message())

	w.Report(ErrForbidden)
	assert.Equal(t, "action not permitted for your role", w.Notices.Message())

	w.Logout(context.Background())
	assert.Empty(t, w.Notices.Message())
	assert.Equal(t, ScreenLogin, w.Auth.Screen())
	assert.Zero(t, store.len())
}
