package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/client/api"
	"github.com/atinyakov/stockroom/internal/client/storage"
	"github.com/atinyakov/stockroom/internal/models"
	"github.com/atinyakov/stockroom/internal/service"
	"github.com/atinyakov/stockroom/internal/testutil"
)

type testUI struct {
	srv    *testutil.InventoryServer
	ws     *service.Workspace
	router http.Handler
}

func newTestUI(t *testing.T) *testUI {
	t.Helper()
	srv := testutil.NewInventoryServer(t)
	client, err := api.New(api.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	store := storage.NewLocalStorage(filepath.Join(t.TempDir(), "session.json"), nil)
	require.NoError(t, store.Load())

	ws := service.NewWorkspace(client, store, service.WorkspaceOptions{Location: time.UTC, NoticeTTL: time.Hour})
	pages, err := NewPageHandler(ws, nil)
	require.NoError(t, err)
	return &testUI{srv: srv, ws: ws, router: NewRouter(pages, zap.NewNop())}
}

func (u *testUI) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	u.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (u *testUI) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	u.router.ServeHTTP(rec, req)
	return rec
}

func (u *testUI) login(t *testing.T, user string) {
	t.Helper()
	require.NoError(t, u.ws.Login(context.Background(), user, "pw"))
}

func requireRedirectHome(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestIndex_LoginPage(t *testing.T) {
	ui := newTestUI(t)

	rec := ui.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `action="/login"`)
	for _, u := range service.KnownUsers() {
		assert.Contains(t, body, `<option value="`+u+`">`)
	}
}

func TestLogin_Form(t *testing.T) {
	ui := newTestUI(t)

	rec := ui.post(t, "/login", url.Values{"username": {"admin123"}, "password": {ui.srv.WrongPassword}})
	requireRedirectHome(t, rec)
	assert.Contains(t, ui.get(t, "/").Body.String(), "invalid credentials")

	rec = ui.post(t, "/login", url.Values{"username": {"admin123"}, "password": {"pw"}})
	requireRedirectHome(t, rec)
	body := ui.get(t, "/").Body.String()
	assert.Contains(t, body, "admin123 (admin)")
	assert.Contains(t, body, "No items")
	assert.Contains(t, body, `action="/items"`)
}

func TestLogin_RejectsJSON(t *testing.T) {
	ui := newTestUI(t)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ui.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestActions_RequireSession(t *testing.T) {
	ui := newTestUI(t)

	requireRedirectHome(t, ui.post(t, "/items", url.Values{"name": {"x"}, "quantity": {"1"}}))
	requireRedirectHome(t, ui.get(t, "/items/1/edit"))
	requireRedirectHome(t, ui.post(t, "/history/close", nil))
	assert.Zero(t, ui.srv.Calls("POST /items"))
}

func TestAddEditDelete_Admin(t *testing.T) {
	ui := newTestUI(t)
	ui.login(t, "admin123")

	requireRedirectHome(t, ui.post(t, "/items", url.Values{"name": {"Widget"}, "quantity": {"5"}}))
	body := ui.get(t, "/").Body.String()
	assert.Contains(t, body, "<td>Widget</td>")
	assert.Contains(t, body, `href="/items/1/edit"`)
	assert.Contains(t, body, `href="/items/1/delete"`)

	rec := ui.get(t, "/items/1/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Widget"`)
	assert.Contains(t, rec.Body.String(), `value="5"`)

	requireRedirectHome(t, ui.post(t, "/items/1/edit", url.Values{"action": {"cancel"}, "name": {"Nope"}, "quantity": {"1"}}))
	assert.Zero(t, ui.srv.Calls("PUT /items/{id}"))

	requireRedirectHome(t, ui.post(t, "/items/1/edit", url.Values{"action": {"save"}, "name": {"Widget"}, "description": {"blue"}, "quantity": {"0"}}))
	assert.Equal(t, 1, ui.srv.Calls("PUT /items/{id}"))
	it, ok := ui.ws.Catalog.Item(1)
	require.True(t, ok)
	assert.Equal(t, 0, it.Quantity)
	assert.Equal(t, "blue", it.Description)

	rec = ui.get(t, "/items/1/delete")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Widget will be removed")

	requireRedirectHome(t, ui.post(t, "/items/1/delete", url.Values{"confirm": {"no"}}))
	assert.Zero(t, ui.srv.Calls("DELETE /items/{id}"))

	requireRedirectHome(t, ui.post(t, "/items/1/delete", url.Values{"confirm": {"yes"}}))
	assert.Equal(t, 1, ui.srv.Calls("DELETE /items/{id}"))
	assert.Contains(t, ui.get(t, "/").Body.String(), "No items")
}

func TestActions_CrossSiteRejected(t *testing.T) {
	ui := newTestUI(t)
	ui.srv.Seed("Widget", 2)
	ui.login(t, "admin123")
	require.NoError(t, ui.ws.Catalog.LoadItems(context.Background()))

	forged := func(path string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		rec := httptest.NewRecorder()
		ui.router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, forged("/items/1/delete", url.Values{"confirm": {"yes"}}).Code)
	assert.Equal(t, http.StatusForbidden, forged("/items", url.Values{"name": {"x"}, "quantity": {"1"}}).Code)
	assert.Equal(t, http.StatusForbidden, forged("/logout", nil).Code)
	assert.Zero(t, ui.srv.Calls("DELETE /items/{id}"))
	assert.Zero(t, ui.srv.Calls("POST /items"))
	assert.Equal(t, service.ScreenMain, ui.ws.Auth.Screen())

	// the same delete from the UI's own page goes through
	req := httptest.NewRequest(http.MethodPost, "/items/1/delete", strings.NewReader("confirm=yes"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "http://"+req.Host)
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	rec := httptest.NewRecorder()
	ui.router.ServeHTTP(rec, req)
	requireRedirectHome(t, rec)
	assert.Equal(t, 1, ui.srv.Calls("DELETE /items/{id}"))
}

func TestAddItem_ValidationKeepsDraft(t *testing.T) {
	ui := newTestUI(t)
	ui.login(t, "manager123")

	requireRedirectHome(t, ui.post(t, "/items", url.Values{"name": {"Bolt"}, "quantity": {"lots"}}))
	body := ui.get(t, "/").Body.String()
	assert.Contains(t, body, "quantity must be a whole number")
	assert.Contains(t, body, `value="Bolt"`)
	assert.Contains(t, body, `value="lots"`)
	assert.Zero(t, ui.srv.Calls("POST /items"))
}

func TestViewer_NoMutatingControls(t *testing.T) {
	ui := newTestUI(t)
	ui.srv.Seed("Widget", 2)
	ui.login(t, "viewer123")

	body := ui.get(t, "/").Body.String()
	assert.Contains(t, body, "<td>Widget</td>")
	assert.NotContains(t, body, `action="/items"`)
	assert.NotContains(t, body, "/edit")
	assert.NotContains(t, body, "/delete")
	assert.NotContains(t, body, "/history")

	requireRedirectHome(t, ui.get(t, "/items/1/edit"))
	requireRedirectHome(t, ui.post(t, "/items/1/delete", url.Values{"confirm": {"yes"}}))
	assert.Contains(t, ui.get(t, "/").Body.String(), "action not permitted for your role")
	assert.Zero(t, ui.srv.Calls("DELETE /items/{id}"))
}

func TestHistoryOverlay(t *testing.T) {
	ui := newTestUI(t)
	it := ui.srv.Seed("Widget", 2)
	ui.srv.AddHistory(it.ID, models.HistoryEntry{
		Operation: "UPDATE",
		UserID:    "1",
		OldValue:  `{"quantity":1}`,
		NewValue:  `{"quantity":2}`,
		ChangedAt: time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC),
	})
	ui.login(t, "manager123")

	requireRedirectHome(t, ui.post(t, "/items/1/history", nil))
	body := ui.get(t, "/").Body.String()
	assert.Contains(t, body, "History of Widget")
	assert.Contains(t, body, "<th>New</th><th>When</th></tr>")
	assert.Contains(t, body, "<td>{&#34;quantity&#34;:2}</td><td>03.02.2025, 04:05:06</td></tr>")

	requireRedirectHome(t, ui.post(t, "/history/close", nil))
	assert.NotContains(t, ui.get(t, "/").Body.String(), "History of Widget")
}

func TestBadItemID(t *testing.T) {
	ui := newTestUI(t)
	ui.login(t, "admin123")

	requireRedirectHome(t, ui.get(t, "/items/abc/edit"))
	assert.Contains(t, ui.get(t, "/").Body.String(), "invalid item id &#34;abc&#34;")

	requireRedirectHome(t, ui.get(t, "/items/42/delete"))
	assert.Contains(t, ui.get(t, "/").Body.String(), "item 42 not found")
}

func TestLogout(t *testing.T) {
	ui := newTestUI(t)
	ui.login(t, "admin123")

	requireRedirectHome(t, ui.post(t, "/logout", nil))
	assert.Equal(t, service.ScreenLogin, ui.ws.Auth.Screen())
	assert.Contains(t, ui.get(t, "/").Body.String(), `action="/login"`)
}

func TestHealth(t *testing.T) {
	ui := newTestUI(t)
	rec := ui.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
