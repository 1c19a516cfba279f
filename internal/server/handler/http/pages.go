// Package http serves the browser front end of the inventory client. Every
// page is rendered from the shared Workspace; every action posts a form and
// redirects back to the start page.
package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/models"
	"github.com/atinyakov/stockroom/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// page carries what every template shows.
type page struct {
	Notice string
}

type loginPage struct {
	page
	Users []string
}

type mainPage struct {
	page
	Label       string
	Catalog     service.CatalogView
	Draft       models.ItemForm
	History     service.HistoryView
	HistoryOpen bool
}

type editPage struct {
	page
	ID   int64
	Form models.ItemForm
}

type deletePage struct {
	page
	ID   int64
	Name string
}

// PageHandler renders the pages and runs the form actions.
type PageHandler struct {
	// Workspace is the single client session the UI drives.
	Workspace *service.Workspace

	log  *zap.Logger
	tmpl *template.Template
}

// NewPageHandler parses the embedded templates.
func NewPageHandler(ws *service.Workspace, log *zap.Logger) (*PageHandler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &PageHandler{Workspace: ws, log: log, tmpl: tmpl}, nil
}

// SignedIn reports whether the main screen is active.
func (h *PageHandler) SignedIn() bool {
	return h.Workspace.Auth.Screen() == service.ScreenMain
}

func (h *PageHandler) notice() page {
	return page{Notice: h.Workspace.Notices.Message()}
}

// Index shows the login page or the main page.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	ws := h.Workspace
	if !h.SignedIn() {
		h.render(w, "login.html", loginPage{page: h.notice(), Users: service.KnownUsers()})
		return
	}

	data := mainPage{
		page:    h.notice(),
		Label:   ws.Auth.Session().Current().Label(),
		Catalog: ws.Catalog.View(),
		Draft:   ws.Catalog.Draft(),
	}
	data.History, data.HistoryOpen = ws.History.Overlay()
	h.render(w, "main.html", data)
}

// Login signs in with the submitted account and password.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	err := h.Workspace.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	h.Workspace.Report(err)
	home(w, r)
}

// Logout ends the session.
func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Workspace.Logout(r.Context())
	home(w, r)
}

// AddItem submits the add form.
func (h *PageHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.Workspace.Report(h.Workspace.Catalog.AddItem(r.Context(), itemForm(r)))
	home(w, r)
}

// EditForm shows the edit form filled with the item's current values.
func (h *PageHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	if !h.role().CanEdit() {
		h.fail(w, r, service.ErrForbidden)
		return
	}
	it, ok := h.item(w, r)
	if !ok {
		return
	}
	h.render(w, "edit.html", editPage{
		page: h.notice(),
		ID:   it.ID,
		Form: models.ItemForm{
			Name:        it.Name,
			Description: it.Description,
			Quantity:    strconv.Itoa(it.Quantity),
		},
	})
}

// EditItem submits or cancels the edit form.
func (h *PageHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	if r.PostFormValue("action") == "cancel" {
		home(w, r)
		return
	}
	h.Workspace.Report(h.Workspace.Catalog.EditItem(r.Context(), id, itemForm(r)))
	home(w, r)
}

// DeleteForm asks for confirmation.
func (h *PageHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if !h.role().CanDelete() {
		h.fail(w, r, service.ErrForbidden)
		return
	}
	it, ok := h.item(w, r)
	if !ok {
		return
	}
	h.render(w, "delete.html", deletePage{page: h.notice(), ID: it.ID, Name: it.Name})
}

// DeleteItem deletes the item when the confirmation was accepted.
func (h *PageHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	confirmed := func() bool { return r.PostFormValue("confirm") == "yes" }
	h.Workspace.Report(h.Workspace.Catalog.DeleteItem(r.Context(), id, confirmed))
	home(w, r)
}

// ShowHistory opens the history overlay of an item.
func (h *PageHandler) ShowHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var name string
	if it, found := h.Workspace.Catalog.Item(id); found {
		name = it.Name
	}
	h.Workspace.Report(h.Workspace.History.ShowHistory(r.Context(), id, name))
	home(w, r)
}

// CloseHistory hides the overlay.
func (h *PageHandler) CloseHistory(w http.ResponseWriter, r *http.Request) {
	h.Workspace.History.CloseHistory()
	home(w, r)
}

// Health answers liveness probes.
func (h *PageHandler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *PageHandler) role() models.Role {
	return h.Workspace.Auth.Session().Current().Role
}

func (h *PageHandler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.Workspace.Notices.Show(fmt.Sprintf("invalid item id %q", raw))
		home(w, r)
		return 0, false
	}
	return id, true
}

// item resolves the id in the URL against the current catalog.
func (h *PageHandler) item(w http.ResponseWriter, r *http.Request) (models.Item, bool) {
	id, ok := h.itemID(w, r)
	if !ok {
		return models.Item{}, false
	}
	it, found := h.Workspace.Catalog.Item(id)
	if !found {
		h.Workspace.Notices.Show(fmt.Sprintf("item %d not found", id))
		home(w, r)
		return models.Item{}, false
	}
	return it, true
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.Workspace.Report(err)
	home(w, r)
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func itemForm(r *http.Request) models.ItemForm {
	return models.ItemForm{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Quantity:    r.PostFormValue("quantity"),
	}
}

// home finishes an action with post/redirect/get.
func home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
