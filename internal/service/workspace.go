package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// API is everything the workspace calls on the server.
type API interface {
	Authenticator
	InventoryAPI
	HistoryAPI
}

// Workspace ties the session manager, catalog, history viewer and notices
// together in the order the UI drives them.
type Workspace struct {
	Auth    *AuthManager
	Catalog *Catalog
	History *HistoryViewer
	Notices *Notifier

	log *zap.Logger
}

// WorkspaceOptions tunes rendering and notices.
type WorkspaceOptions struct {
	NoticeTTL time.Duration
	Location  *time.Location
	Logger    *zap.Logger
}

// NewWorkspace builds all components around one shared Session.
func NewWorkspace(a API, store StateStore, opts WorkspaceOptions) *Workspace {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	session := NewSession(store)
	return &Workspace{
		Auth:    NewAuthManager(a, session, log.Named("session")),
		Catalog: NewCatalog(a, session, loc, log.Named("catalog")),
		History: NewHistoryViewer(a, session, loc, log.Named("history")),
		Notices: NewNotifier(opts.NoticeTTL),
		log:     log,
	}
}

// Start restores a persisted session and, when it is still valid, loads
// the catalog. It reports whether the main screen is shown.
func (w *Workspace) Start(ctx context.Context) bool {
	if !w.Auth.Restore(ctx) {
		return false
	}
	w.Report(w.Catalog.LoadItems(ctx))
	return true
}

// Login signs in and loads the catalog.
func (w *Workspace) Login(ctx context.Context, username, password string) error {
	if err := w.Auth.Login(ctx, username, password); err != nil {
		return err
	}
	return w.Catalog.LoadItems(ctx)
}

// Logout signs out and drops all per-session UI state.
func (w *Workspace) Logout(ctx context.Context) {
	w.Auth.Logout(ctx)
	w.Notices.Clear()
}

// Report shows err as a notice. Cancellations are silent.
func (w *Workspace) Report(err error) {
	if err == nil || errors.Is(err, ErrCancelled) {
		return
	}
	w.Notices.Show(Describe(err))
}
