package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/models"
)

// HistoryAPI fetches an item's audit trail.
type HistoryAPI interface {
	ItemHistory(ctx context.Context, token string, id int64) ([]models.HistoryEntry, error)
}

// HistoryViewer owns the transient history overlay.
type HistoryViewer struct {
	api     HistoryAPI
	session *Session
	loc     *time.Location
	log     *zap.Logger

	mu      sync.Mutex
	overlay *HistoryView
}

// NewHistoryViewer builds a viewer; the overlay closes when the session ends.
func NewHistoryViewer(a HistoryAPI, session *Session, loc *time.Location, log *zap.Logger) *HistoryViewer {
	if log == nil {
		log = zap.NewNop()
	}
	h := &HistoryViewer{api: a, session: session, loc: loc, log: log}
	session.OnClear(h.CloseHistory)
	return h
}

// ShowHistory fetches the entries of item id and opens the overlay.
func (h *HistoryViewer) ShowHistory(ctx context.Context, id int64, itemName string) error {
	token, role, err := h.session.credentials()
	if err != nil {
		return err
	}
	if !role.CanViewHistory() {
		return ErrForbidden
	}

	entries, err := h.api.ItemHistory(ctx, token, id)
	if err != nil {
		h.log.Warn("failed to load history", zap.Int64("id", id), zap.Error(err))
		h.session.expireOn401(ctx, h.log, err)
		return fmt.Errorf("history of item %d: %w", id, err)
	}

	view := BuildHistoryView(id, itemName, entries, h.loc)
	h.mu.Lock()
	h.overlay = &view
	h.mu.Unlock()
	return nil
}

// CloseHistory hides the overlay and drops its entries.
func (h *HistoryViewer) CloseHistory() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.overlay = nil
}

// Overlay returns the open overlay, if any.
func (h *HistoryViewer) Overlay() (HistoryView, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.overlay == nil {
		return HistoryView{}, false
	}
	return *h.overlay, true
}
