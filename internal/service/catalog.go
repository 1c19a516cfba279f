package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/models"
)

// InventoryAPI is the part of the REST client the catalog needs.
type InventoryAPI interface {
	ListItems(ctx context.Context, token string) ([]models.Item, error)
	CreateItem(ctx context.Context, token string, in models.ItemInput) (models.Item, error)
	UpdateItem(ctx context.Context, token string, id int64, in models.ItemInput) error
	DeleteItem(ctx context.Context, token string, id int64) error
}

// Confirm asks the user a yes/no question.
type Confirm func() bool

// Catalog keeps the last fetched item list and runs the item actions.
// Every mutation is followed by a fresh fetch; nothing else is cached.
type Catalog struct {
	api     InventoryAPI
	session *Session
	loc     *time.Location
	log     *zap.Logger

	mu    sync.Mutex
	items []models.Item
	draft models.ItemForm
}

// NewCatalog builds a Catalog that reads credentials from session and
// renders timestamps in loc.
func NewCatalog(a InventoryAPI, session *Session, loc *time.Location, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Catalog{api: a, session: session, loc: loc, log: log}
	session.OnClear(c.reset)
	return c
}

func (c *Catalog) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.draft = models.ItemForm{}
}

// LoadItems refreshes the snapshot from GET /items.
func (c *Catalog) LoadItems(ctx context.Context) error {
	token, _, err := c.session.credentials()
	if err != nil {
		return err
	}

	items, err := c.api.ListItems(ctx, token)
	if err != nil {
		c.log.Warn("failed to load items", zap.Error(err))
		c.session.expireOn401(ctx, c.log, err)
		return fmt.Errorf("%w: %w", ErrLoadItems, err)
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	c.log.Debug("items loaded", zap.Int("count", len(items)))
	return nil
}

// Items returns a copy of the snapshot.
func (c *Catalog) Items() []models.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Item looks an item up in the snapshot.
func (c *Catalog) Item(id int64) (models.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.Item{}, false
}

// Draft returns what the add form should show: the last rejected input,
// or empty after a successful add.
func (c *Catalog) Draft() models.ItemForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// View renders the snapshot for the current role.
func (c *Catalog) View() CatalogView {
	role := c.session.Current().Role
	return BuildCatalogView(c.Items(), role, c.loc)
}

// AddItem validates form, creates the item and reloads the catalog.
func (c *Catalog) AddItem(ctx context.Context, form models.ItemForm) error {
	token, role, err := c.session.credentials()
	if err != nil {
		return err
	}
	if !role.CanCreate() {
		return ErrForbidden
	}

	c.keepDraft(form)
	in, err := ParseNewItem(form)
	if err != nil {
		return err
	}

	created, err := c.api.CreateItem(ctx, token, in)
	if err != nil {
		c.log.Warn("failed to create item", zap.String("name", in.Name), zap.Error(err))
		c.session.expireOn401(ctx, c.log, err)
		return fmt.Errorf("create item: %w", err)
	}
	c.log.Info("item created", zap.Int64("id", created.ID), zap.String("name", in.Name), zap.Int("quantity", in.Quantity))

	c.keepDraft(models.ItemForm{})
	return c.LoadItems(ctx)
}

// EditItem applies the submitted form to item id and reloads the catalog.
func (c *Catalog) EditItem(ctx context.Context, id int64, form models.ItemForm) error {
	token, role, err := c.session.credentials()
	if err != nil {
		return err
	}
	if !role.CanEdit() {
		return ErrForbidden
	}

	in, err := ParseEditedItem(form)
	if err != nil {
		return err
	}

	if err := c.api.UpdateItem(ctx, token, id, in); err != nil {
		c.log.Warn("failed to update item", zap.Int64("id", id), zap.Error(err))
		c.session.expireOn401(ctx, c.log, err)
		return fmt.Errorf("update item %d: %w", id, err)
	}
	c.log.Info("item updated", zap.Int64("id", id), zap.Int("quantity", in.Quantity))

	return c.LoadItems(ctx)
}

// DeleteItem removes item id once confirm agrees, then reloads the catalog.
func (c *Catalog) DeleteItem(ctx context.Context, id int64, confirm Confirm) error {
	token, role, err := c.session.credentials()
	if err != nil {
		return err
	}
	if !role.CanDelete() {
		return ErrForbidden
	}
	if confirm == nil || !confirm() {
		return ErrCancelled
	}

	if err := c.api.DeleteItem(ctx, token, id); err != nil {
		c.log.Warn("failed to delete item", zap.Int64("id", id), zap.Error(err))
		c.session.expireOn401(ctx, c.log, err)
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	c.log.Info("item deleted", zap.Int64("id", id))

	return c.LoadItems(ctx)
}

func (c *Catalog) keepDraft(f models.ItemForm) {
	c.mu.Lock()
	c.draft = f
	c.mu.Unlock()
}
