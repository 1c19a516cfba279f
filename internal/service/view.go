package service

import (
	"slices"
	"time"

	"github.com/atinyakov/stockroom/internal/models"
)

// TimeLayout renders timestamps as day.month.year, hours:minutes:seconds.
const TimeLayout = "02.01.2006, 15:04:05"

// Placeholders for empty tables.
const (
	NoItemsMessage   = "No items"
	NoHistoryMessage = "No history"
)

// Action is a per-row control offered to the user.
type Action string

const (
	ActionHistory Action = "history"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
)

// ItemRow is one rendered catalog line.
type ItemRow struct {
	ID          int64
	Name        string
	Description string
	Quantity    int
	Created     string
	Updated     string
	Actions     []Action
}

// Has reports whether the row offers a.
func (r ItemRow) Has(a Action) bool { return slices.Contains(r.Actions, a) }

// CatalogView is everything a front end needs to draw the catalog.
type CatalogView struct {
	Role           models.Role
	AddFormVisible bool
	// Empty is set instead of Rows when there is nothing to list;
	// Placeholder holds the text to show.
	Empty       bool
	Placeholder string
	Rows        []ItemRow
}

// BuildCatalogView renders items for role. The actions on every row are
// limited to what the role may do.
func BuildCatalogView(items []models.Item, role models.Role, loc *time.Location) CatalogView {
	v := CatalogView{Role: role, AddFormVisible: role.CanCreate()}
	if len(items) == 0 {
		v.Empty = true
		v.Placeholder = NoItemsMessage
		return v
	}

	actions := rowActions(role)
	v.Rows = make([]ItemRow, 0, len(items))
	for _, it := range items {
		v.Rows = append(v.Rows, ItemRow{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			Created:     FormatTime(it.CreatedAt, loc),
			Updated:     FormatTime(it.UpdatedAt, loc),
			Actions:     actions,
		})
	}
	return v
}

func rowActions(role models.Role) []Action {
	var out []Action
	if role.CanViewHistory() {
		out = append(out, ActionHistory)
	}
	if role.CanEdit() {
		out = append(out, ActionEdit)
	}
	if role.CanDelete() {
		out = append(out, ActionDelete)
	}
	return out
}

// HistoryRow is one rendered audit line.
type HistoryRow struct {
	Operation string
	User      string
	OldValue  string
	NewValue  string
	ChangedAt string
}

// HistoryView is the content of the history overlay.
type HistoryView struct {
	ItemID      int64
	ItemName    string
	Empty       bool
	Placeholder string
	Rows        []HistoryRow
}

// BuildHistoryView renders entries oldest first.
func BuildHistoryView(itemID int64, itemName string, entries []models.HistoryEntry, loc *time.Location) HistoryView {
	v := HistoryView{ItemID: itemID, ItemName: itemName}
	if len(entries) == 0 {
		v.Empty = true
		v.Placeholder = NoHistoryMessage
		return v
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b models.HistoryEntry) int {
		return a.ChangedAt.Compare(b.ChangedAt)
	})
	v.Rows = make([]HistoryRow, 0, len(sorted))
	for _, e := range sorted {
		v.Rows = append(v.Rows, HistoryRow{
			Operation: e.Operation,
			User:      e.UserID.String(),
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			ChangedAt: FormatTime(e.ChangedAt, loc),
		})
	}
	return v
}

// FormatTime renders t in loc using TimeLayout. The zero time renders empty.
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimeLayout)
}
