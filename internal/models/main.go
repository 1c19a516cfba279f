// Package models defines the core data structures shared by the session,
// catalog and history components of the inventory client.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Session holds the credential of the signed-in user.
type Session struct {
	// Token is the opaque bearer credential issued by the server.
	Token string
	// Username is the login name the server echoed back.
	Username string
	// Role is the access tier the client gates its actions on.
	Role Role
}

// Valid reports whether every field of the session is present.
// A partially filled session is treated as no session at all.
func (s Session) Valid() bool {
	return s.Token != "" && s.Username != "" && s.Role != ""
}

// Label renders the session owner the way the header shows it.
func (s Session) Label() string {
	return fmt.Sprintf("%s (%s)", s.Username, s.Role)
}

// Item is one inventory position as served by GET /items.
type Item struct {
	// ID is the server-assigned identifier.
	ID int64 `json:"id"`
	// Name is the display name of the item.
	Name string `json:"name"`
	// Description is optional free text.
	Description string `json:"description,omitempty"`
	// Quantity is the number of units in stock.
	Quantity int `json:"quantity"`
	// CreatedAt is set by the server on creation.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is set by the server on every change.
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryEntry is one immutable audit record of a change to an item.
type HistoryEntry struct {
	Operation string     `json:"operation"`
	UserID    Identifier `json:"user_id"`
	OldValue  string     `json:"old_value,omitempty"`
	NewValue  string     `json:"new_value,omitempty"`
	ChangedAt time.Time  `json:"changed_at"`
}

// Identifier is a user reference that the server may encode either as a
// JSON number or as a JSON string.
type Identifier string

// UnmarshalJSON accepts numbers, strings and null.
func (id *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = Identifier(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("identifier: %w", err)
		}
		*id = Identifier(n.String())
	}
	return nil
}

// String returns the identifier as text.
func (id Identifier) String() string { return string(id) }

// ItemForm carries raw user input for an item. All three fields are
// submitted (or cancelled) together.
type ItemForm struct {
	Name        string
	Description string
	Quantity    string
}

// ItemInput is the validated request body for POST and PUT /items.
type ItemInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// LoginResult is the payload of a successful POST /login.
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	// Role is only present when the server includes it.
	Role Role `json:"role,omitempty"`
}
