package models

import (
	"encoding/json"
	"testing"
)

func TestSession_Valid(t *testing.T) {
	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{"complete", Session{Token: "t", Username: "u", Role: RoleViewer}, true},
		{"missing token", Session{Username: "u", Role: RoleViewer}, false},
		{"missing user", Session{Token: "t", Role: RoleViewer}, false},
		{"missing role", Session{Token: "t", Username: "u"}, false},
		{"empty", Session{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Valid(); got != tt.want {
				t.Errorf("Valid() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role                          Role
		create, edit, history, delete bool
	}{
		{RoleAdmin, true, true, true, true},
		{RoleManager, true, true, true, false},
		{RoleViewer, false, false, false, false},
		{RoleUnknown, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if tt.role.CanCreate() != tt.create || tt.role.CanEdit() != tt.edit ||
				tt.role.CanViewHistory() != tt.history || tt.role.CanDelete() != tt.delete {
				t.Errorf("unexpected permissions for %s", tt.role)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if got := ParseRole("manager"); got != RoleManager {
		t.Errorf("ParseRole(manager) = %q", got)
	}
	if got := ParseRole("root"); got != RoleUnknown {
		t.Errorf("ParseRole(root) = %q; want unknown", got)
	}
}

func TestHistoryEntry_UserIDForms(t *testing.T) {
	var entries []HistoryEntry
	data := `[{"operation":"create","user_id":7,"changed_at":"2025-01-02T03:04:05Z"},
	          {"operation":"update","user_id":"u-9","changed_at":"2025-01-02T03:04:05Z"},
	          {"operation":"delete","user_id":null,"changed_at":"2025-01-02T03:04:05Z"}]`
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []Identifier{"7", "u-9", ""}
	for i, e := range entries {
		if e.UserID != want[i] {
			t.Errorf("entry %d user_id = %q; want %q", i, e.UserID, want[i])
		}
	}
}
