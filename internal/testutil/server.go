// Package testutil provides an in-memory inventory API for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/atinyakov/stockroom/internal/models"
)

// TestSecret signs the tokens the fake server issues.
const TestSecret = "test-secret"

var knownUsers = map[string]struct {
	id   int
	role models.Role
}{
	"admin123":   {1, models.RoleAdmin},
	"manager123": {2, models.RoleManager},
	"viewer123":  {3, models.RoleViewer},
}

// InventoryServer mimics the warehouse API: POST /login and the /items routes.
type InventoryServer struct {
	*httptest.Server

	// WrongPassword is rejected at login; every other password is accepted.
	WrongPassword string

	mu            sync.Mutex
	omitRoleClaim bool
	itemsStatus   int
	items         map[int64]models.Item
	history       map[int64][]models.HistoryEntry
	nextID        int64
	tokens        map[string]string // token -> username
	calls         map[string]int    // "METHOD pattern" -> count
}

// NewInventoryServer starts the fake API and registers its shutdown with t.
func NewInventoryServer(t *testing.T) *InventoryServer {
	t.Helper()
	s := &InventoryServer{
		WrongPassword: "wrong-password",
		items:         make(map[int64]models.Item),
		history:       make(map[int64][]models.HistoryEntry),
		nextID:        1,
		tokens:        make(map[string]string),
		calls:         make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.count)
	r.Post("/login", s.login)
	r.Route("/items", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.remove)
		r.Get("/{id}/history", s.itemHistory)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Calls returns how often a route was hit, keyed like "DELETE /items/{id}".
func (s *InventoryServer) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// Seed stores an item directly and returns it with its ID.
func (s *InventoryServer) Seed(name string, quantity int) models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(models.ItemInput{Name: name, Quantity: quantity})
}

// AddHistory appends an audit entry for an item.
func (s *InventoryServer) AddHistory(id int64, e models.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[id] = append(s.history[id], e)
}

// OmitRoleClaim makes later tokens carry no role claim.
func (s *InventoryServer) OmitRoleClaim() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitRoleClaim = true
}

// FailItems makes GET /items answer with status; 0 restores the list.
func (s *InventoryServer) FailItems(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsStatus = status
}

// Revoke invalidates every issued token.
func (s *InventoryServer) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// IssueToken returns a valid token for username without a login round-trip.
func (s *InventoryServer) IssueToken(t *testing.T, username string) string {
	t.Helper()
	tok, err := s.sign(username)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func (s *InventoryServer) sign(username string) (string, error) {
	u := knownUsers[username]
	claims := jwt.MapClaims{
		"UserID":   u.id,
		"Username": username,
		"exp":      jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.omitRoleClaim {
		claims["Role"] = string(u.role)
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestSecret))
	if err != nil {
		return "", err
	}
	s.tokens[tok] = username
	return tok, nil
}

func (s *InventoryServer) insertLocked(in models.ItemInput) models.Item {
	now := time.Now().UTC().Truncate(time.Second)
	it := models.Item{
		ID:          s.nextID,
		Name:        in.Name,
		Description: in.Description,
		Quantity:    in.Quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.items[it.ID] = it
	s.nextID++
	return it
}

func (s *InventoryServer) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		pattern = strings.TrimSuffix(pattern, "/")
		if pattern == "" {
			pattern = r.URL.Path
		}
		s.mu.Lock()
		s.calls[r.Method+" "+pattern]++
		s.mu.Unlock()
	})
}

func (s *InventoryServer) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			return
		}
		s.mu.Lock()
		_, ok := s.tokens[parts[1]]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *InventoryServer) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	if _, ok := knownUsers[req.Username]; !ok || req.Password == s.WrongPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	tok, err := s.sign(req.Username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok, "username": req.Username})
}

func (s *InventoryServer) list(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	if s.itemsStatus != 0 {
		status := s.itemsStatus
		s.mu.Unlock()
		writeJSON(w, status, map[string]string{"error": "could not load items"})
		return
	}
	var out []models.Item
	for id := int64(1); id < s.nextID; id++ {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	s.mu.Unlock()
	// An empty catalog is encoded as null, like the real server does.
	writeJSON(w, http.StatusOK, out)
}

func (s *InventoryServer) create(w http.ResponseWriter, r *http.Request) {
	var in models.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	s.mu.Lock()
	it := s.insertLocked(in)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": it.ID})
}

func (s *InventoryServer) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var in models.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item " + strconv.FormatInt(id, 10) + " not found"})
		return
	}
	it.Name, it.Description, it.Quantity = in.Name, in.Description, in.Quantity
	it.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	s.items[id] = it
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "message": "item updated"})
}

func (s *InventoryServer) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item " + strconv.FormatInt(id, 10) + " not found"})
		return
	}
	delete(s.items, id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "message": "item deleted"})
}

// itemHistory answers 200 with "items": null for an item without entries.
// The production server answers 404 with an error body instead, which the
// client reports as a failed history load rather than "No history".
func (s *InventoryServer) itemHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	entries := s.history[id]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"item_id": id, "items": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
