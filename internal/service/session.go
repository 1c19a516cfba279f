// Package service implements the client side of the inventory workflow:
// the session manager, the catalog, the history viewer and the error
// notices, on top of the REST client and a key/value state store.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/client/api"
	"github.com/atinyakov/stockroom/internal/models"
)

// Keys of the persisted session.
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyRole  = "role"
)

// StateStore is the key/value persistence the session is saved into.
// Get returns "" for missing keys.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Session owns the credential of the running client and its persisted copy.
// Components that need the token or role hold a pointer to it.
type Session struct {
	store StateStore

	mu      sync.RWMutex
	current models.Session
	onClear []func()
}

// NewSession returns an empty session backed by store.
func NewSession(store StateStore) *Session {
	return &Session{store: store}
}

// Current returns a copy of the in-memory session.
func (s *Session) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Read returns the persisted session. Partial state yields a zero session.
func (s *Session) Read(ctx context.Context) (models.Session, error) {
	var vals [3]string
	for i, key := range []string{KeyToken, KeyUser, KeyRole} {
		v, err := s.store.Get(ctx, key)
		if err != nil {
			return models.Session{}, fmt.Errorf("read %s: %w", key, err)
		}
		vals[i] = v
	}
	if vals[2] == "" {
		return models.Session{}, nil
	}
	sess := models.Session{Token: vals[0], Username: vals[1], Role: models.ParseRole(vals[2])}
	if !sess.Valid() {
		return models.Session{}, nil
	}
	return sess, nil
}

// Load makes the persisted session current, if a complete one exists.
func (s *Session) Load(ctx context.Context) (bool, error) {
	sess, err := s.Read(ctx)
	if err != nil {
		return false, err
	}
	if !sess.Valid() {
		return false, nil
	}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return true, nil
}

// Save makes sess current and persists all three fields.
func (s *Session) Save(ctx context.Context, sess models.Session) error {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	for key, value := range map[string]string{
		KeyToken: sess.Token,
		KeyUser:  sess.Username,
		KeyRole:  string(sess.Role),
	} {
		if err := s.store.Set(ctx, key, value); err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}
	}
	return nil
}

// Clear drops the session from memory and storage and notifies listeners.
// The in-memory state is always cleared, even if storage fails.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = models.Session{}
	listeners := append([]func(){}, s.onClear...)
	s.mu.Unlock()

	var errs []error
	for _, key := range []string{KeyToken, KeyUser, KeyRole} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	for _, fn := range listeners {
		fn()
	}
	return errors.Join(errs...)
}

// OnClear registers fn to run after every Clear.
func (s *Session) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// credentials returns the token and role, or ErrNoSession.
func (s *Session) credentials() (string, models.Role, error) {
	cur := s.Current()
	if !cur.Valid() {
		return "", "", ErrNoSession
	}
	return cur.Token, cur.Role, nil
}

// expireOn401 ends the session when the server rejected its credential.
// Every other failure leaves the session alone.
func (s *Session) expireOn401(ctx context.Context, log *zap.Logger, err error) {
	if !api.IsUnauthorized(err) {
		return
	}
	log.Info("credential rejected by server, signing out")
	if cerr := s.Clear(ctx); cerr != nil {
		log.Warn("failed to clear session state", zap.Error(cerr))
	}
}

// Screen is the top-level UI state.
type Screen string

const (
	ScreenLogin Screen = "login"
	ScreenMain  Screen = "main"
)

// Authenticator is the part of the API the session manager needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.LoginResult, error)
	ListItems(ctx context.Context, token string) ([]models.Item, error)
}

// AuthManager implements restore, validate, login and logout.
type AuthManager struct {
	api     Authenticator
	session *Session
	log     *zap.Logger
}

// NewAuthManager wires the manager to the API and the session object.
func NewAuthManager(a Authenticator, session *Session, log *zap.Logger) *AuthManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthManager{api: a, session: session, log: log}
}

// Session exposes the shared session object.
func (m *AuthManager) Session() *Session { return m.session }

// Screen reports which screen the UI shows.
func (m *AuthManager) Screen() Screen {
	if m.session.Current().Valid() {
		return ScreenMain
	}
	return ScreenLogin
}

// Restore loads the persisted session and keeps it only if the server still
// accepts its token. Any failure ends on the login screen with the
// persisted state cleared.
func (m *AuthManager) Restore(ctx context.Context) bool {
	ok, err := m.session.Load(ctx)
	if err != nil {
		m.log.Warn("failed to read persisted session", zap.Error(err))
	}
	if !ok {
		return false
	}

	cur := m.session.Current()
	if !m.Validate(ctx, cur.Token) {
		m.log.Info("persisted session rejected", zap.String("user", cur.Username))
		if err := m.session.Clear(ctx); err != nil {
			m.log.Warn("failed to clear session state", zap.Error(err))
		}
		return false
	}

	m.log.Info("session restored", zap.String("user", cur.Username), zap.String("role", string(cur.Role)))
	return true
}

// Validate checks token with an authenticated read of the catalog.
// Any failure, network errors included, means invalid.
func (m *AuthManager) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	if _, err := m.api.ListItems(ctx, token); err != nil {
		m.log.Debug("token validation failed", zap.Error(err))
		return false
	}
	return true
}

// Login authenticates against the server and persists the new session.
func (m *AuthManager) Login(ctx context.Context, username, password string) error {
	if username == "" {
		return invalid("username", "select a user")
	}

	res, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.log.Info("login failed", zap.String("user", username), zap.Error(err))
		return fmt.Errorf("login: %w", err)
	}

	sess := models.Session{
		Token:    res.Token,
		Username: res.Username,
		Role:     resolveRole(res, username),
	}
	if sess.Username == "" {
		sess.Username = username
	}
	if err := m.session.Save(ctx, sess); err != nil {
		// The in-memory session already works; only the restart will not.
		m.log.Warn("failed to persist session", zap.Error(err))
	}

	m.log.Info("logged in", zap.String("user", sess.Username), zap.String("role", string(sess.Role)))
	return nil
}

// Logout ends the session unconditionally.
func (m *AuthManager) Logout(ctx context.Context) {
	user := m.session.Current().Username
	if err := m.session.Clear(ctx); err != nil {
		m.log.Warn("failed to clear session state", zap.Error(err))
	}
	m.log.Info("logged out", zap.String("user", user))
}

var staticRoles = map[string]models.Role{
	"admin123":   models.RoleAdmin,
	"manager123": models.RoleManager,
	"viewer123":  models.RoleViewer,
}

// KnownUsers lists the demo accounts offered on the login screen.
func KnownUsers() []string {
	users := make([]string, 0, len(staticRoles))
	for u := range staticRoles {
		users = append(users, u)
	}
	slices.Sort(users)
	return users
}

// DeriveRole maps the well-known demo accounts to their role. Any other
// username is RoleUnknown.
func DeriveRole(username string) models.Role {
	if r, ok := staticRoles[username]; ok {
		return r
	}
	return models.RoleUnknown
}

// resolveRole prefers what the server said: an explicit role in the login
// payload, then the role claim of the token. The static table is the last
// resort for servers that send neither.
func resolveRole(res models.LoginResult, username string) models.Role {
	if res.Role != "" {
		return models.ParseRole(string(res.Role))
	}
	if r, ok := RoleFromToken(res.Token); ok {
		return r
	}
	return DeriveRole(username)
}

// RoleFromToken reads the role claim of a JWT without verifying it; the
// server verifies the token on every call.
func RoleFromToken(token string) (models.Role, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	for _, key := range []string{"role", "Role"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return models.ParseRole(v), true
		}
	}
	return "", false
}
