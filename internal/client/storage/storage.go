// Package storage persists the client's key/value state (the session
// credential, user and role) in a local JSON file.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// LocalStorage is a file-backed key/value store. Every write replaces the
// file as a whole through a temporary file and a rename, so readers see
// either the old or the new contents.
type LocalStorage struct {
	path   string
	log    *zap.Logger
	mu     sync.Mutex
	values map[string]string
}

// NewLocalStorage returns a store bound to path. Call Load before use.
func NewLocalStorage(path string, log *zap.Logger) *LocalStorage {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalStorage{path: path, log: log, values: make(map[string]string)}
}

// Load reads the file. A missing or undecodable file is an empty store.
func (ls *LocalStorage) Load() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	f, err := os.Open(ls.path)
	if err != nil {
		if os.IsNotExist(err) {
			ls.values = make(map[string]string)
			return nil
		}
		return err
	}
	defer f.Close()

	values := make(map[string]string)
	if err := json.NewDecoder(f).Decode(&values); err != nil {
		ls.log.Warn("ignoring unreadable state file", zap.String("path", ls.path), zap.Error(err))
		ls.values = make(map[string]string)
		return nil
	}
	ls.values = values
	return nil
}

// Save writes the current values to the file with owner-only permissions.
func (ls *LocalStorage) Save() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.saveLocked()
}

func (ls *LocalStorage) saveLocked() error {
	if dir := filepath.Dir(ls.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp := ls.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(ls.values); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, ls.path)
}

// Get returns the value for key, or "" when absent.
func (ls *LocalStorage) Get(_ context.Context, key string) (string, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.values[key], nil
}

// Set stores value under key and flushes the file.
func (ls *LocalStorage) Set(_ context.Context, key, value string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.values[key] = value
	return ls.saveLocked()
}

// Delete removes key and flushes the file.
func (ls *LocalStorage) Delete(_ context.Context, key string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if _, ok := ls.values[key]; !ok {
		return nil
	}
	delete(ls.values, key)
	return ls.saveLocked()
}
