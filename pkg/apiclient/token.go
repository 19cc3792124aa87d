// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apiclient

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenFileName is the file a [FileTokenStore] keeps the bearer token in.
const TokenFileName = "auth_token"

// TokenStore holds the bearer token between requests.
//
// Get returns "" when no token is stored.
type TokenStore interface {
	Get() string
	Set(token string) error
	Clear() error
}

// # Memory

// MemoryTokenStore keeps the token for the lifetime of the process.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStore returns an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (store *MemoryTokenStore) Get() string {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.token
}

func (store *MemoryTokenStore) Set(token string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.token = token
	return nil
}

func (store *MemoryTokenStore) Clear() error {
	return store.Set("")
}

// # File

// FileTokenStore persists the token in <dir>/auth_token with owner-only permissions,
// so it survives between CLI invocations.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore returns a store rooted at dir. The directory is created on first Set.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{path: filepath.Join(dir, TokenFileName)}
}

// Path returns the token file location.
func (store *FileTokenStore) Path() string {
	return store.path
}

// Get returns the stored token. Unreadable files count as no token.
func (store *FileTokenStore) Get() string {
	store.mu.Lock()
	defer store.mu.Unlock()

	payload, err := os.ReadFile(store.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(payload))
}

func (store *FileTokenStore) Set(token string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(store.path), 0o700); err != nil {
		return fmt.Errorf("apiclient: create token dir: %w", err)
	}
	if err := os.WriteFile(store.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("apiclient: write token: %w", err)
	}
	return nil
}

// Clear removes the token file. A missing file is not an error.
func (store *FileTokenStore) Clear() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if err := os.Remove(store.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("apiclient: remove token: %w", err)
	}
	return nil
}
