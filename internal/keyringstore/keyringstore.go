// Package keyringstore adapts the OS keyring to the associative
// string-key → opaque-value store SessionCore persists the VPNAccount
// under (spec.md §6.2).
package keyringstore

import (
	"encoding/base32"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

// servicePrefix namespaces every key this module writes to the shared OS
// keyring, so it never collides with another application's entries.
const servicePrefix = "protonvpn-session"

// Keyring is the minimal associative store SessionCore depends on.
type Keyring interface {
	Get(key string) (map[string]interface{}, error)
	Set(key string, value map[string]interface{}) error
	Delete(key string) error
	Exists(key string) (bool, error)
}

// OSKeyring backs Keyring with the platform's native credential store
// (Secret Service / Keychain / Windows Credential Manager), via
// github.com/99designs/keyring, falling back to an encrypted file vault
// where no OS backend is available.
type OSKeyring struct {
	ring keyring.Keyring
}

// Open opens the OS keyring under servicePrefix.
func Open() (*OSKeyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: servicePrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("opening OS keyring: %w", err)
	}
	return &OSKeyring{ring: ring}, nil
}

// Get retrieves and decodes the JSON value stored under key.
func (k *OSKeyring) Get(key string) (map[string]interface{}, error) {
	item, err := k.ring.Get(key)
	if err != nil {
		if err == keyring.ErrKeyNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("reading keyring entry %q: %w", key, err)
	}
	var value map[string]interface{}
	if err := json.Unmarshal(item.Data, &value); err != nil {
		return nil, fmt.Errorf("decoding keyring entry %q: %w", key, err)
	}
	return value, nil
}

// Set JSON-encodes value and stores it under key.
func (k *OSKeyring) Set(key string, value map[string]interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding keyring entry %q: %w", key, err)
	}
	return k.ring.Set(keyring.Item{
		Key:  key,
		Data: data,
	})
}

// Delete removes the entry stored under key, if any.
func (k *OSKeyring) Delete(key string) error {
	err := k.ring.Remove(key)
	if err != nil && err != keyring.ErrKeyNotFound {
		return fmt.Errorf("deleting keyring entry %q: %w", key, err)
	}
	return nil
}

// Exists reports whether an entry is stored under key.
func (k *OSKeyring) Exists(key string) (bool, error) {
	keys, err := k.ring.Keys()
	if err != nil {
		return false, fmt.Errorf("listing keyring entries: %w", err)
	}
	for _, existing := range keys {
		if existing == key {
			return true, nil
		}
	}
	return false, nil
}

// KeyForUsername derives the keyring key for an account username: a fixed
// prefix followed by lowercase, unpadded base32 of the username, so
// usernames containing characters unsafe for a keyring key never leak
// into it verbatim (spec.md §6.2).
func KeyForUsername(username string) string {
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(username))
	return servicePrefix + "-" + strings.ToLower(encoded)
}

// MemoryKeyring is an in-memory Keyring stub for tests (spec.md §9,
// "tests use an in-memory stub").
type MemoryKeyring struct {
	entries map[string]map[string]interface{}
}

// NewMemoryKeyring builds an empty in-memory keyring stub.
func NewMemoryKeyring() *MemoryKeyring {
	return &MemoryKeyring{entries: make(map[string]map[string]interface{})}
}

// Get returns the stored value, or nil if absent.
func (m *MemoryKeyring) Get(key string) (map[string]interface{}, error) {
	return m.entries[key], nil
}

// Set stores value under key.
func (m *MemoryKeyring) Set(key string, value map[string]interface{}) error {
	m.entries[key] = value
	return nil
}

// Delete removes key, if present.
func (m *MemoryKeyring) Delete(key string) error {
	delete(m.entries, key)
	return nil
}

// Exists reports whether key is present.
func (m *MemoryKeyring) Exists(key string) (bool, error) {
	_, ok := m.entries[key]
	return ok, nil
}
