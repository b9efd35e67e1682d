package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Keys holds the three user-supplied service credentials.
// The pipeline only checks for presence; values are opaque.
type Keys struct {
	OpenAI     string `json:"openai"`
	Taigi      string `json:"taigi"`
	GoogleMaps string `json:"googleMaps"`
}

// Complete reports whether every key is set.
func (k Keys) Complete() bool {
	return k.OpenAI != "" && k.Taigi != "" && k.GoogleMaps != ""
}

// Merge returns k with every non-empty field of other applied on top.
func (k Keys) Merge(other Keys) Keys {
	if v := strings.TrimSpace(other.OpenAI); v != "" {
		k.OpenAI = v
	}
	if v := strings.TrimSpace(other.Taigi); v != "" {
		k.Taigi = v
	}
	if v := strings.TrimSpace(other.GoogleMaps); v != "" {
		k.GoogleMaps = v
	}
	return k
}

// KeyStore keeps the current keys in memory and persists updates to a JSON file.
// Environment keys shadow the file but are never written back.
type KeyStore struct {
	path string
	env  Keys

	mu   sync.RWMutex
	file Keys
}

// NewKeyStore loads keys from path (a missing file is not an error)
// and overlays env on top.
func NewKeyStore(path string, env Keys) (*KeyStore, error) {
	s := &KeyStore{path: path, env: env}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s.file); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return s, nil
}

// Keys returns a snapshot of the effective keys.
func (s *KeyStore) Keys() Keys {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.Merge(s.env)
}

// Update merges k into the persisted keys and writes the file.
// Empty fields in k leave the stored value unchanged.
func (s *KeyStore) Update(k Keys) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.file.Merge(k)
	if err := writeJSONAtomic(s.path, next, 0600); err != nil {
		return err
	}
	s.file = next
	return nil
}

// writeJSONAtomic writes v to a temp file next to path and renames it into place.
func writeJSONAtomic(path string, v any, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: rename temp file: %w", err)
	}
	return nil
}
