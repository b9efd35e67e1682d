package memo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// JSONStore implements Store using a JSON file for persistence.
type JSONStore struct {
	path   string
	loc    *time.Location
	logger *slog.Logger

	mu     sync.RWMutex
	memos  []Memo
	lastID int64

	onChange func([]Memo)
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int    `json:"version"`
	UpdatedAt string `json:"updated_at"`
	Memos     []Memo `json:"memos"`
}

const currentVersion = 1

// StoreOption configures a JSONStore.
type StoreOption func(*JSONStore)

// WithLocation sets the zone used for display times.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *JSONStore) {
		s.loc = loc
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *JSONStore) {
		s.logger = logger
	}
}

// WithOnChange registers fn to receive the full list after every change.
// fn runs after the store lock is released.
func WithOnChange(fn func([]Memo)) StoreOption {
	return func(s *JSONStore) {
		s.onChange = fn
	}
}

// NewJSONStore creates a new JSON-based store at the given path.
// If the file doesn't exist, it will be created on first save.
func NewJSONStore(path string, opts ...StoreOption) (*JSONStore, error) {
	store := &JSONStore{
		path:   path,
		loc:    time.Local,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(store)
	}
	store.logger = store.logger.With("component", "memo.store")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("memo: create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("memo: load store: %w", err)
		}
	}

	return store, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	s.memos = stored.Memos
	for _, m := range s.memos {
		if m.ID > s.lastID {
			s.lastID = m.ID
		}
	}
	return nil
}

// save writes the store to disk. Caller holds mu.
func (s *JSONStore) save() error {
	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Memos:     s.memos,
	}
	if stored.Memos == nil {
		stored.Memos = []Memo{}
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("memo: marshal: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("memo: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("memo: rename temp file: %w", err)
	}
	return nil
}

// Add prepends a memo. Blank content becomes DefaultContent.
func (s *JSONStore) Add(content string, now time.Time) (Memo, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		content = DefaultContent
	}

	s.mu.Lock()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	m := Memo{
		ID:          id,
		Content:     content,
		Timestamp:   now.UnixMilli(),
		DisplayTime: FormatDisplay(now, s.loc),
	}
	s.memos = append([]Memo{m}, s.memos...)
	err := s.save()
	snapshot := s.snapshot()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("memo kept in memory only", "id", id, "error", err)
	}
	s.notify(snapshot)
	return m, err
}

// List returns memos, newest first.
func (s *JSONStore) List() []Memo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Delete removes a memo by id.
func (s *JSONStore) Delete(id int64) error {
	s.mu.Lock()
	idx := -1
	for i, m := range s.memos {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	s.memos = append(s.memos[:idx:idx], s.memos[idx+1:]...)
	err := s.save()
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.notify(snapshot)
	return err
}

// Count returns the number of memos.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memos)
}

// Path returns the file path of the store.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) snapshot() []Memo {
	out := make([]Memo, len(s.memos))
	copy(out, s.memos)
	return out
}

func (s *JSONStore) notify(memos []Memo) {
	if s.onChange != nil {
		s.onChange(memos)
	}
}

var _ Store = (*JSONStore)(nil)
