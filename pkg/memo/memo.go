// Package memo keeps the spoken notes a user asks the assistant to remember.
//
// Memos are immutable once created, stored newest first and persisted to a
// JSON file. A DocsMirror can optionally copy the list into a Google Doc so
// family members can read it.
package memo

import (
	"errors"
	"time"
)

// DefaultContent is used when the user asked for a memo without saying what.
const DefaultContent = "未命名記事"

// DisplayLayout is the short month/day clock shown next to each memo.
const DisplayLayout = "1/2 15:04"

var (
	// ErrNotFound is returned when deleting an unknown memo.
	ErrNotFound = errors.New("memo: not found")

	// ErrNotAuthenticated is returned by the Docs mirror before OAuth completes.
	ErrNotAuthenticated = errors.New("memo: not connected to Google Docs")

	// ErrNoCredentials is returned when the OAuth client is not configured.
	ErrNoCredentials = errors.New("memo: GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
)

// Memo is a single remembered note.
type Memo struct {
	// ID is the creation time in unix milliseconds, bumped when needed so
	// ids strictly increase.
	ID int64 `json:"id"`

	Content string `json:"content"`

	// Timestamp is the creation time in unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	DisplayTime string `json:"displayTime"`
}

// FormatDisplay renders t as "1/2 15:04" in loc.
func FormatDisplay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DisplayLayout)
}

// Store holds memos newest first.
type Store interface {
	// Add records a new memo created at now. The returned memo is valid even
	// when err reports a persistence failure; it is kept in memory.
	Add(content string, now time.Time) (Memo, error)

	// List returns memos, newest first.
	List() []Memo

	// Delete removes a memo by id.
	Delete(id int64) error
}
