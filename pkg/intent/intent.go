// Package intent classifies a transcribed utterance into an assistant action.
//
// A Classifier returns a Result describing what the user wants (a transit
// lookup, a memo, or small talk) together with the reply to speak back.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind is the classified intent.
type Kind string

const (
	KindTraffic Kind = "traffic"
	KindMemo    Kind = "memo"
	KindChat    Kind = "chat"
)

// DepartNow is the departure_time value meaning "leave immediately".
const DepartNow = "now"

// Result is the structured classification of one utterance.
type Result struct {
	Intent        Kind   `json:"intent"`
	Reply         string `json:"reply"`
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	PreferredMode string `json:"preferred_mode,omitempty"`
	MemoContent   string `json:"memo_content,omitempty"`
}

// Classifier turns a transcript into a Result.
type Classifier interface {
	Classify(ctx context.Context, transcript string, now time.Time, key string) (Result, error)
}

// Parse decodes and normalizes a model response. Unknown intents become chat,
// unknown preferred modes and "unknown" places are dropped.
func Parse(content string) (Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Result{}, fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}

	var raw struct {
		Intent        string  `json:"intent"`
		Reply         string  `json:"reply"`
		Origin        *string `json:"origin"`
		Destination   *string `json:"destination"`
		DepartureTime *string `json:"departure_time"`
		PreferredMode *string `json:"preferred_mode"`
		MemoContent   *string `json:"memo_content"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	r := Result{
		Intent:        normalizeKind(raw.Intent),
		Reply:         strings.TrimSpace(raw.Reply),
		Origin:        place(raw.Origin),
		Destination:   place(raw.Destination),
		DepartureTime: str(raw.DepartureTime),
		PreferredMode: mode(raw.PreferredMode),
		MemoContent:   str(raw.MemoContent),
	}
	return r, nil
}

// Departure parses DepartureTime. "now", empty and unparsable values yield nil.
// Times without a zone are interpreted in loc.
func (r Result) Departure(loc *time.Location) *time.Time {
	s := strings.TrimSpace(r.DepartureTime)
	if s == "" || strings.EqualFold(s, DepartNow) {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	return nil
}

func normalizeKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTraffic, KindMemo:
		return k
	default:
		return KindChat
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func place(p *string) string {
	s := str(p)
	if strings.EqualFold(s, "unknown") {
		return ""
	}
	return s
}

func mode(p *string) string {
	switch s := strings.ToUpper(str(p)); s {
	case "TRAIN", "BUS", "SUBWAY":
		return s
	default:
		return ""
	}
}
