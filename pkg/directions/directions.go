// Package directions queries the Google Directions web service for public
// transit routes and returns them as raw transit.Route values.
//
// The Loader builds one Client per API key lazily and shares it between
// concurrent callers. When the service rejects a key, the Loader publishes an
// AuthFailure so the caller can ask the user to reconfigure.
package directions

import (
	"context"
	"strings"
	"time"

	"github.com/teslashibe/go-silverlink/pkg/transit"
)

// Service looks up a transit route using the given credential.
type Service interface {
	Route(ctx context.Context, q Query, key string) (transit.Route, error)
}

// Mode restricts the transit vehicles considered.
type Mode string

const (
	ModeAny    Mode = ""
	ModeTrain  Mode = "TRAIN"
	ModeBus    Mode = "BUS"
	ModeSubway Mode = "SUBWAY"
)

// ParseMode returns the Mode for s, or ModeAny when s is not a known mode.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModeTrain, ModeBus, ModeSubway:
		return m
	default:
		return ModeAny
	}
}

// param is the transit_mode query value.
func (m Mode) param() string {
	return strings.ToLower(string(m))
}

// Query describes a single route lookup.
type Query struct {
	Origin      string
	Destination string

	// Departure is nil for "leave now".
	Departure *time.Time

	Mode Mode
}
