// Package assistant turns a classified intent into an action and the reply
// to speak: a transit lookup, a new memo, or a plain chat answer.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/pkg/directions"
	"github.com/teslashibe/go-silverlink/pkg/intent"
	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/transit"
)

// View is the screen the dashboard shows.
type View string

const (
	ViewHome    View = "home"
	ViewTraffic View = "traffic"
	ViewMemo    View = "memo"
)

// ParseView returns the View named s and whether it is known.
func ParseView(s string) (View, bool) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewHome, ViewTraffic, ViewMemo:
		return v, true
	default:
		return "", false
	}
}

// Fixed texts.
const (
	DefaultOrigin      = "台北"
	DefaultDestination = "高雄"

	StatusNeedMapsKey = "請輸入 Google Maps Key"
	ReplyRouteFailed  = "不好意思，我查不到路線，請確認地點或網路。"

	// StatusMapsKeyRejected is shown when the service answers REQUEST_DENIED.
	StatusMapsKeyRejected = "查詢失敗: API Key 權限不足或無效 (REQUEST_DENIED)"
)

// Outcome is the result of handling one intent. Empty Status and View leave
// the current values unchanged.
type Outcome struct {
	Reply      string
	View       View
	Status     string
	Failed     bool
	NeedsSetup bool
	Transit    *transit.Result
	Memo       *memo.Memo
}

// ProgressFunc receives interim status while an action runs.
type ProgressFunc func(status string)

// Config holds router configuration.
type Config struct {
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// Option is a functional option for configuring the router.
type Option func(*Config)

// WithLocation sets the zone for departure parsing and clock rendering.
func WithLocation(loc *time.Location) Option {
	return func(c *Config) {
		c.Location = loc
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Location: transit.Taipei(),
		Now:      time.Now,
		Logger:   slog.Default(),
	}
}

// Router dispatches intents to their actions.
type Router struct {
	directions directions.Service
	memos      memo.Store
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

// NewRouter creates a router.
func NewRouter(dirs directions.Service, memos memo.Store, opts ...Option) *Router {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Router{
		directions: dirs,
		memos:      memos,
		loc:        cfg.Location,
		now:        cfg.Now,
		logger:     cfg.Logger.With("component", "assistant.router"),
	}
}

// Handle runs the action for r. progress may be nil.
func (rt *Router) Handle(ctx context.Context, r intent.Result, keys config.Keys, progress ProgressFunc) Outcome {
	if progress == nil {
		progress = func(string) {}
	}

	switch r.Intent {
	case intent.KindTraffic:
		return rt.traffic(ctx, r, keys.GoogleMaps, progress)
	case intent.KindMemo:
		return rt.memo(r)
	default:
		return Outcome{Reply: r.Reply}
	}
}

func (rt *Router) traffic(ctx context.Context, r intent.Result, key string, progress ProgressFunc) Outcome {
	if key == "" {
		return Outcome{Status: StatusNeedMapsKey, NeedsSetup: true}
	}

	origin := r.Origin
	if origin == "" {
		origin = DefaultOrigin
	}
	dest := r.Destination
	if dest == "" {
		dest = DefaultDestination
	}
	progress(fmt.Sprintf("查詢 %s 到 %s...", origin, dest))

	now := rt.now()
	departure := r.Departure(rt.loc)

	result, err := rt.lookup(ctx, directions.Query{
		Origin:      origin,
		Destination: dest,
		Departure:   departure,
		Mode:        directions.ParseMode(r.PreferredMode),
	}, key, transit.Request{
		Origin:      origin,
		Destination: dest,
		Departure:   departure,
		Now:         now,
		Location:    rt.loc,
	})
	if errors.Is(err, directions.ErrPermissionDenied) {
		// Nothing is spoken; the user has to fix the key first.
		rt.logger.Warn("maps key rejected", "error", err)
		return Outcome{
			Status:     StatusMapsKeyRejected,
			NeedsSetup: true,
		}
	}
	if err != nil {
		rt.logger.Warn("route lookup failed",
			"origin", origin,
			"destination", dest,
			"error", err,
		)
		return Outcome{
			Reply:  ReplyRouteFailed,
			Status: "查詢失敗: " + directions.Describe(err),
			Failed: true,
		}
	}

	rt.logger.Info("route found",
		"origin", origin,
		"destination", dest,
		"vehicle", result.MainVehicle,
		"steps", len(result.Steps),
	)

	return Outcome{
		Reply:   Script(dest, result),
		View:    ViewTraffic,
		Transit: &result,
	}
}

func (rt *Router) lookup(ctx context.Context, q directions.Query, key string, req transit.Request) (transit.Result, error) {
	route, err := rt.directions.Route(ctx, q, key)
	if err != nil {
		return transit.Result{}, err
	}
	return transit.Normalize(route, req)
}

func (rt *Router) memo(r intent.Result) Outcome {
	// The store logs persistence failures and keeps the memo in memory.
	m, _ := rt.memos.Add(r.MemoContent, rt.now())
	return Outcome{
		Reply: "好，已經幫您記下來：" + m.Content,
		View:  ViewMemo,
		Memo:  &m,
	}
}

// Script is the spoken summary of a route to dest.
func Script(dest string, r transit.Result) string {
	vehicle := r.MainVehicle
	if vehicle == "" {
		vehicle = "車"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "好的，幫您查去%s的路線。", dest)
	fmt.Fprintf(&b, "建議搭 %s，%s發車，預計 %s 會到。", vehicle, r.DepartureTime, r.ArrivalTime)
	if r.HasFare() {
		fmt.Fprintf(&b, "票價大約 %s。", r.Fare)
	}
	if r.HasBestExit() {
		fmt.Fprintf(&b, "到站後，請從 %s 出去比較近。", r.BestExit)
	}
	return b.String()
}
