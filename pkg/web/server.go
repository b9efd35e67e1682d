// Package web serves the SilverLink dashboard: a JSON API to drive the
// push-to-talk button, manage memos and keys, and a websocket that streams
// state snapshots.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/pkg/assistant"
	"github.com/teslashibe/go-silverlink/pkg/hub"
	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/voice"
)

// Assistant is the orchestrator surface the dashboard drives.
type Assistant interface {
	Context() context.Context
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Cancel() error
	Snapshot() voice.Snapshot
	Subscribe(voice.Observer)
	SetView(assistant.View)
	DeleteMemo(id int64) error
	UpdateKeys(config.Keys) error
	Metrics() *voice.MetricsCollector
}

// Docs is the optional Google Docs memo mirror.
type Docs interface {
	Status() memo.DocsStatus
	AuthURL() string
	HandleCallback(ctx context.Context, code string) error
	Disconnect() error
}

var (
	_ Assistant = (*voice.Orchestrator)(nil)
	_ Docs      = (*memo.DocsMirror)(nil)
)

// Config holds dashboard configuration.
type Config struct {
	Addr      string
	StaticDir string // served at / when set
	Docs      Docs
	Debug     bool // request logging
	Logger    *slog.Logger
}

// Option is a functional option for configuring the server.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithStaticDir serves dashboard assets from dir.
func WithStaticDir(dir string) Option {
	return func(c *Config) {
		c.StaticDir = dir
	}
}

// WithDocs enables the Google Docs routes.
func WithDocs(d Docs) Option {
	return func(c *Config) {
		c.Docs = d
	}
}

// WithDebug enables request logging.
func WithDebug(debug bool) Option {
	return func(c *Config) {
		c.Debug = debug
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
		Addr:   "127.0.0.1:8088",
		Logger: slog.Default(),
	}
}

// Server is the dashboard server.
type Server struct {
	app    *fiber.App
	cfg    *Config
	logger *slog.Logger

	assistant Assistant
	statusHub *hub.Hub
}

// NewServer creates the dashboard for a and subscribes it to state changes.
func NewServer(a Assistant, opts ...Option) *Server {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "web.server"),
		assistant: a,
		statusHub: hub.New("status", cfg.Logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "SilverLink",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	if cfg.Debug {
		app.Use(logger.New())
	}

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/ptt/start", s.handleStart)
	api.Post("/ptt/stop", s.handleStop)
	api.Post("/ptt/cancel", s.handleCancel)
	api.Get("/memos", s.handleListMemos)
	api.Delete("/memos/:id", s.handleDeleteMemo)
	api.Put("/keys", s.handleUpdateKeys)
	api.Post("/view/:name", s.handleSetView)
	api.Get("/metrics", s.handleMetrics)

	docs := api.Group("/docs", s.requireDocs)
	docs.Get("/status", s.handleDocsStatus)
	docs.Get("/auth", s.handleDocsAuth)
	docs.Get("/callback", s.handleDocsCallback)
	docs.Post("/disconnect", s.handleDocsDisconnect)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app

	a.Subscribe(voice.ObserverFunc(func(snap voice.Snapshot) {
		if err := s.statusHub.BroadcastJSON(snap); err != nil {
			s.logger.Warn("encode snapshot", "error", err)
		}
	}))
	return s
}

// App exposes the fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the status hub.
func (s *Server) Hub() *hub.Hub {
	return s.statusHub
}

// Start runs the hub and listens until the server is shut down.
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	s.logger.Info("dashboard listening", "url", "http://"+s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
