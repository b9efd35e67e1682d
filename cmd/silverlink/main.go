// Command silverlink runs the SilverLink voice assistant: push-to-talk on
// stdin, spoken Taigi replies, and the web dashboard.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/internal/httpc"
	"github.com/teslashibe/go-silverlink/internal/log"
	"github.com/teslashibe/go-silverlink/pkg/assistant"
	"github.com/teslashibe/go-silverlink/pkg/audio"
	"github.com/teslashibe/go-silverlink/pkg/directions"
	"github.com/teslashibe/go-silverlink/pkg/intent"
	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/stt"
	"github.com/teslashibe/go-silverlink/pkg/transit"
	"github.com/teslashibe/go-silverlink/pkg/tts"
	"github.com/teslashibe/go-silverlink/pkg/voice"
	"github.com/teslashibe/go-silverlink/pkg/web"
)

const version = "0.1.0"

func main() {
	cfg := config.DefaultConfig()

	envFile := flag.StringP("env", "e", ".env", "Env file path")
	flag.StringVarP(&cfg.LogLevel, "log", "l", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVarP(&cfg.DataDir, "data", "d", cfg.DataDir, "Directory for keys, memos and tokens")
	flag.StringVarP(&cfg.ProxyAddr, "proxy", "p", cfg.ProxyAddr, "SOCKS5 proxy for upstream calls")
	flag.StringVar(&cfg.DashboardAddr, "addr", cfg.DashboardAddr, "Dashboard listen address")
	flag.BoolVar(&cfg.DashboardEnabled, "dashboard", cfg.DashboardEnabled, "Serve the web dashboard")
	flag.StringVar(&cfg.Audio.InputFormat, "input-format", cfg.Audio.InputFormat, "ffmpeg input format (pulse, alsa, avfoundation)")
	flag.StringVar(&cfg.Audio.InputDevice, "input-device", cfg.Audio.InputDevice, "ffmpeg input device")
	staticDir := flag.String("static", "", "Serve dashboard assets from this directory")
	debug := flag.Bool("debug", false, "Log every dashboard request")
	flag.Parse()

	godotenv.Load(*envFile)
	cfg.LoadEnv()

	log.Init(cfg.LogLevel)
	logger := log.L()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("🗣️  SilverLink v" + version)
	fmt.Println("   Enter = 開始/停止錄音   c = 取消   q = 離開")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *staticDir, *debug); err != nil {
		logger.Error("silverlink stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, staticDir string, debug bool) error {
	keys, err := config.NewKeyStore(cfg.KeysPath(), cfg.EnvKeys)
	if err != nil {
		return err
	}

	client, err := httpc.NewSOCKSClient(cfg.ProxyAddr, httpc.DefaultTimeout)
	if err != nil {
		return err
	}

	loc := transit.Taipei()

	// Memo store, optionally mirrored to Google Docs.
	var (
		mirror   *memo.DocsMirror
		onChange func([]memo.Memo)
	)
	if cfg.Google.DocsEnabled() {
		mirror, err = newDocsMirror(cfg, logger)
		if err != nil {
			return err
		}
		syncer := memo.NewSyncer(mirror, logger)
		go syncer.Run(ctx)
		onChange = syncer.Notify
	}
	memos, err := openMemos(cfg.MemosPath(), loc, logger, onChange)
	if err != nil {
		return err
	}
	logger.Info("memos loaded", "count", memos.Count(), "path", memos.Path())

	loader := directions.NewLoader(directions.ClientFactory(
		directions.WithHTTPClient(client),
		directions.WithLogger(logger),
	), logger)

	feedback, err := newFeedback(client, logger)
	if err != nil {
		return err
	}

	player := audio.NewPlayer(audio.FFplay{Command: cfg.Audio.PlayerCommand}, logger)
	capture := audio.NewFFmpegCapture(audio.CaptureConfig{
		Command:     cfg.Audio.FFmpegCommand,
		InputFormat: cfg.Audio.InputFormat,
		InputDevice: cfg.Audio.InputDevice,
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		MaxDuration: cfg.Audio.MaxRecording,
	})

	orch, err := voice.NewOrchestrator(voice.Deps{
		Keys:    keys,
		Capture: capture,
		Player:  player,
		Transcriber: stt.NewWhisper(
			stt.WithHTTPClient(client),
			stt.WithLogger(logger),
		),
		Classifier: intent.NewOpenAI(
			intent.WithHTTPClient(client),
			intent.WithLocation(loc),
			intent.WithLogger(logger),
		),
		Router:   assistant.NewRouter(loader, memos, assistant.WithLocation(loc), assistant.WithLogger(logger)),
		Feedback: feedback,
		Memos:    memos,
	},
		voice.WithMinAudioBytes(cfg.Turn.MinAudioBytes),
		voice.WithFailureResetDelay(cfg.Turn.FailureResetDelay),
		voice.WithLocation(loc),
		voice.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer orch.Close()

	go orch.Run(ctx, loader.AuthFailures())

	orch.Subscribe(voice.ObserverFunc(printSnapshot))
	orch.Metrics().OnUpdate(func(m voice.Metrics) {
		if !m.DoneTime.IsZero() {
			logger.Info("turn latency", "turn", m.TurnID, "latency", m.FormatLatency())
		}
	})

	if cfg.DashboardEnabled {
		opts := []web.Option{
			web.WithAddr(cfg.DashboardAddr),
			web.WithStaticDir(staticDir),
			web.WithDebug(debug),
			web.WithLogger(logger),
		}
		if mirror != nil {
			opts = append(opts, web.WithDocs(mirror))
		}
		server := web.NewServer(orch, opts...)
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("dashboard stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("dashboard shutdown", "error", err)
			}
		}()
	}

	return pushToTalk(ctx, orch, logger)
}

// openMemos opens the memo store with display times in loc.
func openMemos(path string, loc *time.Location, logger *slog.Logger, onChange func([]memo.Memo)) (*memo.JSONStore, error) {
	opts := []memo.StoreOption{memo.WithLocation(loc), memo.WithLogger(logger)}
	if onChange != nil {
		opts = append(opts, memo.WithOnChange(onChange))
	}
	return memo.NewJSONStore(path, opts...)
}

func newFeedback(client *http.Client, logger *slog.Logger) (*voice.Feedback, error) {
	taigi, err := tts.NewTaigi(
		tts.WithHTTPClient(client),
		tts.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	// A failed translation still speaks the Mandarin text.
	translator, err := tts.NewChainWithLogger(logger, taigi, tts.Passthrough{})
	if err != nil {
		return nil, err
	}
	return voice.NewFeedback(translator, taigi, logger), nil
}

func newDocsMirror(cfg config.Config, logger *slog.Logger) (*memo.DocsMirror, error) {
	redirect := cfg.Google.RedirectURL
	if redirect == "" {
		redirect = "http://" + cfg.DashboardAddr + "/api/docs/callback"
	}
	return memo.NewDocsMirror(memo.DocsConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  redirect,
		TokenPath:    cfg.GoogleTokenPath(),
		DocID:        cfg.Google.MemoDocID,
		Logger:       logger,
	})
}

// pushToTalk reads commands from stdin until q, EOF or ctx is done.
// Enter toggles recording.
func pushToTalk(ctx context.Context, orch *voice.Orchestrator, logger *slog.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n👋 再見!")
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.ToLower(line) {
			case "q", "quit", "exit":
				fmt.Println("👋 再見!")
				return nil
			case "c", "cancel":
				orch.Cancel()
			case "":
				toggle(orch, logger)
			default:
				fmt.Println("   Enter = 開始/停止錄音   c = 取消   q = 離開")
			}
		}
	}
}

func toggle(orch *voice.Orchestrator, logger *slog.Logger) {
	ctx := orch.Context()
	if orch.Snapshot().State == voice.StateRecording {
		if err := orch.Stop(ctx); err != nil {
			logger.Debug("turn ended", "error", err)
		}
		return
	}
	if err := orch.Start(ctx); err != nil {
		if errors.Is(err, voice.ErrBusy) {
			fmt.Println("   ⏳ 請稍等，還在處理上一句")
			return
		}
		logger.Debug("start failed", "error", err)
	}
}

var lastPrinted voice.Snapshot

// printSnapshot prints the prompt and status when either changes.
func printSnapshot(s voice.Snapshot) {
	if s.Prompt == lastPrinted.Prompt && s.Status == lastPrinted.Status {
		return
	}
	lastPrinted = s
	fmt.Printf("   [%s] %s\n", s.Prompt, s.Status)

	if s.Transit != nil && s.State == voice.StateSpeaking && s.View == assistant.ViewTraffic {
		for _, step := range s.Transit.Steps {
			fmt.Printf("      • %s (%s)\n", step.Instructions, step.Duration)
		}
	}
}
