package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/omochice/pingpong-chat/internal/chat"
	"github.com/omochice/pingpong-chat/internal/client"
	"github.com/omochice/pingpong-chat/internal/config"
	"github.com/omochice/pingpong-chat/internal/input"
	"github.com/omochice/pingpong-chat/internal/observability"
	"github.com/omochice/pingpong-chat/internal/render"
	"github.com/omochice/pingpong-chat/internal/transport"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", observability.AppName, err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to a TOML config file")
	endpoint := flag.String("url", "", "Chat endpoint (ws://, wss:// or tcp://)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	renderStream := flag.String("render-stream", "", "Write render commands to this file")
	metricsAddr := flag.String("metrics", "", "Serve metrics on this address (e.g., :9090)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *endpoint != "" {
		cfg.URL = *endpoint
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if *renderStream != "" {
		cfg.RenderStream = *renderStream
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	color := useColor(cfg.Color, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		metrics = observability.NewMetrics()
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           observability.MetricsHandler(metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	terminal := render.NewTerminal(os.Stdout, color)
	sink := render.Sink(terminal)
	if cfg.RenderStream != "" {
		f, err := os.Create(cfg.RenderStream)
		if err != nil {
			return fmt.Errorf("failed to open render stream: %w", err)
		}
		defer f.Close()
		stream := render.NewStream(f)
		sink = render.Multi(terminal, stream)
		defer func() {
			if err := stream.Err(); err != nil {
				logger.Warn().Err(err).Msg("render stream failed")
			}
		}()
	}

	opts := transport.Options{
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	session := client.New(
		func(ctx context.Context) (chat.Conn, error) {
			return transport.Dial(ctx, cfg.URL, opts)
		},
		render.NewAdapter(sink),
		client.WithLogger(logger),
		client.WithMetrics(metrics),
	)
	defer session.Close()

	if err := session.Open(ctx); err != nil {
		return err
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- session.Listen(ctx)
		stop()
	}()

	console := input.NewConsole(os.Stdin)
	submit := input.NewAdapter(session, console, nil)
	inputDone := make(chan error, 1)
	go func() {
		inputDone <- console.Run(ctx, submit.OnSubmit, func(err error) {
			logger.Warn().Err(err).Msg("failed to send message")
		})
	}()

	// Stdin cannot be interrupted, so stop waiting on it once the channel is gone.
	select {
	case err := <-inputDone:
		if err != nil {
			logger.Error().Err(err).Msg("input stopped")
		}
	case <-ctx.Done():
	}

	if err := session.Close(); err != nil {
		logger.Debug().Err(err).Msg("close channel")
	}
	if err := terminal.Err(); err != nil {
		logger.Warn().Err(err).Msg("terminal output failed")
	}

	return <-listenErr
}

func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if err := config.LoadDotEnv(); err != nil {
		return cfg, err
	}
	if path != "" {
		if err := config.Load(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, ok := observability.ParseLevel(cfg.Log.Level)
	if !ok {
		level = zerolog.InfoLevel
	}
	format, ok := observability.ParseFormat(cfg.Log.Format)
	if !ok {
		format = observability.LogFormatConsole
	}
	return observability.NewLogger(os.Stderr, observability.LogOptions{
		Level:   level,
		Format:  format,
		NoColor: !useColor(cfg.Color, os.Stderr),
	})
}

func useColor(mode string, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
}
