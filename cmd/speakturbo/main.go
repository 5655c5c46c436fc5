package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EmZod/Speak-Turbo/internal/api"
	"github.com/EmZod/Speak-Turbo/internal/config"
	"github.com/EmZod/Speak-Turbo/internal/engine"
	"github.com/EmZod/Speak-Turbo/internal/logging"
	"github.com/EmZod/Speak-Turbo/internal/rawsock"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		// Use stderr before logger is initialized
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize structured logger
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting speakturbo", "version", "0.2.0")

	// Warn if bearer token auth is disabled
	if cfg.AuthDisabled() {
		logger.Warn("HTTP bearer authentication is disabled (BEARER_TOKEN is empty)")
	}

	// Log loaded configuration (without sensitive values)
	logger.Info("configuration loaded",
		"http_port", cfg.HTTPPort,
		"raw_port", cfg.RawPort,
		"raw_enabled", cfg.RawEnabled,
		"engine", cfg.Engine,
		"default_voice", cfg.DefaultVoice,
		"max_text_length", cfg.MaxTextLength,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	// The engine handle and voice-state cache are the only shared state;
	// both are passed explicitly to every transport.
	handle := engine.NewHandle(func(ctx context.Context) (engine.Engine, error) {
		if cfg.Engine == config.EngineMock {
			logger.Warn("running with the mock engine, output is a test tone")
			return engine.NewMockEngine(), nil
		}
		return engine.StartProcEngine(ctx, cfg.EngineCommand, logger)
	})
	states := engine.NewStateCache()

	// Warm up before accepting traffic: load the model and pre-condition
	// the default voice so the first request pays no startup cost.
	logger.Info("loading synthesis engine", "engine", cfg.Engine)
	eng, err := handle.Resolve(ctx)
	if err != nil {
		logger.Error("engine load failed", "error", err)
		os.Exit(1)
	}
	if closer, ok := eng.(io.Closer); ok {
		defer closer.Close()
	}

	if _, err := states.StateFor(ctx, eng, cfg.DefaultVoice); err != nil {
		logger.Error("default voice warm-up failed", "voice", cfg.DefaultVoice, "error", err)
		os.Exit(1)
	}
	logger.Info("engine ready",
		"engine", eng.Name(),
		"sample_rate", eng.SampleRate(),
		"channels", eng.Channels(),
	)

	// Create and start HTTP server
	server := api.New(cfg, logger, handle, states)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Create and start the raw socket transport
	if cfg.RawEnabled {
		raw := rawsock.New(cfg, logger, handle, states)
		if err := raw.Listen(); err != nil {
			logger.Error("raw socket listen failed", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := raw.Serve(ctx); err != nil {
				logger.Error("raw socket server error", "error", err)
				cancel()
			}
		}()
	}

	// Wait for shutdown signal
	<-ctx.Done()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
}
