package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/api"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/config"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/db"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/events"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/export"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/history"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/logging"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/playback"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/refine"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/search"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/transcript"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.CacheDir(), cfg.ExportDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting highlight agent",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
		"service_url", cfg.ServiceURL(),
	)

	database, err := db.New(cfg.DBPath(), logging.WithComponent(logger, "db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	historyRepo := history.NewRepository(database.Conn())
	observers := pipeline.Observers{
		history.NewRecorder(historyRepo, logging.WithComponent(logger, "history")),
	}

	if cfg.RedisAddr() != "" {
		pub, err := events.NewRedisPublisher(ctx, cfg.RedisAddr(), cfg.RedisChannel(), logging.WithComponent(logger, "events"))
		if err != nil {
			// events are optional; the agent runs without them
			logger.Warn("event publishing disabled", "error", err)
		} else {
			defer pub.Close()
			observers = append(observers, pub)
			logger.Info("publishing events to redis", "addr", cfg.RedisAddr(), "channel", cfg.RedisChannel())
		}
	}

	var tray *ui.Tray
	var controller *pipeline.Controller
	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	apiURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port())
	if !cfg.Headless() {
		tray = ui.NewTray(ui.TrayConfig{
			Logger: logging.WithComponent(logger, "tray"),
			APIURL: apiURL,
			OnReset: func() {
				if err := controller.Reset(ctx); err != nil {
					logger.Warn("reset from tray failed", "error", err)
				}
			},
			OnQuit: quit,
		})
		observers = append(observers, tray)
	}

	media := mediaservice.NewHTTPClient(cfg.ServiceURL(), cfg.ServiceTimeout(), logging.WithComponent(logger, "mediaservice"))
	playbackLogger := logging.WithComponent(logger, "playback")
	artifacts := playback.NewCache(cfg.CacheDir(), media, playbackLogger)
	// re-renders reuse the artifact path, so each new render drops the local copy
	observers = append(observers, artifacts)

	controller = pipeline.NewController(
		transcript.NewAggregator(media, logging.WithComponent(logger, "transcript")),
		search.NewClient(media, logging.WithComponent(logger, "search")),
		refine.NewRefiner(media, cfg.StrictOrder(), logging.WithComponent(logger, "refine")),
		media,
		pipeline.Config{
			MaxChunkSize:    cfg.MaxChunkSize(),
			DefaultTopK:     cfg.TopK(),
			RequireSegments: cfg.RequireSegments(),
			ValidateTiming:  cfg.ValidateTiming(),
		},
		observers,
		logging.WithComponent(logger, "pipeline"),
	)

	apiServer := api.NewServer(api.ServerConfig{
		Port:        cfg.Port(),
		Pipeline:    controller,
		Artifacts:   artifacts,
		Playback:    playback.NewServer(playbackLogger),
		Exporter:    export.NewExporter(cfg.ExportDir(), logging.WithComponent(logger, "export")),
		History:     historyRepo,
		Logger:      logging.WithComponent(logger, "api"),
		StartTime:   startTime,
		Version:     config.Version,
		ServiceURL:  cfg.ServiceURL(),
		BaseContext: ctx,
	})

	printBanner(apiURL, cfg)

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			quit()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if tray != nil {
		go tray.Run()
	} else {
		logger.Info("running in headless mode (no system tray)")
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	// request contexts derive from ctx, so this aborts in-flight media
	// service calls before Shutdown waits on their handlers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	if tray != nil {
		tray.Quit()
	}

	logger.Info("shutdown complete")
	return nil
}

func printBanner(apiURL string, cfg *config.EnvConfig) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║  HIGHLIGHT AGENT v%-40s ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:     %-44s ║\n", apiURL)
	fmt.Printf("║  Service URL: %-44s ║\n", truncate(cfg.ServiceURL(), 44))
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
