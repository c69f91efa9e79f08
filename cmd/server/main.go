package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/api"
	"github.com/yourusername/media-grab-go/api/handlers"
	"github.com/yourusername/media-grab-go/internal/app"
	"github.com/yourusername/media-grab-go/internal/domain"
	"github.com/yourusername/media-grab-go/internal/infrastructure"
	"github.com/yourusername/media-grab-go/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	loader := app.NewConfigLoader()
	config, err := loader.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting media-grab server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("ytdlp_binary", config.Ytdlp.Binary),
		zap.Bool("cobalt_enabled", config.Cobalt.BaseURL != ""))

	if err := os.MkdirAll(filepath.Dir(config.History.DatabasePath), 0o755); err != nil {
		log.Fatal("Failed to create history directory", zap.Error(err))
	}

	repo, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open history database", zap.Error(err))
	}

	corrector, err := app.NewURLCorrector(config.URLRules, log)
	if err != nil {
		log.Fatal("Invalid URL correction rules", zap.Error(err))
	}

	ytdlp := infrastructure.NewYtdlpDownloader(config.Ytdlp, log)

	var cobalt domain.Downloader
	if config.Cobalt.BaseURL != "" {
		cobalt = infrastructure.NewCobaltDownloader(config.Cobalt, log)
	}

	factory := app.NewDownloaderFactory(ytdlp, cobalt)
	service := app.NewMediaService(corrector, factory, log)

	mediaHandler := handlers.NewMediaHandler(service, repo, config, log)
	healthHandler := handlers.NewHealthHandler(repo)
	router := api.SetupRouter(mediaHandler, healthHandler, log)

	// apply url-rule edits without a restart
	loader.Watch(func(newConfig *domain.Config) {
		if err := corrector.Reload(newConfig.URLRules); err != nil {
			log.Warn("Config changed but URL rules failed to compile, keeping previous rules", zap.Error(err))
			return
		}
		log.Info("Reloaded URL correction rules", zap.Int("rules", len(newConfig.URLRules)))
	}, func(err error) {
		log.Warn("Ignoring config change", zap.Error(err))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
