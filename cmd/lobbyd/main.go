package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"gamehub/db"
	"gamehub/internal/lobby/gameproc"
	"gamehub/internal/lobby/handlers"
	"gamehub/internal/lobby/metrics"
	"gamehub/internal/lobby/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	cfg := db.LoadConfig()
	setupLogger(cfg.LogLevel)

	pool := db.InitDB(cfg)
	defer pool.Close()
	slog.Info("database ready", "host", cfg.DBHost, "name", cfg.DBName)

	go metrics.Serve(cfg.MetricsAddr)

	sup := gameproc.NewSupervisor("127.0.0.1")
	srv := handlers.NewServer(cfg.ListenAddr, cfg.GameStoreDir, store.NewPostgres(pool), sup)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		srv.Shutdown()
	}()

	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func setupLogger(levelName string) {
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
