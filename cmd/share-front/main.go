package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ntce/share-front/internal/config"
	"github.com/ntce/share-front/internal/linkedin"
	"github.com/ntce/share-front/internal/log"
	"github.com/ntce/share-front/internal/server"
	"github.com/ntce/share-front/internal/session"
)

var BuildVersion = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(BuildVersion)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.LogError("Configuration error: %v", err)
		os.Exit(1)
	}

	sessions := session.NewStore(
		[]byte(cfg.SigningKey),
		[]byte(cfg.SealingKey),
		cfg.SessionTTL,
		cfg.HandshakeTTL,
		cfg.IsProduction(),
	)

	// Constructed once at startup and shared by all requests; the client is
	// concurrency-safe and holds the only pooled HTTP connections.
	client := linkedin.New(cfg)

	handler := server.NewRouter(cfg, sessions, client)
	srv := server.NewHTTPServer(handler, cfg.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			log.LogError("HTTP server error: %v", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.LogError("Shutdown error: %v", err)
			os.Exit(1)
		}
	}

	log.LogInfoWithFields("main", "Shutdown complete", map[string]any{
		"version": BuildVersion,
	})
}
