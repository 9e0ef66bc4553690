package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cropcareai/backend/internal/config"
	"github.com/cropcareai/backend/internal/handler"
	"github.com/cropcareai/backend/internal/model/catalog"
	"github.com/cropcareai/backend/internal/service/advisor"
	"github.com/cropcareai/backend/internal/service/chat"
	"github.com/cropcareai/backend/internal/service/detect"
	"github.com/cropcareai/backend/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	results, err := sqlite.New(cfg.Storage.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open result store: %v", err)
	}
	defer results.Close()

	diseaseCatalog := catalog.NewMemoryStore(catalog.Seed())
	chatService := chat.NewService()
	detector := detect.NewService()

	// The advisor is optional: without Ark credentials the service still
	// diagnoses uploads and serves canned treatment guidance.
	var advisorService *advisor.Service
	if cfg.AI.Enabled() {
		advisorService, err = advisor.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize advisor: %v", err)
			log.Println("continuing with fallback treatment guidance only")
		} else {
			log.Println("advisor initialized successfully")
		}
	} else {
		log.Println("ark credentials not configured, serving fallback treatment guidance")
	}

	router := handler.NewRouter(diseaseCatalog, chatService, advisorService, detector, results, cfg.Upload)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("CropCare backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
