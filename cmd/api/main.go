package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tierdir.org/internal/audit"
	"tierdir.org/internal/auth"
	"tierdir.org/internal/config"
	"tierdir.org/internal/directory"
	"tierdir.org/internal/httpapi"
	"tierdir.org/internal/obs"
	"tierdir.org/internal/store/pg"
	"tierdir.org/internal/tier"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		dirStore   directory.Store
		auditStore audit.Store
		probe      httpapi.ReadyProbe
		pgStore    *pg.Store
	)
	if cfg.DSN != "" {
		pgStore, err = pg.Open(cfg.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		dirStore = pgStore
		auditStore = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		// DSN-less runs keep everything in memory; fine for local work,
		// useless in production.
		log.Println("TIERDIR_PG_DSN not set, using in-memory store")
		dirStore = directory.NewInMemory()
	}

	model := tier.NewModel()
	dir, err := directory.NewService(dirStore, model)
	if err != nil {
		log.Fatalf("directory: %v", err)
	}

	tokens, err := auth.NewTokens(cfg.AuthSecret, cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	recorder := audit.NewRecorder(auditStore)

	api, err := httpapi.New(httpapi.Options{
		ReadyProbe:      probe,
		Version:         version,
		Directory:       dir,
		Model:           model,
		Policies:        tier.NewRegistry(),
		Tokens:          tokens,
		Recorder:        recorder,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
		RatePerSec:      cfg.RatePerSec,
		RateBurst:       cfg.RateBurst,
	})
	if err != nil {
		log.Fatalf("httpapi: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting tierdir-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	recorder.Close()
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
