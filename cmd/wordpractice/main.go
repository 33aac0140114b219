package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/wordpractice/internal/cli"
	"github.com/conorfennell/wordpractice/internal/clock"
	"github.com/conorfennell/wordpractice/internal/config"
	"github.com/conorfennell/wordpractice/internal/storage"
	"github.com/conorfennell/wordpractice/internal/sync"
	"github.com/conorfennell/wordpractice/internal/vocab"
	"github.com/conorfennell/wordpractice/internal/web"
)

func main() {
	flags := config.Flags(os.Args[0])
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DB, clock.System{})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	slog.Debug("Database opened successfully", "path", cfg.DB)

	words := vocab.NewService(db, clock.System{}, vocab.Options{
		SessionSize: cfg.Session.Size,
		SampleLimit: cfg.Session.Sample,
		Shuffler:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	})
	syncer := sync.NewSyncer(db, words, cfg.Sources.ReposDir)

	addSource, _ := flags.GetString("add-source")
	runSync, _ := flags.GetBool("sync")
	serve, _ := flags.GetBool("serve")

	switch {
	case addSource != "":
		if _, err := syncer.AddSource(ctx, addSource); err != nil {
			log.Fatalf("Failed to add source: %v", err)
		}
	case runSync:
		syncer.SetProgress(os.Stdout)
		if _, err := syncer.RunSync(ctx); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
	case serve:
		if err := runServer(ctx, cfg, db, words, syncer); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	default:
		// Ctrl+C should end the interactive menu right away.
		stop()
		app := cli.New(os.Stdin, os.Stdout, words, cli.Options{
			PageSize:    cfg.List.PageSize,
			ClearScreen: true,
			Syncer:      syncer,
		})
		if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Error: %v", err)
		}
	}
}

func runServer(ctx context.Context, cfg *config.Config, db *storage.DB, words *vocab.Service, syncer *sync.Syncer) error {
	if cfg.Sources.SyncInterval > 0 {
		sched := sync.NewScheduler(syncer, cfg.Sources.SyncInterval)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           web.NewServer(db, words, syncer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", cfg.HTTP.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
