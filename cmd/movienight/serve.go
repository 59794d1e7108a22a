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

	"github.com/spf13/cobra"

	"github.com/JesmerAFK/movie-night/internal/config"
	"github.com/JesmerAFK/movie-night/internal/httpapi"
	"github.com/JesmerAFK/movie-night/internal/janitor"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.SetupLogging()
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	rootCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(rootCtx)
	if err != nil {
		return err
	}
	defer a.close()

	go janitor.Run(rootCtx, janitor.Config{
		Hosts:    a.registry,
		Limiters: a.limiters,
		Interval: config.HostsRefresh(),
		IdleTTL:  config.LimiterIdleTTL(),
	})

	addr := config.ListenAddr()
	srv := &http.Server{
		Addr: addr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Media:     a.controller,
			Relay:     a.relay,
			Subtitles: a.captions,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.New(log.Writer(), "[http] ", 0),
	}
	log.Printf("[boot] listening on %s maxAttempts=%d search=%s extract=%s threshold=%.0f",
		addr, config.MirrorMaxAttempts(), config.SearchTimeout(), config.ExtractTimeout(), config.ScoreParams().Threshold)

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-rootCtx.Done():
	}
	log.Printf("[boot] shutdown requested")

	shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)

	log.Printf("[boot] shutdown complete")
	return nil
}
