package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver

	"github.com/JesmerAFK/movie-night/internal/catalog"
	"github.com/JesmerAFK/movie-night/internal/config"
	"github.com/JesmerAFK/movie-night/internal/mirror"
	"github.com/JesmerAFK/movie-night/internal/proxy"
	"github.com/JesmerAFK/movie-night/internal/resolver"
	"github.com/JesmerAFK/movie-night/internal/subtitles"
)

// app holds everything the commands share, wired from config.
type app struct {
	db         *sql.DB
	limiters   *catalog.Limiters
	registry   *mirror.Registry
	controller *mirror.Controller
	relay      *proxy.Relay
	captions   *subtitles.Transcoder
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Println("[db] connected")
	return db, nil
}

func newApp(ctx context.Context) (*app, error) {
	a := &app{limiters: catalog.NewLimiters(config.CatalogRate())}

	sources := []mirror.Source{
		mirror.NewStaticSource(config.MirrorHosts(), config.MirrorPreferred(), config.MirrorBlocked()),
	}
	if p := config.MirrorsFile(); p != "" {
		sources = append(sources, mirror.FileSource{Path: p})
	}
	if dsn := config.PostgresDSN(); dsn != "" {
		db, err := openDB(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open PG_DSN: %w", err)
		}
		a.db = db
		sources = append(sources, mirror.SQLSource{DB: db})
	}
	a.registry = mirror.NewRegistry(mirror.Merge(sources...))
	if err := a.registry.Refresh(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("load mirror hosts: %w", err)
	}

	a.controller = &mirror.Controller{
		Hosts: a.registry,
		NewClient: catalog.NewFactory(catalog.Options{
			UserAgent: config.UpstreamUserAgent(),
			Limiters:  a.limiters,
		}),
		Resolver:       resolver.New(config.ScoreParams(), config.SearchTimeout()),
		MaxAttempts:    config.MirrorMaxAttempts(),
		ExtractTimeout: config.ExtractTimeout(),
		DetailTimeout:  config.DetailTimeout(),
	}
	a.relay = proxy.New(config.UpstreamReferer(), config.UpstreamUserAgent(), config.StreamHeaderTimeout())
	a.captions = subtitles.New(config.UpstreamReferer(), config.UpstreamUserAgent(), config.SubtitleTimeout())
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
