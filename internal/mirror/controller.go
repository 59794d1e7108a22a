// Package mirror runs the resolve-and-extract pipeline across interchangeable
// upstream hosts until one of them yields playable media.
package mirror

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/JesmerAFK/movie-night/internal/catalog"
	"github.com/JesmerAFK/movie-night/internal/logx"
	"github.com/JesmerAFK/movie-night/internal/media"
	"github.com/JesmerAFK/movie-night/internal/resolver"
	"github.com/JesmerAFK/movie-night/pkg/types"
)

var errNoDownloads = errors.New("extraction returned no playable downloads")

// FallbackSeasons is reported for a series whose season list cannot be read.
var FallbackSeasons = []types.SeasonInfo{{Season: 1, EpisodesCount: 24}}

type Controller struct {
	Hosts          Source
	NewClient      catalog.Factory
	Resolver       *resolver.Resolver
	MaxAttempts    int
	ExtractTimeout time.Duration
	DetailTimeout  time.Duration

	// Shuffle orders the non-preferred hosts; nil means random.
	Shuffle func([]types.MirrorHost)
}

func shuffleHosts(hs []types.MirrorHost) {
	rand.Shuffle(len(hs), func(i, j int) { hs[i], hs[j] = hs[j], hs[i] })
}

// Order drops blocked hosts, keeps preferred ones first in their given order,
// shuffles the rest and caps the result at limit (0 means no cap).
func Order(hosts []types.MirrorHost, limit int, shuffle func([]types.MirrorHost)) []types.MirrorHost {
	var pref, rest []types.MirrorHost
	for _, h := range hosts {
		switch {
		case h.Blocked:
		case h.Preferred:
			pref = append(pref, h)
		default:
			rest = append(rest, h)
		}
	}
	if shuffle == nil {
		shuffle = shuffleHosts
	}
	shuffle(rest)
	out := append(pref, rest...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (c *Controller) plan(ctx context.Context) []types.MirrorHost {
	hs, err := c.Hosts.Hosts(ctx)
	if err != nil {
		logx.Printf(ctx, "[mirror] no hosts: %v", err)
		return nil
	}
	return Order(hs, c.MaxAttempts, c.Shuffle)
}

// GetMediaFiles tries hosts one at a time and returns the first extraction
// with at least one download. ok=false means every attempt failed, which
// callers treat as not found.
func (c *Controller) GetMediaFiles(ctx context.Context, q types.Query) (types.MediaFiles, bool) {
	q = q.Normalize()
	hosts := c.plan(ctx)
	for i, h := range hosts {
		if ctx.Err() != nil {
			return types.MediaFiles{}, false
		}
		files, err := c.attempt(ctx, h, q)
		if err != nil {
			logx.Printf(ctx, "[mirror] attempt %d/%d host=%s: %v", i+1, len(hosts), h.Hostname, err)
			continue
		}
		logx.Printf(ctx, "[mirror] host=%s served %q downloads=%d captions=%d", h.Hostname, q.Title, len(files.Downloads), len(files.Captions))
		return files, true
	}
	logx.Printf(ctx, "[mirror] exhausted %d hosts for %q", len(hosts), q.Title)
	return types.MediaFiles{}, false
}

func (c *Controller) attempt(ctx context.Context, h types.MirrorHost, q types.Query) (types.MediaFiles, error) {
	client := c.NewClient(h)
	target, err := c.Resolver.Resolve(ctx, client, q)
	if err != nil {
		return types.MediaFiles{}, err
	}

	ectx, cancel := withTimeout(ctx, c.ExtractTimeout)
	defer cancel()
	var files types.MediaFiles
	if target.Kind == types.KindSeries {
		files, err = client.ExtractSeries(ectx, target.Item, q.Season, q.Episode)
	} else {
		files, err = client.ExtractMovie(ectx, target.Item)
	}
	if err != nil {
		return types.MediaFiles{}, err
	}
	if !media.Playable(files.Downloads) {
		return types.MediaFiles{}, errNoDownloads
	}
	return files, nil
}

// Metadata resolves the title through the same host failover and describes it.
// Series always report at least one season; ok=false means no host resolved it.
func (c *Controller) Metadata(ctx context.Context, title string, year *int) (types.Metadata, bool) {
	q := types.Query{Title: title, Year: year}.Normalize()
	for _, h := range c.plan(ctx) {
		if ctx.Err() != nil {
			break
		}
		client := c.NewClient(h)
		target, err := c.Resolver.Resolve(ctx, client, q)
		if err != nil {
			logx.Printf(ctx, "[mirror] metadata host=%s: %v", h.Hostname, err)
			continue
		}
		md := types.Metadata{
			IsTV:    target.Kind == types.KindSeries,
			Title:   target.Item.Title,
			Year:    target.Item.Year,
			Seasons: []types.SeasonInfo{},
		}
		if md.IsTV {
			md.Seasons = c.seasons(ctx, client, target.Item)
		}
		return md, true
	}
	return types.Metadata{}, false
}

func (c *Controller) seasons(ctx context.Context, client catalog.Client, item types.CatalogItem) []types.SeasonInfo {
	dctx, cancel := withTimeout(ctx, c.DetailTimeout)
	defer cancel()
	seasons, err := client.SeriesMetadata(dctx, item)
	if err != nil || len(seasons) == 0 {
		logx.Printf(ctx, "[mirror] seasons for id=%s unavailable, assuming one: %v", item.ID, err)
		return append([]types.SeasonInfo(nil), FallbackSeasons...)
	}
	return seasons
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
