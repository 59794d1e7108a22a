// Package resolver turns a free-text query into a single catalog item.
package resolver

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/sourcegraph/conc"

	"github.com/JesmerAFK/movie-night/internal/catalog"
	"github.com/JesmerAFK/movie-night/internal/logx"
	"github.com/JesmerAFK/movie-night/internal/scoring"
	"github.com/JesmerAFK/movie-night/pkg/types"
)

var ErrNoMatch = errors.New("no acceptable catalog match")

type Resolver struct {
	Params        scoring.Params
	SearchTimeout time.Duration
}

func New(p scoring.Params, searchTimeout time.Duration) *Resolver {
	return &Resolver{Params: p, SearchTimeout: searchTimeout}
}

// SearchStrings returns the raw title and, when it differs, a variant that
// keeps only letters, digits and whitespace.
func SearchStrings(title string) []string {
	out := []string{title}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, title)
	if clean != title {
		out = append(out, clean)
	}
	return out
}

// Resolve searches the catalog through c and returns the best scoring item.
// Search failures are swallowed per query; ErrNoMatch is the only failure.
func (r *Resolver) Resolve(ctx context.Context, c catalog.Client, q types.Query) (types.ResolvedTarget, error) {
	q = q.Normalize()
	items := r.discover(ctx, c, q.Title)
	if len(items) == 0 {
		logx.Printf(ctx, "[resolve] host=%s no results for %q", c.Host().Hostname, q.Title)
		return types.ResolvedTarget{}, ErrNoMatch
	}

	best, ok := scoring.Best(q, items, r.Params)
	if !ok {
		logx.Printf(ctx, "[resolve] host=%s %d results for %q, none above %.0f", c.Host().Hostname, len(items), q.Title, r.Params.Threshold)
		return types.ResolvedTarget{}, ErrNoMatch
	}
	logx.Printf(ctx, "[resolve] host=%s %q -> id=%s title=%q kind=%s score=%.1f",
		c.Host().Hostname, q.Title, best.Item.ID, best.Item.Title, best.Item.Kind, best.Score)
	return types.ResolvedTarget{Item: best.Item, Kind: best.Item.Kind}, nil
}

// discover runs movie and series searches for each search string until one
// string yields results. Movie results come first in the returned order.
func (r *Resolver) discover(ctx context.Context, c catalog.Client, title string) []types.CatalogItem {
	for _, s := range SearchStrings(title) {
		if ctx.Err() != nil {
			return nil
		}
		var movies, series []types.CatalogItem
		var wg conc.WaitGroup
		wg.Go(func() { movies = r.search(ctx, c, s, types.KindMovie) })
		wg.Go(func() { series = r.search(ctx, c, s, types.KindSeries) })
		wg.Wait()

		found := append(movies, series...)
		if len(found) > 0 {
			return found
		}
	}
	return nil
}

func (r *Resolver) search(ctx context.Context, c catalog.Client, query string, kind types.Kind) []types.CatalogItem {
	if r.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.SearchTimeout)
		defer cancel()
	}
	recs, err := c.Search(ctx, query, kind)
	if err != nil {
		logx.Printf(ctx, "[resolve] host=%s search %s %q: %v", c.Host().Hostname, kind, query, err)
		return nil
	}
	items := make([]types.CatalogItem, 0, len(recs))
	for _, rec := range recs {
		if it, ok := catalog.ItemFromRecord(rec, kind); ok {
			items = append(items, it)
		}
	}
	return items
}
