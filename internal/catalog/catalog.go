// Package catalog talks to the upstream title catalog. A Client is bound to one
// mirror host and one cookie session; callers build a fresh one per attempt.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/JesmerAFK/movie-night/pkg/types"
)

var (
	ErrBlocked          = errors.New("upstream blocked the request")
	ErrMalformedPayload = errors.New("malformed upstream payload")
)

type Client interface {
	Host() types.MirrorHost
	Search(ctx context.Context, query string, kind types.Kind) ([]types.Record, error)
	ExtractMovie(ctx context.Context, item types.CatalogItem) (types.MediaFiles, error)
	ExtractSeries(ctx context.Context, item types.CatalogItem, season, episode int) (types.MediaFiles, error)
	SeriesMetadata(ctx context.Context, item types.CatalogItem) ([]types.SeasonInfo, error)
}

// Factory builds a Client scoped to a single mirror attempt.
type Factory func(host types.MirrorHost) Client

// ItemFromRecord maps an upstream search row onto a CatalogItem. Rows without an
// id or title are reported as not ok.
func ItemFromRecord(r types.Record, fallback types.Kind) (types.CatalogItem, bool) {
	it := types.CatalogItem{
		ID:     types.FirstString(r, "subjectId", "id", "ID"),
		Title:  types.FirstString(r, "title", "name", "Title"),
		Detail: types.FirstString(r, "detailPath", "url"),
		Kind:   fallback,
	}
	if it.ID == "" || it.Title == "" {
		return types.CatalogItem{}, false
	}
	if y, ok := types.FirstInt(r, "year", "Year"); ok && y > 0 {
		it.Year = &y
	} else if d := types.FirstString(r, "releaseDate", "release_date"); len(d) >= 4 {
		if y, err := strconv.Atoi(d[:4]); err == nil && y > 0 {
			it.Year = &y
		}
	}
	if k, ok := types.FirstInt(r, "subjectType", "kind"); ok {
		switch types.Kind(k) {
		case types.KindMovie, types.KindSeries:
			it.Kind = types.Kind(k)
		}
	} else if s := strings.ToLower(types.FirstString(r, "subjectType", "kind", "type")); s != "" {
		switch s {
		case "movie", "movies":
			it.Kind = types.KindMovie
		case "series", "tv", "tv_series":
			it.Kind = types.KindSeries
		}
	}
	return it, true
}

// DownloadsFromRecords keeps only rows with a usable URL.
func DownloadsFromRecords(rows []types.Record) []types.DownloadOption {
	out := make([]types.DownloadOption, 0, len(rows))
	for _, r := range rows {
		u := types.FirstString(r, "url", "URL")
		if u == "" {
			continue
		}
		out = append(out, types.DownloadOption{
			URL:        u,
			Resolution: types.FirstString(r, "resolution", "Resolution", "quality"),
		})
	}
	return out
}

// CaptionsFromRecords keeps every row, including ones without a URL, so the
// caller can preserve the original positions when labelling tracks.
func CaptionsFromRecords(rows []types.Record) []types.CaptionOption {
	out := make([]types.CaptionOption, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.CaptionOption{
			URL:           types.FirstString(r, "url", "URL"),
			LanguageCode:  types.FirstString(r, "lan", "language", "lang"),
			LanguageLabel: types.FirstString(r, "lanName", "label", "title"),
		})
	}
	return out
}
