package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JesmerAFK/movie-night/internal/logx"
	"github.com/JesmerAFK/movie-night/internal/media"
	"github.com/JesmerAFK/movie-night/internal/proxy"
	"github.com/JesmerAFK/movie-night/internal/subtitles"
	"github.com/JesmerAFK/movie-night/pkg/types"
)

// Media is the failover pipeline (mirror.Controller in production).
type Media interface {
	GetMediaFiles(ctx context.Context, q types.Query) (types.MediaFiles, bool)
	Metadata(ctx context.Context, title string, year *int) (types.Metadata, bool)
}

type Streamer interface {
	Stream(w http.ResponseWriter, r *http.Request, src string) error
}

type Captions interface {
	Get(ctx context.Context, url string) (string, error)
}

type Deps struct {
	Media     Media
	Relay     Streamer
	Subtitles Captions
}

type Handlers struct {
	d Deps
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// parseQuery reads title, year, season and episode. Malformed numbers are
// treated as absent; season and episode never drop below 1.
func parseQuery(v url.Values) (types.Query, bool) {
	q := types.Query{Title: strings.TrimSpace(v.Get("title"))}
	if y, err := strconv.Atoi(strings.TrimSpace(v.Get("year"))); err == nil && y > 0 {
		q.Year = &y
	}
	q.Season, _ = strconv.Atoi(v.Get("season"))
	q.Episode, _ = strconv.Atoi(v.Get("episode"))
	return q.Normalize(), q.Title != ""
}

// GET /api/metadata?title&year
func (h *Handlers) Metadata(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(r.URL.Query())
	if !ok {
		writeJSON(w, struct{}{})
		return
	}
	md, found := h.d.Media.Metadata(r.Context(), q.Title, q.Year)
	if !found {
		writeJSON(w, struct{}{})
		return
	}
	writeJSON(w, md)
}

// GET /api/qualities?title&year&season&episode
func (h *Handlers) Qualities(w http.ResponseWriter, r *http.Request) {
	out := []string{}
	if q, ok := parseQuery(r.URL.Query()); ok {
		if files, found := h.d.Media.GetMediaFiles(r.Context(), q); found {
			out = media.Qualities(files.Downloads)
		}
	}
	writeJSON(w, out)
}

// GET /api/subtitles?title&year&season&episode
func (h *Handlers) Subtitles(w http.ResponseWriter, r *http.Request) {
	out := []types.Subtitle{}
	if q, ok := parseQuery(r.URL.Query()); ok {
		if files, found := h.d.Media.GetMediaFiles(r.Context(), q); found {
			out = media.Subtitles(files.Captions)
		}
	}
	writeJSON(w, out)
}

// GET /api/subtitles/proxy?url
func (h *Handlers) SubtitleProxy(w http.ResponseWriter, r *http.Request) {
	src := strings.TrimSpace(r.URL.Query().Get("url"))
	if src == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	vtt, err := h.d.Subtitles.Get(r.Context(), src)
	if err != nil {
		status := http.StatusInternalServerError
		var fe *subtitles.FetchError
		if errors.As(err, &fe) && fe.Status >= 400 {
			status = fe.Status
		}
		logx.Printf(r.Context(), "[subtitles] proxy failed status=%d: %v", status, err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write([]byte(vtt))
}

// GET|HEAD /api/stream?title&quality&year&season&episode
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(r.URL.Query())
	if !ok {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	files, found := h.d.Media.GetMediaFiles(r.Context(), q)
	if !found {
		http.Error(w, "stream not found", http.StatusNotFound)
		return
	}
	src, ok := media.PickStream(files.Downloads, r.URL.Query().Get("quality"))
	if !ok {
		http.Error(w, "stream not found", http.StatusNotFound)
		return
	}

	err := h.d.Relay.Stream(w, r, src)
	switch {
	case err == nil:
	case errors.Is(err, proxy.ErrSourceBlocked):
		http.Error(w, "source blocked access", http.StatusForbidden)
	case r.Context().Err() != nil:
		// client went away before anything was sent
	default:
		logx.Printf(r.Context(), "[stream] proxy failed: %v", err)
		http.Error(w, "proxy error", http.StatusInternalServerError)
	}
}
