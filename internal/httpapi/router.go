package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JesmerAFK/movie-night/internal/middleware"
)

func NewRouter(d Deps) http.Handler {
	h := &Handlers{d: d}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Recover)
	r.Use(middleware.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/metadata", h.Metadata)
		r.Get("/qualities", h.Qualities)
		r.Get("/subtitles", h.Subtitles)
		r.Get("/subtitles/proxy", h.SubtitleProxy)
		r.Get("/stream", h.Stream)
		r.Head("/stream", h.Stream)
	})

	return r
}
