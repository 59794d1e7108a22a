package types

import "strings"

type Kind int

const (
	KindMovie  Kind = 1
	KindSeries Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindSeries:
		return "series"
	default:
		return "unknown"
	}
}

// Query is what the caller typed plus optional disambiguation.
// Season and Episode are 1-based; Normalize fills the defaults.
type Query struct {
	Title   string
	Year    *int
	Season  int
	Episode int
}

func (q Query) Normalize() Query {
	q.Title = strings.TrimSpace(q.Title)
	if q.Season < 1 {
		q.Season = 1
	}
	if q.Episode < 1 {
		q.Episode = 1
	}
	return q
}

type CatalogItem struct {
	ID     string
	Title  string
	Year   *int
	Kind   Kind
	Detail string // upstream detail path, used to build the download Referer
}

type ScoredCandidate struct {
	Score float64
	Item  CatalogItem
}

type ResolvedTarget struct {
	Item CatalogItem
	Kind Kind
}

type DownloadOption struct {
	URL        string
	Resolution string
}

type CaptionOption struct {
	URL           string
	LanguageCode  string
	LanguageLabel string
}

type MediaFiles struct {
	Downloads []DownloadOption
	Captions  []CaptionOption
}

type SeasonInfo struct {
	Season        int `json:"season"`
	EpisodesCount int `json:"episodes_count"`
}

type MirrorHost struct {
	Hostname  string
	Preferred bool
	Blocked   bool
}

// Metadata is the shape served by /api/metadata.
type Metadata struct {
	IsTV    bool         `json:"is_tv"`
	Title   string       `json:"title"`
	Year    *int         `json:"year"`
	Seasons []SeasonInfo `json:"seasons"`
}

type Subtitle struct {
	Language string `json:"language"`
	URL      string `json:"url"`
}
