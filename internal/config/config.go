package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JesmerAFK/movie-night/internal/scoring"
)

const (
	defaultReferer   = "https://fmoviesunblocked.net/"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	listenAddr = ":8000"

	// mirrors
	mirrorHosts       = []string{"h5.aoneroom.com", "movieboxapp.in", "moviebox.pk", "moviebox.ph", "moviebox.id", "v.moviebox.ph", "netnaija.video"}
	mirrorPreferred   = []string{"h5.aoneroom.com"}
	mirrorBlocked     []string
	mirrorMaxAttempts = 3
	mirrorsFile       string
	pgDSN             string
	hostsRefresh      = 5 * time.Minute

	// upstream calls
	searchTimeout   = 8 * time.Second
	detailTimeout   = 10 * time.Second
	extractTimeout  = 15 * time.Second
	subtitleTimeout = 20 * time.Second
	streamHeaders   = 15 * time.Second
	upstreamReferer = defaultReferer
	upstreamUA      = defaultUserAgent
	catalogRate     = 10
	limiterIdleTTL  = 10 * time.Minute

	scoreParams = scoring.DefaultParams

	// logging
	logFilePath   = "movienight.log"
	logMaxSizeMB  = 50
	logMaxBackups = 3
	logMaxAgeDays = 14
	logAllowRegex = `^\[(init|boot|http|resolve|mirror|catalog|stream|subtitles|janitor|hosts|db|panic)\]`
	logDenyRegex  = `GET /healthz`
	logDedupWin   = 3 * time.Second
)

func Load() {
	listenAddr = getenv("LISTEN", listenAddr)

	mirrorHosts = getenvList("MIRROR_HOSTS", mirrorHosts)
	mirrorPreferred = getenvList("MIRROR_PREFERRED", mirrorPreferred)
	mirrorBlocked = getenvList("MIRROR_BLOCKED", mirrorBlocked)
	mirrorMaxAttempts = int(getenvInt64("MIRROR_MAX_ATTEMPTS", int64(mirrorMaxAttempts)))
	mirrorsFile = getenv("MIRRORS_FILE", mirrorsFile)
	pgDSN = getenv("PG_DSN", pgDSN)
	hostsRefresh = getenvDuration("HOSTS_REFRESH", hostsRefresh)

	searchTimeout = getenvDuration("SEARCH_TIMEOUT", searchTimeout)
	detailTimeout = getenvDuration("DETAIL_TIMEOUT", detailTimeout)
	extractTimeout = getenvDuration("EXTRACT_TIMEOUT", extractTimeout)
	subtitleTimeout = getenvDuration("SUBTITLE_TIMEOUT", subtitleTimeout)
	streamHeaders = getenvDuration("STREAM_HEADER_TIMEOUT", streamHeaders)
	upstreamReferer = getenv("UPSTREAM_REFERER", upstreamReferer)
	upstreamUA = getenv("UPSTREAM_USER_AGENT", upstreamUA)
	catalogRate = int(getenvInt64("CATALOG_RATE", int64(catalogRate)))
	limiterIdleTTL = getenvDuration("LIMITER_IDLE_TTL", limiterIdleTTL)

	scoreParams.Threshold = getenvFloat("SCORE_THRESHOLD", scoreParams.Threshold)
	scoreParams.RatioFloor = getenvFloat("SCORE_RATIO_FLOOR", scoreParams.RatioFloor)

	logFilePath = getenv("LOG_FILE", logFilePath)
	logMaxSizeMB = int(getenvInt64("LOG_MAX_SIZE_MB", int64(logMaxSizeMB)))
	logMaxBackups = int(getenvInt64("LOG_MAX_BACKUPS", int64(logMaxBackups)))
	logMaxAgeDays = int(getenvInt64("LOG_MAX_AGE_DAYS", int64(logMaxAgeDays)))
	logAllowRegex = getenv("LOG_ALLOW", logAllowRegex)
	logDenyRegex = getenv("LOG_DENY", logDenyRegex)
	logDedupWin = getenvDuration("LOG_DEDUP_WINDOW", logDedupWin)
}

// getters
func ListenAddr() string                 { return listenAddr }
func MirrorHosts() []string              { return mirrorHosts }
func MirrorPreferred() []string          { return mirrorPreferred }
func MirrorBlocked() []string            { return mirrorBlocked }
func MirrorMaxAttempts() int             { return mirrorMaxAttempts }
func MirrorsFile() string                { return mirrorsFile }
func PostgresDSN() string                { return pgDSN }
func HostsRefresh() time.Duration        { return hostsRefresh }
func SearchTimeout() time.Duration       { return searchTimeout }
func DetailTimeout() time.Duration       { return detailTimeout }
func ExtractTimeout() time.Duration      { return extractTimeout }
func SubtitleTimeout() time.Duration     { return subtitleTimeout }
func StreamHeaderTimeout() time.Duration { return streamHeaders }
func UpstreamReferer() string            { return upstreamReferer }
func UpstreamUserAgent() string          { return upstreamUA }
func CatalogRate() int                   { return catalogRate }
func LimiterIdleTTL() time.Duration      { return limiterIdleTTL }
func ScoreParams() scoring.Params        { return scoreParams }
func LogFilePath() string                { return logFilePath }
func LogMaxSizeMB() int                  { return logMaxSizeMB }
func LogMaxBackups() int                 { return logMaxBackups }
func LogMaxAgeDays() int                 { return logMaxAgeDays }
func LogAllowRegex() string              { return logAllowRegex }
func LogDenyRegex() string               { return logDenyRegex }
func LogDedupWindow() time.Duration      { return logDedupWin }

// helpers
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func getenvInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
func getenvFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getenvList splits a comma separated value. "-" clears the default.
func getenvList(k string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	switch v {
	case "":
		return def
	case "-":
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
