// Package media normalizes what a catalog extraction returns: quality labels,
// stream selection and caption labels.
package media

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/JesmerAFK/movie-night/pkg/types"
)

// Rank maps a resolution label to a sortable number. Known tiers are matched by
// substring in priority order; otherwise the label's digits are used, else 0.
func Rank(label string) int {
	s := strings.ToUpper(label)
	switch {
	case strings.Contains(s, "4K"):
		return 4000
	case strings.Contains(s, "1080"):
		return 1080
	case strings.Contains(s, "720"):
		return 720
	case strings.Contains(s, "480"):
		return 480
	case strings.Contains(s, "360"):
		return 360
	case strings.Contains(s, "CAM"):
		return 100
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	if n, err := strconv.Atoi(digits); err == nil {
		return n
	}
	return 0
}

// Qualities returns the distinct non-empty labels, best first. Labels with equal
// rank keep their first-seen order.
func Qualities(downloads []types.DownloadOption) []string {
	seen := make(map[string]bool, len(downloads))
	out := make([]string, 0, len(downloads))
	for _, d := range downloads {
		if d.Resolution == "" || seen[d.Resolution] {
			continue
		}
		seen[d.Resolution] = true
		out = append(out, d.Resolution)
	}
	sort.SliceStable(out, func(i, j int) bool { return Rank(out[i]) > Rank(out[j]) })
	return out
}

func isHTTP(u string) bool {
	l := strings.ToLower(u)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Playable reports whether any option can be proxied.
func Playable(downloads []types.DownloadOption) bool {
	for _, d := range downloads {
		if isHTTP(d.URL) {
			return true
		}
	}
	return false
}

// PickStream chooses the URL to proxy. An exact desired label wins outright;
// otherwise the highest ranked http(s) option does, first one on ties.
func PickStream(downloads []types.DownloadOption, desired string) (string, bool) {
	best, bestRank := "", -1
	for _, d := range downloads {
		if !isHTTP(d.URL) {
			continue
		}
		if desired != "" && d.Resolution == desired {
			return d.URL, true
		}
		if r := Rank(d.Resolution); r > bestRank {
			best, bestRank = d.URL, r
		}
	}
	return best, best != ""
}
