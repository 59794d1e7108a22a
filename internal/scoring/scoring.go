package scoring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JesmerAFK/movie-night/pkg/types"
)

// Params holds the empirical constants of title matching. They have no derivation
// beyond "works on the catalog", so they stay tunable.
type Params struct {
	Threshold  float64 // minimum total score for a candidate to be accepted
	RatioFloor float64 // candidates below this similarity are not scored at all
}

var DefaultParams = Params{Threshold: 40, RatioFloor: 0.4}

const (
	exactBonus     = 50.0
	sequelPenalty  = -100.0
	sameYearBonus  = 50.0
	nearYearBonus  = 25.0
	farYearPenalty = -100.0
)

type Breakdown struct {
	Ratio      float64
	Base       float64
	Exact      float64
	Sequel     float64
	Year       float64
	HardReject string
	Total      float64
}

var digitGroups = regexp.MustCompile(`\d+`)

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func HardReject(ratio float64, p Params) (string, bool) {
	if ratio < p.RatioFloor {
		return "low_similarity", true
	}
	return "", false
}

// Score rates one catalog item against the query. A rejected item reports
// HardReject and must not be considered further.
func Score(q types.Query, item types.CatalogItem, p Params) Breakdown {
	qt, it := normalize(q.Title), normalize(item.Title)

	sb := Breakdown{Ratio: Ratio(qt, it)}
	if why, reject := HardReject(sb.Ratio, p); reject {
		sb.HardReject = why
		return sb
	}
	sb.Base = sb.Ratio * 100
	if qt == it {
		sb.Exact = exactBonus
	}
	if !digitsCovered(qt, it) {
		sb.Sequel = sequelPenalty
	}
	sb.Year = yearProximity(q.Year, item.Year)
	sb.Total = sb.Base + sb.Exact + sb.Sequel + sb.Year
	return sb
}

// digitsCovered reports whether every number in the query also appears in the
// candidate, so "Zootopia 2" does not settle for "Zootopia".
func digitsCovered(query, candidate string) bool {
	want := digitGroups.FindAllString(query, -1)
	if len(want) == 0 {
		return true
	}
	have := map[string]bool{}
	for _, d := range digitGroups.FindAllString(candidate, -1) {
		have[d] = true
	}
	for _, d := range want {
		if !have[d] {
			return false
		}
	}
	return true
}

func yearProximity(want, got *int) float64 {
	if want == nil || got == nil {
		return 0
	}
	diff := *want - *got
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return sameYearBonus
	case diff <= 1:
		return nearYearBonus
	case diff > 3:
		return farYearPenalty
	}
	return 0
}

// Rank scores all items, drops hard rejects and sorts best first. Items with
// equal scores keep their discovery order.
func Rank(q types.Query, items []types.CatalogItem, p Params) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, 0, len(items))
	for _, it := range items {
		sb := Score(q, it, p)
		if sb.HardReject != "" {
			continue
		}
		out = append(out, types.ScoredCandidate{Score: sb.Total, Item: it})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Best returns the winning candidate when it clears the acceptance threshold.
func Best(q types.Query, items []types.CatalogItem, p Params) (types.ScoredCandidate, bool) {
	ranked := Rank(q, items, p)
	if len(ranked) == 0 || ranked[0].Score < p.Threshold {
		return types.ScoredCandidate{}, false
	}
	return ranked[0], true
}
