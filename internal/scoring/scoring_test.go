package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JesmerAFK/movie-night/pkg/types"
)

func yr(n int) *int { return &n }

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abcd", "bcde", 0.75},
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"zootopia 2", "zootopia", 16.0 / 18.0},
		{"inception", "inception", 1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9, "%q vs %q", tt.a, tt.b)
	}
}

func TestScoreExactMatch(t *testing.T) {
	sb := Score(types.Query{Title: " Inception "}, types.CatalogItem{Title: "INCEPTION"}, DefaultParams)
	require.Empty(t, sb.HardReject)
	assert.InDelta(t, 150.0, sb.Total, 1e-9)
}

func TestScoreRejectsDissimilarTitles(t *testing.T) {
	sb := Score(types.Query{Title: "Inception"}, types.CatalogItem{Title: "Barbie"}, DefaultParams)
	assert.Equal(t, "low_similarity", sb.HardReject)

	_, ok := Best(types.Query{Title: "Inception"}, []types.CatalogItem{{ID: "1", Title: "Barbie"}, {ID: "2", Title: "Oppenheimer"}}, DefaultParams)
	assert.False(t, ok)
}

func TestSequelGuard(t *testing.T) {
	q := types.Query{Title: "Zootopia 2"}
	items := []types.CatalogItem{
		{ID: "orig", Title: "Zootopia"},
		{ID: "sequel", Title: "Zootopia 2"},
	}
	best, ok := Best(q, items, DefaultParams)
	require.True(t, ok)
	assert.Equal(t, "sequel", best.Item.ID)

	sb := Score(q, items[0], DefaultParams)
	assert.Equal(t, sequelPenalty, sb.Sequel)

	// The reverse direction is allowed: asking for the original may match a sequel title.
	sb = Score(types.Query{Title: "Zootopia"}, items[1], DefaultParams)
	assert.Zero(t, sb.Sequel)
}

func TestYearProximity(t *testing.T) {
	q := types.Query{Title: "Dune", Year: yr(2021)}
	cases := map[int]float64{2021: 200, 2020: 175, 2023: 150, 1984: 50}
	for year, want := range cases {
		sb := Score(q, types.CatalogItem{Title: "Dune", Year: yr(year)}, DefaultParams)
		assert.InDelta(t, want, sb.Total, 1e-9, "year %d", year)
	}

	ranked := Rank(q, []types.CatalogItem{
		{ID: "1984", Title: "Dune", Year: yr(1984)},
		{ID: "2021", Title: "Dune", Year: yr(2021)},
	}, DefaultParams)
	require.Len(t, ranked, 2)
	assert.Equal(t, "2021", ranked[0].Item.ID)
}

func TestExactMatchWinsAnyPosition(t *testing.T) {
	q := types.Query{Title: "Alien"}
	items := []types.CatalogItem{
		{ID: "a", Title: "Aliens"},
		{ID: "b", Title: "Alien Covenant"},
		{ID: "c", Title: "Alien"},
	}
	for i := range items {
		rotated := append(append([]types.CatalogItem{}, items[i:]...), items[:i]...)
		best, ok := Best(q, rotated, DefaultParams)
		require.True(t, ok)
		assert.Equal(t, "c", best.Item.ID)
	}
}

func TestRankKeepsDiscoveryOrderOnTies(t *testing.T) {
	q := types.Query{Title: "Heat"}
	ranked := Rank(q, []types.CatalogItem{
		{ID: "first", Title: "Heat"},
		{ID: "second", Title: "heat"},
	}, DefaultParams)
	require.Len(t, ranked, 2)
	assert.Equal(t, "first", ranked[0].Item.ID)
	assert.Equal(t, "second", ranked[1].Item.ID)
}

func TestThresholdIsConfigurable(t *testing.T) {
	q := types.Query{Title: "Zootopia 2"}
	items := []types.CatalogItem{{ID: "orig", Title: "Zootopia"}}

	_, ok := Best(q, items, DefaultParams)
	assert.False(t, ok, "penalized candidate must stay below the default threshold")

	_, ok = Best(q, items, Params{Threshold: -50, RatioFloor: 0.4})
	assert.True(t, ok)
}
