package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN", ":9999")
	t.Setenv("MIRROR_HOSTS", " a.example, ,b.example ")
	t.Setenv("MIRROR_PREFERRED", "-")
	t.Setenv("MIRROR_MAX_ATTEMPTS", "4")
	t.Setenv("SEARCH_TIMEOUT", "3s")
	t.Setenv("SCORE_THRESHOLD", "55.5")
	t.Setenv("SCORE_RATIO_FLOOR", "not-a-number")
	t.Setenv("CATALOG_RATE", "0")
	Load()

	assert.Equal(t, ":9999", ListenAddr())
	assert.Equal(t, []string{"a.example", "b.example"}, MirrorHosts())
	assert.Nil(t, MirrorPreferred())
	assert.Equal(t, 4, MirrorMaxAttempts())
	assert.Equal(t, 3*time.Second, SearchTimeout())
	assert.Equal(t, 55.5, ScoreParams().Threshold)
	assert.Equal(t, 0.4, ScoreParams().RatioFloor)
	assert.Equal(t, 0, CatalogRate())
	assert.Equal(t, 15*time.Second, ExtractTimeout())
	assert.Contains(t, UpstreamUserAgent(), "Mozilla/5.0")
}
