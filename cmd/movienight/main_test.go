package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JesmerAFK/movie-night/pkg/types"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "resolve"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestPrintResolve(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResolve(&buf, resolveOutput{Title: "Heat"}, false))
	assert.Equal(t, "Heat: not found on any mirror\n", buf.String())

	buf.Reset()
	require.NoError(t, printResolve(&buf, resolveOutput{
		Title:     "Heat",
		Found:     true,
		Qualities: []string{"1080", "720"},
		Subtitles: []types.Subtitle{{Language: "English", URL: "https://s/en.srt"}},
		StreamURL: "https://cdn/heat.mp4",
	}, false))
	assert.Contains(t, buf.String(), "qualities: 1080, 720\n")
	assert.Contains(t, buf.String(), "subtitle:  English https://s/en.srt\n")
	assert.Contains(t, buf.String(), "stream:    https://cdn/heat.mp4\n")

	buf.Reset()
	require.NoError(t, printResolve(&buf, resolveOutput{Title: "Heat", Qualities: []string{}, Subtitles: []types.Subtitle{}}, true))
	assert.JSONEq(t, `{"title":"Heat","found":false,"qualities":[],"subtitles":[]}`, buf.String())
}
