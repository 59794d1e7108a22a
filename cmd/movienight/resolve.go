package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JesmerAFK/movie-night/internal/media"
	"github.com/JesmerAFK/movie-night/pkg/types"
)

type resolveOutput struct {
	Title     string           `json:"title"`
	Found     bool             `json:"found"`
	Qualities []string         `json:"qualities"`
	Subtitles []types.Subtitle `json:"subtitles"`
	StreamURL string           `json:"stream_url,omitempty"`
}

func newResolveCommand() *cobra.Command {
	var (
		year, season, episode int
		quality               string
		asJSON, verbose       bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <title>",
		Short: "Resolve a title once and print what the API would serve",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetOutput(os.Stderr)
			} else {
				log.SetOutput(io.Discard)
			}

			q := types.Query{Title: strings.Join(args, " "), Season: season, Episode: episode}
			if year > 0 {
				q.Year = &year
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			out := resolveOutput{Title: q.Title, Qualities: []string{}, Subtitles: []types.Subtitle{}}
			if files, ok := a.controller.GetMediaFiles(cmd.Context(), q); ok {
				out.Found = true
				out.Qualities = media.Qualities(files.Downloads)
				out.Subtitles = media.Subtitles(files.Captions)
				out.StreamURL, _ = media.PickStream(files.Downloads, quality)
			}
			return printResolve(cmd.OutOrStdout(), out, asJSON)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Release year used to break ties")
	cmd.Flags().IntVar(&season, "season", 1, "Season number for series")
	cmd.Flags().IntVar(&episode, "episode", 1, "Episode number for series")
	cmd.Flags().StringVar(&quality, "quality", "", "Preferred quality label, e.g. 1080")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")
	return cmd
}

func printResolve(w io.Writer, out resolveOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if !out.Found {
		_, err := fmt.Fprintf(w, "%s: not found on any mirror\n", out.Title)
		return err
	}
	fmt.Fprintf(w, "title:     %s\n", out.Title)
	fmt.Fprintf(w, "qualities: %s\n", strings.Join(out.Qualities, ", "))
	for _, s := range out.Subtitles {
		fmt.Fprintf(w, "subtitle:  %s %s\n", s.Language, s.URL)
	}
	_, err := fmt.Fprintf(w, "stream:    %s\n", out.StreamURL)
	return err
}
