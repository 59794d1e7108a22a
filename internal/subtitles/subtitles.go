// Package subtitles fetches upstream caption files and rewrites them as WebVTT
// that browsers can render over the proxied video.
package subtitles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/JesmerAFK/movie-night/internal/logx"
)

const (
	vttHeader  = "WEBVTT"
	maxCaption = 5 << 20
	position   = " line:80%"
)

var (
	commaStamp    = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}),(\d{3})`)
	timingLine    = regexp.MustCompile(`((?:\d{2,}:)?\d{2}:\d{2}\.\d{3}\s*-->\s*(?:\d{2,}:)?\d{2}:\d{2}\.\d{3})`)
	utf8BOM       = []byte{0xEF, 0xBB, 0xBF}
	escapedBreaks = strings.NewReplacer(`\N`, "\n", `\n`, "\n")

	errCaptionTooLarge = errors.New("caption file exceeds size limit")
)

// FetchError reports an upstream caption fetch that did not return usable data.
// Status is the upstream status to forward, or 0 for transport failures.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("subtitle fetch: upstream status %d", e.Status)
	}
	return fmt.Sprintf("subtitle fetch: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Transcoder struct {
	Client    *http.Client
	Referer   string
	UserAgent string
	Timeout   time.Duration
}

func New(referer, userAgent string, timeout time.Duration) *Transcoder {
	return &Transcoder{Client: &http.Client{}, Referer: referer, UserAgent: userAgent, Timeout: timeout}
}

// Fetch downloads a caption file with the same headers the video proxy uses.
func (t *Transcoder) Fetch(ctx context.Context, u string) ([]byte, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	if t.Referer != "" {
		req.Header.Set("Referer", t.Referer)
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		logx.Printf(ctx, "[subtitles] fetch status=%d url=%s", resp.StatusCode, u)
		return nil, &FetchError{Status: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCaption+1))
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	if len(data) > maxCaption {
		logx.Printf(ctx, "[subtitles] oversize caption url=%s", u)
		return nil, &FetchError{Err: errCaptionTooLarge}
	}
	return data, nil
}

// Get fetches and converts in one step.
func (t *Transcoder) Get(ctx context.Context, u string) (string, error) {
	raw, err := t.Fetch(ctx, u)
	if err != nil {
		return "", err
	}
	return ToVTT(Decode(raw)), nil
}

// Decode tries UTF-8 (BOM stripped), then Latin-1, then lossy UTF-8.
func Decode(raw []byte) string {
	b := bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(b) {
		return string(b)
	}
	if s, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
		return string(s)
	}
	s, _ := unicode.UTF8.NewDecoder().Bytes(b)
	return string(s)
}

// ToVTT normalizes caption text into WebVTT. SRT style comma timestamps are
// rewritten only when the input is not already VTT, every cue timing gets the
// line position, and the header is added when missing.
func ToVTT(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(escapedBreaks.Replace(text))

	isVTT := strings.HasPrefix(text, vttHeader)
	if !isVTT {
		text = commaStamp.ReplaceAllString(text, "$1.$2")
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, "-->") && !strings.Contains(line, "line:") {
			lines[i] = timingLine.ReplaceAllString(line, "${1}"+position)
		}
	}
	text = strings.Join(lines, "\n")

	if !isVTT {
		text = vttHeader + "\n\n" + text
	}
	return text
}
