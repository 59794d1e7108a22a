package subtitles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToVTTConvertsTimestamps(t *testing.T) {
	in := "1\r\n00:01:02,345 --> 00:01:05,678\r\nHello\r\n"
	got := ToVTT(in)
	assert.Equal(t, "WEBVTT\n\n1\n00:01:02.345 --> 00:01:05.678 line:80%\nHello", got)
}

func TestToVTTKeepsExistingHeader(t *testing.T) {
	in := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHi, there 00:00:03,000\n"
	got := ToVTT(in)
	assert.Equal(t, "WEBVTT\n\n00:00:01.000 --> 00:00:02.000 line:80%\nHi, there 00:00:03,000", got)

	// running it twice does not stack headers or positions
	assert.Equal(t, got, ToVTT(got))
}

func TestToVTTShortTimestamps(t *testing.T) {
	got := ToVTT("WEBVTT\n\n00:01.000 --> 00:04.000\nhi\n\n01:02:03.000 --> 01:02:04.500\nbye\n")
	assert.Equal(t, "WEBVTT\n\n00:01.000 --> 00:04.000 line:80%\nhi\n\n01:02:03.000 --> 01:02:04.500 line:80%\nbye", got)
	assert.Equal(t, got, ToVTT(got))
}

func TestToVTTEscapedBreaks(t *testing.T) {
	got := ToVTT(`00:00:01,000 --> 00:00:02,000` + "\n" + `first\Nsecond\nthird`)
	assert.Equal(t, "WEBVTT\n\n00:00:01.000 --> 00:00:02.000 line:80%\nfirst\nsecond\nthird", got)
}

func TestDecode(t *testing.T) {
	assert.Equal(t, "héllo", Decode([]byte("\xEF\xBB\xBFhéllo")))
	// 0xE9 alone is invalid UTF-8 and is é in Latin-1
	assert.Equal(t, "café", Decode([]byte{'c', 'a', 'f', 0xE9}))
}

func TestTranscoderGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://ref.example/" || r.Header.Get("User-Agent") != "ua" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/ok.srt":
			_, _ = w.Write([]byte("1\n00:00:01,000 --> 00:00:02,500\nHi\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tr := New("https://ref.example/", "ua", time.Second)
	vtt, err := tr.Get(context.Background(), srv.URL+"/ok.srt")
	require.NoError(t, err)
	assert.Equal(t, "WEBVTT\n\n1\n00:00:01.000 --> 00:00:02.500 line:80%\nHi", vtt)

	_, err = tr.Get(context.Background(), srv.URL+"/missing.srt")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.Status)

	_, err = New("", "", time.Second).Get(context.Background(), srv.URL+"/ok.srt")
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusForbidden, fe.Status)
}

func TestTranscoderTransportError(t *testing.T) {
	_, err := New("", "", time.Second).Get(context.Background(), "http://127.0.0.1:1/x.srt")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.Status)
}

func TestTranscoderRejectsOversizeCaption(t *testing.T) {
	cue := "1\n00:00:01,000 --> 00:00:02,000\nline\n\n"
	body := strings.Repeat(cue, maxCaption/len(cue)+1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	vtt, err := New("", "", 5*time.Second).Get(context.Background(), srv.URL+"/big.srt")
	require.Error(t, err)
	assert.Empty(t, vtt)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.Status)
	assert.ErrorIs(t, err, errCaptionTooLarge)

	exact := strings.Repeat("a", maxCaption)
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(exact))
	}))
	defer srv2.Close()

	raw, err := New("", "", 5*time.Second).Fetch(context.Background(), srv2.URL)
	require.NoError(t, err)
	assert.Len(t, raw, maxCaption)
}
