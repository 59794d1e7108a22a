// Package proxy relays upstream media to the browser, passing byte ranges
// through so players can seek.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/JesmerAFK/movie-night/internal/logx"
	"github.com/JesmerAFK/movie-night/internal/middleware"
)

// ErrSourceBlocked means the upstream accepted the connection but sent nothing
// usable, which is how the CDN answers hotlinking it does not like.
var ErrSourceBlocked = errors.New("source blocked or unavailable")

const defaultChunk = 64 << 10

// forwarded is the full set of upstream headers a client sees. Everything else,
// including Content-Encoding, Transfer-Encoding and Connection, is dropped.
var forwarded = []string{"Content-Type", "Content-Length", "Content-Range", "Last-Modified", "ETag"}

type Relay struct {
	Client    *http.Client
	Referer   string
	UserAgent string
	ChunkSize int
}

// New returns a Relay whose upstream must send headers within headerTimeout.
func New(referer, userAgent string, headerTimeout time.Duration) *Relay {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = headerTimeout
	return &Relay{
		Client:    &http.Client{Transport: tr},
		Referer:   referer,
		UserAgent: userAgent,
		ChunkSize: defaultChunk,
	}
}

// Stream copies src to w. Errors are only returned while nothing has been
// written, so the caller can still choose a status; ErrSourceBlocked maps to
// 403. Once bytes flow, failures end the response and are logged here.
func (p *Relay) Stream(w http.ResponseWriter, r *http.Request, src string) error {
	ctx := r.Context()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	if rh := r.Header.Get("Range"); rh != "" {
		req.Header.Set("Range", rh)
	}
	if p.Referer != "" {
		req.Header.Set("Referer", p.Referer)
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	// keep the transport from transparently gunzipping, which would break Content-Length
	req.Header.Set("Accept-Encoding", "identity")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logx.Printf(ctx, "[stream] upstream connect: %v", err)
		return fmt.Errorf("%w: %v", ErrSourceBlocked, err)
	}
	defer resp.Body.Close()

	size := p.ChunkSize
	if size <= 0 {
		size = defaultChunk
	}
	buf := make([]byte, size)
	n, readErr := io.ReadAtLeast(resp.Body, buf, 1)
	if n == 0 && resp.StatusCode < 300 {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logx.Printf(ctx, "[stream] upstream status=%d sent no data: %v", resp.StatusCode, readErr)
		return ErrSourceBlocked
	}

	h := w.Header()
	for _, k := range forwarded {
		if v := resp.Header.Get(k); v != "" {
			h.Set(k, v)
		}
	}
	if ct := h.Get("Content-Type"); (ct == "" || ct == "application/octet-stream") && n > 0 {
		h.Set("Content-Type", mimetype.Detect(buf[:n]).String())
	}
	h.Del("Content-Encoding")
	h.Del("Transfer-Encoding")
	h.Del("Connection")
	h.Set("Accept-Ranges", "bytes")
	middleware.EnableCORS(w)

	w.WriteHeader(resp.StatusCode)
	if r.Method == http.MethodHead {
		return nil
	}

	start := time.Now()
	written, err := p.pump(w, resp.Body, buf, n, readErr)
	switch {
	case err == nil:
		logx.Printf(ctx, "[stream] status=%d range=%q bytes=%d dur=%s", resp.StatusCode, r.Header.Get("Range"), written, time.Since(start).Round(time.Millisecond))
	case ClientGone(err) || ctx.Err() != nil:
		logx.Printf(ctx, "[stream] client gone after %d bytes", written)
	default:
		logx.Printf(ctx, "[stream] aborted after %d bytes: %v", written, err)
	}
	return nil
}

// pump writes the already-read prefix and then the rest of body chunk by
// chunk. Each write is flushed, so a slow client stalls the upstream read.
func (p *Relay) pump(w http.ResponseWriter, body io.Reader, buf []byte, n int, readErr error) (int64, error) {
	rc := http.NewResponseController(w)
	var written int64
	for {
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			if err := rc.Flush(); err != nil {
				return written, err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
				return written, nil
			}
			return written, readErr
		}
		n, readErr = body.Read(buf)
	}
}

// ClientGone reports errors caused by the browser hanging up mid-stream.
func ClientGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var op *net.OpError
	if errors.As(err, &op) && op.Err != nil && errors.Is(op.Err, os.ErrClosed) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "broken pipe") || strings.Contains(s, "connection reset")
}
