package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/net/publicsuffix"

	"github.com/JesmerAFK/movie-night/internal/logx"
	"github.com/JesmerAFK/movie-night/pkg/types"
)

const (
	apiPrefix    = "/wefeed-h5-bff"
	warmupPath   = apiPrefix + "/app/get-latest-app-pkgs"
	searchPath   = apiPrefix + "/web/subject/search"
	detailPath   = apiPrefix + "/web/subject/detail"
	downloadPath = apiPrefix + "/web/subject/download"

	searchPerPage = 24
	maxBody       = 8 << 20
)

type Options struct {
	UserAgent string
	Limiters  *Limiters
	Transport http.RoundTripper
	Attempts  uint // transport-level attempts per call, default 2
}

func NewFactory(opts Options) Factory {
	return func(h types.MirrorHost) Client { return NewHTTPClient(h, opts) }
}

// HTTPClient is a catalog session against one mirror host. The cookie jar is
// private to the session, so concurrent requests never share upstream state.
type HTTPClient struct {
	host types.MirrorHost
	base string
	hc   *http.Client
	opts Options
	warm sync.Once
}

func NewHTTPClient(h types.MirrorHost, opts Options) *HTTPClient {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if opts.Attempts == 0 {
		opts.Attempts = 2
	}
	return &HTTPClient{
		host: h,
		base: baseURL(h.Hostname),
		hc:   &http.Client{Jar: jar, Transport: opts.Transport},
		opts: opts,
	}
}

func baseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

func (c *HTTPClient) Host() types.MirrorHost { return c.host }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type statusError struct{ code int }

func (e statusError) Error() string { return "upstream status " + strconv.Itoa(e.code) }

func retryable(err error) bool {
	var se statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return !errors.Is(err, ErrBlocked) && !errors.Is(err, ErrMalformedPayload) &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// warmup fetches the session cookies the API expects. Failure is not fatal:
// some mirrors serve search without them.
func (c *HTTPClient) warmup(ctx context.Context) {
	c.warm.Do(func() {
		q := url.Values{"app_name": {"moviebox"}}
		if _, err := c.roundTrip(ctx, http.MethodGet, c.base+warmupPath+"?"+q.Encode(), nil, ""); err != nil {
			logx.Printf(ctx, "[catalog] warmup host=%s: %v", c.host.Hostname, err)
		}
	})
}

func (c *HTTPClient) call(ctx context.Context, method, path string, q url.Values, body any, referer string) (json.RawMessage, error) {
	c.warmup(ctx)

	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = b
	}

	raw, err := retry.DoWithData(
		func() ([]byte, error) {
			if err := c.opts.Limiters.Take(ctx, c.host.Hostname); err != nil {
				return nil, err
			}
			return c.roundTrip(ctx, method, u, payload, referer)
		},
		retry.Context(ctx),
		retry.Attempts(c.opts.Attempts),
		retry.Delay(300*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
	)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMalformedPayload, err)
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("%s: upstream code %d: %s", path, env.Code, env.Message)
	}
	return unwrapStringData(env.Data), nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, u string, payload []byte, referer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusUnavailableForLegalReasons, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrBlocked, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, statusError{code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// unwrapStringData handles mirrors that send data as a JSON-encoded string.
func unwrapStringData(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return raw
	}
	return json.RawMessage(s)
}

func (c *HTTPClient) Search(ctx context.Context, query string, kind types.Kind) ([]types.Record, error) {
	body := map[string]any{
		"keyword":     query,
		"page":        1,
		"perPage":     searchPerPage,
		"subjectType": int(kind),
	}
	data, err := c.call(ctx, http.MethodPost, searchPath, nil, body, c.base+"/")
	if err != nil {
		return nil, err
	}
	var out struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("search: %w: %v", ErrMalformedPayload, err)
	}
	recs := make([]types.Record, 0, len(out.Items))
	for _, it := range out.Items {
		recs = append(recs, types.MapRecord(it))
	}
	return recs, nil
}

func (c *HTTPClient) detailReferer(item types.CatalogItem) string {
	if item.Detail == "" {
		return c.base + "/"
	}
	return c.base + "/movies/" + strings.TrimLeft(item.Detail, "/") + "?id=" + url.QueryEscape(item.ID)
}

func (c *HTTPClient) ExtractMovie(ctx context.Context, item types.CatalogItem) (types.MediaFiles, error) {
	return c.download(ctx, item, 0, 0)
}

func (c *HTTPClient) ExtractSeries(ctx context.Context, item types.CatalogItem, season, episode int) (types.MediaFiles, error) {
	return c.download(ctx, item, season, episode)
}

func (c *HTTPClient) download(ctx context.Context, item types.CatalogItem, season, episode int) (types.MediaFiles, error) {
	q := url.Values{
		"subjectId": {item.ID},
		"se":        {strconv.Itoa(season)},
		"ep":        {strconv.Itoa(episode)},
	}
	data, err := c.call(ctx, http.MethodGet, downloadPath, q, nil, c.detailReferer(item))
	if err != nil {
		return types.MediaFiles{}, err
	}
	var out struct {
		Downloads []map[string]any `json:"downloads"`
		Captions  []map[string]any `json:"captions"`
		Subtitles []map[string]any `json:"subtitles"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return types.MediaFiles{}, fmt.Errorf("download: %w: %v", ErrMalformedPayload, err)
	}
	captions := out.Captions
	if len(captions) == 0 {
		captions = out.Subtitles
	}
	return types.MediaFiles{
		Downloads: DownloadsFromRecords(toRecords(out.Downloads)),
		Captions:  CaptionsFromRecords(toRecords(captions)),
	}, nil
}

func toRecords(rows []map[string]any) []types.Record {
	out := make([]types.Record, len(rows))
	for i, r := range rows {
		out[i] = types.MapRecord(r)
	}
	return out
}

// SeriesMetadata lists seasons with their episode counts, ascending. An empty
// result is not an error; callers decide on a fallback.
func (c *HTTPClient) SeriesMetadata(ctx context.Context, item types.CatalogItem) ([]types.SeasonInfo, error) {
	data, err := c.call(ctx, http.MethodGet, detailPath, url.Values{"subjectId": {item.ID}}, nil, c.detailReferer(item))
	if err != nil {
		return nil, err
	}
	var out struct {
		Resource struct {
			Seasons []map[string]any `json:"seasons"`
		} `json:"resource"`
		Seasons []map[string]any `json:"seasons"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("detail: %w: %v", ErrMalformedPayload, err)
	}
	raw := out.Resource.Seasons
	if len(raw) == 0 {
		raw = out.Seasons
	}
	return SeasonsFromRecords(toRecords(raw)), nil
}

// SeasonsFromRecords reads {se, maxEp} rows. Rows without a season number are
// skipped; a missing episode count becomes 1.
func SeasonsFromRecords(rows []types.Record) []types.SeasonInfo {
	var seasons []types.SeasonInfo
	for _, r := range rows {
		se, ok := types.FirstInt(r, "se", "season")
		if !ok {
			continue
		}
		eps, ok := types.FirstInt(r, "maxEp", "episodes_count")
		if !ok || eps <= 0 {
			eps = 1
		}
		seasons = append(seasons, types.SeasonInfo{Season: se, EpisodesCount: eps})
	}
	sort.SliceStable(seasons, func(i, j int) bool { return seasons[i].Season < seasons[j].Season })
	return seasons
}
