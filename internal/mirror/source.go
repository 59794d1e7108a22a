package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/pelletier/go-toml/v2"

	"github.com/JesmerAFK/movie-night/internal/logx"
	"github.com/JesmerAFK/movie-night/pkg/types"
)

var ErrNoHosts = errors.New("no mirror hosts configured")

// Source supplies the candidate mirror hosts.
type Source interface {
	Hosts(ctx context.Context) ([]types.MirrorHost, error)
}

// StaticSource is a fixed host list, typically built from the environment.
type StaticSource []types.MirrorHost

func (s StaticSource) Hosts(context.Context) ([]types.MirrorHost, error) {
	return append([]types.MirrorHost(nil), s...), nil
}

// NewStaticSource builds a list from plain hostnames. Preferred hosts missing
// from hosts are added; blocked ones stay in the list but are flagged.
func NewStaticSource(hosts, preferred, blocked []string) StaticSource {
	pref := toSet(preferred)
	block := toSet(blocked)
	var out StaticSource
	seen := map[string]bool{}
	add := func(h string) {
		h = normalizeHost(h)
		if h == "" || seen[h] {
			return
		}
		seen[h] = true
		out = append(out, types.MirrorHost{Hostname: h, Preferred: pref[h], Blocked: block[h]})
	}
	for _, h := range preferred {
		add(h)
	}
	for _, h := range hosts {
		add(h)
	}
	return out
}

func normalizeHost(h string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(h)), "/")
}

func toSet(hs []string) map[string]bool {
	m := make(map[string]bool, len(hs))
	for _, h := range hs {
		if h = normalizeHost(h); h != "" {
			m[h] = true
		}
	}
	return m
}

// FileSource reads hosts from a TOML file:
//
//	[[mirror]]
//	host = "h5.aoneroom.com"
//	preferred = true
type FileSource struct{ Path string }

type hostFile struct {
	Mirror []struct {
		Host      string `toml:"host"`
		Preferred bool   `toml:"preferred"`
		Blocked   bool   `toml:"blocked"`
	} `toml:"mirror"`
}

func (s FileSource) Hosts(context.Context) ([]types.MirrorHost, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open mirrors file: %w", err)
	}
	defer f.Close()

	var doc hostFile
	if err := toml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse mirrors file %s: %w", s.Path, err)
	}
	out := make([]types.MirrorHost, 0, len(doc.Mirror))
	for _, m := range doc.Mirror {
		if h := normalizeHost(m.Host); h != "" {
			out = append(out, types.MirrorHost{Hostname: h, Preferred: m.Preferred, Blocked: m.Blocked})
		}
	}
	return out, nil
}

// SQLSource reads the mirror_hosts table:
//
//	CREATE TABLE mirror_hosts (
//	  hostname  text PRIMARY KEY,
//	  preferred boolean NOT NULL DEFAULT false,
//	  blocked   boolean NOT NULL DEFAULT false,
//	  position  int     NOT NULL DEFAULT 0
//	);
type SQLSource struct{ DB *sql.DB }

func (s SQLSource) Hosts(ctx context.Context) ([]types.MirrorHost, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT hostname, preferred, blocked
FROM mirror_hosts
ORDER BY position, hostname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.MirrorHost
	for rows.Next() {
		var h types.MirrorHost
		if err := rows.Scan(&h.Hostname, &h.Preferred, &h.Blocked); err != nil {
			return nil, err
		}
		if h.Hostname = normalizeHost(h.Hostname); h.Hostname != "" {
			out = append(out, h)
		}
	}
	return out, rows.Err()
}

// Merge combines sources in order. A host listed twice keeps its first
// position; its flags are OR-ed. Any source error fails the merge.
func Merge(sources ...Source) Source { return merged(sources) }

type merged []Source

func (m merged) Hosts(ctx context.Context) ([]types.MirrorHost, error) {
	var out []types.MirrorHost
	idx := map[string]int{}
	for _, s := range m {
		hs, err := s.Hosts(ctx)
		if err != nil {
			return nil, err
		}
		for _, h := range hs {
			if i, ok := idx[h.Hostname]; ok {
				out[i].Preferred = out[i].Preferred || h.Preferred
				out[i].Blocked = out[i].Blocked || h.Blocked
				continue
			}
			idx[h.Hostname] = len(out)
			out = append(out, h)
		}
	}
	return out, nil
}

// Registry caches the host list of a slower Source. Requests read the cached
// list; Refresh replaces it and keeps the previous one when loading fails.
type Registry struct {
	src Source
	cur atomic.Pointer[[]types.MirrorHost]
}

func NewRegistry(src Source) *Registry { return &Registry{src: src} }

func (r *Registry) Refresh(ctx context.Context) error {
	hs, err := r.src.Hosts(ctx)
	if err == nil && len(hs) == 0 {
		err = ErrNoHosts
	}
	if err != nil {
		logx.Printf(ctx, "[hosts] refresh failed, keeping %d hosts: %v", len(r.load()), err)
		return err
	}
	r.cur.Store(&hs)
	logx.Printf(ctx, "[hosts] loaded %d hosts", len(hs))
	return nil
}

func (r *Registry) load() []types.MirrorHost {
	if p := r.cur.Load(); p != nil {
		return *p
	}
	return nil
}

func (r *Registry) Hosts(context.Context) ([]types.MirrorHost, error) {
	hs := r.load()
	if len(hs) == 0 {
		return nil, ErrNoHosts
	}
	return append([]types.MirrorHost(nil), hs...), nil
}
