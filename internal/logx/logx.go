package logx

import (
	"context"
	"io"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Combined filter + de-dup writer.
// - allowPattern (optional): if set, only lines matching it pass
// - denyPattern  (optional): lines matching it are dropped
// - window: drop identical lines seen within this window (de-dup)
type Writer struct {
	dst         io.Writer
	allow, deny *regexp.Regexp
	window      time.Duration
	mu          sync.Mutex
	lastSeen    map[string]time.Time
	lastSweep   time.Time
}

func New(dst io.Writer, window time.Duration, allowPattern, denyPattern string) *Writer {
	var allowRE, denyRE *regexp.Regexp
	if strings.TrimSpace(allowPattern) != "" {
		if re, err := regexp.Compile(allowPattern); err == nil {
			allowRE = re
		} // else: fail-soft
	}
	if strings.TrimSpace(denyPattern) != "" {
		if re, err := regexp.Compile(denyPattern); err == nil {
			denyRE = re
		}
	}
	return &Writer{dst: dst, allow: allowRE, deny: denyRE, window: window, lastSeen: make(map[string]time.Time)}
}

func (w *Writer) Write(p []byte) (int, error) {
	line := string(p)

	if w.deny != nil && w.deny.MatchString(line) {
		return len(p), nil
	}
	if w.allow != nil && !w.allow.MatchString(line) {
		return len(p), nil
	}
	if w.window <= 0 {
		return w.dst.Write(p)
	}

	// request ids make every line unique; de-dup on the message alone
	key := strings.TrimRight(stripRequestID(line), "\r\n")

	now := time.Now()
	w.mu.Lock()
	if last, ok := w.lastSeen[key]; ok && now.Sub(last) < w.window {
		w.mu.Unlock()
		return len(p), nil
	}
	w.lastSeen[key] = now
	if now.Sub(w.lastSweep) > 10*w.window {
		for k, t := range w.lastSeen {
			if now.Sub(t) >= w.window {
				delete(w.lastSeen, k)
			}
		}
		w.lastSweep = now
	}
	w.mu.Unlock()

	return w.dst.Write(p)
}

type ctxKey struct{}

// WithRequestID tags ctx so Printf can prefix lines written on its behalf.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Printf logs through the standard logger. A leading "[tag]" stays first so the
// allow/deny filters keep working, followed by "rid=<id>" when ctx carries one.
func Printf(ctx context.Context, format string, args ...any) {
	id := RequestID(ctx)
	if id == "" {
		log.Printf(format, args...)
		return
	}
	if strings.HasPrefix(format, "[") {
		if end := strings.Index(format, "]"); end > 0 {
			log.Printf(format[:end+1]+" rid="+id+format[end+1:], args...)
			return
		}
	}
	log.Printf("rid="+id+" "+format, args...)
}

var ridPattern = regexp.MustCompile(` ?rid=[0-9a-fA-F-]+`)

func stripRequestID(line string) string {
	return ridPattern.ReplaceAllString(line, "")
}
