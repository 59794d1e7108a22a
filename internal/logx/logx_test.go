package logx

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWriterFilters(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, 0, `\[(stream|resolve)\]`, `healthz`)

	_, _ = w.Write([]byte("[stream] start\n"))
	_, _ = w.Write([]byte("[catalog] hidden\n"))
	_, _ = w.Write([]byte("[stream] GET /healthz\n"))

	assert.Equal(t, "[stream] start\n", buf.String())
}

func TestWriterDedupIgnoresRequestID(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, time.Minute, "", "")

	_, _ = w.Write([]byte("[resolve] rid=0b6c1f7e-1111-4a2b-9c3d-aaaaaaaaaaaa no results\n"))
	_, _ = w.Write([]byte("[resolve] rid=5d2e8a90-2222-4b3c-8d4e-bbbbbbbbbbbb no results\n"))
	_, _ = w.Write([]byte("[resolve] other\n"))

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestPrintfPlacesRequestIDAfterTag(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})

	ctx := WithRequestID(context.Background(), "abc-123")
	Printf(ctx, "[stream] range=%s", "bytes=0-")
	Printf(ctx, "untagged %d", 1)
	Printf(context.Background(), "[stream] plain")

	assert.Equal(t, "[stream] rid=abc-123 range=bytes=0-\nrid=abc-123 untagged 1\n[stream] plain\n", buf.String())
	assert.Equal(t, "abc-123", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}
