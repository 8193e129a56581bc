package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	docs []LogDocument
}

func (f *fakeWriter) InsertMany(_ context.Context, docs []interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.docs = append(f.docs, d.(LogDocument))
	}
	return nil
}

func (f *fakeWriter) snapshot() []LogDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LogDocument(nil), f.docs...)
}

func TestConfigure_ProductionWritesJSON(t *testing.T) {
	saved := L
	t.Cleanup(func() { L = saved; slog.SetDefault(saved) })

	var buf bytes.Buffer
	log := Configure(&buf, "production", "")
	log.Info("listing created", "listing_id", 7)
	log.Debug("dropped at info level")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "listing created", line["msg"])
	assert.EqualValues(t, 7, line["listing_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLevel("local", "warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel("prod", ""))
	assert.Equal(t, slog.LevelDebug, parseLevel("local", ""))
}

func TestWithCtx(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))

	tagged := L.With("request_id", "abc")
	ctx := InjectLogger(context.Background(), tagged)
	assert.Same(t, tagged, WithCtx(ctx))
}

func TestMongoHandler_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	h := newMongoHandler(w, slog.LevelWarn)

	log := slog.New(h).With("request_id", "req-1")
	log.Info("below threshold")
	log.Warn("purchase failed", "listing_id", 3)
	log.WithGroup("db").Error("query failed", "op", "update")

	require.NoError(t, h.Close())

	docs := w.snapshot()
	require.Len(t, docs, 2)

	assert.Equal(t, "purchase failed", docs[0].Msg)
	assert.Equal(t, "WARN", docs[0].Level)
	assert.Equal(t, "req-1", docs[0].RequestID)
	assert.EqualValues(t, 3, docs[0].Attrs["listing_id"])

	assert.Equal(t, "update", docs[1].Attrs["db.op"])
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h)

	log.Info("hello")
	assert.Contains(t, a.String(), "hello")
	assert.Empty(t, b.String())

	log.Error("boom")
	assert.Contains(t, b.String(), "boom")
}
