package logger

import (
	"bytes"
	"context"
	log "log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := log.Default()
	log.SetDefault(log.New(&ContextHandler{log.NewJSONHandler(buf, &log.HandlerOptions{Level: log.LevelDebug})}))
	t.Cleanup(func() { log.SetDefault(prev) })
	return buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestContextHandlerAddsTraceID(t *testing.T) {
	buf := captureDefault(t)

	log.InfoContext(WithTraceID(context.Background(), "abc"), "hello")
	log.With("k", "v").InfoContext(WithTraceID(context.Background(), "def"), "with attrs")
	log.Info("no trace")

	got := lines(t, buf)
	require.Len(t, got, 3)
	assert.Equal(t, "abc", got[0][TraceIDKey])
	assert.Equal(t, "def", got[1][TraceIDKey])
	assert.Equal(t, "v", got[1]["k"])
	assert.NotContains(t, got[2], TraceIDKey)
}

func TestRemoteFilterDropsUntracedRecords(t *testing.T) {
	remote := &bytes.Buffer{}
	local := &bytes.Buffer{}
	tee := NewTeeHandler(
		log.NewJSONHandler(local, nil),
		&RemoteFilterHandler{next: log.NewJSONHandler(remote, nil)},
	)
	l := log.New(&ContextHandler{tee})

	l.Info("startup")
	l.InfoContext(WithTraceID(context.Background(), "t-1"), "request")

	assert.Equal(t, 2, strings.Count(local.String(), "\n"))
	assert.Equal(t, 1, strings.Count(remote.String(), "\n"))
	assert.Contains(t, remote.String(), "t-1")
}

func TestTeeHandlerEnabledByAnyHandler(t *testing.T) {
	debug := &bytes.Buffer{}
	tee := NewTeeHandler(
		log.NewJSONHandler(&bytes.Buffer{}, &log.HandlerOptions{Level: log.LevelWarn}),
		log.NewJSONHandler(debug, &log.HandlerOptions{Level: log.LevelDebug}),
	)
	assert.True(t, tee.Enabled(context.Background(), log.LevelDebug))

	log.New(tee).Debug("only second")
	assert.Contains(t, debug.String(), "only second")
}

func TestGormLoggerLevels(t *testing.T) {
	buf := captureDefault(t)
	l := NewGormLogger()
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT COUNT(*) AS value FROM `videos`", 1 }

	l.Trace(ctx, time.Now(), sql, nil)
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), sql, nil)

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "MySQL SELECT", got[0]["msg"])
	assert.Equal(t, "MySQL SELECT Slow", got[1]["msg"])
	// LogMode 不修改原实例
	assert.Equal(t, gormlogger.Info, l.LogLevel)
}

func TestHTTPTransportKeepsBody(t *testing.T) {
	buf := captureDefault(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second)
	resp, err := client.Post(srv.URL, "application/json", strings.NewReader(`{"q":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["ok"])

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "HTTP_CALL", got[0]["msg"])
	assert.Equal(t, `{"q":1}`, got[0]["req_body"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
	long := strings.Repeat("x", bodyLogLimit+10)
	assert.True(t, strings.HasSuffix(truncate(long), "...[truncated]"))
}
