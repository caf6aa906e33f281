package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agora/pkg/logger"
)

type ctxKey string

func userExtractor(ctx context.Context) (slog.Attr, bool) {
	v, ok := ctx.Value(ctxKey("user")).(string)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.String("user", v), true
}

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestContextHandler(t *testing.T) {
	t.Parallel()

	t.Run("attaches extracted attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		h := logger.NewContextHandler(slog.NewJSONHandler(&buf, nil), userExtractor)
		log := slog.New(h)

		ctx := context.WithValue(context.Background(), ctxKey("user"), "alice")
		log.InfoContext(ctx, "hello")

		line := logLine(t, &buf)
		require.Equal(t, "hello", line["msg"])
		require.Equal(t, "alice", line["user"])
	})

	t.Run("skips absent attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil), userExtractor))

		log.InfoContext(context.Background(), "hello")

		line := logLine(t, &buf)
		require.NotContains(t, line, "user")
	})

	t.Run("drops nil extractors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil), nil, userExtractor))

		ctx := context.WithValue(context.Background(), ctxKey("user"), "bob")
		log.InfoContext(ctx, "hello")

		line := logLine(t, &buf)
		require.Equal(t, "bob", line["user"])
	})

	t.Run("survives WithAttrs and WithGroup", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil), userExtractor)).
			With(slog.String("component", "topics"))

		ctx := context.WithValue(context.Background(), ctxKey("user"), "carol")
		log.InfoContext(ctx, "hello")

		line := logLine(t, &buf)
		require.Equal(t, "topics", line["component"])
		require.Equal(t, "carol", line["user"])
	})
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	// Must accept records at any level without output or panic.
	log := logger.NewNope()
	log.Info("ignored")
	log.Error("ignored")
}
