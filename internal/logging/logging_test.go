package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "json", slog.LevelInfo)
	require.NoError(t, err)
	l.LogLoad(context.Background(), "datasets/v20250101.1/common_tiny.bf", "v20250101.1", "tiny", 8192, 6, nil)
	require.Contains(t, buf.String(), `"msg":"filter loaded"`)
	require.Contains(t, buf.String(), `"bit_size":8192`)

	buf.Reset()
	l, err = New(&buf, "text", slog.LevelInfo)
	require.NoError(t, err)
	l.LogBuild(context.Background(), "v1", 0, 0, errors.New("boom"))
	require.Contains(t, buf.String(), "dataset build failed")
	require.Contains(t, buf.String(), "error=boom")

	_, err = New(&buf, "xml", slog.LevelInfo)
	require.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "json", slog.LevelInfo)
	require.NoError(t, err)
	l.LogTier(context.Background(), "tiny", 2, 8192, 6, 0xabc)
	require.Empty(t, buf.String(), "tier logs are debug level")

	l, err = New(&buf, "json", slog.LevelDebug)
	require.NoError(t, err)
	l.WithVersion("v1").LogTier(context.Background(), "tiny", 2, 8192, 6, 0xabc)
	require.Contains(t, buf.String(), `"bits_xxh64":"0000000000000abc"`)
	require.Contains(t, buf.String(), `"version":"v1"`)
}

func TestLogAggregateWarnsOnSkips(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, nil))
	l.LogAggregate(context.Background(), "a.txt", 10, 8, 2, nil)
	require.Contains(t, buf.String(), `"level":"WARN"`)
	require.Contains(t, buf.String(), `"malformed":2`)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestFromNil(t *testing.T) {
	l := From(nil)
	require.NotNil(t, l)
	l.Info("discarded")
}
