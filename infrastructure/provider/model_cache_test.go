package provider

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 512))
	assert.Len(t, []rune(truncate(string(make([]rune, 1000)), 512)), 512)

	// Multibyte runes count as one character, not several bytes.
	input := "日本語のテキスト"
	assert.Equal(t, "日本語", truncate(input, 3))
	assert.Equal(t, input, truncate(input, 100))
}

func TestModelCache_NotReadyBeforeLoad(t *testing.T) {
	cache := NewModelCache("some/model", t.TempDir(), slog.New(slog.DiscardHandler))
	assert.False(t, cache.Ready())
	require.NoError(t, cache.Close(), "close before load is a no-op")
}

func TestModelCache_DiskModelPath(t *testing.T) {
	dir := t.TempDir()
	cache := NewModelCache("some/model", dir, slog.New(slog.DiscardHandler))

	// Empty cache: nothing on disk.
	_, err := cache.diskModelPath()
	require.Error(t, err)

	// A subdirectory without tokenizer.json does not count.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "incomplete"), 0o755))
	_, err = cache.diskModelPath()
	require.Error(t, err)

	// A subdirectory with tokenizer.json is a usable cached model.
	modelDir := filepath.Join(dir, "sentence-transformers_all-MiniLM-L6-v2")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "tokenizer.json"), []byte("{}"), 0o644))

	got, err := cache.diskModelPath()
	require.NoError(t, err)
	assert.Equal(t, modelDir, got)
}

func TestModelCache_EmbedEmptyInput(t *testing.T) {
	cache := NewModelCache("some/model", t.TempDir(), slog.New(slog.DiscardHandler))

	vectors, err := cache.Embed(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors, "empty input must not trigger a model load")
	assert.False(t, cache.Ready())
}
