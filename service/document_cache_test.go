package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentCache_PutAfterSeal(t *testing.T) {
	cache := NewDocumentCache()
	cache.Put(&DocumentEntry{Path: "a"})
	cache.Seal()
	cache.Put(&DocumentEntry{Path: "b"})

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("b")
	assert.False(t, ok)
}

func TestPopulateDocumentCache(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeDoc(t, dir, "a.yaml", exampleDocument),
		writeDoc(t, dir, "b.json", guardedDocument),
		writeDoc(t, dir, "c.yaml", "methods: [\n"),
		filepath.Join(dir, "missing.yaml"),
	}

	cache, err := PopulateDocumentCache(context.Background(), NewGraphReader(), files, 2)
	require.NoError(t, err)
	require.Equal(t, 4, cache.Len())

	entries := cache.Entries()
	for i, e := range entries {
		assert.Equal(t, files[i], e.Path, "entries keep input order")
	}
	assert.NoError(t, entries[0].Err)
	assert.Equal(t, "demo/Guarded", entries[1].Document.Class)
	assert.Equal(t, domain.ErrCodeParseError, domain.ErrorCode(entries[2].Err))
	assert.Equal(t, domain.ErrCodeFileNotFound, domain.ErrorCode(entries[3].Err))

	got, ok := cache.Get(files[0])
	require.True(t, ok)
	assert.Len(t, got.Document.Methods, 3)
}

func TestPopulateDocumentCache_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PopulateDocumentCache(ctx, NewGraphReader(), []string{"a.yaml"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
