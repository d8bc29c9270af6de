package service

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestGraphReader_IsGraphFile(t *testing.T) {
	reader := NewGraphReader()

	tests := []struct {
		path string
		want bool
	}{
		{"a.yaml", true},
		{"a.YML", true},
		{"dir/a.json", true},
		{"a.msgpack", true},
		{"a.mpk", true},
		{"a.toml", false},
		{"a", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, reader.IsGraphFile(tt.path))
		})
	}
}

func TestGraphReader_CollectGraphFiles(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.yaml", exampleDocument)
	writeDoc(t, dir, "b.json", guardedDocument)
	writeDoc(t, dir, "notes.txt", "ignored")
	writeDoc(t, dir, "nested/c.yaml", exampleDocument)
	writeDoc(t, dir, "generated/d.yaml", exampleDocument)
	writeDoc(t, dir, ".flowstruct/cache/e.yaml", exampleDocument)

	reader := NewGraphReader()

	rel := func(files []string) []string {
		out := make([]string, len(files))
		for i, f := range files {
			r, err := filepath.Rel(dir, f)
			require.NoError(t, err)
			out[i] = filepath.ToSlash(r)
		}
		sort.Strings(out)
		return out
	}

	t.Run("recursive", func(t *testing.T) {
		files, err := reader.CollectGraphFiles([]string{dir}, true, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.yaml", "b.json", "generated/d.yaml", "nested/c.yaml"}, rel(files))
	})

	t.Run("flat", func(t *testing.T) {
		files, err := reader.CollectGraphFiles([]string{dir}, false, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.yaml", "b.json"}, rel(files))
	})

	t.Run("include and exclude globs", func(t *testing.T) {
		files, err := reader.CollectGraphFiles([]string{dir}, true, []string{"**/*.yaml"}, []string{"generated/**"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.yaml", "nested/c.yaml"}, rel(files))
	})

	t.Run("explicit file", func(t *testing.T) {
		files, err := reader.CollectGraphFiles([]string{filepath.Join(dir, "b.json")}, true, []string{"**/*.yaml"}, nil)
		require.NoError(t, err)
		assert.Len(t, files, 1, "include patterns do not apply to explicit files")
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := reader.CollectGraphFiles([]string{filepath.Join(dir, "missing")}, true, nil, nil)
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeFileNotFound, domain.ErrorCode(err))
	})

	t.Run("explicit non-graph file", func(t *testing.T) {
		_, err := reader.CollectGraphFiles([]string{filepath.Join(dir, "notes.txt")}, true, nil, nil)
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
	})
}

func TestGraphReader_ReadDocument(t *testing.T) {
	dir := t.TempDir()
	reader := NewGraphReader()

	t.Run("yaml", func(t *testing.T) {
		doc, err := reader.ReadDocument(writeDoc(t, dir, "a.yaml", exampleDocument))
		require.NoError(t, err)
		assert.Equal(t, "demo/Example", doc.Class)
		require.Len(t, doc.Methods, 3)
		assert.Equal(t, []int{1, 2}, doc.Methods[0].Blocks[0].Successors)
		assert.Equal(t, "if", doc.Methods[0].Blocks[0].Instructions[0].Op)
	})

	t.Run("json", func(t *testing.T) {
		doc, err := reader.ReadDocument(writeDoc(t, dir, "b.json", guardedDocument))
		require.NoError(t, err)
		h := doc.Methods[0].Blocks[0].Handlers
		require.Len(t, h, 2)
		assert.Equal(t, []string{"java/io/IOException"}, h[0].Types)
	})

	t.Run("msgpack", func(t *testing.T) {
		src, err := DecodeDocument([]byte(exampleDocument), DocumentYAML)
		require.NoError(t, err)
		data, err := msgpack.Marshal(src)
		require.NoError(t, err)

		doc, err := reader.ReadDocument(writeDoc(t, dir, "c.msgpack", string(data)))
		require.NoError(t, err)
		assert.Equal(t, src, doc)
	})

	t.Run("decode error", func(t *testing.T) {
		_, err := reader.ReadDocument(writeDoc(t, dir, "bad.yaml", "methods: [\n"))
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeParseError, domain.ErrorCode(err))
	})

	t.Run("invalid document", func(t *testing.T) {
		_, err := reader.ReadDocument(writeDoc(t, dir, "empty.yaml", "class: x\nmethods: []\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "graph document has no methods")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := reader.ReadDocument(filepath.Join(dir, "x.toml"))
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeUnsupportedFormat, domain.ErrorCode(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := reader.ReadDocument(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeFileNotFound, domain.ErrorCode(err))
	})
}

func TestGraphReader_FileExists(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "a.yaml", exampleDocument)
	reader := NewGraphReader()

	ok, err := reader.FileExists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reader.FileExists(dir)
	require.NoError(t, err)
	assert.False(t, ok, "directories are not files")

	ok, err = reader.FileExists(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}
