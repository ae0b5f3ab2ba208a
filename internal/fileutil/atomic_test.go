package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "blueprint.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomicInvalidDir(t *testing.T) {
	t.Parallel()
	err := WriteFileAtomic("/nonexistent/dir/blueprint.json", []byte("data"), 0o644)
	require.Error(t, err)
}

func TestWriteJSONAtomic(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nodes.json")

	in := map[string][]float64{"x/b3": {0.25, 0.75}}
	require.NoError(t, WriteJSONAtomic(path, in, 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string][]float64
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	require.Error(t, WriteJSONAtomic(path, map[string]any{"bad": func() {}}, 0o644))
}
