package filedb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/storage/database/storetest"
)

func TestStore(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	storetest.Run(t, store)
}

func TestStore_files(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "hyoka/2025年_1_1組", map[string]string{"name": "<数学>"}))
	data, err := os.ReadFile(filepath.Join(dir, "hyoka", "2025年_1_1組.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"<数学>\"\n}\n", string(data))

	// stray files are not documents
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hyoka", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hyoka", ".tmp-1"), []byte("x"), 0o644))
	keys, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"hyoka/2025年_1_1組"}, keys)

	tests := []string{"", "../students", "/etc/passwd", "a/../../b"}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			if err := store.Put(ctx, key, 1); errors.Cause(err) != errInvalidKey {
				t.Errorf("Put(%q) error = %v, want %v", key, err, errInvalidKey)
			}
		})
	}
}
