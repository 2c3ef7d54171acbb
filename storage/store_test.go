package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/core"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		conf := &core.Config{Storage: core.StorageConfig{Driver: core.StorageFile, DataDir: t.TempDir()}}
		store, closer, err := Open(ctx, conf)
		require.NoError(t, err)
		defer func() { assert.NoError(t, closer.Close()) }()

		require.NoError(t, store.Put(ctx, "teachers", []string{"山本"}))
		var got []string
		require.NoError(t, store.Get(ctx, "teachers", &got))
		assert.Equal(t, []string{"山本"}, got)
	})

	t.Run("unknown driver", func(t *testing.T) {
		conf := &core.Config{Storage: core.StorageConfig{Driver: "mongo"}}
		_, _, err := Open(ctx, conf)
		assert.EqualError(t, err, `unknown storage driver "mongo"`)
	})
}
