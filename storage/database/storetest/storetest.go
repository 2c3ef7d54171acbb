// Package storetest checks the behaviour every core.Store implementation shares.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/core"
)

type doc struct {
	Name  string         `json:"name"`
	Marks map[string]int `json:"marks"`
}

// Run exercises store. The store must start empty.
func Run(t *testing.T, store core.Store) {
	t.Run("get missing", func(t *testing.T) {
		var d doc
		assert.Equal(t, core.ErrNotFound, store.Get(context.Background(), "missing", &d))
	})

	t.Run("put get", func(t *testing.T) {
		ctx := context.Background()
		want := doc{Name: "全-1-1組", Marks: map[string]int{"2025-04-10": 1}}
		require.NoError(t, store.Put(ctx, "attendance/全-1-1組-2025", want))

		var got doc
		require.NoError(t, store.Get(ctx, "attendance/全-1-1組-2025", &got))
		assert.Equal(t, want, got)

		want.Name = "replaced"
		require.NoError(t, store.Put(ctx, "attendance/全-1-1組-2025", want))
		require.NoError(t, store.Get(ctx, "attendance/全-1-1組-2025", &got))
		assert.Equal(t, "replaced", got.Name)
	})

	t.Run("list", func(t *testing.T) {
		ctx := context.Background()
		for _, key := range []string{"exit/tengaku", "exit/joseki", "exits", "students", "ex%it_/x"} {
			require.NoError(t, store.Put(ctx, key, []string{}))
		}

		keys, err := store.List(ctx, "exit/")
		require.NoError(t, err)
		assert.Equal(t, []string{"exit/joseki", "exit/tengaku"}, keys)

		keys, err = store.List(ctx, "nothing/")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, store.Put(ctx, "seating_preferences", map[string]string{}))
		require.NoError(t, store.Delete(ctx, "seating_preferences"))
		require.NoError(t, store.Delete(ctx, "seating_preferences"))

		var m map[string]string
		assert.Equal(t, core.ErrNotFound, store.Get(ctx, "seating_preferences", &m))
	})

	t.Run("update", func(t *testing.T) {
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var n int
				assert.NoError(t, core.Update(ctx, store, "counter", &n, func() error {
					n++
					return nil
				}))
			}()
		}
		wg.Wait()

		var n int
		require.NoError(t, store.Get(ctx, "counter", &n))
		assert.Equal(t, 20, n)
	})
}
