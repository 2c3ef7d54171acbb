package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/storage/database/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, Open())
}

func TestStore_copies(t *testing.T) {
	ctx := context.Background()
	store := Open()

	in := map[string][]string{"a": {"x"}}
	require.NoError(t, store.Put(ctx, "k", in))
	in["a"][0] = "changed"

	var out map[string][]string
	require.NoError(t, store.Get(ctx, "k", &out))
	assert.Equal(t, []string{"x"}, out["a"])
}
