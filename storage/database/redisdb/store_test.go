package redisdb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/storage/database/storetest"
)

func TestStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	ctx := context.Background()

	prefix := fmt.Sprintf("gakuseki-test-%d:", time.Now().UnixNano())
	store, err := Open(ctx, core.RedisConfig{Addr: addr, Prefix: prefix})
	require.NoError(t, err)
	defer func() {
		keys, _ := store.List(ctx, "")
		for _, key := range keys {
			_ = store.Delete(ctx, key)
		}
		_ = store.Close()
	}()

	storetest.Run(t, store)
}
