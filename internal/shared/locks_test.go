package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLocks(t *testing.T) *EntityLocks {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEntityLocks(client, time.Minute)
}

func TestEntityLocksSerialiseHolders(t *testing.T) {
	locks := newTestLocks(t)
	ctx := context.Background()
	key := RequestLockKey(42)

	release, err := locks.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = locks.Acquire(ctx, key)
	require.True(t, errors.Is(err, ErrLocked))

	release()

	release2, err := locks.Acquire(ctx, key)
	require.NoError(t, err)
	release2()
}

func TestEntityLocksIndependentKeys(t *testing.T) {
	locks := newTestLocks(t)
	ctx := context.Background()

	release1, err := locks.Acquire(ctx, RequestLockKey(1))
	require.NoError(t, err)
	defer release1()

	release2, err := locks.Acquire(ctx, TransferLockKey(1))
	require.NoError(t, err)
	defer release2()
}

func TestEntityLocksNilSafe(t *testing.T) {
	var locks *EntityLocks
	release, err := locks.Acquire(context.Background(), RequestLockKey(7))
	require.NoError(t, err)
	release()
}

func TestLockKeysDistinctPerEntity(t *testing.T) {
	require.NotEqual(t, RequestLockKey(5), TransferLockKey(5))
	require.NotEqual(t, RequestLockKey(5), RequestLockKey(6))
}
