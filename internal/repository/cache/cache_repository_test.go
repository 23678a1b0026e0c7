package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/domain"
)

func getTestRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use DB 1 for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}
	return client
}

func TestHiddenNamesKey(t *testing.T) {
	assert.Equal(t, "hidden:7:12", HiddenNamesKey(7, 12))
}

func TestCacheRepository_HiddenNames(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	repo := newCacheRepository(client, zap.NewNop())
	ctx := context.Background()
	defer client.Del(ctx, HiddenNamesKey(999, 8))

	// промах кеша
	hidden, err := repo.GetHiddenNames(ctx, 999, 8)
	require.NoError(t, err)
	assert.Nil(t, hidden)

	set := domain.HiddenSet{"Cafe Uno": {}, "Cafe Dos": {}}
	require.NoError(t, repo.SetHiddenNames(ctx, 999, 8, set, time.Minute))

	hidden, err = repo.GetHiddenNames(ctx, 999, 8)
	require.NoError(t, err)
	assert.Equal(t, set, hidden)

	// пустое множество тоже кешируется
	defer client.Del(ctx, HiddenNamesKey(999, 20))
	require.NoError(t, repo.SetHiddenNames(ctx, 999, 20, domain.HiddenSet{}, time.Minute))
	hidden, err = repo.GetHiddenNames(ctx, 999, 20)
	require.NoError(t, err)
	assert.NotNil(t, hidden)
	assert.Empty(t, hidden)
}

func TestCacheRepository_GetSetDelete(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	repo := newCacheRepository(client, zap.NewNop())
	ctx := context.Background()
	key := "test:cache:key"

	require.NoError(t, repo.Set(ctx, key, []byte("value"), time.Minute))

	exists, err := repo.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	val, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)

	require.NoError(t, repo.Delete(ctx, key))
	val, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, val)
}
