//go:build integration

package cache

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRedis *redis.Client

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start Redis resource: %s", err)
	}

	addr := resource.GetHostPort("6379/tcp")
	if err := pool.Retry(func() error {
		var errRetry error
		testRedis, errRetry = NewRedisClient(context.Background(), RedisOptions{Address: addr})
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to Redis: %s", err)
	}

	code := m.Run()

	_ = testRedis.Close()
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge Redis resource: %s", err)
	}
	os.Exit(code)
}

func TestListingCache(t *testing.T) {
	ctx := context.Background()
	c := NewListingCache(testRedis, time.Minute)

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	l := &domain.Listing{ID: "abc", OwnerID: "u1", Title: "T", Rent: 10, Rooms: domain.RoomsT3,
		Status: domain.StatusAvailable, Media: []string{"m"}, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, c.Set(ctx, l))

	got, err = c.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, l.Title, got.Title)
	assert.Equal(t, l.Rooms, got.Rooms)
	assert.True(t, l.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, c.Delete(ctx, "abc"))
	got, err = c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

type countingBlacklist struct {
	revoked map[string]bool
	calls   int
}

func (b *countingBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	b.calls++
	return b.revoked[token], nil
}

func TestRevocationCache_CachesOnlyPositiveAnswers(t *testing.T) {
	ctx := context.Background()
	store := &countingBlacklist{revoked: map[string]bool{"bad": true}}
	c := NewRevocationCache(testRedis, store, time.Minute, logger.NewNop())

	for i := 0; i < 3; i++ {
		revoked, err := c.IsRevoked(ctx, "bad")
		require.NoError(t, err)
		assert.True(t, revoked)
	}
	assert.Equal(t, 1, store.calls)

	for i := 0; i < 2; i++ {
		revoked, err := c.IsRevoked(ctx, "good")
		require.NoError(t, err)
		assert.False(t, revoked)
	}
	assert.Equal(t, 3, store.calls)
}
