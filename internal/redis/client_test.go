package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/rental-listing-service/internal/config"
)

func TestInsightKey(t *testing.T) {
	assert.Equal(t, "listings:insights:cheapest", InsightKey("cheapest"))
	assert.Equal(t, "listings:insights:price-per-sqft:5", InsightKey("price-per-sqft", 5))
}

func TestKeysShareInvalidationPrefix(t *testing.T) {
	for _, key := range []string{KeyStats, KeySources, InsightKey("sources")} {
		assert.True(t, strings.HasPrefix(key, KeyPrefix), key)
	}
}

func TestNewFromClient_DefaultTTL(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	c := NewFromClient(rdb, 0)
	assert.Equal(t, 5*time.Minute, c.ttl)

	c = NewFromClient(rdb, time.Minute)
	assert.Equal(t, time.Minute, c.ttl)
}

func TestNew_UnreachableServer(t *testing.T) {
	_, err := New(config.RedisConfig{Host: "127.0.0.1", Port: "1", TTL: time.Minute})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestGetJSON_ConnectionError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()
	c := NewFromClient(rdb, time.Minute)

	var dest map[string]int
	hit, err := c.GetJSON(context.Background(), KeyStats, &dest)
	require.Error(t, err)
	assert.False(t, hit)
}
