package cache

import (
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Reader = (*RedisCache)(nil)

func TestKey(t *testing.T) {
	assert.Equal(t, "stats:yahoo_summary:updated", Key("stats", "yahoo_summary", "updated"))
	assert.Equal(t, "stats", Key("stats"))
	assert.Equal(t, "", Key())
}

func TestWrapKey(t *testing.T) {
	c := &RedisCache{prefix: "screener"}
	assert.Equal(t, "screener:stats:opts", c.wrapKey("stats:opts"))

	c.prefix = ""
	assert.Equal(t, "stats:opts", c.wrapKey("stats:opts"))
}

func TestHashSnapshot(t *testing.T) {
	fields := map[string]string{"AAPL": "{}"}

	snap, err := hashSnapshot(redis.NewStringResult("0", nil), redis.NewMapStringStringResult(fields, nil))
	require.NoError(t, err)
	assert.True(t, snap.HasFlag)
	assert.Equal(t, "0", snap.Flag)
	assert.Equal(t, fields, snap.Fields)

	snap, err = hashSnapshot(redis.NewStringResult("", redis.Nil), redis.NewMapStringStringResult(map[string]string{}, nil))
	require.NoError(t, err)
	assert.False(t, snap.HasFlag, "absent flag")
	assert.Empty(t, snap.Fields)
}

func TestHashSnapshotErrors(t *testing.T) {
	wrongType := errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

	_, err := hashSnapshot(redis.NewStringResult("", nil), redis.NewMapStringStringResult(nil, wrongType))
	assert.ErrorIs(t, err, wrongType)

	_, err = hashSnapshot(redis.NewStringResult("", wrongType), redis.NewMapStringStringResult(map[string]string{}, nil))
	assert.ErrorIs(t, err, wrongType)
}
