package snapshotredis

import (
	"context"
	"os"
	"testing"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleids/pkg/models"
)

func TestKeysUsePrefix(t *testing.T) {
	w := newWithClient(nil, Config{KeyPrefix: " car1 "})

	assert.Equal(t, "car1:snapshot:latest", w.LatestKey())
	assert.Equal(t, "car1:snapshot:recent", w.RecentKey())
	assert.Equal(t, "car1:counters", w.CountersKey())
	assert.Equal(t, "car1:alerts:level", w.LevelsKey())
	assert.Equal(t, "car1:alerts:attack_type", w.AttackTypesKey())
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := normalize(Config{})

	assert.Equal(t, "127.0.0.1:6379", cfg.Addr)
	assert.Equal(t, "vehicleids", cfg.KeyPrefix)
	assert.Equal(t, int64(200), cfg.MaxSnapshots)
}

func TestCloseNilWriter(t *testing.T) {
	var w *Writer
	assert.NoError(t, w.Close())
}

// Runs only when REDIS_ADDR points at a disposable Redis instance.
func TestWriterMirrorsSnapshots(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	prefix := "vehicleids-test:" + t.Name()

	w, err := NewWriter(Config{Addr: addr, KeyPrefix: prefix, MaxSnapshots: 2})
	require.NoError(t, err)
	defer w.Close()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	defer client.Del(ctx, w.LatestKey(), w.RecentKey(), w.CountersKey(), w.LevelsKey(), w.AttackTypesKey())

	snaps := []*models.Snapshot{
		{Speed: 1},
		{Speed: 2, AttackActive: true, SecurityAlerts: []models.Alert{{Level: models.LevelCritical, AttackType: "Brake Spoofing"}}},
		{Speed: 3},
	}
	require.NoError(t, w.WriteSnapshots(snaps))

	latest, err := w.latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 3, latest.Speed)

	n, err := client.LLen(ctx, w.RecentKey()).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	counters, err := client.HGetAll(ctx, w.CountersKey()).Result()
	require.NoError(t, err)
	assert.Equal(t, "3", counters["ticks"])
	assert.Equal(t, "1", counters["attack_ticks"])
	assert.Equal(t, "1", counters["alerts"])

	score, err := client.ZScore(ctx, w.LevelsKey(), "CRITICAL").Result()
	require.NoError(t, err)
	assert.Equal(t, float64(1), score)
}
