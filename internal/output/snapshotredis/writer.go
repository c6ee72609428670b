package snapshotredis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"vehicleids/pkg/models"
)

// Config configures the Redis snapshot mirror.
type Config struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	MaxSnapshots int64
}

// Writer mirrors snapshots into Redis: the latest snapshot as a string key,
// a capped recent list, and running counters for dashboards outside the process.
type Writer struct {
	client *redis.Client
	prefix string
	max    int64
}

// NewWriter connects to Redis and verifies the connection.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = normalize(cfg)
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis snapshot mirror: %w", err)
	}
	return newWithClient(client, cfg), nil
}

func newWithClient(client *redis.Client, cfg Config) *Writer {
	cfg = normalize(cfg)
	return &Writer{client: client, prefix: cfg.KeyPrefix, max: cfg.MaxSnapshots}
}

func normalize(cfg Config) Config {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	cfg.KeyPrefix = strings.TrimSpace(cfg.KeyPrefix)
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "vehicleids"
	}
	if cfg.MaxSnapshots <= 0 {
		cfg.MaxSnapshots = 200
	}
	return cfg
}

// WriteSnapshots pushes a batch in a single pipeline round trip.
func (w *Writer) WriteSnapshots(snaps []*models.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pipe := w.client.Pipeline()

	var latest []byte
	for _, snap := range snaps {
		if snap == nil {
			continue
		}
		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		latest = payload
		pipe.LPush(ctx, w.RecentKey(), payload)

		pipe.HIncrBy(ctx, w.CountersKey(), "ticks", 1)
		if snap.AttackActive {
			pipe.HIncrBy(ctx, w.CountersKey(), "attack_ticks", 1)
		}
		for _, alert := range snap.SecurityAlerts {
			pipe.HIncrBy(ctx, w.CountersKey(), "alerts", 1)
			pipe.ZIncrBy(ctx, w.LevelsKey(), 1, string(alert.Level))
			pipe.ZIncrBy(ctx, w.AttackTypesKey(), 1, alert.AttackType)
		}
	}
	if latest == nil {
		return nil
	}
	pipe.Set(ctx, w.LatestKey(), latest, 0)
	pipe.LTrim(ctx, w.RecentKey(), 0, w.max-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update snapshot mirror keys: %w", err)
	}
	return nil
}

// latest reads back the most recently mirrored snapshot, or nil when none exists.
func (w *Writer) latest(ctx context.Context) (*models.Snapshot, error) {
	raw, err := w.client.Get(ctx, w.LatestKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode latest snapshot: %w", err)
	}
	return &snap, nil
}

// Close closes Redis resources.
func (w *Writer) Close() error {
	if w == nil || w.client == nil {
		return nil
	}
	return w.client.Close()
}

func (w *Writer) LatestKey() string {
	return w.prefix + ":snapshot:latest"
}

func (w *Writer) RecentKey() string {
	return w.prefix + ":snapshot:recent"
}

func (w *Writer) CountersKey() string {
	return w.prefix + ":counters"
}

func (w *Writer) LevelsKey() string {
	return w.prefix + ":alerts:level"
}

func (w *Writer) AttackTypesKey() string {
	return w.prefix + ":alerts:attack_type"
}
