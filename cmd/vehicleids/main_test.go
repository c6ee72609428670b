package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleids/config"
	"vehicleids/internal/engine"
	"vehicleids/internal/generator"
	"vehicleids/internal/output/snapshotjson"
	"vehicleids/internal/report"
	"vehicleids/internal/simrand"
	"vehicleids/pkg/models"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &config.Config{}
	applyDefaults(cfg)
	v := cfg.VehicleIDS

	assert.Equal(t, ":5000", v.Server.Addr)
	assert.Equal(t, 5*time.Second, v.Server.ShutdownTimeout)
	assert.Equal(t, "logs/telemetry.log", v.TelemetryLog.Path)
	assert.Equal(t, 256, v.Sink.QueueSize)
	assert.Equal(t, 32, v.Sink.BatchSize)
	assert.Equal(t, time.Second, v.Sink.FlushInterval)
	assert.Equal(t, "vehicleids:commands", v.Redis.CommandKey)
	assert.Equal(t, 200, v.Analytics.TimelineSize)
	assert.Equal(t, 5, v.Analytics.TopN)
	assert.Equal(t, 10000, v.Analytics.MaxKeys)
	assert.Equal(t, "/metrics", v.Metrics.Path)
	assert.Equal(t, "info", v.Logging.Level)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &config.Config{}
	cfg.VehicleIDS.Redis.KeyPrefix = "car7"
	cfg.VehicleIDS.Sink.BatchSize = 4
	cfg.VehicleIDS.Analytics.TimelineSize = 50
	applyDefaults(cfg)

	assert.Equal(t, "car7:commands", cfg.VehicleIDS.Redis.CommandKey)
	assert.Equal(t, 4, cfg.VehicleIDS.Sink.BatchSize)
	assert.Equal(t, 50, cfg.VehicleIDS.Analytics.TimelineSize)
}

func TestApplyDefaultsCapsTimeline(t *testing.T) {
	cfg := &config.Config{}
	cfg.VehicleIDS.Analytics.TimelineSize = 5000
	applyDefaults(cfg)

	assert.Equal(t, 200, cfg.VehicleIDS.Analytics.TimelineSize)
}

func TestFindConfigFilePrefersArgument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("vehicleids: {}\n"), 0644))

	assert.Equal(t, path, findConfigFile(path))
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, path, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.True(t, cfg.VehicleIDS.TelemetryLog.Enabled)
}

func TestRunReportWritesSummary(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "telemetry.log")
	output := filepath.Join(dir, "summary.json")

	w, err := snapshotjson.NewWriter(input)
	require.NoError(t, err)
	eng := engine.New(engine.Options{Generator: generator.New(simrand.Seeded(11))})
	var snaps []*models.Snapshot
	for i := 0; i < 5; i++ {
		snaps = append(snaps, eng.Tick())
	}
	require.NoError(t, w.WriteSnapshots(snaps))
	require.NoError(t, w.Close())

	require.Equal(t, 0, runReport([]string{"-input", input, "-output", output}))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var sum report.Summary
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.Equal(t, 5, sum.Ticks)
	assert.Equal(t, input, sum.Input)
	assert.Len(t, sum.Analytics.EventsTimeline, 5)
}

func TestRunReportMissingInput(t *testing.T) {
	assert.Equal(t, 1, runReport([]string{"-input", filepath.Join(t.TempDir(), "nope.log")}))
}

func TestRunTokenRequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.Equal(t, 1, runToken(nil))
}

func TestRunTokenIssues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vehicleids.yml")
	require.NoError(t, os.WriteFile(path, []byte("vehicleids:\n  auth:\n    jwt_secret: abc123\n"), 0644))

	assert.Equal(t, 0, runToken([]string{"-config", path, "-operator", "bob"}))
}
