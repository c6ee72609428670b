package snapshotjson

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleids/pkg/models"
)

func TestWriterAppendsOneLinePerSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "telemetry.log")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteSnapshots([]*models.Snapshot{{Speed: 10}, {Speed: 20}}))
	require.NoError(t, w.Close())

	// Reopening must append rather than truncate.
	w, err = NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteSnapshots([]*models.Snapshot{{Speed: 30}}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var speeds []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var snap models.Snapshot
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &snap))
		speeds = append(speeds, snap.Speed)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []int{10, 20, 30}, speeds)
}

func TestWriterAfterCloseFails(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "telemetry.log"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Error(t, w.WriteSnapshots([]*models.Snapshot{{}}))
}
