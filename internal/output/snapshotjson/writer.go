package snapshotjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vehicleids/internal/logger"
	"vehicleids/pkg/models"
)

// Writer appends snapshots to a JSON lines telemetry log.
type Writer struct {
	file    *os.File
	encoder *json.Encoder
	path    string
	mu      sync.Mutex
}

// NewWriter opens path for appending, creating parent directories as needed.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create telemetry log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry log: %w", err)
	}

	logger.Infof("Telemetry log writer initialized: %s", path)
	return &Writer{
		file:    f,
		encoder: json.NewEncoder(f),
		path:    path,
	}, nil
}

// WriteSnapshots appends one line per snapshot.
func (w *Writer) WriteSnapshots(snaps []*models.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("telemetry log %s is closed", w.path)
	}
	for _, snap := range snaps {
		if err := w.encoder.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
	}
	return nil
}

// Close closes the log file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
