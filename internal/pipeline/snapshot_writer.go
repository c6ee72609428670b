package pipeline

import "vehicleids/pkg/models"

// SnapshotWriter delivers batches of completed snapshots to a sink.
type SnapshotWriter interface {
	WriteSnapshots(snaps []*models.Snapshot) error
	Close() error
}

// NamedWriter labels a writer for logs and metrics.
type NamedWriter struct {
	Name   string
	Writer SnapshotWriter
}

// Hooks receives delivery outcomes. Both methods must be cheap and non-blocking.
type Hooks interface {
	SnapshotDropped()
	SinkWriteFailed(writer string)
}
