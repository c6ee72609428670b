package snapshothttp

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"vehicleids/pkg/models"
)

// Batch headers let a collector detect gaps left by dropped batches.
const (
	HeaderBatchSeq   = "X-Vehicleids-Batch-Seq"
	HeaderBatchSize  = "X-Vehicleids-Batch-Size"
	HeaderFirstTick  = "X-Vehicleids-First-Tick"
	HeaderLastTick   = "X-Vehicleids-Last-Tick"
	errorBodyPreview = 256
)

// Config configures the HTTP writer.
type Config struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
	// Gzip compresses the JSON array body.
	Gzip bool
}

// Writer posts snapshot batches to a remote collector as a JSON array.
// Every batch carries a sequence number, starting at 1, whether or not delivery succeeds.
type Writer struct {
	url     string
	headers map[string]string
	gzip    bool
	timeout time.Duration
	client  *http.Client
	seq     atomic.Uint64
}

// NewWriter creates an HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http sink URL is empty")
	}
	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		return nil, fmt.Errorf("http sink URL %q must use http or https", cfg.URL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Writer{
		url:     cfg.URL,
		headers: cfg.Headers,
		gzip:    cfg.Gzip,
		timeout: timeout,
		client:  &http.Client{},
	}, nil
}

// WriteSnapshots posts one batch. A non-2xx response is an error carrying
// the start of the collector's reply.
func (w *Writer) WriteSnapshots(snaps []*models.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	seq := w.seq.Add(1)

	body, err := w.encode(snaps)
	if err != nil {
		return fmt.Errorf("batch %d: %w", seq, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("batch %d: create request: %w", seq, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}
	req.Header.Set(HeaderBatchSeq, strconv.FormatUint(seq, 10))
	req.Header.Set(HeaderBatchSize, strconv.Itoa(len(snaps)))
	req.Header.Set(HeaderFirstTick, snaps[0].Timestamp)
	req.Header.Set(HeaderLastTick, snaps[len(snaps)-1].Timestamp)
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("batch %d: post: %w", seq, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyPreview))
		return fmt.Errorf("batch %d: collector returned %s: %s", seq, resp.Status, bytes.TrimSpace(preview))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (w *Writer) encode(snaps []*models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if !w.gzip {
		if err := json.NewEncoder(&buf).Encode(snaps); err != nil {
			return nil, fmt.Errorf("encode snapshots: %w", err)
		}
		return buf.Bytes(), nil
	}
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(snaps); err != nil {
		return nil, fmt.Errorf("encode snapshots: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress snapshots: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases idle connections.
func (w *Writer) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
