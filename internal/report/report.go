package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vehicleids/internal/analytics"
	"vehicleids/internal/attack"
	"vehicleids/pkg/models"
)

const snapshotLayout = "2006-01-02 15:04:05"

// Summary is the offline view of a telemetry log.
type Summary struct {
	Input         string                 `json:"input"`
	Ticks         int                    `json:"ticks"`
	AttackTicks   int                    `json:"attack_ticks"`
	SkippedLines  int                    `json:"skipped_lines"`
	TotalAlerts   int                    `json:"total_alerts"`
	AlertsByLevel map[models.Level]int   `json:"alerts_by_level"`
	ModeTicks     map[string]int         `json:"mode_ticks"`
	PeakScore     float64                `json:"peak_anomaly_score"`
	FirstTick     string                 `json:"first_tick,omitempty"`
	LastTick      string                 `json:"last_tick,omitempty"`
	Analytics     models.AnalyticsReport `json:"analytics"`
}

// LoadSnapshotsJSONL reads a telemetry log. Blank and malformed lines are skipped and counted.
func LoadSnapshotsJSONL(path string) ([]*models.Snapshot, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return ReadSnapshots(f)
}

// ReadSnapshots is LoadSnapshotsJSONL over an arbitrary reader.
func ReadSnapshots(r io.Reader) ([]*models.Snapshot, int, error) {
	snaps := make([]*models.Snapshot, 0, 1024)
	skipped := 0

	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 8*1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var snap models.Snapshot
		if err := json.Unmarshal([]byte(line), &snap); err != nil {
			skipped++
			continue
		}
		snaps = append(snaps, &snap)
	}
	if err := s.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scan input: %w", err)
	}
	return snaps, skipped, nil
}

// Summarize replays every snapshot's alerts through a fresh aggregator.
func Summarize(snaps []*models.Snapshot, cfg analytics.Config) Summary {
	agg := analytics.NewAggregator(cfg)
	sum := Summary{
		AlertsByLevel: map[models.Level]int{},
		ModeTicks:     map[string]int{},
	}

	for _, snap := range snaps {
		if snap == nil {
			continue
		}
		sum.Ticks++
		if snap.AttackActive {
			sum.AttackTicks++
		}
		if snap.CANAnomalyScore > sum.PeakScore {
			sum.PeakScore = snap.CANAnomalyScore
		}
		if sum.FirstTick == "" {
			sum.FirstTick = snap.Timestamp
		}
		sum.LastTick = snap.Timestamp

		for _, al := range snap.SecurityAlerts {
			sum.TotalAlerts++
			sum.AlertsByLevel[al.Level]++
		}

		mode := modeOf(snap)
		sum.ModeTicks[mode.String()]++
		agg.RecordAt(tickTime(snap.Timestamp), snap.SecurityAlerts, snap.AttackActive, mode)
	}

	sum.Analytics = agg.Report()
	return sum
}

// WriteJSON writes an indented summary to w.
func WriteJSON(w io.Writer, sum Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteFile writes the summary to path, creating parent directories.
func WriteFile(path string, sum Summary) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := WriteJSON(w, sum); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// modeOf treats an unknown logged mode as none rather than failing the replay.
func modeOf(snap *models.Snapshot) attack.Mode {
	if snap.AttackMode == nil {
		return attack.None
	}
	mode, err := attack.ParseMode(*snap.AttackMode)
	if err != nil {
		return attack.None
	}
	return mode
}

func tickTime(raw string) time.Time {
	ts, err := time.ParseInLocation(snapshotLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return ts
}
