package analytics

import (
	"sync"
	"time"

	"vehicleids/internal/attack"
	"vehicleids/internal/catalog"
	"vehicleids/pkg/models"
)

const (
	MaxTimelineSize     = 200
	DefaultTimelineSize = MaxTimelineSize
	DefaultTopN         = 5
	DefaultMaxKeys      = 10000

	timelineLayout = "15:04:05"
	modePrefix     = "MODE: "
)

// Config controls aggregator bounds.
type Config struct {
	TimelineSize int
	TopN         int
	// MaxKeys bounds each frequency table; zero or negative means unbounded.
	MaxKeys int
}

// Aggregator accumulates rolling security analytics from emitted alerts.
type Aggregator struct {
	mu         sync.Mutex
	cfg        Config
	byECU      *counter
	byType     *counter
	byAttacker *counter
	timeline   []models.TimelineEntry
	now        func() time.Time
}

// NewAggregator creates an aggregator, filling zero-valued sizes with defaults.
// The timeline never holds more than MaxTimelineSize entries.
func NewAggregator(cfg Config) *Aggregator {
	if cfg.TimelineSize <= 0 || cfg.TimelineSize > MaxTimelineSize {
		cfg.TimelineSize = DefaultTimelineSize
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	return &Aggregator{
		cfg:        cfg,
		byECU:      newCounter(cfg.MaxKeys),
		byType:     newCounter(cfg.MaxKeys),
		byAttacker: newCounter(cfg.MaxKeys),
		timeline:   make([]models.TimelineEntry, 0, cfg.TimelineSize),
		now:        time.Now,
	}
}

// Record folds one tick into the analytics.
func (a *Aggregator) Record(alerts []models.Alert, attackActive bool, mode attack.Mode) {
	a.RecordAt(a.now(), alerts, attackActive, mode)
}

// RecordAt is Record with an explicit tick time.
func (a *Aggregator) RecordAt(ts time.Time, alerts []models.Alert, attackActive bool, mode attack.Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()

	critical := 0
	for _, al := range alerts {
		if al.Level.IsCritical() {
			critical++
		}
	}
	a.timeline = append(a.timeline, models.TimelineEntry{
		Timestamp:      ts.UTC().Format(timelineLayout),
		TotalAlerts:    len(alerts),
		CriticalAlerts: critical,
		AttackActive:   attackActive,
	})
	if over := len(a.timeline) - a.cfg.TimelineSize; over > 0 {
		a.timeline = a.timeline[over:]
	}

	for _, al := range alerts {
		if catalog.IsECU(al.Source) {
			a.byECU.inc(al.Source)
		}
		a.byType.inc(al.AttackType)
		a.byAttacker.inc(al.AttackerIP)
	}
	if mode.Active() {
		a.byType.inc(modePrefix + string(mode))
	}
}

// Report returns the top-N tables and a copy of the full timeline.
func (a *Aggregator) Report() models.AnalyticsReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	rep := models.AnalyticsReport{
		TopECUTargets:  []models.ECUCount{},
		TopAttackTypes: []models.TypeCount{},
		TopAttackers:   []models.AttackerCount{},
		EventsTimeline: make([]models.TimelineEntry, len(a.timeline)),
	}
	for _, e := range a.byECU.top(a.cfg.TopN) {
		rep.TopECUTargets = append(rep.TopECUTargets, models.ECUCount{ECU: e.Key, Count: e.Count})
	}
	for _, e := range a.byType.top(a.cfg.TopN) {
		rep.TopAttackTypes = append(rep.TopAttackTypes, models.TypeCount{Type: e.Key, Count: e.Count})
	}
	for _, e := range a.byAttacker.top(a.cfg.TopN) {
		rep.TopAttackers = append(rep.TopAttackers, models.AttackerCount{Attacker: e.Key, Count: e.Count})
	}
	copy(rep.EventsTimeline, a.timeline)
	return rep
}

// TableSizes returns the key counts of the ECU, attack-type and attacker tables.
func (a *Aggregator) TableSizes() (ecus, types, attackers int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.byECU.len(), a.byType.len(), a.byAttacker.len()
}
