package engine

import (
	"sync"

	"vehicleids/internal/analytics"
	"vehicleids/internal/attack"
	"vehicleids/internal/generator"
	"vehicleids/internal/logger"
	"vehicleids/internal/rules"
	"vehicleids/pkg/models"
)

// Publisher receives every completed snapshot. Implementations must not block.
type Publisher interface {
	Publish(snap *models.Snapshot)
}

// Observer is notified of tick outcomes and mode changes, e.g. for metrics.
type Observer interface {
	ObserveTick(snap *models.Snapshot, fired []string)
	ObserveMode(mode attack.Mode)
}

// Engine owns the simulated vehicle state. Every tick runs the
// generate, evaluate, aggregate and store sequence under one lock.
type Engine struct {
	mu        sync.Mutex
	gen       *generator.Generator
	evaluator *rules.Evaluator
	modes     *attack.Controller
	analytics *analytics.Aggregator
	history   History
	publisher Publisher
	observer  Observer
}

// Options configures an Engine. Nil fields get defaults.
type Options struct {
	Generator *generator.Generator
	Evaluator *rules.Evaluator
	Analytics *analytics.Aggregator
	Publisher Publisher
	Observer  Observer
}

// New creates an engine with no active attack mode and no prior snapshot.
func New(opts Options) *Engine {
	if opts.Generator == nil {
		opts.Generator = generator.New(nil)
	}
	if opts.Evaluator == nil {
		opts.Evaluator = rules.NewEvaluator(opts.Generator.Source(), nil)
	}
	if opts.Analytics == nil {
		opts.Analytics = analytics.NewAggregator(analytics.Config{})
	}
	return &Engine{
		gen:       opts.Generator,
		evaluator: opts.Evaluator,
		modes:     attack.NewController(),
		analytics: opts.Analytics,
		publisher: opts.Publisher,
		observer:  opts.Observer,
	}
}

// Tick advances the simulation by one step and returns the new current snapshot.
// The returned snapshot must be treated as read-only.
func (e *Engine) Tick() *models.Snapshot {
	e.mu.Lock()
	mode := e.modes.Get()
	prior := e.history.Prior()

	snap := e.gen.Generate(mode, prior)
	res := e.evaluator.Evaluate(snap, prior)
	snap.SecurityAlerts = append(snap.SecurityAlerts, res.Alerts...)
	if res.Triggered {
		e.gen.Degrade(snap)
	}
	snap.AttackActive = mode.Active() || res.Triggered

	e.analytics.Record(snap.SecurityAlerts, snap.AttackActive, mode)
	e.history.Store(snap)
	e.mu.Unlock()

	if len(res.Fired) > 0 {
		logger.Debugf("Tick rules fired: %v (alerts=%d score=%.2f)", res.Fired, len(snap.SecurityAlerts), snap.CANAnomalyScore)
	}
	if e.observer != nil {
		e.observer.ObserveTick(snap, res.Fired)
	}
	if e.publisher != nil {
		e.publisher.Publish(snap)
	}
	return snap
}

// SetAttackMode applies an operator command. Invalid input returns
// attack.ErrInvalidMode and leaves the active mode unchanged.
func (e *Engine) SetAttackMode(raw string) (attack.Mode, error) {
	e.mu.Lock()
	prev := e.modes.Get()
	mode, err := e.modes.Set(raw)
	e.mu.Unlock()
	if err != nil {
		logger.Warnf("Rejected attack mode %q", raw)
		return mode, err
	}
	if mode != prev {
		logger.Infof("Attack mode changed: %s -> %s", prev, mode)
	}
	if e.observer != nil {
		e.observer.ObserveMode(mode)
	}
	return mode, nil
}

// AttackMode returns the active attack mode.
func (e *Engine) AttackMode() attack.Mode {
	return e.modes.Get()
}

// Analytics returns the current analytics report.
func (e *Engine) Analytics() models.AnalyticsReport {
	return e.analytics.Report()
}

// Current returns the most recent snapshot without advancing the tick, or nil.
func (e *Engine) Current() *models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Prior()
}
