package rules

import (
	"fmt"
	"math"

	"vehicleids/internal/catalog"
	"vehicleids/internal/generator"
	"vehicleids/internal/simrand"
	"vehicleids/pkg/models"
)

// Built-in rule identifiers.
const (
	RuleSpeedJump      = "speed_jump"
	RuleUnsafeBraking  = "unsafe_braking"
	RuleAnomalyDensity = "anomaly_density"
)

const (
	// SpeedJumpThreshold is the largest plausible speed change between ticks, in km/h.
	SpeedJumpThreshold = 60
	// UnsafeBrakeSpeed is the speed above which an engaged brake is a safety violation.
	UnsafeBrakeSpeed = 120
	// DensityThreshold is the anomalous-signal count that raises a flooding alert.
	DensityThreshold = 10

	densityBase = 0.2
	densityStep = 0.03
)

// Result is the outcome of evaluating one tick.
type Result struct {
	Triggered bool
	Alerts    []models.Alert
	// Fired lists the ids of every rule that fired, in evaluation order.
	Fired []string
}

// Evaluator runs the fixed-threshold detection rules over a snapshot.
type Evaluator struct {
	rng    simrand.Source
	engine Engine
}

// NewEvaluator creates an evaluator. engine may be nil when no custom rules are loaded.
func NewEvaluator(rng simrand.Source, engine Engine) *Evaluator {
	if rng == nil {
		rng = simrand.New()
	}
	if engine == nil {
		engine = &NoopEngine{}
	}
	return &Evaluator{rng: rng, engine: engine}
}

// Evaluate inspects snap against prior (nil on the first tick) and raises
// snap's anomaly score in place. Rule alerts are returned, not attached.
func (e *Evaluator) Evaluate(snap, prior *models.Snapshot) Result {
	var res Result

	if prior != nil {
		delta := absInt(snap.Speed - prior.Speed)
		if delta > SpeedJumpThreshold {
			res.add(RuleSpeedJump, e.alert(models.LevelHigh, catalog.EngineECU,
				fmt.Sprintf("Implausible speed jump Δv=%d km/h", delta), "Physical Implausibility"))
		}
	}

	if snap.BrakeStatus == models.BrakeOn && snap.Speed > UnsafeBrakeSpeed {
		res.add(RuleUnsafeBraking, e.alert(models.LevelCritical, catalog.BrakeECU,
			fmt.Sprintf("Brake engaged at %d km/h", snap.Speed), "Safety Violation"))
	}

	count := snap.AnomalyCount()
	if count >= DensityThreshold {
		res.add(RuleAnomalyDensity, e.alert(models.LevelHigh, catalog.Telematics,
			fmt.Sprintf("%d anomalous CAN signals detected", count), "DoS/Fuzzing"))
	}

	for i := range snap.CANPackets {
		sig := &snap.CANPackets[i]
		for _, m := range e.engine.Apply(sig) {
			res.add(m.ID, e.alert(m.Level, sig.ECU, matchMessage(m, sig), m.Name))
		}
	}

	snap.CANAnomalyScore = DensityScore(snap.CANAnomalyScore, count)
	return res
}

// DensityScore combines the baseline score with the anomaly-density score.
// The result never falls below baseline and is rounded to two decimals.
func DensityScore(baseline float64, anomalies int) float64 {
	density := math.Min(1.0, densityBase+densityStep*float64(anomalies))
	return simrand.Round2(math.Max(baseline, density))
}

// matchMessage describes a custom rule hit, with its ATT&CK tactic/technique when tagged.
func matchMessage(m Match, sig *models.DecodedSignal) string {
	msg := fmt.Sprintf("%s: %s=%s %s", m.Name, sig.Signal, sig.Display, sig.Unit)
	switch {
	case m.Tactic != "" && m.Technique != "":
		msg += fmt.Sprintf(" [%s/%s]", m.Tactic, m.Technique)
	case m.Tactic != "":
		msg += fmt.Sprintf(" [%s]", m.Tactic)
	case m.Technique != "":
		msg += fmt.Sprintf(" [%s]", m.Technique)
	}
	return msg
}

func (e *Evaluator) alert(level models.Level, source, message, attackType string) models.Alert {
	return generator.NewAlert(e.rng, level, source, message, attackType)
}

func (r *Result) add(rule string, a models.Alert) {
	r.Triggered = true
	r.Alerts = append(r.Alerts, a)
	r.Fired = append(r.Fired, rule)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
