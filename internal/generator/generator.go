package generator

import (
	"time"

	"github.com/google/uuid"

	"vehicleids/internal/attack"
	"vehicleids/internal/catalog"
	"vehicleids/internal/simrand"
	"vehicleids/pkg/models"
)

const (
	maxSpeed       = 140
	brakeOnChance  = 0.25
	maxBaseline    = 0.2
	floodChance    = 0.6
	replayChance   = 0.7
	snapshotLayout = "2006-01-02 15:04:05"
	signalLayout   = "15:04:05"
)

// degradedECUs are the cells flagged when a detection rule fires.
var degradedECUs = []string{catalog.EngineECU, catalog.BrakeECU, catalog.Telematics}

// Generator builds one snapshot per tick from the signal catalog.
type Generator struct {
	defs []catalog.Definition
	ecus []string
	rng  simrand.Source
	now  func() time.Time
}

// New creates a generator. A nil source is replaced by a time-seeded one.
func New(rng simrand.Source) *Generator {
	if rng == nil {
		rng = simrand.New()
	}
	return &Generator{
		defs: catalog.Definitions(),
		ecus: catalog.ECUNames(),
		rng:  rng,
		now:  time.Now,
	}
}

// Source exposes the generator's randomness for collaborators that must share it.
func (g *Generator) Source() simrand.Source {
	return g.rng
}

// Generate produces the base snapshot for mode. prior may be nil on the first tick.
// The returned anomaly score is the pre-rule baseline.
func (g *Generator) Generate(mode attack.Mode, prior *models.Snapshot) *models.Snapshot {
	now := g.now().UTC()

	speed := g.rng.IntN(maxSpeed + 1)
	brake := models.BrakeOff
	if simrand.Chance(g.rng, brakeOnChance) {
		brake = models.BrakeOn
	}

	health := make(map[string]float64, len(g.ecus))
	heatmap := make([]models.HeatCell, 0, len(g.ecus))
	for _, ecu := range g.ecus {
		health[ecu] = simrand.Round2(simrand.Uniform(g.rng, 0.8, 1.0))
		heatmap = append(heatmap, models.HeatCell{Name: ecu, Status: models.StatusOK})
	}
	baseline := g.rng.Float64() * maxBaseline

	snap := &models.Snapshot{
		Speed:           speed,
		BrakeStatus:     brake,
		ECUHealth:       health,
		CANAnomalyScore: simrand.Round2(baseline),
		Heatmap:         heatmap,
		SecurityAlerts:  []models.Alert{},
		CANPackets:      g.decode(mode, prior, speed, now),
		AttackMode:      mode.Ptr(),
		Timestamp:       now.Format(snapshotLayout),
	}
	g.overlay(snap, mode)
	return snap
}

func (g *Generator) decode(mode attack.Mode, prior *models.Snapshot, speed int, now time.Time) []models.DecodedSignal {
	ts := now.Format(signalLayout)
	out := make([]models.DecodedSignal, 0, len(g.defs))
	for _, d := range g.defs {
		var v float64
		if d.ECU == catalog.EngineECU && d.Signal == catalog.VehicleSpeed {
			v = float64(speed)
		} else {
			v = g.perturb(mode, d, simrand.Uniform(g.rng, d.Min, d.Max), prior)
		}
		out = append(out, Decode(d, v, ts))
	}
	return out
}

// Decode builds a decoded signal; the anomaly flag is derived from the definition only.
func Decode(d catalog.Definition, v float64, ts string) models.DecodedSignal {
	return models.DecodedSignal{
		Timestamp: ts,
		CANID:     d.CANIDHex(),
		ECU:       d.ECU,
		Signal:    d.Signal,
		Value:     v,
		Display:   d.Format(v),
		Unit:      d.Unit,
		Anomaly:   d.IsAnomalous(v),
	}
}

func (g *Generator) perturb(mode attack.Mode, d catalog.Definition, v float64, prior *models.Snapshot) float64 {
	switch mode {
	case attack.Flood:
		if simrand.Chance(g.rng, floodChance) {
			return g.outOfRange(d, v)
		}
	case attack.GPSSpoof:
		if d.Signal == catalog.GPSLatitude || d.Signal == catalog.GPSLongitude {
			return simrand.Uniform(g.rng, d.Min, d.Max)
		}
	case attack.LaneSpoof:
		switch d.Signal {
		case catalog.LaneOffset:
			return simrand.Pick(g.rng, -3, -2.5, 2.5, 3)
		case catalog.YawRate:
			return simrand.Pick(g.rng, -90, 90)
		}
	case attack.BrakeSpoof:
		if d.Signal == catalog.BrakePressure || d.Signal == catalog.ABSSlipRatio {
			return simrand.Uniform(g.rng, 60, 100)
		}
	case attack.ECUReplay:
		if simrand.Chance(g.rng, replayChance) {
			if prev, ok := prior.Signal(d.ECU, d.Signal); ok {
				return prev.Value
			}
		}
	case attack.SensorManip:
		switch d.Signal {
		case catalog.FrontObjectDistance:
			return simrand.Pick(g.rng, 0.1, 0.2, 250, 300)
		case catalog.LongitudinalAccel, catalog.LateralAccel:
			return simrand.Uniform(g.rng, -15, 15)
		}
	case attack.None:
	}
	return v
}

// outOfRange pushes v into the upper or lower slack of d. An empty slack is never chosen.
func (g *Generator) outOfRange(d catalog.Definition, v float64) float64 {
	upper := d.Max > d.NormalMax
	lower := d.Min < d.NormalMin
	switch {
	case upper && lower:
		if simrand.Chance(g.rng, 0.5) {
			return simrand.Uniform(g.rng, d.NormalMax, d.Max)
		}
		return simrand.Uniform(g.rng, d.Min, d.NormalMin)
	case upper:
		return simrand.Uniform(g.rng, d.NormalMax, d.Max)
	case lower:
		return simrand.Uniform(g.rng, d.Min, d.NormalMin)
	}
	return v
}

// overlay applies the mode's ECU degradation and puts its alert first.
func (g *Generator) overlay(snap *models.Snapshot, mode attack.Mode) {
	sig, ok := attack.SignatureFor(mode)
	if !ok {
		return
	}
	if mode == attack.Flood {
		for i := range snap.Heatmap {
			if simrand.Chance(g.rng, floodChance) {
				snap.Heatmap[i].Status = models.StatusCompromised
				snap.ECUHealth[snap.Heatmap[i].Name] = simrand.Round2(simrand.Uniform(g.rng, 0.2, 0.5))
			}
		}
	}
	forced := g.NewAlert(sig.Level, sig.Source, sig.Message, sig.AttackType)
	snap.SecurityAlerts = append([]models.Alert{forced}, snap.SecurityAlerts...)
}

// Degrade marks the rule-reaction ECUs as warning with reduced health.
// Cells already compromised are left as they are.
func (g *Generator) Degrade(snap *models.Snapshot) {
	for _, ecu := range degradedECUs {
		cell := snap.Cell(ecu)
		if cell == nil || cell.Status == models.StatusCompromised {
			continue
		}
		cell.Status = models.StatusWarning
		snap.ECUHealth[ecu] = simrand.Round2(simrand.Uniform(g.rng, 0.3, 0.7))
	}
}

// NewAlert builds an alert with a fresh id and a synthetic attacker address.
func (g *Generator) NewAlert(level models.Level, source, message, attackType string) models.Alert {
	return NewAlert(g.rng, level, source, message, attackType)
}

// NewAlert builds an alert drawing the attacker address from src.
func NewAlert(src simrand.Source, level models.Level, source, message, attackType string) models.Alert {
	return models.Alert{
		AlertID:    uuid.NewString(),
		Level:      level,
		Source:     source,
		Message:    message,
		AttackType: attackType,
		AttackerIP: simrand.IPv4(src),
	}
}
