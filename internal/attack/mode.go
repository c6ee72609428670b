package attack

import (
	"errors"

	"vehicleids/internal/catalog"
	"vehicleids/pkg/models"
)

// ErrInvalidMode is returned for any attack-mode string outside the closed set.
var ErrInvalidMode = errors.New("invalid attack type")

// Mode is the operator-selected simulated attack. The zero value is None.
type Mode string

const (
	None        Mode = ""
	Flood       Mode = "flood"
	GPSSpoof    Mode = "gps_spoof"
	LaneSpoof   Mode = "lane_spoof"
	BrakeSpoof  Mode = "brake_spoof"
	ECUReplay   Mode = "ecu_replay"
	SensorManip Mode = "sensor_manip"
)

// OffKeyword clears the active mode.
const OffKeyword = "off"

// Modes lists every selectable mode.
func Modes() []Mode {
	return []Mode{Flood, GPSSpoof, LaneSpoof, BrakeSpoof, ECUReplay, SensorManip}
}

// ParseMode maps operator input to a Mode. Only the exact mode names and "off" parse.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(raw); m {
	case Mode(OffKeyword):
		return None, nil
	case Flood, GPSSpoof, LaneSpoof, BrakeSpoof, ECUReplay, SensorManip:
		return m, nil
	default:
		return None, ErrInvalidMode
	}
}

// Active reports whether m is one of the attack modes.
func (m Mode) Active() bool {
	return m != None
}

// String returns the mode name, or "off" for None.
func (m Mode) String() string {
	if m == None {
		return OffKeyword
	}
	return string(m)
}

// Ptr returns the mode as a JSON-nullable string.
func (m Mode) Ptr() *string {
	if m == None {
		return nil
	}
	s := string(m)
	return &s
}

// Signature is the alert template raised by an active mode.
type Signature struct {
	Level      models.Level
	Source     string
	AttackType string
	Message    string
}

// SignatureFor returns the forced alert template for m. ok is false for None.
func SignatureFor(m Mode) (Signature, bool) {
	switch m {
	case Flood:
		return Signature{models.LevelCritical, catalog.Telematics, "DoS/Flooding", "CAN bus flooding: high-rate frames saturating the telematics gateway"}, true
	case GPSSpoof:
		return Signature{models.LevelHigh, catalog.Infotainment, "GPS Spoofing", "GPS position jumped beyond physical travel distance"}, true
	case LaneSpoof:
		return Signature{models.LevelHigh, catalog.ADASECU, "Lane Spoofing", "Lane-keeping input reports implausible offset and yaw"}, true
	case BrakeSpoof:
		return Signature{models.LevelCritical, catalog.BrakeECU, "Brake Spoofing", "Forged brake pressure frames injected on the chassis bus"}, true
	case ECUReplay:
		return Signature{models.LevelHigh, catalog.EngineECU, "Replay", "Stale engine frames replayed from an earlier capture"}, true
	case SensorManip:
		return Signature{models.LevelHigh, catalog.ADASECU, "Sensor Tampering", "ADAS ranging and inertial sensors report implausible values"}, true
	case None:
		return Signature{}, false
	}
	return Signature{}, false
}
