package catalog

import (
	"fmt"
	"strconv"

	"vehicleids/pkg/models"
)

// ECU names in display order.
const (
	EngineECU    = "Engine ECU"
	BrakeECU     = "Brake ECU"
	SteeringECU  = "Steering ECU"
	Infotainment = "Infotainment"
	Telematics   = "Telematics"
	ADASECU      = "ADAS ECU"
)

// Signal names referenced by attack perturbations.
const (
	VehicleSpeed        = "Vehicle Speed"
	BrakePressure       = "Brake Pressure"
	ABSSlipRatio        = "ABS Slip Ratio"
	YawRate             = "Yaw Rate"
	GPSLatitude         = "GPS Latitude"
	GPSLongitude        = "GPS Longitude"
	LaneOffset          = "Lane Offset"
	FrontObjectDistance = "Front Object Distance"
	LongitudinalAccel   = "Longitudinal Acceleration"
	LateralAccel        = "Lateral Acceleration"
)

// Definition describes one physical quantity on the bus.
type Definition struct {
	ECU       string
	Signal    string
	Unit      string
	Min       float64
	Max       float64
	NormalMin float64
	NormalMax float64
	CANID     uint16
}

// Key returns the (ECU, signal) identity.
func (d Definition) Key() models.SignalKey {
	return models.SignalKey{ECU: d.ECU, Signal: d.Signal}
}

// IsAnomalous reports whether v lies outside [NormalMin, NormalMax]. Bounds are inclusive.
func (d Definition) IsAnomalous(v float64) bool {
	return v < d.NormalMin || v > d.NormalMax
}

// Format renders v with the precision of the definition's unit.
func (d Definition) Format(v float64) string {
	return strconv.FormatFloat(v, 'f', Precision(d.Unit), 64)
}

// CANIDHex returns the arbitration id as 0x-prefixed hex.
func (d Definition) CANIDHex() string {
	return fmt.Sprintf("0x%03X", d.CANID)
}

func (d Definition) validate() error {
	if !(d.Min <= d.NormalMin && d.NormalMin <= d.NormalMax && d.NormalMax <= d.Max) {
		return fmt.Errorf("signal %s/%s: ranges out of order (min=%v normal=[%v,%v] max=%v)",
			d.ECU, d.Signal, d.Min, d.NormalMin, d.NormalMax, d.Max)
	}
	return nil
}

// Precision returns the number of decimals used to display a value in unit.
func Precision(unit string) int {
	switch unit {
	case "km/h", "Nm", "%", "°C", "deg", "m", "deg/s", "V":
		return 1
	case "rpm":
		return 0
	default:
		return 3
	}
}

var ecuNames = []string{EngineECU, BrakeECU, SteeringECU, Infotainment, Telematics, ADASECU}

var definitions = []Definition{
	{ECU: EngineECU, Signal: VehicleSpeed, Unit: "km/h", Min: 0, Max: 250, NormalMin: 0, NormalMax: 140, CANID: 0x0C0},
	{ECU: EngineECU, Signal: "Engine RPM", Unit: "rpm", Min: 0, Max: 8000, NormalMin: 600, NormalMax: 7000, CANID: 0x0C1},
	{ECU: EngineECU, Signal: "Engine Torque", Unit: "Nm", Min: -50, Max: 500, NormalMin: -20, NormalMax: 450, CANID: 0x0C2},
	{ECU: EngineECU, Signal: "Coolant Temperature", Unit: "°C", Min: -40, Max: 150, NormalMin: -20, NormalMax: 120, CANID: 0x0C3},
	{ECU: EngineECU, Signal: "Throttle Position", Unit: "%", Min: 0, Max: 100, NormalMin: 0, NormalMax: 90, CANID: 0x0C4},

	{ECU: BrakeECU, Signal: BrakePressure, Unit: "bar", Min: 0, Max: 100, NormalMin: 0, NormalMax: 80, CANID: 0x1A0},
	{ECU: BrakeECU, Signal: ABSSlipRatio, Unit: "%", Min: 0, Max: 100, NormalMin: 0, NormalMax: 50, CANID: 0x1A1},
	{ECU: BrakeECU, Signal: "Wheel Speed FL", Unit: "km/h", Min: 0, Max: 250, NormalMin: 0, NormalMax: 220, CANID: 0x1A2},

	{ECU: SteeringECU, Signal: "Steering Angle", Unit: "deg", Min: -540, Max: 540, NormalMin: -480, NormalMax: 480, CANID: 0x2B0},
	{ECU: SteeringECU, Signal: YawRate, Unit: "deg/s", Min: -100, Max: 100, NormalMin: -75, NormalMax: 75, CANID: 0x2B1},

	{ECU: Infotainment, Signal: GPSLatitude, Unit: "°", Min: -90, Max: 90, NormalMin: -80, NormalMax: 80, CANID: 0x3C0},
	{ECU: Infotainment, Signal: GPSLongitude, Unit: "°", Min: -180, Max: 180, NormalMin: -170, NormalMax: 170, CANID: 0x3C1},
	{ECU: Infotainment, Signal: "Media Volume", Unit: "%", Min: 0, Max: 100, NormalMin: 0, NormalMax: 90, CANID: 0x3C2},

	{ECU: Telematics, Signal: "Battery Voltage", Unit: "V", Min: 9, Max: 16, NormalMin: 10.5, NormalMax: 15.5, CANID: 0x4D0},
	{ECU: Telematics, Signal: "LTE Signal Strength", Unit: "dBm", Min: -130, Max: -40, NormalMin: -120, NormalMax: -45, CANID: 0x4D1},

	{ECU: ADASECU, Signal: LaneOffset, Unit: "m", Min: -3.5, Max: 3.5, NormalMin: -2.2, NormalMax: 2.2, CANID: 0x5E0},
	{ECU: ADASECU, Signal: FrontObjectDistance, Unit: "m", Min: 0.1, Max: 300, NormalMin: 0.5, NormalMax: 240, CANID: 0x5E1},
	{ECU: ADASECU, Signal: LongitudinalAccel, Unit: "m/s²", Min: -10, Max: 10, NormalMin: -8, NormalMax: 8, CANID: 0x5E2},
	{ECU: ADASECU, Signal: LateralAccel, Unit: "m/s²", Min: -10, Max: 10, NormalMin: -8, NormalMax: 8, CANID: 0x5E3},
}

var byKey map[models.SignalKey]Definition

func init() {
	byKey = make(map[models.SignalKey]Definition, len(definitions))
	for _, d := range definitions {
		if err := d.validate(); err != nil {
			panic(err)
		}
		if _, dup := byKey[d.Key()]; dup {
			panic(fmt.Sprintf("duplicate signal definition %s/%s", d.ECU, d.Signal))
		}
		byKey[d.Key()] = d
	}
}

// Definitions returns a copy of the catalog in declaration order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// ECUNames returns the ECU names in display order.
func ECUNames() []string {
	out := make([]string, len(ecuNames))
	copy(out, ecuNames)
	return out
}

// IsECU reports whether name is a known ECU.
func IsECU(name string) bool {
	for _, e := range ecuNames {
		if e == name {
			return true
		}
	}
	return false
}

// Lookup returns the definition for (ecu, signal).
func Lookup(ecu, signal string) (Definition, bool) {
	d, ok := byKey[models.SignalKey{ECU: ecu, Signal: signal}]
	return d, ok
}
