package models

// Heatmap cell statuses.
const (
	StatusOK          = "ok"
	StatusWarning     = "warning"
	StatusCompromised = "compromised"
)

// Brake states.
const (
	BrakeOn  = "ON"
	BrakeOff = "OFF"
)

// HeatCell is the per-ECU status shown on the dashboard heatmap.
type HeatCell struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Snapshot is the full simulated vehicle state for one tick.
type Snapshot struct {
	Speed           int                `json:"speed"`
	BrakeStatus     string             `json:"brake_status"`
	ECUHealth       map[string]float64 `json:"ecu_health"`
	CANAnomalyScore float64            `json:"can_anomaly_score"`
	AttackActive    bool               `json:"attack_active"`
	Heatmap         []HeatCell         `json:"heatmap"`
	SecurityAlerts  []Alert            `json:"security_alerts"`
	CANPackets      []DecodedSignal    `json:"can_packets"`
	AttackMode      *string            `json:"attack_mode"`
	Timestamp       string             `json:"timestamp"`
}

// Cell returns the heatmap cell for the ECU, or nil.
func (s *Snapshot) Cell(ecu string) *HeatCell {
	for i := range s.Heatmap {
		if s.Heatmap[i].Name == ecu {
			return &s.Heatmap[i]
		}
	}
	return nil
}

// Signal returns the decoded signal for (ecu, name) and whether it exists.
func (s *Snapshot) Signal(ecu, name string) (DecodedSignal, bool) {
	if s == nil {
		return DecodedSignal{}, false
	}
	for _, sig := range s.CANPackets {
		if sig.ECU == ecu && sig.Signal == name {
			return sig, true
		}
	}
	return DecodedSignal{}, false
}

// AnomalyCount returns the number of decoded signals flagged anomalous.
func (s *Snapshot) AnomalyCount() int {
	n := 0
	for _, sig := range s.CANPackets {
		if sig.Anomaly {
			n++
		}
	}
	return n
}
