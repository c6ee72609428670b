package models

// DecodedSignal is one physical quantity decoded from the simulated bus during a tick.
type DecodedSignal struct {
	Timestamp string  `json:"timestamp"`
	CANID     string  `json:"can_id"`
	ECU       string  `json:"ecu"`
	Signal    string  `json:"signal"`
	Value     float64 `json:"value"`
	Display   string  `json:"display"`
	Unit      string  `json:"unit"`
	Anomaly   bool    `json:"anomaly"`
}

// Key returns the (ECU, signal) identity of the decoded signal.
func (s DecodedSignal) Key() SignalKey {
	return SignalKey{ECU: s.ECU, Signal: s.Signal}
}

// SignalKey identifies a signal definition.
type SignalKey struct {
	ECU    string
	Signal string
}
