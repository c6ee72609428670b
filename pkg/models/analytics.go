package models

// TimelineEntry summarizes the alerts of one tick.
type TimelineEntry struct {
	Timestamp      string `json:"timestamp"`
	TotalAlerts    int    `json:"total_alerts"`
	CriticalAlerts int    `json:"critical_alerts"`
	AttackActive   bool   `json:"attack_active"`
}

// ECUCount is a top-N row keyed by ECU.
type ECUCount struct {
	ECU   string `json:"ecu"`
	Count int    `json:"count"`
}

// TypeCount is a top-N row keyed by attack-type label.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// AttackerCount is a top-N row keyed by attacker address.
type AttackerCount struct {
	Attacker string `json:"attacker"`
	Count    int    `json:"count"`
}

// AnalyticsReport is the read view of the rolling security analytics.
type AnalyticsReport struct {
	TopECUTargets  []ECUCount      `json:"top_ecu_targets"`
	TopAttackTypes []TypeCount     `json:"top_attack_types"`
	TopAttackers   []AttackerCount `json:"top_attackers"`
	EventsTimeline []TimelineEntry `json:"events_timeline"`
}
