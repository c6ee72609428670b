package models

import "strings"

// Level is an alert severity. Levels are ordered: Low < Medium < High < Critical.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Rank returns the ordering weight of the level.
func (l Level) Rank() int {
	switch l {
	case LevelCritical:
		return 4
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// IsCritical reports whether the level counts towards critical analytics (HIGH or CRITICAL).
func (l Level) IsCritical() bool {
	return l.Rank() >= LevelHigh.Rank()
}

// ParseLevel maps a free-form severity (e.g. a Sigma rule level) to a Level.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return LevelCritical
	case "high":
		return LevelHigh
	case "low", "informational":
		return LevelLow
	default:
		return LevelMedium
	}
}

// Alert is a single security finding raised during one tick.
type Alert struct {
	AlertID    string `json:"alert_id"`
	Level      Level  `json:"level"`
	Source     string `json:"source"`
	Message    string `json:"message"`
	AttackType string `json:"attack_type"`
	AttackerIP string `json:"attacker_ip"`
}
