package rules

import "vehicleids/pkg/models"

// Match describes a custom rule that matched a decoded signal.
type Match struct {
	ID        string
	Name      string
	Level     models.Level
	Tactic    string
	Technique string
}

// Engine applies custom per-signal rules.
type Engine interface {
	Apply(signal *models.DecodedSignal) []Match
}

// NoopEngine returns no matches.
type NoopEngine struct{}

// Apply returns an empty match list.
func (n *NoopEngine) Apply(signal *models.DecodedSignal) []Match {
	return nil
}
