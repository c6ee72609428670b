package engine

import "vehicleids/pkg/models"

// History retains the most recent snapshot for cross-tick correlation.
// It is not safe for concurrent use; the Engine lock guards it.
type History struct {
	prior *models.Snapshot
}

// Prior returns the previous tick's snapshot, or nil before the first tick.
func (h *History) Prior() *models.Snapshot {
	return h.prior
}

// Store makes snap the prior snapshot, discarding the older one.
func (h *History) Store(snap *models.Snapshot) {
	h.prior = snap
}
