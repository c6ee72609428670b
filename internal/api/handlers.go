package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"vehicleids/internal/attack"
	"vehicleids/internal/auth"
	"vehicleids/internal/logger"
)

type attackModeRequest struct {
	Mode any `json:"mode"`
}

// telemetry advances the simulation by one tick.
func (h *handler) telemetry(c *gin.Context) {
	c.JSON(http.StatusOK, h.sim.Tick())
}

func (h *handler) analytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.sim.Analytics())
}

func (h *handler) attackMode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"attack_mode": h.sim.AttackMode().Ptr()})
}

// setAttackMode accepts {"mode": <string>}. A missing mode or "off" clears it.
func (h *handler) setAttackMode(c *gin.Context) {
	var req attackModeRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	raw := attack.OffKeyword
	switch v := req.Mode.(type) {
	case nil:
	case string:
		raw = v
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": attack.ErrInvalidMode.Error()})
		return
	}

	mode, err := h.sim.SetAttackMode(raw)
	if errors.Is(err, attack.ErrInvalidMode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": attack.ErrInvalidMode.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if v, ok := c.Get(claimsCtxKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			logger.Infof("Attack mode %s requested by operator %s", mode, claims.Operator)
		}
	}
	c.JSON(http.StatusOK, gin.H{"attack_mode": mode.Ptr()})
}
