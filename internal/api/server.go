package api

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"vehicleids/internal/attack"
	"vehicleids/internal/auth"
	"vehicleids/internal/metrics"
	"vehicleids/pkg/models"
)

// Simulator is the engine surface served over HTTP.
type Simulator interface {
	Tick() *models.Snapshot
	SetAttackMode(raw string) (attack.Mode, error)
	AttackMode() attack.Mode
	Analytics() models.AnalyticsReport
	Current() *models.Snapshot
}

// Options configures the router. Every field except Simulator is optional.
type Options struct {
	Simulator Simulator
	// Auth guards POST /api/attack_mode when set.
	Auth        *auth.Service
	Metrics     *metrics.Registry
	MetricsPath string
	// Stream serves the live snapshot WebSocket on /ws.
	Stream    http.Handler
	StaticDir string
	RateLimit RateLimitConfig
	AccessLog bool
}

type handler struct {
	sim Simulator
}

// NewRouter builds the gin engine for the dashboard API.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.AccessLog {
		r.Use(gin.Logger())
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}

	h := &handler{sim: opts.Simulator}
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	if opts.RateLimit.RPS > 0 {
		api.Use(RateLimitMiddleware(NewRateLimiter(opts.RateLimit)))
	}
	{
		api.GET("/telemetry", h.telemetry)
		api.GET("/analytics", h.analytics)
		api.GET("/attack_mode", h.attackMode)
		if opts.Auth != nil {
			api.POST("/attack_mode", OperatorAuthMiddleware(opts.Auth), h.setAttackMode)
		} else {
			api.POST("/attack_mode", h.setAttackMode)
		}
	}

	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}
	if opts.Stream != nil {
		r.GET("/ws", gin.WrapH(opts.Stream))
	}
	if opts.StaticDir != "" {
		r.StaticFile("/", filepath.Join(opts.StaticDir, "index.html"))
		r.Static("/static", opts.StaticDir)
	}
	return r
}

func (h *handler) health(c *gin.Context) {
	var lastTick *string
	if snap := h.sim.Current(); snap != nil {
		lastTick = &snap.Timestamp
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"attack_mode": h.sim.AttackMode().Ptr(),
		"last_tick":   lastTick,
	})
}
