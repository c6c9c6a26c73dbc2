package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gitmaxer/gitmaxer-bot/pkg/config"
	"github.com/gitmaxer/gitmaxer-bot/pkg/engine"
	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
	"github.com/gitmaxer/gitmaxer-bot/pkg/report"
)

const (
	CronPath   = "/api/cron"
	HealthPath = "/healthz"

	schedulerAgent = "vercel-cron"
)

// Handler exposes the tick as an HTTP endpoint for an external scheduler.
type Handler struct {
	runner    engine.Runner
	secret    string
	notifiers []engine.Notifier
}

func NewHandler(runner engine.Runner, secret string, notifiers ...engine.Notifier) *Handler {
	return &Handler{runner: runner, secret: secret, notifiers: notifiers}
}

// NewRouter builds the gin engine serving the cron and health routes.
func NewRouter(cfg config.ServerConfig, runner engine.Runner, notifiers ...engine.Notifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := NewHandler(runner, cfg.CronSecret, notifiers...)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET(HealthPath, h.Health)

	cron := router.Group(CronPath)
	cron.Use(h.authorize())
	{
		cron.GET("", h.Tick)
		cron.POST("", h.Tick)
	}
	return router
}

// Tick runs one tick and writes its report as plain text.
func (h *Handler) Tick(c *gin.Context) {
	rep, err := engine.RunAndNotify(c.Request.Context(), h.runner, h.notifiers...)
	if rep == nil {
		rep = report.New()
		if err != nil {
			rep.Fail(err)
		}
	}
	status := http.StatusOK
	if err != nil || rep.Failed() {
		status = http.StatusInternalServerError
	}
	c.String(status, "%s\n", rep.String())
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

// authorize accepts the configured bearer secret or the hosted scheduler's
// user agent. With no secret configured every request passes.
func (h *Handler) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.secret == "" || strings.Contains(c.GetHeader("User-Agent"), schedulerAgent) {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
			logger.Warn("rejected cron request", "remote", c.ClientIP())
			c.String(http.StatusUnauthorized, "unauthorized\n")
			c.Abort()
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
