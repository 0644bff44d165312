package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"baches/internal/config"
	"baches/internal/middleware"
	"baches/internal/report"
	"baches/internal/roster"
	"baches/internal/session"
)

// CheckFunc reports the health of one dependency.
type CheckFunc func(ctx context.Context) error

type Deps struct {
	Sessions *session.Manager
	Reports  *report.Service
	// Roster is nil when the backend cannot serve workers and vehicles.
	Roster   *roster.Service
	Geocoder report.Reverser
	Checks   map[string]CheckFunc
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	sessions *session.Manager
	reports  *report.Service
	roster   *roster.Service
	geocoder report.Reverser
	checks   map[string]CheckFunc
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Deps) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		sessions: deps.Sessions,
		reports:  deps.Reports,
		roster:   deps.Roster,
		geocoder: deps.Geocoder,
		checks:   deps.Checks,
	}
}

func (h HandlerSet) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/session", h.Session)
	}

	protected := v1.Group("")
	protected.Use(middleware.Auth(h.sessions))
	{
		protected.GET("/reports", h.ListReports)
		protected.POST("/reports", h.CreateReport)
		protected.GET("/reports/map", h.ReportMap)
		protected.DELETE("/reports/:id", h.DeleteReport)

		protected.GET("/workers", h.ListWorkers)
		protected.GET("/vehicles", h.ListVehicles)

		protected.GET("/geocode/reverse", h.ReverseGeocode)
	}
}
