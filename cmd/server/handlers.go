package main

import (
	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/internal/infra/http/handler"
	"github.com/openvocio/api/internal/infra/http/routes"
	"github.com/openvocio/api/internal/infra/jobs"
	"github.com/openvocio/api/internal/infra/postgres"
	"github.com/openvocio/api/internal/infra/redis"
	"github.com/openvocio/api/pkg/logger"
	"github.com/openvocio/api/pkg/validator"
)

// HandlerDeps contains dependencies needed to create handlers.
type HandlerDeps struct {
	Config      *config.Config
	Log         *logger.Logger
	Validator   *validator.Validator
	DB          *postgres.DB
	RedisClient *redis.Client
	Repos       *Repositories
	Services    *Services
	JobClient   *jobs.Client // nil runs reconcile triggers inline
}

// NewHandlers initializes all HTTP handlers.
func NewHandlers(deps *HandlerDeps) routes.Handlers {
	healthOpts := []handler.HealthHandlerOption{}
	if deps.DB != nil {
		healthOpts = append(healthOpts, handler.WithDatabase(deps.DB))
	}
	if deps.RedisClient != nil {
		healthOpts = append(healthOpts, handler.WithRedis(deps.RedisClient))
	}

	return routes.Handlers{
		Health:        handler.NewHealthHandler(healthOpts...),
		Reconcile:     handler.NewReconcileHandler(deps.Services.Reconciler, deps.JobClient, deps.Log),
		Scan:          handler.NewScanHandler(deps.Services.Scan, deps.Repos.ReportSummary, deps.Validator),
		Vulnerability: handler.NewVulnerabilityHandler(deps.Repos.Vulnerability, deps.Validator),
		Ticket:        handler.NewTicketHandler(deps.Services.Ticket, deps.Validator),
		Alert:         handler.NewAlertHandler(deps.Services.Alert),
	}
}
