package main

import (
	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/internal/infra/defectdojo"
	"github.com/openvocio/api/internal/infra/gvm"
	"github.com/openvocio/api/internal/infra/redis"
	"github.com/openvocio/api/internal/infra/thehive"
	"github.com/openvocio/api/internal/infra/wazuh"
	"github.com/openvocio/api/pkg/logger"
)

// Clients holds the outbound clients for the external systems the
// pipeline reconciles.
type Clients struct {
	Scanner    *gvm.Client
	DefectDojo *defectdojo.Client
	TheHive    *thehive.Client
	Wazuh      *wazuh.Client
}

// NewClients initializes all external system clients from configuration.
func NewClients(cfg *config.Config) (*Clients, error) {
	scanner, err := gvm.NewClient(&cfg.GVM)
	if err != nil {
		return nil, err
	}

	dojo, err := defectdojo.NewClient(&cfg.DefectDojo)
	if err != nil {
		return nil, err
	}

	hive, err := thehive.NewClient(&cfg.TheHive)
	if err != nil {
		return nil, err
	}

	siem, err := wazuh.NewClient(&cfg.Wazuh)
	if err != nil {
		return nil, err
	}

	return &Clients{
		Scanner:    scanner,
		DefectDojo: dojo,
		TheHive:    hive,
		Wazuh:      siem,
	}, nil
}

// Services holds all application service instances.
type Services struct {
	Reconciler *app.ReconcilerService
	Scan       *app.ScanService
	Alert      *app.AlertService
	Ticket     *app.TicketService
}

// ServiceDeps contains dependencies needed to create services.
type ServiceDeps struct {
	Config      *config.Config
	Log         *logger.Logger
	Repos       *Repositories
	Clients     *Clients
	RedisClient *redis.Client
}

// NewServices initializes all application services.
func NewServices(deps *ServiceDeps) (*Services, error) {
	cfg := deps.Config
	repos := deps.Repos
	clients := deps.Clients

	// The cache is an optimization: the reconciler runs without it and
	// leans on the database constraint alone.
	var knownIDs app.KnownIDCache
	if deps.RedisClient != nil {
		cache, err := redis.NewKnownIDCache(deps.RedisClient, cfg.Reconciler.DedupCacheTTL)
		if err != nil {
			return nil, err
		}
		knownIDs = cache
	}

	reconciler := app.NewReconcilerService(
		repos.Scan,
		repos.Vulnerability,
		repos.ReportSummary,
		repos.Alert,
		clients.Scanner,
		clients.DefectDojo,
		clients.TheHive,
		clients.Wazuh,
		knownIDs,
		&cfg.Reconciler,
		deps.Log,
	)

	return &Services{
		Reconciler: reconciler,
		Scan:       app.NewScanService(repos.Scan, clients.DefectDojo, deps.Log),
		Alert:      app.NewAlertService(repos.Alert, clients.Wazuh, cfg.Reconciler.AlertWindow, deps.Log),
		Ticket:     app.NewTicketService(repos.Ticket, repos.Vulnerability, clients.TheHive, deps.Log),
	}, nil
}
