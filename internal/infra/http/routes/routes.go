// Package routes registers all HTTP routes for the API.
// Routes are organized by domain for maintainability.
package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	infrahttp "github.com/openvocio/api/internal/infra/http"
	"github.com/openvocio/api/internal/infra/http/handler"
)

// Middleware is an alias to the http package's Middleware type.
type Middleware = infrahttp.Middleware

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health        *handler.HealthHandler
	Reconcile     *handler.ReconcileHandler     // nil if not initialized (no database)
	Scan          *handler.ScanHandler          // nil if not initialized (no database)
	Vulnerability *handler.VulnerabilityHandler // nil if not initialized (no database)
	Ticket        *handler.TicketHandler        // nil if not initialized (no database)
	Alert         *handler.AlertHandler         // nil if not initialized (no database)
}

// Register registers all application routes.
func Register(router Router, h Handlers) {
	registerHealthRoutes(router, h.Health)

	router.Group("/api/v1", func(r Router) {
		if h.Reconcile != nil {
			registerReconcileRoutes(r, h.Reconcile)
		}
		if h.Scan != nil {
			registerScanRoutes(r, h.Scan)
		}
		if h.Vulnerability != nil {
			registerVulnerabilityRoutes(r, h.Vulnerability)
		}
		if h.Ticket != nil {
			registerTicketRoutes(r, h.Ticket)
		}
		if h.Alert != nil {
			registerAlertRoutes(r, h.Alert)
		}
	})
}

// registerHealthRoutes registers health check endpoints.
func registerHealthRoutes(router Router, h *handler.HealthHandler) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
}

// registerReconcileRoutes registers reconciliation endpoints.
func registerReconcileRoutes(router Router, h *handler.ReconcileHandler) {
	router.POST("/reconcile", h.Trigger)
}

// registerScanRoutes registers scan endpoints.
func registerScanRoutes(router Router, h *handler.ScanHandler) {
	router.Group("/scans", func(r Router) {
		r.POST("/", h.Create)
		r.GET("/", h.List)
		r.GET("/{scanID}", h.Get)
		r.DELETE("/{scanID}", h.Delete)
		r.GET("/{scanID}/summary", h.Summary)
	})
}

// registerVulnerabilityRoutes registers vulnerability endpoints.
func registerVulnerabilityRoutes(router Router, h *handler.VulnerabilityHandler) {
	router.Group("/vulnerabilities", func(r Router) {
		r.GET("/", h.List)
		r.GET("/{vulnerabilityID}", h.Get)
	})
}

// registerTicketRoutes registers remediation ticket endpoints.
func registerTicketRoutes(router Router, h *handler.TicketHandler) {
	router.Group("/tickets", func(r Router) {
		r.POST("/", h.Create)
		r.GET("/", h.List)
		r.GET("/{ticketID}", h.Get)
		r.PATCH("/{ticketID}/status", h.UpdateStatus)
		r.POST("/{ticketID}/close", h.Close)
	})
}

// registerAlertRoutes registers SIEM alert endpoints.
func registerAlertRoutes(router Router, h *handler.AlertHandler) {
	router.Group("/alerts", func(r Router) {
		r.GET("/", h.List)
		r.POST("/sync", h.Sync)
	})
}
