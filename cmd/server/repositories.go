package main

import (
	"github.com/openvocio/api/internal/infra/postgres"
)

// Repositories holds all repository instances.
type Repositories struct {
	Scan          *postgres.ScanRepository
	Vulnerability *postgres.VulnerabilityRepository
	ReportSummary *postgres.ReportSummaryRepository
	Alert         *postgres.AlertRepository
	Ticket        *postgres.TicketRepository
}

// NewRepositories initializes all repositories with the given database.
func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		Scan:          postgres.NewScanRepository(db),
		Vulnerability: postgres.NewVulnerabilityRepository(db),
		ReportSummary: postgres.NewReportSummaryRepository(db),
		Alert:         postgres.NewAlertRepository(db),
		Ticket:        postgres.NewTicketRepository(db),
	}
}
