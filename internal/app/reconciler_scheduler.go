package app

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/pkg/logger"
)

// ReconcilerScheduler runs reconciliation passes on a fixed cadence. A
// cron expression takes precedence over the plain interval when both
// are configured. On-demand triggers through the HTTP API or CLI work
// whether or not the scheduler is enabled.
type ReconcilerScheduler struct {
	service *ReconcilerService
	cfg     config.ReconcilerConfig
	logger  *logger.Logger

	cron   *cron.Cron
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewReconcilerScheduler creates a new scheduler.
func NewReconcilerScheduler(service *ReconcilerService, cfg config.ReconcilerConfig, log *logger.Logger) *ReconcilerScheduler {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}

	return &ReconcilerScheduler{
		service: service,
		cfg:     cfg,
		logger:  log.With("component", "reconciler_scheduler"),
		stopCh:  make(chan struct{}),
	}
}

// Start starts the scheduler.
func (s *ReconcilerScheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("reconciler scheduler disabled")
		return nil
	}

	if s.cfg.CronSpec != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.cfg.CronSpec, s.safePass); err != nil {
			return err
		}
		s.cron.Start()
		s.logger.Info("reconciler scheduler started", "cron", s.cfg.CronSpec)
		return nil
	}

	s.wg.Add(1)
	go s.run()
	s.logger.Info("reconciler scheduler started", "interval", s.cfg.Interval)
	return nil
}

// Stop stops the scheduler gracefully.
// Safe to call even if Start() was never called (e.g. when Enabled=false).
func (s *ReconcilerScheduler) Stop() {
	if !s.cfg.Enabled {
		return
	}

	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("reconciler scheduler stopped")
		return
	}

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("reconciler scheduler stopped")
}

func (s *ReconcilerScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.safePass()

	for {
		select {
		case <-ticker.C:
			s.safePass()
		case <-s.stopCh:
			return
		}
	}
}

// safePass wraps a pass with panic recovery so a single iteration panic
// doesn't crash the scheduler goroutine.
func (s *ReconcilerScheduler) safePass() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reconciliation pass panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.service.Pass(ctx); err != nil {
		s.logger.Error("scheduled reconciliation pass failed", "error", err)
	}
}
