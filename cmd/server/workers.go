package main

import (
	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/internal/infra/jobs"
	"github.com/openvocio/api/pkg/logger"
)

// Workers holds all background worker instances.
type Workers struct {
	JobWorker           *jobs.Worker
	ReconcilerScheduler *app.ReconcilerScheduler
}

// WorkerDeps contains dependencies needed to create workers.
type WorkerDeps struct {
	Config   *config.Config
	Log      *logger.Logger
	Services *Services
}

// NewWorkers initializes all background workers.
func NewWorkers(deps *WorkerDeps) (*Workers, error) {
	cfg := deps.Config
	log := deps.Log
	svc := deps.Services

	w := &Workers{}

	if cfg.Worker.Enabled {
		var err error
		w.JobWorker, err = jobs.NewWorker(jobs.WorkerConfig{
			RedisAddr:     cfg.Redis.Addr(),
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
			Concurrency:   cfg.Worker.Concurrency,
		}, svc.Reconciler, svc.Alert, log)
		if err != nil {
			return nil, err
		}
		log.Info("job worker initialized", "concurrency", cfg.Worker.Concurrency)
	}

	w.ReconcilerScheduler = app.NewReconcilerScheduler(svc.Reconciler, cfg.Reconciler, log)

	return w, nil
}

// Start starts all workers.
func (w *Workers) Start(log *logger.Logger) error {
	if w.JobWorker != nil {
		if err := w.JobWorker.Start(); err != nil {
			return err
		}
	}

	if err := w.ReconcilerScheduler.Start(); err != nil {
		return err
	}

	log.Info("workers started")
	return nil
}

// Stop stops all workers gracefully.
func (w *Workers) Stop(log *logger.Logger) {
	w.ReconcilerScheduler.Stop()

	if w.JobWorker != nil {
		w.JobWorker.Stop()
	}

	log.Info("workers stopped")
}
