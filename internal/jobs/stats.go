package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/world-service/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StatsSource reports record counts
type StatsSource interface {
	Stats(ctx context.Context) (*models.StoreStats, error)
}

// StatsReporter periodically logs how many records the store holds
type StatsReporter struct {
	source  StatsSource
	log     *logrus.Logger
	cron    *cron.Cron
	timeout time.Duration
}

// NewStatsReporter schedules the report on a cron spec such as "@every 5m"
// or "0 * * * *"
func NewStatsReporter(source StatsSource, log *logrus.Logger, spec string) (*StatsReporter, error) {
	r := &StatsReporter{
		source:  source,
		log:     log,
		cron:    cron.New(),
		timeout: 30 * time.Second,
	}
	if _, err := r.cron.AddFunc(spec, r.Report); err != nil {
		return nil, fmt.Errorf("invalid stats schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start runs the scheduler in its own goroutine
func (r *StatsReporter) Start() {
	r.cron.Start()
	r.log.Info("Stats reporter started")
}

// Stop halts the scheduler and waits for a running report to finish
func (r *StatsReporter) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("Stats reporter stopped")
}

// Report logs the current counts once
func (r *StatsReporter) Report() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	stats, err := r.source.Stats(ctx)
	if err != nil {
		r.log.WithError(err).Error("Failed to collect store stats")
		return
	}
	r.log.WithFields(logrus.Fields{
		"users":      stats.Users,
		"worlds":     stats.Worlds,
		"characters": stats.Characters,
		"locations":  stats.Locations,
		"events":     stats.Events,
	}).Info("Store stats")
}
