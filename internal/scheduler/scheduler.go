// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs recurring maintenance jobs.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/lapcms/lapcms/internal/service"
)

// Scheduler runs the periodic event log retention job.
type Scheduler struct {
	events        *service.EventService
	retentionDays int
	cron          *cron.Cron
	logger        *slog.Logger
}

// New creates a scheduler pruning audit events older than retentionDays.
func New(events *service.EventService, retentionDays int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		events:        events,
		retentionDays: retentionDays,
		cron:          cron.New(),
		logger:        logger,
	}
}

// Start registers the retention job and begins the cron loop. The job runs
// once shortly after startup and then daily.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("@daily", s.pruneEvents)
	if err != nil {
		return err
	}

	s.cron.Start()
	go s.pruneEvents()

	s.logger.Info("scheduler started",
		"jobs", len(s.cron.Entries()),
		"event_retention_days", s.retentionDays,
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) pruneEvents() {
	deleted, err := s.events.PruneOlderThan(context.Background(), s.retentionDays)
	if err != nil {
		s.logger.Error("failed to prune audit events", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("pruned audit events",
			"deleted", deleted,
			"retention_days", s.retentionDays,
		)
	}
}
