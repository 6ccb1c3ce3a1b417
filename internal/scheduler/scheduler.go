// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

// Package scheduler drives periodic sync cycles. A cron tick lists the
// active sync rows, filters them down to the ones whose frequency is due,
// and fans the cycles out over a bounded worker pool. Workers share no
// mutable state; every row is reconciled independently through the store.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/churchnet/calendar-service/internal/logging"
	"github.com/churchnet/calendar-service/internal/service"
	"github.com/churchnet/calendar-service/pkg/concurrent"
)

// tickSchedule fires every minute, the finest sync granularity (real_time).
// Hourly and daily rows simply come due on later ticks.
const tickSchedule = "* * * * *"

// SyncScheduler runs due sync cycles on a cron cadence.
type SyncScheduler struct {
	syncService *service.SyncService
	pool        *concurrent.WorkerPool
	cron        *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewSyncScheduler creates a scheduler with the given worker bound.
func NewSyncScheduler(syncService *service.SyncService, workerCount int) *SyncScheduler {
	return &SyncScheduler{
		syncService: syncService,
		pool:        concurrent.NewWorkerPool(workerCount),
		cron:        cron.New(),
	}
}

// Start registers the tick and begins scheduling. It returns once the cron
// loop is running; Stop shuts it down.
func (s *SyncScheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(tickSchedule, func() {
		s.tick(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	slog.InfoContext(ctx, "sync scheduler started", "schedule", tickSchedule)
	return nil
}

// Stop halts scheduling and waits for the running tick, if any, to finish.
func (s *SyncScheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	slog.Info("sync scheduler stopped")
}

// tick runs one scheduling pass. Overlapping ticks are skipped rather than
// queued; a slow pass must not pile up duplicate cycles for the same rows.
func (s *SyncScheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		slog.DebugContext(ctx, "previous scheduling pass still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	rows, err := s.syncService.SyncRepository.ListActive(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list sync rows", logging.ErrKey, err)
		return
	}

	now := time.Now().UTC()
	var tasks []func() error
	for _, row := range rows {
		if !service.Due(row, now) {
			continue
		}
		syncUID := row.UID
		tasks = append(tasks, func() error {
			cycleCtx := logging.AppendCtx(ctx, slog.String("sync_uid", syncUID))
			if err := s.syncService.RunCycle(cycleCtx, syncUID); err != nil {
				slog.ErrorContext(cycleCtx, "sync cycle failed", logging.ErrKey, err)
			}
			// Failures are recorded on the row itself; the pass goes on.
			return nil
		})
	}

	if len(tasks) == 0 {
		return
	}
	slog.DebugContext(ctx, "running due sync cycles", "count", len(tasks))
	s.pool.RunAll(ctx, tasks...)
}
