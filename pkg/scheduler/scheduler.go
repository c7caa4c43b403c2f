// Package scheduler triggers the engine on a cron cadence, one workspace at
// a time, with a guard so ticks never overlap.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/costlens/costlens/pkg/store"
)

// startupDelay gives the process a moment to finish wiring before the first
// sweep fires.
const startupDelay = 5 * time.Second

// Processor is the per-workspace job entry point.
type Processor interface {
	ProcessWorkspace(ctx context.Context, workspaceID string) error
}

type Scheduler struct {
	store     store.Store
	processor Processor
	log       *slog.Logger
	spec      string

	cron    *cron.Cron
	running atomic.Bool
}

func New(st store.Store, processor Processor, spec string, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:     st,
		processor: processor,
		log:       log,
		spec:      spec,
	}
}

// Start registers the cron entry and fires one delayed tick so a fresh
// deployment produces data without waiting a full interval. Returns after
// scheduling; ticks run on the cron goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.spec, func() { s.Tick(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("[scheduler] started", "spec", s.spec)

	go func() {
		select {
		case <-time.After(startupDelay):
			s.Tick(ctx)
		case <-ctx.Done():
		}
	}()
	return nil
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Tick runs one full sweep over all workspaces. If a previous tick is still
// running it logs and returns without touching storage; exactly one of two
// overlapping invocations proceeds.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Info("[scheduler] previous sweep still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	workspaces, err := s.store.ListWorkspaces(ctx)
	if err != nil {
		s.log.Error("[scheduler] listing workspaces failed", "error", err)
		return
	}
	if len(workspaces) == 0 {
		s.log.Debug("[scheduler] no workspaces to process")
		return
	}

	started := time.Now()
	s.log.Info("[scheduler] sweep started", "workspaces", len(workspaces))

	// Workspaces run sequentially to bound cloud API pressure; a failed
	// workspace never blocks the rest of the sweep.
	for _, ws := range workspaces {
		if ctx.Err() != nil {
			s.log.Warn("[scheduler] sweep cancelled", "workspace", ws.ID)
			return
		}
		if err := s.processor.ProcessWorkspace(ctx, ws.ID); err != nil {
			s.log.Error("[scheduler] workspace job failed", "workspace", ws.ID, "error", err)
		}
	}

	s.log.Info("[scheduler] sweep finished",
		"workspaces", len(workspaces), "elapsed", time.Since(started))
}
