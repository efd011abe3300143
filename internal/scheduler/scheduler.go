// Package scheduler drives the periodic, event-driven jobs described
// in §4.7: the UTC-aligned ident beacon, the session inactivity sweep,
// the achievement-recompute consistency pass, and log/backup
// retention. It is built directly on the teacher's phase-ordered
// Runner and double-buffered event Bus (internal/core/system,
// internal/core/event), generalized from the teacher's ECS tick
// phases to this domain's four housekeeping jobs.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/meshbbs/core/internal/core/system"
	"github.com/meshbbs/core/internal/core/event"
)

// Scheduler owns the Runner, the event bus, and the master ticker
// that advances both once per interval.
type Scheduler struct {
	runner *coresys.Runner
	bus    *event.Bus
	log    *zap.Logger
}

func New(bus *event.Bus, log *zap.Logger) *Scheduler {
	return &Scheduler{runner: coresys.NewRunner(), bus: bus, log: log}
}

// Register adds a system to the runner, ordered by its declared Phase.
func (s *Scheduler) Register(sys coresys.System) { s.runner.Register(sys) }

// Tick swaps the event bus's buffers, delivers the prior tick's
// events to their subscribers, then runs every registered system in
// phase order — mirroring the teacher's "event dispatch is phase 1,
// everything downstream sees this tick's events" ordering, folded into
// a single call since this scheduler has no separate input phase.
func (s *Scheduler) Tick(dt time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
	s.runner.Tick(dt)
}

// Run drives Tick once per interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(interval)
		}
	}
}
