package scheduler

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/meshbbs/core/internal/core/system"
	"github.com/meshbbs/core/internal/session"
)

// InactivitySystem expires Sessions that have had no traffic for
// longer than idleTimeout, runs first in the tick (Phase 0) so later
// phases (notably achievement recompute) never act on a session the
// sweep is about to drop.
type InactivitySystem struct {
	mgr         *session.Manager
	idleTimeout time.Duration
	log         *zap.Logger
}

func NewInactivitySystem(mgr *session.Manager, idleTimeout time.Duration, log *zap.Logger) *InactivitySystem {
	return &InactivitySystem{mgr: mgr, idleTimeout: idleTimeout, log: log}
}

func (s *InactivitySystem) Phase() coresys.Phase { return coresys.PhaseInactivity }

func (s *InactivitySystem) Update(dt time.Duration) {
	expired := s.mgr.ExpireIdle(time.Now(), s.idleTimeout)
	for _, node := range expired {
		s.log.Info("expired idle session", zap.Uint32("node", node))
	}
}
