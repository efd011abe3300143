package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/config"
	coresys "github.com/meshbbs/core/internal/core/system"
	"github.com/meshbbs/core/internal/mesh"
)

// Broadcaster is the narrow mesh-session capability the beacon needs:
// composing and sending one message to every bound node. Implemented
// by the wiring layer (cmd/meshbbsd), not this package.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) error
}

// BeaconSystem emits the UTC-aligned "[IDENT] ..." broadcast per
// §4.1/§4.7: at most once per wall-clock minute, only on a boundary
// that is a multiple of the configured cadence.
type BeaconSystem struct {
	cfg      config.IdentBeaconConfig
	bbs      config.BBSConfig
	nodeID   uint32
	bcast    Broadcaster
	lastSent time.Time
	log      *zap.Logger
}

func NewBeaconSystem(cfg config.IdentBeaconConfig, bbs config.BBSConfig, nodeID uint32, bcast Broadcaster, log *zap.Logger) *BeaconSystem {
	return &BeaconSystem{cfg: cfg, bbs: bbs, nodeID: nodeID, bcast: bcast, log: log}
}

func (s *BeaconSystem) Phase() coresys.Phase { return coresys.PhaseBeacon }

func (s *BeaconSystem) Update(dt time.Duration) {
	if !s.cfg.Enabled {
		return
	}
	cadence := s.cfg.Frequency.Duration()
	if cadence <= 0 {
		return
	}
	now := time.Now().UTC()
	minuteMark := now.Truncate(time.Minute)
	if minuteMark.Equal(s.lastSent) {
		return // at most one ident per wall-clock minute
	}
	cadenceMin := int(cadence / time.Minute)
	minutesSinceMidnight := now.Hour()*60 + now.Minute()
	if minutesSinceMidnight%cadenceMin != 0 {
		return
	}

	text := fmt.Sprintf("[IDENT] %s (%s) - %s UTC - Type %sHELP for commands",
		s.bbs.Name, mesh.ShortHex(s.nodeID), now.Format(time.RFC3339), s.bbs.PublicCommandPrefix)
	if err := s.bcast.Broadcast(context.Background(), text); err != nil {
		s.log.Warn("ident beacon broadcast failed", zap.Error(err))
		return
	}
	s.lastSent = minuteMark
}
