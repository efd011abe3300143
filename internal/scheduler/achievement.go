package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/core/event"
	coresys "github.com/meshbbs/core/internal/core/system"
	"github.com/meshbbs/core/internal/world"
)

// AchievementSystem keeps achievement state consistent two ways: an
// immediate recompute triggered by the events that actually move a
// counter (RoomVisited/QuestCompleted/FriendAdded — subscribed once,
// at construction), and a periodic full sweep every sweepEvery ticks
// as a self-healing backstop for any player whose counters advanced
// without a matching incremental check (§4.7, §9).
type AchievementSystem struct {
	engine     *world.Engine
	sweepEvery int
	ticks      int
	log        *zap.Logger
}

func NewAchievementSystem(engine *world.Engine, bus *event.Bus, sweepEvery int, log *zap.Logger) *AchievementSystem {
	s := &AchievementSystem{engine: engine, sweepEvery: sweepEvery, log: log}
	recompute := func() {
		if err := engine.RecomputeAllAchievements(context.Background()); err != nil {
			log.Warn("event-triggered achievement recompute failed", zap.Error(err))
		}
	}
	event.Subscribe(bus, func(event.RoomVisited) { recompute() })
	event.Subscribe(bus, func(event.QuestCompleted) { recompute() })
	event.Subscribe(bus, func(event.FriendAdded) { recompute() })
	return s
}

func (s *AchievementSystem) Phase() coresys.Phase { return coresys.PhaseAchievement }

func (s *AchievementSystem) Update(dt time.Duration) {
	s.ticks++
	if s.sweepEvery <= 0 || s.ticks < s.sweepEvery {
		return
	}
	s.ticks = 0
	if err := s.engine.RecomputeAllAchievements(context.Background()); err != nil {
		s.log.Warn("periodic achievement sweep failed", zap.Error(err))
	}
}
