package system

import "time"

// Phase defines execution ordering within a single scheduler tick
// (§4.7). Regeneralized from the teacher's ECS tick phases (input/
// update/output/persist/cleanup) to this system's periodic jobs —
// the ordering still matters for the same reason it did there: later
// phases should see the effects of earlier ones within the same tick.
type Phase int

const (
	PhaseInactivity  Phase = iota // 0: expire idle sessions before anything else touches them
	PhaseBeacon                   // 1: emit the ident broadcast
	PhaseAchievement              // 2: consistency-sweep achievement recompute
	PhaseRetention                // 3: prune logs, run backups
)

// System is the interface every scheduled job implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
