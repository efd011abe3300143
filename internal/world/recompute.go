package world

import (
	"context"

	"github.com/meshbbs/core/internal/store"
)

// RecomputeAllAchievements re-runs evaluateAchievements for every
// player as a full consistency sweep, independent of the incremental
// checks already performed inline by MovePlayer/completeQuest/etc.
// Intended for the scheduler's periodic achievement-recompute job
// (§4.7) to self-heal any player whose counters advanced without a
// matching incremental check ever running (e.g. a field added to an
// existing save via a config/content update).
func (e *Engine) RecomputeAllAchievements(ctx context.Context) error {
	var notices []Notice
	err := e.withTx(ctx, func(tx *store.Tx) error {
		return tx.ScanPrefix(BucketPlayers, "", func(key string, value []byte) error {
			var p Player
			if err := unmarshalInto(value, &p); err != nil {
				return internalErr(err)
			}
			gained, err := evaluateAchievements(tx, &p)
			if err != nil {
				return err
			}
			if len(gained) == 0 {
				return nil
			}
			if err := putPlayer(tx, &p); err != nil {
				return err
			}
			for _, n := range gained {
				notices = append(notices, Notice{Username: p.Username, Text: n})
			}
			return nil
		})
	})
	for _, n := range notices {
		e.notify(n.Username, n.Text)
	}
	return err
}
