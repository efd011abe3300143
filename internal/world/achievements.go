package world

import "github.com/meshbbs/core/internal/store"

// evaluateAchievements checks the player's cumulative counters against
// every achievement not yet earned and grants any newly met criteria.
// Called after any operation that could move a counter (§4.4
// [EXPANDED]: incremental; the scheduler additionally re-runs this in
// full as a consistency sweep).
func evaluateAchievements(tx *store.Tx, p *Player) ([]string, error) {
	var notices []string
	err := tx.ScanPrefix(BucketAchievements, "", func(key string, value []byte) error {
		var ach Achievement
		if err := unmarshalInto(value, &ach); err != nil {
			return internalErr(err)
		}
		if p.Achievements != nil {
			if _, ok := p.Achievements[ach.ID]; ok {
				return nil
			}
		}
		if !meetsCriterion(p, ach) {
			return nil
		}
		grantAchievement(tx, p, ach.ID, nil)
		notices = append(notices, "Achievement unlocked: "+ach.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notices, nil
}

func meetsCriterion(p *Player, ach Achievement) bool {
	switch ach.Criterion {
	case CriterionRoomsVisited:
		return len(p.RoomsVisited) >= ach.Threshold
	case CriterionFriends:
		return p.FriendsCount >= ach.Threshold
	case CriterionQuestsCompleted:
		return countCompletedQuests(p) >= ach.Threshold
	case CriterionKills, CriterionCustomTag:
		// Kill counters and custom tags are reported by external
		// collaborators (combat "doors"); without one configured there
		// is nothing to compare against, so these never fire here.
		return false
	default:
		return false
	}
}

func countCompletedQuests(p *Player) int {
	n := 0
	for _, q := range p.Quests {
		if q.Completed {
			n++
		}
	}
	return n
}
