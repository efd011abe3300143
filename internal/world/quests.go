package world

import (
	"context"
	"time"

	"github.com/meshbbs/core/internal/store"
)

// AcceptQuest starts quest id for the player if its prerequisites are
// met and it is not already active (or is repeatable).
func (e *Engine) AcceptQuest(ctx context.Context, username, questID string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		var q Quest
		found, err := tx.Get(BucketQuests, questID, &q)
		if err != nil {
			return internalErr(err)
		}
		if !found {
			return domainErr(ErrQuestNotAvailable, "%s", questID)
		}
		if existing, ok := p.Quests[questID]; ok && existing.Completed && !q.Repeatable {
			return domainErr(ErrQuestNotAvailable, "%s already completed", questID)
		}
		if existing, ok := p.Quests[questID]; ok && !existing.Completed {
			return domainErr(ErrQuestNotAvailable, "%s already active", questID)
		}
		for _, prereq := range q.PrerequisiteQuests {
			pr, ok := p.Quests[prereq]
			if !ok || !pr.Completed {
				return domainErr(ErrQuestPrerequisite, "%s", prereq)
			}
		}
		if p.Quests == nil {
			p.Quests = map[string]*QuestProgress{}
		}
		progress := &QuestProgress{
			ObjectiveCounts: make([]int, len(q.Objectives)),
			ObjectiveDone:   make([]bool, len(q.Objectives)),
			SequenceNext:    make([]int, len(q.Objectives)),
		}
		p.Quests[questID] = progress
		return putPlayer(tx, p)
	})
}

// AbandonQuest drops in-progress (not completed) quest state.
func (e *Engine) AbandonQuest(ctx context.Context, username, questID string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		progress, ok := p.Quests[questID]
		if !ok {
			return domainErr(ErrQuestNotAvailable, "%s", questID)
		}
		if progress.Completed {
			return domainErr(ErrQuestNotAvailable, "%s already completed", questID)
		}
		delete(p.Quests, questID)
		return putPlayer(tx, p)
	})
}

// evaluateObjective scans every one of the player's active quests and
// advances any objective matching kind/targetID by delta, completing
// the quest (and granting rewards) when all its objectives are done.
// Returns user-visible notice strings for completed quests.
func evaluateObjective(tx *store.Tx, p *Player, kind ObjectiveKind, targetID string, delta int, e *Engine) ([]string, error) {
	var notices []string
	for questID, progress := range p.Quests {
		if progress.Completed {
			continue
		}
		var q Quest
		found, err := tx.Get(BucketQuests, questID, &q)
		if err != nil {
			return nil, internalErr(err)
		}
		if !found {
			continue
		}
		changed := false
		for i, obj := range q.Objectives {
			if obj.Kind != kind || progress.ObjectiveDone[i] {
				continue
			}
			switch kind {
			case ObjectiveTalkToNpc, ObjectiveUseItem, ObjectiveVisitLocation:
				if obj.TargetID != targetID {
					continue
				}
				progress.ObjectiveDone[i] = true
				changed = true
			case ObjectiveCollectItem:
				if obj.TargetID != targetID {
					continue
				}
				progress.ObjectiveCounts[i] += delta
				if progress.ObjectiveCounts[i] >= obj.Count {
					progress.ObjectiveDone[i] = true
				}
				changed = true
			}
		}
		if !changed {
			continue
		}
		if allDone(progress) {
			n, err := completeQuest(tx, p, questID, &q, progress, e)
			if err != nil {
				return nil, err
			}
			notices = append(notices, n)
		}
	}
	return notices, nil
}

// AdvanceExamineSequence implements the sequence-puzzle semantics from
// §4.4: examining the expected object advances the pointer; examining
// any other sequence member resets to zero if reset_on_error; examining
// an unrelated object is a no-op.
func AdvanceExamineSequence(tx *store.Tx, p *Player, objID string, e *Engine) ([]string, error) {
	var notices []string
	for questID, progress := range p.Quests {
		if progress.Completed {
			continue
		}
		var q Quest
		found, err := tx.Get(BucketQuests, questID, &q)
		if err != nil {
			return nil, internalErr(err)
		}
		if !found {
			continue
		}
		for i, obj := range q.Objectives {
			if obj.Kind != ObjectiveExamineSequence || progress.ObjectiveDone[i] {
				continue
			}
			idx := indexOf(obj.Sequence, objID)
			if idx < 0 {
				continue // unrelated object: no-op
			}
			next := progress.SequenceNext[i]
			if idx == next {
				progress.SequenceNext[i]++
				if progress.SequenceNext[i] >= len(obj.Sequence) {
					progress.ObjectiveDone[i] = true
				}
			} else if obj.ResetOnErr {
				progress.SequenceNext[i] = 0
			}
			if allDone(progress) {
				n, err := completeQuest(tx, p, questID, &q, progress, e)
				if err != nil {
					return nil, err
				}
				notices = append(notices, n)
			}
		}
	}
	return notices, nil
}

func indexOf(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}

func allDone(p *QuestProgress) bool {
	for _, d := range p.ObjectiveDone {
		if !d {
			return false
		}
	}
	return true
}

func completeQuest(tx *store.Tx, p *Player, questID string, q *Quest, progress *QuestProgress, e *Engine) (string, error) {
	progress.Completed = true
	progress.CompletedAt = time.Now()
	p.Wallet += q.Reward.Currency
	for _, item := range q.Reward.Items {
		if p.Inventory == nil {
			p.Inventory = map[string]int{}
		}
		p.Inventory[item]++
	}
	for _, unlock := range q.Reward.Unlocks {
		if p.UnlockedTitles == nil {
			p.UnlockedTitles = map[string]bool{}
		}
		p.UnlockedTitles[unlock] = true
	}
	if e != nil {
		e.emitQuestCompleted(p.Username, questID)
	}
	return "Quest complete: " + q.Title, nil
}
