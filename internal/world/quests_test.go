package world

import "testing"

func TestAcceptQuestRejectsUnmetPrerequisite(t *testing.T) {
	e := newTestEngine(t)
	seedRoom(t, e, Room{ID: "a", Name: "A"})
	seedQuest(t, e, Quest{ID: "q1", Title: "Q1"})
	seedQuest(t, e, Quest{ID: "q2", Title: "Q2", PrerequisiteQuests: []string{"q1"}})
	seedPlayer(t, e, "alice", "a")

	err := e.AcceptQuest(ctx(), "alice", "q2")
	de, ok := AsDomainError(err)
	if !ok || de.Kind != ErrQuestPrerequisite {
		t.Fatalf("expected QuestPrerequisite, got %v", err)
	}
}

func TestAcceptQuestRejectsNonRepeatableAlreadyDone(t *testing.T) {
	e := newTestEngine(t)
	seedRoom(t, e, Room{ID: "a", Name: "A"})
	seedQuest(t, e, Quest{ID: "q1", Title: "Q1"})
	p := seedPlayer(t, e, "alice", "a")
	p.Quests = map[string]*QuestProgress{"q1": {Completed: true}}
	mustPut(t, e, BucketPlayers, key("alice"), p)

	err := e.AcceptQuest(ctx(), "alice", "q1")
	de, ok := AsDomainError(err)
	if !ok || de.Kind != ErrQuestNotAvailable {
		t.Fatalf("expected QuestNotAvailable, got %v", err)
	}
}

func TestCollectItemObjectiveCompletesOnThreshold(t *testing.T) {
	e := newTestEngine(t)
	seedRoom(t, e, Room{ID: "a", Name: "A", Objects: []string{"gem1", "gem2"}})
	seedObject(t, e, Object{ID: "gem1", Name: "gem1", RoomOwner: "a", Takeable: true})
	seedObject(t, e, Object{ID: "gem2", Name: "gem2", RoomOwner: "a", Takeable: true})
	seedQuest(t, e, Quest{
		ID: "gems", Title: "Gem Hunt",
		Objectives: []Objective{{Kind: ObjectiveCollectItem, TargetID: "gem1", Count: 1}},
	})
	seedPlayer(t, e, "alice", "a")
	if err := e.AcceptQuest(ctx(), "alice", "gems"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := e.Take(ctx(), "alice", "gem2"); err != nil {
		t.Fatalf("take gem2: %v", err)
	}
	if loadPlayer(t, e, "alice").Quests["gems"].Completed {
		t.Fatalf("unrelated item should not complete the objective")
	}

	if err := e.Take(ctx(), "alice", "gem1"); err != nil {
		t.Fatalf("take gem1: %v", err)
	}
	if !loadPlayer(t, e, "alice").Quests["gems"].Completed {
		t.Fatalf("expected quest completed after matching item")
	}
}

func TestExamineSequenceResetsOnWrongOrder(t *testing.T) {
	e := newTestEngine(t)
	seedRoom(t, e, Room{ID: "a", Name: "A", Objects: []string{"s1", "s2"}})
	seedObject(t, e, Object{ID: "s1", Name: "first", RoomOwner: "a"})
	seedObject(t, e, Object{ID: "s2", Name: "second", RoomOwner: "a"})
	seedQuest(t, e, Quest{
		ID: "seq", Title: "Sequence",
		Objectives: []Objective{{Kind: ObjectiveExamineSequence, Sequence: []string{"s1", "s2"}, ResetOnErr: true}},
	})
	seedPlayer(t, e, "alice", "a")
	e.AcceptQuest(ctx(), "alice", "seq")

	e.Examine(ctx(), "alice", "second") // out of order: resets
	p := loadPlayer(t, e, "alice")
	if p.Quests["seq"].SequenceNext[0] != 0 {
		t.Fatalf("expected reset to 0, got %d", p.Quests["seq"].SequenceNext[0])
	}

	e.Examine(ctx(), "alice", "first")
	p = loadPlayer(t, e, "alice")
	if p.Quests["seq"].SequenceNext[0] != 1 {
		t.Fatalf("expected advance to 1, got %d", p.Quests["seq"].SequenceNext[0])
	}

	e.Examine(ctx(), "alice", "second")
	p = loadPlayer(t, e, "alice")
	if !p.Quests["seq"].Completed {
		t.Fatalf("expected sequence quest completed")
	}
}

func TestAbandonQuestDropsProgress(t *testing.T) {
	e := newTestEngine(t)
	seedRoom(t, e, Room{ID: "a", Name: "A"})
	seedQuest(t, e, Quest{ID: "q1", Title: "Q1", Objectives: []Objective{{Kind: ObjectiveVisitLocation, TargetID: "b"}}})
	seedPlayer(t, e, "alice", "a")
	e.AcceptQuest(ctx(), "alice", "q1")

	if err := e.AbandonQuest(ctx(), "alice", "q1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, ok := loadPlayer(t, e, "alice").Quests["q1"]; ok {
		t.Fatalf("expected quest progress removed")
	}
}
