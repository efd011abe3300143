package world

import "testing"

func twoConnectedRooms(t *testing.T, e *Engine) {
	seedRoom(t, e, Room{ID: "a", Name: "A", Exits: map[string]Exit{"north": {Dest: "b"}}})
	seedRoom(t, e, Room{ID: "b", Name: "B", Exits: map[string]Exit{"south": {Dest: "a"}}})
}

func TestMovePlayerFollowsExit(t *testing.T) {
	e := newTestEngine(t)
	twoConnectedRooms(t, e)
	seedPlayer(t, e, "alice", "a")

	if err := e.MovePlayer(ctx(), "alice", "north"); err != nil {
		t.Fatalf("move: %v", err)
	}
	p := loadPlayer(t, e, "alice")
	if p.CurrentRoom != "b" {
		t.Fatalf("expected room b, got %s", p.CurrentRoom)
	}
	if !p.RoomsVisited["b"] {
		t.Fatalf("expected b marked visited")
	}
}

func TestMovePlayerNoSuchExit(t *testing.T) {
	e := newTestEngine(t)
	twoConnectedRooms(t, e)
	seedPlayer(t, e, "alice", "a")

	err := e.MovePlayer(ctx(), "alice", "east")
	de, ok := AsDomainError(err)
	if !ok || de.Kind != ErrNoSuchExit {
		t.Fatalf("expected NoSuchExit, got %v", err)
	}
}

func TestMovePlayerLockedExit(t *testing.T) {
	e := newTestEngine(t)
	seedRoom(t, e, Room{ID: "a", Name: "A", Exits: map[string]Exit{"north": {Dest: "b", Locked: true}}})
	seedRoom(t, e, Room{ID: "b", Name: "B"})
	seedPlayer(t, e, "alice", "a")

	err := e.MovePlayer(ctx(), "alice", "north")
	de, ok := AsDomainError(err)
	if !ok || de.Kind != ErrLocked {
		t.Fatalf("expected Locked, got %v", err)
	}
}

func TestMovePlayerDarkRoomRequiresLight(t *testing.T) {
	e := newTestEngine(t)
	seedRoom(t, e, Room{ID: "a", Name: "A", Exits: map[string]Exit{"north": {Dest: "b"}}})
	seedRoom(t, e, Room{ID: "b", Name: "Cellar", Flags: map[RoomFlag]bool{FlagDark: true}})
	seedPlayer(t, e, "alice", "a")

	if err := e.MovePlayer(ctx(), "alice", "north"); err == nil {
		t.Fatalf("expected MovementRestricted without a light source")
	}

	seedObject(t, e, Object{ID: "torch", Name: "torch", LightSource: true, Takeable: true})
	p := loadPlayer(t, e, "alice")
	p.Inventory = map[string]int{"torch": 1}
	mustPut(t, e, BucketPlayers, key("alice"), p)

	if err := e.MovePlayer(ctx(), "alice", "north"); err != nil {
		t.Fatalf("move with light: %v", err)
	}
}

func TestMovePlayerFiresEnterTriggerAndNotice(t *testing.T) {
	e := newTestEngine(t)
	seedRoom(t, e, Room{ID: "a", Name: "A", Exits: map[string]Exit{"north": {Dest: "b"}}})
	seedRoom(t, e, Room{ID: "b", Name: "B", Objects: []string{"bell"}})
	seedObject(t, e, Object{
		ID: "bell", Name: "bell", RoomOwner: "b",
		Triggers: map[TriggerKind]Action{TriggerOnEnter: {Message: "a bell chimes"}},
	})
	seedPlayer(t, e, "alice", "a")

	if err := e.MovePlayer(ctx(), "alice", "north"); err != nil {
		t.Fatalf("move: %v", err)
	}
	notices := drainNotices(e, "alice")
	found := false
	for _, n := range notices {
		if n == "a bell chimes" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected bell chime notice, got %v", notices)
	}
}
