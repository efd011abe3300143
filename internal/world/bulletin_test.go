package world

import "testing"

func TestPostAndListBulletinsPinnedFirst(t *testing.T) {
	e := newTestEngine(t)
	seedPlayer(t, e, "alice", "a")

	if err := e.PostBulletin(ctx(), "alice", "general", "first post", "body1"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := e.PostBulletin(ctx(), "alice", "general", "second post", "body2"); err != nil {
		t.Fatalf("post: %v", err)
	}
	list, err := e.ListBulletins(ctx(), "general")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Title != "second post" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	if err := e.PinBulletin(ctx(), list[1].ID, true); err != nil {
		t.Fatalf("pin: %v", err)
	}
	list, err = e.ListBulletins(ctx(), "general")
	if err != nil {
		t.Fatalf("list after pin: %v", err)
	}
	if !list[0].Pinned {
		t.Fatalf("expected pinned post first, got %+v", list)
	}
}

func TestDeleteBulletinRemovesFromBoard(t *testing.T) {
	e := newTestEngine(t)
	seedPlayer(t, e, "alice", "a")
	e.PostBulletin(ctx(), "alice", "general", "post", "body")
	list, _ := e.ListBulletins(ctx(), "general")

	if err := e.DeleteBulletin(ctx(), "general", list[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	after, err := e.ListBulletins(ctx(), "general")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("expected empty board, got %+v", after)
	}
}

func TestLockBulletinToggles(t *testing.T) {
	e := newTestEngine(t)
	seedPlayer(t, e, "alice", "a")
	e.PostBulletin(ctx(), "alice", "general", "post", "body")
	list, _ := e.ListBulletins(ctx(), "general")

	if err := e.LockBulletin(ctx(), list[0].ID, true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	after, _ := e.ListBulletins(ctx(), "general")
	if !after[0].Locked {
		t.Fatalf("expected locked bulletin")
	}
}
