package world

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "world.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	for _, b := range AllBuckets {
		if err := s.EnsureBucket(b); err != nil {
			t.Fatalf("ensure bucket %s: %v", b, err)
		}
	}
	async := store.NewAsync(s, 4)
	cfg := config.WorldConfig{
		CurrencyMode:    config.CurrencyDecimal,
		DecimalToCopper: 100,
	}
	return NewEngine(async, cfg, zap.NewNop())
}

func ctx() context.Context { return context.Background() }

func mustPut(t *testing.T, e *Engine, bucket, id string, v any) {
	t.Helper()
	if err := e.async.Put(ctx(), bucket, id, v); err != nil {
		t.Fatalf("seed %s/%s: %v", bucket, id, err)
	}
}

func seedPlayer(t *testing.T, e *Engine, username, room string) *Player {
	t.Helper()
	p := &Player{
		Username:    username,
		Role:        RoleUser,
		CurrentRoom: room,
		CreatedAt:   time.Now(),
		CurrencyTag: string(config.CurrencyDecimal),
	}
	mustPut(t, e, BucketPlayers, key(username), p)
	return p
}

func seedRoom(t *testing.T, e *Engine, r Room) {
	t.Helper()
	mustPut(t, e, BucketRooms, r.ID, r)
}

func seedObject(t *testing.T, e *Engine, o Object) {
	t.Helper()
	mustPut(t, e, BucketObjects, o.ID, o)
}

func seedNPC(t *testing.T, e *Engine, n NPC) {
	t.Helper()
	mustPut(t, e, BucketNPCs, n.ID, n)
}

func seedQuest(t *testing.T, e *Engine, q Quest) {
	t.Helper()
	mustPut(t, e, BucketQuests, q.ID, q)
}

func seedAchievement(t *testing.T, e *Engine, a Achievement) {
	t.Helper()
	mustPut(t, e, BucketAchievements, a.ID, a)
}

func loadPlayer(t *testing.T, e *Engine, username string) *Player {
	t.Helper()
	var p Player
	found, err := e.async.Get(ctx(), BucketPlayers, key(username), &p)
	if err != nil {
		t.Fatalf("load player %s: %v", username, err)
	}
	if !found {
		t.Fatalf("player %s not found", username)
	}
	return &p
}

func drainNotices(e *Engine, username string) []string {
	return e.DrainNotices(username)
}
