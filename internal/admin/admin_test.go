package admin

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/command"
	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/identity"
	"github.com/meshbbs/core/internal/store"
	"github.com/meshbbs/core/internal/world"
)

type fakeBroadcaster struct {
	sent []string
}

func (b *fakeBroadcaster) Broadcast(ctx context.Context, text string) error {
	b.sent = append(b.sent, text)
	return nil
}

func newTestAdmin(t *testing.T) (*command.Registry, *world.Engine, *identity.Service, *fakeBroadcaster) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "admin.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	for _, b := range world.AllBuckets {
		if err := s.EnsureBucket(b); err != nil {
			t.Fatalf("ensure bucket %s: %v", b, err)
		}
	}
	async := store.NewAsync(s, 4)
	engine := world.NewEngine(async, config.WorldConfig{CurrencyMode: config.CurrencyDecimal, DecimalToCopper: 100}, zap.NewNop())
	idSvc := identity.NewService(async, config.IdentityConfig{Argon2Time: 1, Argon2MemKB: 8 * 1024, Argon2Threads: 2, Argon2KeyLen: 32})

	if err := idSvc.Register(context.Background(), "root", "hunter222"); err != nil {
		t.Fatalf("register root: %v", err)
	}
	if err := s.Transaction(func(tx *store.Tx) error {
		var p world.Player
		found, err := tx.Get(world.BucketPlayers, world.Key("root"), &p)
		if err != nil || !found {
			t.Fatalf("load root: found=%v err=%v", found, err)
		}
		p.Role = world.RoleSysop
		return tx.Put(world.BucketPlayers, world.Key("root"), p)
	}); err != nil {
		t.Fatalf("promote root: %v", err)
	}

	reg := command.NewRegistry(zap.NewNop())
	bcast := &fakeBroadcaster{}
	RegisterAdminVerbs(reg, engine, idSvc, bcast, config.Defaults().Retention)
	return reg, engine, idSvc, bcast
}

func rootRequest(t *testing.T, e *world.Engine, verb string, args ...string) *command.Request {
	t.Helper()
	p, err := e.Inventory(context.Background(), "root")
	if err != nil {
		t.Fatalf("load root: %v", err)
	}
	return &command.Request{Actor: p, Role: p.Role, Verb: verb, Args: args}
}

func TestBroadcastSendsThroughBroadcaster(t *testing.T) {
	reg, engine, _, bcast := newTestAdmin(t)
	reply, err := reg.Dispatch(context.Background(), rootRequest(t, engine, "BROADCAST", "server", "restarting", "soon"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if reply != "Broadcast sent." {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(bcast.sent) != 1 || bcast.sent[0] != "server restarting soon" {
		t.Fatalf("unexpected broadcast: %v", bcast.sent)
	}
}

func TestPromoteElevatesRole(t *testing.T) {
	reg, engine, idSvc, _ := newTestAdmin(t)
	if err := idSvc.Register(context.Background(), "alice", "hunter222"); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	_, err := reg.Dispatch(context.Background(), rootRequest(t, engine, "PROMOTE", "alice", "moderator"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	p, err := engine.Inventory(context.Background(), "alice")
	if err != nil {
		t.Fatalf("load alice: %v", err)
	}
	if p.Role != world.RoleModerator {
		t.Fatalf("expected alice promoted to moderator, got %v", p.Role)
	}
}

func TestUsersListsEveryAccount(t *testing.T) {
	reg, engine, idSvc, _ := newTestAdmin(t)
	if err := idSvc.Register(context.Background(), "bob", "hunter222"); err != nil {
		t.Fatalf("register bob: %v", err)
	}
	reply, err := reg.Dispatch(context.Background(), rootRequest(t, engine, "USERS"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !containsAll(reply, "root", "bob") {
		t.Fatalf("expected both accounts listed, got %q", reply)
	}
}

func TestModerationVerbsRequireModeratorRole(t *testing.T) {
	reg, engine, idSvc, _ := newTestAdmin(t)
	if err := idSvc.Register(context.Background(), "carol", "hunter222"); err != nil {
		t.Fatalf("register carol: %v", err)
	}
	p, err := engine.Inventory(context.Background(), "carol")
	if err != nil {
		t.Fatalf("load carol: %v", err)
	}
	_, err = reg.Dispatch(context.Background(), &command.Request{Actor: p, Role: p.Role, Verb: "PIN", Args: []string{"x"}})
	de, ok := world.AsDomainError(err)
	if !ok || de.Kind != world.ErrPermissionDenied {
		t.Fatalf("expected PermissionDenied for a plain user, got %v", err)
	}
}

func TestDellogRepliesWithSummary(t *testing.T) {
	reg, engine, _, _ := newTestAdmin(t)
	reply, err := reg.Dispatch(context.Background(), rootRequest(t, engine, "DELLOG"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if reply == "" {
		t.Fatalf("expected a non-empty DELLOG reply")
	}
}

func TestAdminRequiresSubcommand(t *testing.T) {
	reg, engine, _, _ := newTestAdmin(t)
	_, err := reg.Dispatch(context.Background(), rootRequest(t, engine, "ADMIN"))
	de, ok := world.AsDomainError(err)
	if !ok || de.Kind != world.ErrBadArgs {
		t.Fatalf("expected BadArgs for a bare ADMIN, got %v", err)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
