package session

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/command"
	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/identity"
	"github.com/meshbbs/core/internal/store"
	"github.com/meshbbs/core/internal/world"
)

func newTestSession(t *testing.T) (*Session, *world.Engine) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "session.db"), zap.NewNop())
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

	reg := command.NewRegistry(zap.NewNop())
	command.RegisterIdentityVerbs(reg, idSvc)
	command.RegisterWorldVerbs(reg, engine)

	if err := s.Transaction(func(tx *store.Tx) error {
		return tx.Put(world.BucketRooms, "lobby", world.Room{ID: "lobby", Name: "Lobby", Description: "A bare room."})
	}); err != nil {
		t.Fatalf("seed room: %v", err)
	}

	sess := New(7, reg, engine, config.SessionConfig{RateLimitPerMin: 10})
	return sess, engine
}

func TestSessionRegisterThenLoginTransitionsToMain(t *testing.T) {
	sess, _ := newTestSession(t)
	now := time.Now()

	frames := sess.HandleLine(context.Background(), "REGISTER alice hunter22", now)
	if len(frames) != 1 || strings.Contains(frames[0], "error") {
		t.Fatalf("unexpected register frames: %v", frames)
	}
	if sess.State() != StateUnauthenticated {
		t.Fatalf("expected still Unauthenticated after REGISTER, got %v", sess.State())
	}

	frames = sess.HandleLine(context.Background(), "LOGIN alice hunter22", now)
	if len(frames) != 1 {
		t.Fatalf("unexpected login frames: %v", frames)
	}
	if sess.State() != StateMain {
		t.Fatalf("expected Main after LOGIN, got %v", sess.State())
	}
	if sess.Username() != "alice" {
		t.Fatalf("expected username alice, got %q", sess.Username())
	}
}

func TestSessionRejectsWorldVerbsBeforeLogin(t *testing.T) {
	sess, _ := newTestSession(t)
	frames := sess.HandleLine(context.Background(), "LOOK", time.Now())
	if len(frames) != 1 || !strings.Contains(frames[0], "not logged in") {
		t.Fatalf("expected NotLoggedIn message, got %v", frames)
	}
}

func TestSessionLookAfterLoginReturnsRoomDescription(t *testing.T) {
	sess, _ := newTestSession(t)
	now := time.Now()
	sess.HandleLine(context.Background(), "REGISTER bob hunter22", now)
	sess.HandleLine(context.Background(), "LOGIN bob hunter22", now)

	frames := sess.HandleLine(context.Background(), "LOOK", now)
	if len(frames) != 1 || !strings.Contains(frames[0], "Lobby") {
		t.Fatalf("expected room description, got %v", frames)
	}
}

func TestSessionQuitTransitionsToGoodbyeAndIgnoresFurtherInput(t *testing.T) {
	sess, _ := newTestSession(t)
	now := time.Now()
	sess.HandleLine(context.Background(), "REGISTER carol hunter22", now)
	sess.HandleLine(context.Background(), "LOGIN carol hunter22", now)

	frames := sess.HandleLine(context.Background(), "QUIT", now)
	if len(frames) != 1 || !strings.Contains(frames[0], "Goodbye") {
		t.Fatalf("expected goodbye frame, got %v", frames)
	}
	if sess.State() != StateGoodbye {
		t.Fatalf("expected Goodbye state, got %v", sess.State())
	}
	if frames := sess.HandleLine(context.Background(), "LOOK", now); frames != nil {
		t.Fatalf("expected no frames once in Goodbye, got %v", frames)
	}
}

func TestSessionRateLimitsSilently(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.limiter = NewRateLimiter(1, time.Minute)
	now := time.Now()

	frames := sess.HandleLine(context.Background(), "REGISTER dave hunter22", now)
	if len(frames) != 1 {
		t.Fatalf("expected first message allowed, got %v", frames)
	}
	frames = sess.HandleLine(context.Background(), "LOGIN dave hunter22", now)
	if frames != nil {
		t.Fatalf("expected second message this minute to be dropped, got %v", frames)
	}
}
