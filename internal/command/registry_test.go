package command

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/world"
)

func TestTokenizeUppercasesVerbOnly(t *testing.T) {
	verb, args := Tokenize("go North")
	if verb != "GO" {
		t.Fatalf("expected GO, got %s", verb)
	}
	if len(args) != 1 || args[0] != "North" {
		t.Fatalf("expected args [North], got %v", args)
	}
}

func TestTokenizeEmptyLine(t *testing.T) {
	verb, args := Tokenize("   ")
	if verb != "" || args != nil {
		t.Fatalf("expected empty verb/args, got %q %v", verb, args)
	}
}

func TestDispatchUnknownVerb(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	_, err := reg.Dispatch(context.Background(), &Request{Verb: "NOPE"})
	de, ok := world.AsDomainError(err)
	if !ok || de.Kind != world.ErrUnknownCommand {
		t.Fatalf("expected UnknownCommand, got %v", err)
	}
}

func TestDispatchEnforcesRoleThreshold(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(world.RoleAdmin, func(ctx context.Context, req *Request) (string, error) {
		return "ok", nil
	}, "BROADCAST")

	_, err := reg.Dispatch(context.Background(), &Request{Verb: "BROADCAST", Role: world.RoleUser})
	de, ok := world.AsDomainError(err)
	if !ok || de.Kind != world.ErrPermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}

	reply, err := reg.Dispatch(context.Background(), &Request{Verb: "BROADCAST", Role: world.RoleAdmin})
	if err != nil || reply != "ok" {
		t.Fatalf("expected ok reply, got %q err=%v", reply, err)
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(world.RoleGuest, func(ctx context.Context, req *Request) (string, error) {
		panic("boom")
	}, "CRASH")

	_, err := reg.Dispatch(context.Background(), &Request{Verb: "CRASH"})
	if err == nil {
		t.Fatal("expected recovered panic to surface as an error")
	}
}

func TestKnownReportsRegisteredVerbsRegardlessOfRole(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(world.RoleSysop, func(ctx context.Context, req *Request) (string, error) {
		return "", nil
	}, "SYSLOG")

	if !reg.Known("SYSLOG") {
		t.Fatal("expected SYSLOG to be known")
	}
	if reg.Known("NOPE") {
		t.Fatal("expected NOPE to be unknown")
	}
}
