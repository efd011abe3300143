package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/world"
)

// Request is everything a handler needs: who's calling, at what role,
// and the verb's arguments. Actor is nil before login (only the
// registration/login verbs may run with a nil Actor).
type Request struct {
	Actor *world.Player
	Role  world.Role
	Verb  string
	Args  []string
	Node  uint32
}

// HandlerFunc executes one verb and returns the plain-text reply the
// session's UI composer will frame and paginate. The session pointer
// is not passed here (unlike the teacher's net/packet handlers) since
// command handlers only ever touch the world/identity engines, never
// the session FSM itself — that asymmetry is what keeps handlers from
// reentering the dispatcher (§5, "Reentrancy").
type HandlerFunc func(ctx context.Context, req *Request) (string, error)

type entry struct {
	fn      HandlerFunc
	minRole world.Role
}

// Registry maps a verb (and its aliases) to a handler gated by a
// minimum role, following the teacher's packet.Registry shape
// (opcode -> handler, state-gated) generalized to verb -> handler,
// role-gated instead of session-state-gated.
type Registry struct {
	verbs map[string]*entry
	log   *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{verbs: make(map[string]*entry), log: log}
}

// Register binds fn to verb and every alias, requiring the caller's
// role to be at least minRole. Registering the same verb twice
// overwrites the previous binding — callers are expected to register
// once at startup, not dynamically.
func (r *Registry) Register(minRole world.Role, fn HandlerFunc, verbs ...string) {
	e := &entry{fn: fn, minRole: minRole}
	for _, v := range verbs {
		r.verbs[v] = e
	}
}

// Dispatch looks up verb, checks the role threshold, and calls the
// handler with panic recovery so one bad command can't take down the
// correspondent's session (mirrors the teacher's safeCall).
func (r *Registry) Dispatch(ctx context.Context, req *Request) (reply string, err error) {
	e, ok := r.verbs[req.Verb]
	if !ok {
		return "", world.NewDomainError(world.ErrUnknownCommand, "%s", req.Verb)
	}
	if req.Role < e.minRole {
		return "", world.NewDomainError(world.ErrPermissionDenied, "%s requires a higher role", req.Verb)
	}

	defer func() {
		if rec := recover(); rec != nil {
			id := uuid.NewString()
			r.log.Error("command handler panic recovered",
				zap.String("verb", req.Verb),
				zap.String("correlation_id", id),
				zap.Any("panic", rec),
			)
			err = &world.InternalError{CorrelationID: id, Cause: fmt.Errorf("handler panic for verb %s: %v", req.Verb, rec)}
		}
	}()

	return e.fn(ctx, req)
}

// Known reports whether verb has a registered handler, regardless of
// role. The session layer does not call it: Dispatch itself returns
// UnknownCommand or PermissionDenied.
func (r *Registry) Known(verb string) bool {
	_, ok := r.verbs[verb]
	return ok
}
