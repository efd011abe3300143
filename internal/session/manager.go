package session

import (
	"sync"
	"time"

	"github.com/meshbbs/core/internal/command"
	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/world"
)

// Manager owns the live set of per-node Sessions, keyed by mesh node
// address. One correspondent, one Session, for the lifetime of the
// binding — grounded on the teacher's per-connection session registry
// (internal/net/server.go), generalized from a TCP connection id to a
// mesh node address.
type Manager struct {
	mu  sync.Mutex
	m   map[uint32]*Session

	reg    *command.Registry
	engine *world.Engine
	cfg    config.SessionConfig
}

func NewManager(reg *command.Registry, engine *world.Engine, cfg config.SessionConfig) *Manager {
	return &Manager{
		m:      make(map[uint32]*Session),
		reg:    reg,
		engine: engine,
		cfg:    cfg,
	}
}

// Get returns the existing Session for node, creating one if this is
// its first contact.
func (mgr *Manager) Get(node uint32) *Session {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	s, ok := mgr.m[node]
	if !ok {
		s = New(node, mgr.reg, mgr.engine, mgr.cfg)
		mgr.m[node] = s
	}
	return s
}

// Remove drops node's Session, e.g. once it reaches StateGoodbye or is
// expired by the inactivity sweep.
func (mgr *Manager) Remove(node uint32) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	delete(mgr.m, node)
}

// ExpireIdle drops every Session whose last activity is older than
// idleTimeout as of now, returning the nodes it removed so the caller
// can notify the transport layer if it needs to. This is the
// inactivity-sweep half of §4.7's scheduled jobs.
func (mgr *Manager) ExpireIdle(now time.Time, idleTimeout time.Duration) []uint32 {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	var expired []uint32
	for node, s := range mgr.m {
		if s.IdleSince(now) >= idleTimeout {
			expired = append(expired, node)
			delete(mgr.m, node)
		}
	}
	return expired
}

// Len reports the number of live sessions, for diagnostics.
func (mgr *Manager) Len() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return len(mgr.m)
}
