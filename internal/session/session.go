package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meshbbs/core/internal/command"
	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/world"
)

const defaultFrameBudget = 200 // §4.5: "≤ 200 bytes of UTF-8 payload"

// Session is one correspondent's FSM instance, keyed by node address
// and, after login, elevated to being keyed by username too (the
// caller/registry owns that keying; Session itself just holds the
// per-correspondent state). Grounded on the teacher's Session struct
// (atomic state, mutex-guarded mutable fields, no locks held across
// awaits) generalized from a TCP client handle to a mesh correspondent.
type Session struct {
	Node uint32

	state atomic.Int32

	mu       sync.Mutex
	username string
	role     world.Role
	lastSeen time.Time
	filter   string
	pages    [][]string
	pageAt   int
	board    string

	registry *command.Registry
	engine   *world.Engine
	limiter  *RateLimiter
	cfg      config.SessionConfig
}

func New(node uint32, reg *command.Registry, engine *world.Engine, cfg config.SessionConfig) *Session {
	s := &Session{
		Node:     node,
		registry: reg,
		engine:   engine,
		limiter:  NewRateLimiter(rateLimit(cfg), time.Minute),
		cfg:      cfg,
	}
	s.state.Store(int32(StateUnauthenticated))
	s.lastSeen = time.Now()
	return s
}

func rateLimit(cfg config.SessionConfig) int {
	if cfg.RateLimitPerMin <= 0 {
		return 10
	}
	return cfg.RateLimitPerMin
}

func (s *Session) State() State { return State(s.state.Load()) }
func (s *Session) setState(st State) { s.state.Store(int32(st)) }

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// IdleSince reports how long the session has gone without input, for
// the inactivity sweep scheduler.
func (s *Session) IdleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.username == "" {
		return Prompt("", 0)
	}
	return Prompt(s.username, int(s.role))
}

// HandleLine processes one line of input and returns the ordered
// frames to send back (already composed with the trailing prompt on
// the final frame), or an empty slice if the message was silently
// rate-limited.
func (s *Session) HandleLine(ctx context.Context, line string, now time.Time) []string {
	if !s.limiter.Allow(s.Node, now) {
		return nil
	}
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()

	if s.State() == StateGoodbye {
		return nil
	}

	reply, frames := s.dispatch(ctx, line)
	if frames != nil {
		return frames
	}
	notices := s.drainNotices()
	body := reply
	for _, n := range notices {
		body += "\n" + n
	}
	return []string{Compose(body, s.prompt(), defaultFrameBudget)}
}

// dispatch applies global FSM navigation (X/QUIT, M, B/U) first, then
// state-specific single-letter mnemonics, then falls through to the
// command registry for verb grammar. It returns either a plain reply
// (to be composed with the prompt by the caller) or, for multi-frame
// responses, a pre-composed frame sequence.
func (s *Session) dispatch(ctx context.Context, line string) (reply string, frames []string) {
	verb, args := command.Tokenize(line)
	if verb == "" {
		return "", nil
	}

	switch verb {
	case "X", "QUIT":
		s.setState(StateGoodbye)
		return "Goodbye.", nil
	case "M":
		s.setState(StateMain)
		return "Main menu.", nil
	case "B", "U":
		s.setState(s.State().parent())
		return "", nil
	}

	if s.State() == StateUnauthenticated || s.State() == StateLoginPrompt {
		return s.dispatchAuth(ctx, verb, args)
	}

	if verb == "LOGOUT" {
		s.mu.Lock()
		s.username = ""
		s.role = 0
		s.mu.Unlock()
		s.setState(StateUnauthenticated)
		return "Logged out.", nil
	}

	if s.State() == StateThreads || s.State() == StateTopics {
		if frame, handled := s.dispatchPagination(verb, args); handled {
			return frame, nil
		}
	}

	if verb == "HELP" || verb == "HELP+" {
		return s.renderHelp(verb == "HELP+"), nil
	}

	req := &command.Request{
		Role: s.role,
		Verb: verb,
		Args: args,
		Node: s.Node,
	}
	if s.username != "" {
		p, err := s.engine.Inventory(ctx, s.username)
		if err != nil {
			return errorText(err), nil
		}
		req.Actor = p
		req.Role = p.Role
	}

	out, err := s.registry.Dispatch(ctx, req)
	if err != nil {
		return errorText(err), nil
	}
	return out, nil
}

func (s *Session) dispatchAuth(ctx context.Context, verb string, args []string) (string, []string) {
	switch verb {
	case "REGISTER", "LOGIN":
		req := &command.Request{Verb: verb, Args: args, Node: s.Node}
		out, err := s.registry.Dispatch(ctx, req)
		if err != nil {
			return errorText(err), nil
		}
		if verb == "LOGIN" && len(args) > 0 {
			s.mu.Lock()
			s.username = args[0]
			p, perr := s.engine.Inventory(ctx, s.username)
			if perr == nil {
				s.role = p.Role
			}
			s.mu.Unlock()
			s.setState(StateMain)
		}
		return out, nil
	default:
		return errorText(world.NewDomainError(world.ErrNotLoggedIn, "LOGIN or REGISTER first")), nil
	}
}

// dispatchPagination handles the digit/L/+/- mnemonics shared by the
// Topics/Threads list states (§4.5: "digits select indexed items...
// L pages forward; F <text> sets a filter").
func (s *Session) dispatchPagination(verb string, args []string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pages) == 0 {
		return "", false
	}
	switch {
	case verb == "L":
		if s.pageAt < len(s.pages)-1 {
			s.pageAt++
		}
		return RenderPage(s.pages[s.pageAt], s.pageAt == len(s.pages)-1), true
	case verb == "+":
		if s.pageAt < len(s.pages)-1 {
			s.pageAt++
		}
		return RenderPage(s.pages[s.pageAt], s.pageAt == len(s.pages)-1), true
	case verb == "-":
		if s.pageAt > 0 {
			s.pageAt--
		}
		return RenderPage(s.pages[s.pageAt], s.pageAt == len(s.pages)-1), true
	case verb == "F":
		s.filter = strings.Join(args, " ")
		return "Filter set.", true
	default:
		// A bare digit selects an indexed item; that selection is
		// context-dependent (which board, which dialogue) so it is left
		// to the caller rather than decided generically here.
		return "", false
	}
}

func (s *Session) renderHelp(full bool) string {
	if !full {
		return "Type HELP+ for the full command list."
	}
	return "LOOK GO TAKE DROP USE EXAMINE INV TALK QUEST MAIL SEND HOUSING WHO TRADE TOPICS POST"
}

func (s *Session) drainNotices() []string {
	if s.username == "" {
		return nil
	}
	return s.engine.DrainNotices(s.username)
}

func errorText(err error) string {
	if de, ok := world.AsDomainError(err); ok {
		return messageFor(de)
	}
	return "Internal error; please retry."
}

// messageFor maps a DomainError's kind through a minimal localized
// message table (§7: "maps domain errors through the world-config's
// localized message table to a single-frame user message").
func messageFor(de *world.DomainError) string {
	switch de.Kind {
	case world.ErrUnknownCommand:
		return "Unknown command."
	case world.ErrBadArgs:
		return "Bad arguments: " + de.Msg
	case world.ErrInvalidUsername:
		return "Invalid username."
	case world.ErrInvalidPassword:
		return "Password must be at least 6 characters."
	case world.ErrNotLoggedIn:
		return "You are not logged in."
	case world.ErrAlreadyLoggedIn:
		return "Already registered or logged in."
	case world.ErrWrongPassword:
		return "Wrong password."
	case world.ErrPermissionDenied:
		return "Permission denied."
	case world.ErrNodeAlreadyBound:
		return "That account is bound to another node; re-authenticate to rebind."
	default:
		return string(de.Kind) + ": " + de.Msg
	}
}
