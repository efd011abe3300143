package world

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/core/event"
	"github.com/meshbbs/core/internal/store"
)

// maxNoticesPerUser bounds one recipient's pending-notice queue, so an
// offline or otherwise never-draining player can't grow it unbounded.
const maxNoticesPerUser = 64

// Notice is a user-visible message enqueued by an operation as a side
// effect (quest completion, achievement unlock, incoming mail) rather
// than returned directly — the session layer drains the ones addressed
// to its own logged-in user into the outbound stream after the
// triggering operation's own response (§4.4).
type Notice struct {
	Username string
	Text     string
}

// Engine is the immutable handle every handler is given; all mutation
// goes through the async store façade inside a transaction function.
// Engine never holds mutable domain state itself, except for the
// per-recipient notice queues below, which are process-local outbound
// mailboxes rather than domain state.
type Engine struct {
	async  *store.Async
	log    *zap.Logger
	ratios CurrencyRatios

	noticeMu      sync.Mutex
	noticesByUser map[string][]string

	bus *event.Bus
}

// SetEventBus wires the scheduler's event bus so achievement-relevant
// mutations (room visits, quest completion) are emitted for the
// achievement-recompute system to react to immediately, instead of
// only being caught on its next periodic sweep (§4.7). Optional: a nil
// bus (the default) means operations just skip emitting.
func (e *Engine) SetEventBus(b *event.Bus) { e.bus = b }

func (e *Engine) emitRoomVisited(username, roomID string) {
	if e.bus != nil {
		event.Emit(e.bus, event.RoomVisited{Username: username, RoomID: roomID})
	}
}

func (e *Engine) emitQuestCompleted(username, questID string) {
	if e.bus != nil {
		event.Emit(e.bus, event.QuestCompleted{Username: username, QuestID: questID})
	}
}

func NewEngine(async *store.Async, cfg config.WorldConfig, log *zap.Logger) *Engine {
	return &Engine{
		async:         async,
		log:           log,
		ratios:        RatiosFromConfig(cfg),
		noticesByUser: make(map[string][]string),
	}
}

// DrainNotices returns and clears every pending notice addressed to
// username, keyed by recipient rather than by whichever session
// happens to call this next — so a notice from one player's action
// (e.g. SendMail notifying the recipient, not the sender) reaches the
// right session instead of being discarded by the acting player's own
// drain (§4.4).
func (e *Engine) DrainNotices(username string) []string {
	if username == "" {
		return nil
	}
	e.noticeMu.Lock()
	defer e.noticeMu.Unlock()
	out := e.noticesByUser[username]
	delete(e.noticesByUser, username)
	return out
}

func (e *Engine) notify(username, text string) {
	e.noticeMu.Lock()
	defer e.noticeMu.Unlock()
	queue := e.noticesByUser[username]
	if len(queue) >= maxNoticesPerUser {
		e.log.Warn("dropping notice, recipient queue full", zap.String("user", username))
		return
	}
	e.noticesByUser[username] = append(queue, text)
}

func internalErr(cause error) error {
	return &InternalError{CorrelationID: uuid.NewString(), Cause: cause}
}

// getPlayer loads a player inside an in-progress transaction, failing
// with NoSuchPlayer if absent.
func getPlayer(tx *store.Tx, username string) (*Player, error) {
	var p Player
	found, err := tx.Get(BucketPlayers, key(username), &p)
	if err != nil {
		return nil, internalErr(err)
	}
	if !found {
		return nil, domainErr(ErrNoSuchPlayer, "%s", username)
	}
	return &p, nil
}

func putPlayer(tx *store.Tx, p *Player) error {
	if err := tx.Put(BucketPlayers, key(p.Username), p); err != nil {
		return internalErr(err)
	}
	return nil
}

// GetPlayer and PutPlayer expose the player record's canonical
// load/save path to other packages (identity's registration/login)
// that need to read or write a Player inside their own transaction.
func GetPlayer(tx *store.Tx, username string) (*Player, error) { return getPlayer(tx, username) }
func PutPlayer(tx *store.Tx, p *Player) error                  { return putPlayer(tx, p) }

// Key normalizes a username to its canonical, case-insensitive store key.
func Key(username string) string { return key(username) }

func getRoom(tx *store.Tx, id string) (*Room, error) {
	var r Room
	found, err := tx.Get(BucketRooms, id, &r)
	if err != nil {
		return nil, internalErr(err)
	}
	if !found {
		return nil, domainErr(ErrNoSuchRoom, "%s", id)
	}
	return &r, nil
}

// key folds usernames to their case-insensitive lookup form (§3: "unique
// case-insensitive username"), using the same Unicode case-folding the
// teacher reaches for when a protocol field needs a fixed, comparable
// casing rather than Go's locale-aware strings.ToLower.
var usernameCaser = cases.Fold()

func key(username string) string { return lower(username) }

func lower(s string) string { return usernameCaser.String(s) }

// withTx runs fn inside one async store transaction, translating any
// non-domain error into an Internal-class error.
func (e *Engine) withTx(ctx context.Context, fn func(*store.Tx) error) error {
	err := e.async.Transaction(ctx, fn)
	if err == nil {
		return nil
	}
	if _, ok := AsDomainError(err); ok {
		return err
	}
	if _, ok := err.(*InternalError); ok {
		return err
	}
	return internalErr(err)
}

func appendWAL(tx *store.Tx, entry WALEntry) error {
	id := uuid.NewString()
	entry.ID = id
	return tx.Put(BucketWAL, fmt.Sprintf("%020d:%s", entry.At.UnixNano(), id), entry)
}

func appendAudit(tx *store.Tx, entry AuditEntry) error {
	id := uuid.NewString()
	entry.ID = id
	return tx.Put(BucketAudit, fmt.Sprintf("%020d:%s", entry.At.UnixNano(), id), entry)
}

// AppendAudit exposes the append-only security log to other packages
// (identity's role elevation, admin's moderation actions) that need to
// record an event inside a transaction they, not the engine, opened.
func AppendAudit(tx *store.Tx, entry AuditEntry) error { return appendAudit(tx, entry) }

// Backup streams a consistent snapshot of the whole store to w, for
// the admin ADMIN BACKUP verb (§4.8).
func (e *Engine) Backup(ctx context.Context, w io.Writer) error {
	return e.async.Backup(ctx, w)
}
