// Package transport owns the serial link to the radio node: a reader
// goroutine that turns bytes into decoded frames, and a writer goroutine
// that drains an outbound queue honoring the mesh's pacing rules.
package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/frame"
)

// Outbound is one queued frame payload destined for a specific node
// address (DestBroadcast for the broadcast channel).
type Outbound struct {
	Dest    uint32
	Payload []byte
}

const DestBroadcast uint32 = 0

// Config controls pacing and reconnect behavior. Durations are the
// minimum gaps enforced by the writer loop.
type Config struct {
	Port               string
	BaudRate           int
	RequireCRC         bool
	MinSendGap         time.Duration
	PostDMBroadcastGap time.Duration
	DMToDMGap          time.Duration
	ReopenBackoffMin   time.Duration
	ReopenBackoffMax   time.Duration
}

// Transport owns the exclusive serial port handle and runs the reader
// and writer tasks. Inbound decoded payloads are delivered on Inbound();
// callers queue outbound payloads via Send().
type Transport struct {
	cfg Config
	log *zap.Logger

	mu   sync.Mutex // guards port across reader/writer goroutines
	port serial.Port

	inbound  chan []byte
	outbound chan Outbound

	lastSentAny time.Time
	lastWasDM   bool
	dupWindow   map[uint32]dupEntry

	backoff time.Duration // current reopen backoff, grows on repeated failure
}

type dupEntry struct {
	payload string
	at      time.Time
}

func New(cfg Config, log *zap.Logger) *Transport {
	return &Transport{
		cfg:       cfg,
		log:       log,
		inbound:   make(chan []byte, 64),
		outbound:  make(chan Outbound, 64),
		dupWindow: make(map[uint32]dupEntry),
	}
}

// Inbound returns the channel of decoded frame payloads read from the
// radio. Never closed while Run is active.
func (t *Transport) Inbound() <-chan []byte { return t.inbound }

// Send enqueues an outbound frame. Non-blocking: if the outbound queue
// is full, it returns false so the caller can surface a Busy error.
func (t *Transport) Send(o Outbound) bool {
	select {
	case t.outbound <- o:
		return true
	default:
		return false
	}
}

// Run opens the serial port and drives the reader and writer loops
// until ctx is cancelled. On a read error it re-opens the port with
// exponential backoff; on a write error it retries the frame once
// before dropping it.
func (t *Transport) Run(ctx context.Context) error {
	for {
		if err := t.openAndServe(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			t.log.Error("transport link failed, will reopen", zap.Error(err))
		}
		if ctx.Err() != nil {
			return nil
		}
		if !t.backoffSleep(ctx) {
			return nil
		}
	}
}

// backoffSleep waits the current backoff duration, then doubles it
// (capped at ReopenBackoffMax) for the next failure.
func (t *Transport) backoffSleep(ctx context.Context) bool {
	min := t.cfg.ReopenBackoffMin
	if min <= 0 {
		min = time.Second
	}
	max := t.cfg.ReopenBackoffMax
	if max <= 0 {
		max = 30 * time.Second
	}
	if t.backoff < min {
		t.backoff = min
	}

	select {
	case <-time.After(t.backoff):
	case <-ctx.Done():
		return false
	}

	t.backoff *= 2
	if t.backoff > max {
		t.backoff = max
	}
	return true
}

func (t *Transport) openAndServe(ctx context.Context) error {
	mode := &serial.Mode{BaudRate: t.cfg.BaudRate}
	port, err := serial.Open(t.cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", t.cfg.Port, err)
	}

	t.mu.Lock()
	t.port = port
	t.mu.Unlock()
	t.backoff = 0 // successful open resets the reopen backoff

	defer func() {
		t.mu.Lock()
		t.port.Close()
		t.port = nil
		t.mu.Unlock()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- t.readLoop(runCtx, port) }()
	go func() { errCh <- t.writeLoop(runCtx, port) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		cancel()
		return err
	}
}

func (t *Transport) readLoop(ctx context.Context, port serial.Port) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		payload, err := frame.ReadFrame(port, t.cfg.RequireCRC)
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		select {
		case t.inbound <- payload:
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *Transport) writeLoop(ctx context.Context, port serial.Port) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-t.outbound:
			if t.isDuplicate(o) {
				t.log.Debug("suppressing duplicate outbound frame", zap.Uint32("dest", o.Dest))
				continue
			}
			t.waitForPacingGap(ctx, o.Dest == DestBroadcast)
			if err := t.writeWithRetry(port, o); err != nil {
				t.log.Error("write failed, dropping frame", zap.Error(err))
			}
			t.recordSent(o)
		}
	}
}

func (t *Transport) writeWithRetry(port serial.Port, o Outbound) error {
	err := frame.WriteFrame(port, o.Payload, t.cfg.RequireCRC)
	if err == nil {
		return nil
	}
	// one retry on transient I/O error, per §4.1
	return frame.WriteFrame(port, o.Payload, t.cfg.RequireCRC)
}

// pacingGap selects the minimum gap that must separate this outbound
// frame from the last one, given whether this frame is a broadcast and
// whether the last frame sent was a DM: the base MinSendGap, widened to
// PostDMBroadcastGap for a broadcast right after a DM, or to DMToDMGap
// for a DM right after another DM — whichever configured gap applies
// and is larger.
func (cfg Config) pacingGap(isBroadcast, lastWasDM bool) time.Duration {
	gap := cfg.MinSendGap
	if isBroadcast && lastWasDM && cfg.PostDMBroadcastGap > gap {
		gap = cfg.PostDMBroadcastGap
	}
	if !isBroadcast && lastWasDM && cfg.DMToDMGap > gap {
		gap = cfg.DMToDMGap
	}
	return gap
}

// waitForPacingGap blocks until the gap selected by pacingGap, measured
// since the last outbound frame, has elapsed.
func (t *Transport) waitForPacingGap(ctx context.Context, isBroadcast bool) {
	gap := t.cfg.pacingGap(isBroadcast, t.lastWasDM)
	if t.lastSentAny.IsZero() {
		return
	}
	wait := gap - time.Since(t.lastSentAny)
	if wait <= 0 {
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func (t *Transport) recordSent(o Outbound) {
	t.lastSentAny = time.Now()
	t.lastWasDM = o.Dest != DestBroadcast
	t.dupWindow[o.Dest] = dupEntry{payload: string(o.Payload), at: t.lastSentAny}
}

// isDuplicate reports whether o's payload matches the last frame sent
// to the same destination within the last minute.
func (t *Transport) isDuplicate(o Outbound) bool {
	prev, ok := t.dupWindow[o.Dest]
	if !ok {
		return false
	}
	if time.Since(prev.at) > time.Minute {
		return false
	}
	return prev.payload == string(o.Payload)
}
