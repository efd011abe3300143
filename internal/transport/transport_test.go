package transport

import (
	"testing"
	"time"
)

func TestDuplicateSuppressionWithinWindow(t *testing.T) {
	tr := New(Config{}, zapNop())
	o := Outbound{Dest: 42, Payload: []byte("hello")}
	tr.recordSent(o)
	if !tr.isDuplicate(o) {
		t.Fatal("expected duplicate to be detected within window")
	}
	other := Outbound{Dest: 42, Payload: []byte("different")}
	if tr.isDuplicate(other) {
		t.Fatal("different payload must not be treated as duplicate")
	}
}

func TestDuplicateWindowExpires(t *testing.T) {
	tr := New(Config{}, zapNop())
	o := Outbound{Dest: 7, Payload: []byte("beacon")}
	tr.dupWindow[o.Dest] = dupEntry{payload: string(o.Payload), at: time.Now().Add(-2 * time.Minute)}
	if tr.isDuplicate(o) {
		t.Fatal("duplicate window should have expired")
	}
}

func TestPacingGapAppliesDMToDMGapOnlyBetweenConsecutiveDMs(t *testing.T) {
	cfg := Config{
		MinSendGap:         100 * time.Millisecond,
		PostDMBroadcastGap: 200 * time.Millisecond,
		DMToDMGap:          900 * time.Millisecond,
	}
	if got := cfg.pacingGap(false, true); got != cfg.DMToDMGap {
		t.Fatalf("DM after DM: got %v, want DMToDMGap %v", got, cfg.DMToDMGap)
	}
	if got := cfg.pacingGap(false, false); got != cfg.MinSendGap {
		t.Fatalf("DM after broadcast: got %v, want MinSendGap %v", got, cfg.MinSendGap)
	}
	if got := cfg.pacingGap(true, true); got != cfg.PostDMBroadcastGap {
		t.Fatalf("broadcast after DM: got %v, want PostDMBroadcastGap %v", got, cfg.PostDMBroadcastGap)
	}
	if got := cfg.pacingGap(true, false); got != cfg.MinSendGap {
		t.Fatalf("broadcast after broadcast: got %v, want MinSendGap %v", got, cfg.MinSendGap)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	tr := New(Config{ReopenBackoffMin: time.Millisecond, ReopenBackoffMax: 4 * time.Millisecond}, zapNop())
	done := make(chan struct{})
	go func() {
		tr.backoffSleep(noCancelCtx{})
		tr.backoffSleep(noCancelCtx{})
		tr.backoffSleep(noCancelCtx{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("backoff took too long")
	}
	if tr.backoff > 4*time.Millisecond {
		t.Fatalf("backoff exceeded cap: %v", tr.backoff)
	}
}
